package chunker

import (
	"bytes"
	"context"

	"github.com/standardbeagle/codemill/internal/config"
	"github.com/standardbeagle/codemill/internal/types"
)

// maxHeadingLevel bounds which headings open a new section (H1..H3).
const maxHeadingLevel = 3

// markdownStrategy splits on heading boundaries and keeps fenced code
// blocks atomic. Sections that exceed the budget are split at blank
// lines outside fences here, because the generic rebalance pass cannot
// see fence state.
type markdownStrategy struct{}

func (markdownStrategy) Name() types.StrategyName { return types.StrategyMarkdown }

func (markdownStrategy) Split(ctx context.Context, src *Source, cfg config.Chunking) ([]types.Chunk, error) {
	content := src.Content
	if len(content) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	boundaries := sectionBoundaries(content)
	var chunks []types.Chunk
	for i, start := range boundaries {
		end := len(content)
		if i+1 < len(boundaries) {
			end = boundaries[i+1]
		}
		if len(bytes.TrimSpace(content[start:end])) == 0 {
			continue
		}
		chunks = append(chunks, splitSection(src, cfg, start, end)...)
	}
	return chunks, nil
}

// sectionBoundaries returns the byte offsets where sections begin: 0 and
// every H1..H3 heading line outside fenced blocks.
func sectionBoundaries(content []byte) []int {
	boundaries := []int{0}
	inFence := false
	pos := 0
	for pos < len(content) {
		lineEnd := pos
		for lineEnd < len(content) && content[lineEnd] != '\n' {
			lineEnd++
		}
		line := content[pos:lineEnd]
		trimmed := bytes.TrimLeft(line, " \t")
		if bytes.HasPrefix(trimmed, []byte("```")) || bytes.HasPrefix(trimmed, []byte("~~~")) {
			inFence = !inFence
		} else if !inFence && pos > 0 && headingLevel(line) > 0 {
			boundaries = append(boundaries, pos)
		}
		pos = lineEnd + 1
	}
	return boundaries
}

func headingLevel(line []byte) int {
	level := 0
	for level < len(line) && line[level] == '#' {
		level++
	}
	if level == 0 || level > maxHeadingLevel {
		return 0
	}
	if level >= len(line) || (line[level] != ' ' && line[level] != '\t') {
		return 0
	}
	return level
}

// splitSection emits one chunk per section, splitting oversized sections
// at blank lines that are not inside a fence.
func splitSection(src *Source, cfg config.Chunking, start, end int) []types.Chunk {
	if end-start <= cfg.MaxChunkBytes {
		return []types.Chunk{chunkAt(src, start, end, "section", types.StrategyMarkdown)}
	}

	var out []types.Chunk
	segStart := start
	inFence := false
	pos := start
	for pos < end {
		lineEnd := pos
		for lineEnd < end && src.Content[lineEnd] != '\n' {
			lineEnd++
		}
		if lineEnd < end {
			lineEnd++
		}
		line := bytes.TrimSpace(src.Content[pos:minInt(lineEnd, end)])
		if bytes.HasPrefix(line, []byte("```")) || bytes.HasPrefix(line, []byte("~~~")) {
			inFence = !inFence
		}
		blank := len(line) == 0
		if !inFence && blank && pos-segStart >= cfg.MaxChunkBytes {
			c := chunkAt(src, segStart, pos, "section", types.StrategyMarkdown)
			out = append(out, withMeta(c, types.MetaSplit, true))
			segStart = pos
		}
		pos = lineEnd
	}
	if segStart < end {
		c := chunkAt(src, segStart, end, "section", types.StrategyMarkdown)
		if len(out) > 0 {
			c = withMeta(c, types.MetaSplit, true)
		}
		out = append(out, c)
	}
	return out
}
