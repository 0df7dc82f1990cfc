package chunker

import (
	"bytes"
	"context"

	"github.com/standardbeagle/codemill/internal/config"
	"github.com/standardbeagle/codemill/internal/types"
)

// universalStrategy handles unstructured text. It accumulates whole
// paragraphs and breaks only at blank-line boundaries once the size
// ceiling is reached.
type universalStrategy struct{}

func (universalStrategy) Name() types.StrategyName { return types.StrategyUniversal }

func (universalStrategy) Split(ctx context.Context, src *Source, cfg config.Chunking) ([]types.Chunk, error) {
	content := src.Content
	if len(bytes.TrimSpace(content)) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var chunks []types.Chunk
	segStart := 0
	pos := 0
	for pos < len(content) {
		lineEnd := pos
		for lineEnd < len(content) && content[lineEnd] != '\n' {
			lineEnd++
		}
		if lineEnd < len(content) {
			lineEnd++
		}
		blank := len(bytes.TrimSpace(content[pos:lineEnd])) == 0
		if blank && pos-segStart >= cfg.MaxChunkBytes {
			chunks = append(chunks, chunkAt(src, segStart, pos, "generic", types.StrategyUniversal))
			segStart = pos
		}
		pos = lineEnd
	}
	if segStart < len(content) {
		chunks = append(chunks, chunkAt(src, segStart, len(content), "generic", types.StrategyUniversal))
	}
	return chunks, nil
}
