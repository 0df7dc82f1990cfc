package chunker

import (
	"context"

	"github.com/standardbeagle/codemill/internal/config"
	"github.com/standardbeagle/codemill/internal/types"
)

// bracketStrategy splits at line boundaries where the bracket stack is
// empty, so every chunk is balanced by construction. It is the fallback
// for code whose tree is unavailable.
type bracketStrategy struct{}

func (bracketStrategy) Name() types.StrategyName { return types.StrategyBracket }

func (bracketStrategy) Split(ctx context.Context, src *Source, cfg config.Chunking) ([]types.Chunk, error) {
	content := src.Content
	if len(content) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		chunks  []types.Chunk
		scanner balanceScanner
		start   = 0
	)

	pos := 0
	for pos < len(content) {
		lineEnd := pos
		for lineEnd < len(content) && content[lineEnd] != '\n' {
			lineEnd++
		}
		if lineEnd < len(content) {
			lineEnd++ // include the newline
		}

		for i := pos; i < lineEnd; i++ {
			var next byte
			if i+1 < len(content) {
				next = content[i+1]
			}
			scanner.feed(content[i], next)
		}
		// Line comments terminate at the newline just consumed.
		scanner.inLineComment = false
		pos = lineEnd

		if scanner.settled() && pos-start >= cfg.MaxChunkBytes {
			chunks = append(chunks, chunkAt(src, start, pos, "generic", types.StrategyBracket))
			start = pos
		}
	}
	if start < len(content) {
		chunks = append(chunks, chunkAt(src, start, len(content), "generic", types.StrategyBracket))
	}
	return chunks, nil
}
