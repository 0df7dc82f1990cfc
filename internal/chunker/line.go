package chunker

import (
	"context"

	"github.com/standardbeagle/codemill/internal/config"
	"github.com/standardbeagle/codemill/internal/types"
)

// lineStrategy is the terminal fallback: a sliding window over lines,
// bounded by the chunk byte budget. It always succeeds on non-empty
// input.
type lineStrategy struct{}

func (lineStrategy) Name() types.StrategyName { return types.StrategyLine }

func (lineStrategy) Split(ctx context.Context, src *Source, cfg config.Chunking) ([]types.Chunk, error) {
	content := src.Content
	if len(content) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var chunks []types.Chunk
	start := 0
	pos := 0
	for pos < len(content) {
		lineEnd := pos
		for lineEnd < len(content) && content[lineEnd] != '\n' {
			lineEnd++
		}
		if lineEnd < len(content) {
			lineEnd++
		}

		// Cut before this line would push the chunk over budget, unless
		// the chunk is still empty (a single line may exceed the budget).
		if lineEnd-start > cfg.MaxChunkBytes && pos > start {
			chunks = append(chunks, chunkAt(src, start, pos, "generic", types.StrategyLine))
			start = pos
		}
		pos = lineEnd
	}
	if start < len(content) {
		chunks = append(chunks, chunkAt(src, start, len(content), "generic", types.StrategyLine))
	}
	return chunks, nil
}
