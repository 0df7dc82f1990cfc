// Package chunker turns source files into size-bounded, semantically
// coherent chunks. A factory picks a strategy from the detection result,
// every choice carries a fallback chain, and a post-processor enforces
// the size, balance and dedup invariants on whatever the strategy
// produced.
package chunker

import (
	"context"
	"sort"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/codemill/internal/config"
	"github.com/standardbeagle/codemill/internal/types"
)

// Source is the input to one strategy invocation. Tree is nil when
// parsing failed or the language has no grammar.
type Source struct {
	Path      string
	Content   []byte
	Language  string
	Detection types.Detection
	Tree      *tree_sitter.Tree

	lines *lineIndex
}

// Lines lazily builds the newline offset index shared by strategies.
func (s *Source) Lines() *lineIndex {
	if s.lines == nil {
		s.lines = newLineIndex(s.Content)
	}
	return s.lines
}

// Strategy is one algorithm for cutting a source file into chunks.
// Returning (nil, nil) means the strategy does not apply; the caller
// moves on to the next strategy in the fallback chain.
type Strategy interface {
	Name() types.StrategyName
	Split(ctx context.Context, src *Source, cfg config.Chunking) ([]types.Chunk, error)
}

// chunkAt builds a chunk over [startByte, endByte) of the source.
func chunkAt(src *Source, startByte, endByte int, kind string, strategy types.StrategyName) types.Chunk {
	ix := src.Lines()
	return types.Chunk{
		Content:   string(src.Content[startByte:endByte]),
		Path:      src.Path,
		Language:  src.Language,
		StartByte: startByte,
		EndByte:   endByte,
		StartLine: ix.lineAt(startByte),
		EndLine:   ix.lineAt(maxInt(startByte, endByte-1)),
		Kind:      kind,
		Strategy:  strategy,
	}
}

func withMeta(c types.Chunk, key string, value any) types.Chunk {
	if c.Metadata == nil {
		c.Metadata = make(map[string]any, 2)
	}
	c.Metadata[key] = value
	return c
}

func hasMeta(c types.Chunk, key string) bool {
	if c.Metadata == nil {
		return false
	}
	v, ok := c.Metadata[key]
	if !ok {
		return false
	}
	b, isBool := v.(bool)
	return !isBool || b
}

func sortChunks(chunks []types.Chunk) {
	sort.SliceStable(chunks, func(i, j int) bool {
		if chunks[i].StartByte != chunks[j].StartByte {
			return chunks[i].StartByte < chunks[j].StartByte
		}
		return chunks[i].EndByte < chunks[j].EndByte
	})
}

// lineIndex maps byte offsets to 1-based line numbers.
type lineIndex struct {
	starts []int
}

func newLineIndex(content []byte) *lineIndex {
	starts := make([]int, 1, 64)
	starts[0] = 0
	for i, b := range content {
		if b == '\n' && i+1 < len(content) {
			starts = append(starts, i+1)
		}
	}
	return &lineIndex{starts: starts}
}

func (ix *lineIndex) lineAt(byteOff int) int {
	lo, hi := 0, len(ix.starts)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if ix.starts[mid] <= byteOff {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo + 1
}

// lineStartBefore returns the offset of the start of the line containing
// byteOff.
func (ix *lineIndex) lineStartBefore(byteOff int) int {
	return ix.starts[ix.lineAt(byteOff)-1]
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
