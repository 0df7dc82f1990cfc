package chunker

import (
	"strings"

	"github.com/standardbeagle/codemill/internal/config"
	"github.com/standardbeagle/codemill/internal/types"
)

// PostProcessor applies the fixed pipeline over raw strategy output:
// balance validation, empty filtering, size rebalancing, deduplication,
// overlap. The order is load-bearing; every step assumes the previous
// step's invariants.
type PostProcessor struct {
	cfg    config.Chunking
	tokens *tokenCounter
}

func NewPostProcessor(cfg config.Chunking) *PostProcessor {
	pp := &PostProcessor{cfg: cfg}
	if cfg.TokenCounts {
		pp.tokens = newTokenCounter()
	}
	return pp
}

// Process runs all post-processing steps and returns the final chunk
// set in ascending start-byte order.
func (pp *PostProcessor) Process(src *Source, chunks []types.Chunk) []types.Chunk {
	if len(chunks) == 0 {
		return chunks
	}
	sortChunks(chunks)
	chunks = pp.validateBalance(src, chunks)
	chunks = pp.filterEmpty(chunks)
	chunks = pp.rebalance(src, chunks)
	chunks = pp.deduplicate(chunks)
	chunks = pp.applyOverlap(src, chunks)
	if pp.tokens != nil {
		for i := range chunks {
			if n, ok := pp.tokens.count(chunks[i].Content); ok {
				chunks[i] = withMeta(chunks[i], types.MetaTokens, n)
			}
		}
	}
	sortChunks(chunks)
	return chunks
}

// validateBalance drops or repairs unbalanced chunks from the balanced
// strategies. A chunk another chunk fully covers is dropped; otherwise
// the end extends line by line until the chunk balances or the file
// ends.
func (pp *PostProcessor) validateBalance(src *Source, chunks []types.Chunk) []types.Chunk {
	// The cover check needs a stable view while the output compacts the
	// same backing array.
	snapshot := append([]types.Chunk(nil), chunks...)
	out := chunks[:0]
	for _, c := range snapshot {
		if c.Strategy != types.StrategyAST && c.Strategy != types.StrategyBracket {
			out = append(out, c)
			continue
		}
		if isBalanced([]byte(c.Content)) {
			out = append(out, c)
			continue
		}
		if coveredByOther(c, snapshot) {
			continue
		}
		out = append(out, expandUntilBalanced(src, c))
	}
	return out
}

func coveredByOther(c types.Chunk, chunks []types.Chunk) bool {
	for _, other := range chunks {
		if other.StartByte == c.StartByte && other.EndByte == c.EndByte {
			continue
		}
		if other.StartByte <= c.StartByte && other.EndByte >= c.EndByte {
			return true
		}
	}
	return false
}

func expandUntilBalanced(src *Source, c types.Chunk) types.Chunk {
	end := c.EndByte
	for end < len(src.Content) {
		next := end
		for next < len(src.Content) && src.Content[next] != '\n' {
			next++
		}
		if next < len(src.Content) {
			next++
		}
		end = next
		if isBalanced(src.Content[c.StartByte:end]) {
			break
		}
	}
	c.EndByte = end
	c.Content = string(src.Content[c.StartByte:end])
	c.EndLine = src.Lines().lineAt(maxInt(c.StartByte, end-1))
	return c
}

// filterEmpty removes chunks with no content worth indexing, including
// the lone-closing-delimiter pathology.
func (pp *PostProcessor) filterEmpty(chunks []types.Chunk) []types.Chunk {
	out := chunks[:0]
	for _, c := range chunks {
		trimmed := strings.TrimSpace(c.Content)
		if trimmed == "" {
			continue
		}
		if len(trimmed) == 1 && strings.ContainsAny(trimmed, ")]}") {
			continue
		}
		out = append(out, c)
	}
	return out
}

// rebalance splits over-budget chunks at the best internal boundary and
// merges adjacent runts of the same kind. Indivisible AST declarations
// (flagged oversize) and markdown sections (already size-bounded by
// their fence-aware strategy) are left alone.
func (pp *PostProcessor) rebalance(src *Source, chunks []types.Chunk) []types.Chunk {
	var split []types.Chunk
	for _, c := range chunks {
		if len(c.Content) <= pp.cfg.MaxChunkBytes || pp.exemptFromSplit(c) {
			split = append(split, c)
			continue
		}
		split = append(split, pp.splitChunk(src, c)...)
	}
	return pp.mergeRunts(src, split)
}

func (pp *PostProcessor) exemptFromSplit(c types.Chunk) bool {
	if hasMeta(c, types.MetaOversize) {
		return true
	}
	return c.Strategy == types.StrategyMarkdown
}

// splitChunk cuts at blank lines first, then statement ends, then plain
// line boundaries.
func (pp *PostProcessor) splitChunk(src *Source, c types.Chunk) []types.Chunk {
	var out []types.Chunk
	rest := c
	for len(rest.Content) > pp.cfg.MaxChunkBytes {
		cut := pp.bestBoundary([]byte(rest.Content))
		if cut <= 0 || cut >= len(rest.Content) {
			// No internal boundary at all (one enormous line): the chunk
			// ships whole, flagged like an indivisible declaration.
			rest = withMeta(rest, types.MetaOversize, true)
			break
		}
		head := chunkAt(src, rest.StartByte, rest.StartByte+cut, rest.Kind, rest.Strategy)
		head = withMeta(head, types.MetaSplit, true)
		out = append(out, head)

		rest = chunkAt(src, rest.StartByte+cut, rest.EndByte, rest.Kind, rest.Strategy)
		rest = withMeta(rest, types.MetaSplit, true)
	}
	out = append(out, rest)
	return out
}

// bestBoundary returns the byte offset of the best cut ≤ MaxChunkBytes:
// the last blank line, else the last statement-ending line, else the
// last line boundary.
func (pp *PostProcessor) bestBoundary(content []byte) int {
	limit := minInt(len(content), pp.cfg.MaxChunkBytes)
	blank, stmt, line := -1, -1, -1

	pos := 0
	for pos < limit {
		lineEnd := pos
		for lineEnd < len(content) && content[lineEnd] != '\n' {
			lineEnd++
		}
		if lineEnd < len(content) {
			lineEnd++
		}
		if lineEnd > limit {
			break
		}
		text := strings.TrimSpace(string(content[pos:lineEnd]))
		if lineEnd < len(content) {
			if text == "" {
				blank = lineEnd
			} else if strings.HasSuffix(text, ";") || strings.HasSuffix(text, "}") {
				stmt = lineEnd
			}
			line = lineEnd
		}
		pos = lineEnd
	}

	switch {
	case blank > 0:
		return blank
	case stmt > 0:
		return stmt
	default:
		return line
	}
}

// mergeRunts joins adjacent chunks that are both under the minimum when
// they share a kind, touch, and fit the budget together.
func (pp *PostProcessor) mergeRunts(src *Source, chunks []types.Chunk) []types.Chunk {
	if len(chunks) < 2 {
		return chunks
	}
	out := make([]types.Chunk, 0, len(chunks))
	out = append(out, chunks[0])
	for _, c := range chunks[1:] {
		last := &out[len(out)-1]
		if len(last.Content) < pp.cfg.MinChunkBytes &&
			len(c.Content) < pp.cfg.MinChunkBytes &&
			last.Kind == c.Kind &&
			last.EndByte == c.StartByte &&
			len(last.Content)+len(c.Content) <= pp.cfg.MaxChunkBytes {
			merged := chunkAt(src, last.StartByte, c.EndByte, last.Kind, last.Strategy)
			if hasMeta(*last, types.MetaSplit) || hasMeta(c, types.MetaSplit) {
				merged = withMeta(merged, types.MetaSplit, true)
			}
			*last = merged
			continue
		}
		out = append(out, c)
	}
	return out
}

// deduplicate removes chunks repeating an earlier content hash and
// chunks whose range is a strict subset of an earlier chunk's.
func (pp *PostProcessor) deduplicate(chunks []types.Chunk) []types.Chunk {
	seen := make(map[uint64]bool, len(chunks))
	out := chunks[:0]
	for _, c := range chunks {
		h := types.ChunkHash(c.Content)
		if seen[h] {
			continue
		}
		subset := false
		for _, kept := range out {
			if kept.StartByte <= c.StartByte && kept.EndByte >= c.EndByte &&
				(kept.EndByte-kept.StartByte) > (c.EndByte-c.StartByte) {
				subset = true
				break
			}
		}
		if subset {
			continue
		}
		seen[h] = true
		out = append(out, c)
	}
	return out
}

// applyOverlap prepends context from the previous chunk onto split
// chunks above the trigger size. AST chunks never receive overlap.
func (pp *PostProcessor) applyOverlap(src *Source, chunks []types.Chunk) []types.Chunk {
	for i := 1; i < len(chunks); i++ {
		c := chunks[i]
		if c.Strategy == types.StrategyAST {
			continue
		}
		if !hasMeta(c, types.MetaSplit) && !pp.cfg.OverlapNonSplit {
			continue
		}
		if len(c.Content) <= pp.cfg.OverlapTriggerBytes {
			continue
		}
		prev := chunks[i-1]
		if prev.EndByte != c.StartByte {
			continue
		}
		ov := minInt(pp.cfg.OverlapBytes, len(c.Content)*3/10)
		ov = minInt(ov, prev.EndByte-prev.StartByte)
		if ov <= 0 {
			continue
		}
		start := c.StartByte - ov
		c.StartByte = start
		c.Content = string(src.Content[start:c.EndByte])
		c.StartLine = src.Lines().lineAt(start)
		c = withMeta(c, types.MetaOverlap, true)
		chunks[i] = c
	}
	return chunks
}
