package chunker

import (
	"bytes"
	"context"

	"github.com/standardbeagle/codemill/internal/config"
	"github.com/standardbeagle/codemill/internal/types"
)

// xmlStrategy splits markup at the boundaries of elements one level
// below the document element, respecting tag nesting and keeping CDATA
// sections atomic. The tag walk is a lexical scan, not a conforming XML
// parse; markup in which no element closes one level below the document
// element yields no chunks, and the fallback chain takes over.
type xmlStrategy struct{}

func (xmlStrategy) Name() types.StrategyName { return types.StrategyXML }

type tagEvent struct {
	pos   int // byte offset of '<'
	end   int // offset just past '>'
	name  string
	open  bool
	close bool // self-closing tags are both
}

func (xmlStrategy) Split(ctx context.Context, src *Source, cfg config.Chunking) ([]types.Chunk, error) {
	content := src.Content
	if len(bytes.TrimSpace(content)) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		chunks   []types.Chunk
		depth    int
		segStart = 0
	)

	pos := 0
	for pos < len(content) {
		ev, next := nextTag(content, pos)
		if ev == nil {
			break
		}
		pos = next

		if ev.open && !ev.close {
			depth++
			continue
		}
		if ev.close && !ev.open {
			depth--
			if depth == 1 {
				// A depth-1 element just closed: cut here.
				chunks = append(chunks, chunkAt(src, segStart, ev.end, "section", types.StrategyXML))
				segStart = ev.end
			}
			continue
		}
		// Self-closing element.
		if depth == 1 {
			chunks = append(chunks, chunkAt(src, segStart, ev.end, "section", types.StrategyXML))
			segStart = ev.end
		}
	}

	if len(chunks) == 0 {
		return nil, nil
	}
	if segStart < len(content) {
		last := &chunks[len(chunks)-1]
		last.EndByte = len(content)
		last.Content = string(content[last.StartByte:])
		last.EndLine = src.Lines().lineAt(maxInt(last.StartByte, len(content)-1))
	}
	return chunks, nil
}

// nextTag scans for the next markup event at or after pos, skipping
// comments, CDATA sections, processing instructions and doctypes.
func nextTag(content []byte, pos int) (*tagEvent, int) {
	for {
		lt := bytes.IndexByte(content[pos:], '<')
		if lt < 0 {
			return nil, len(content)
		}
		start := pos + lt
		rest := content[start:]

		switch {
		case bytes.HasPrefix(rest, []byte("<!--")):
			end := bytes.Index(rest, []byte("-->"))
			if end < 0 {
				return nil, len(content)
			}
			pos = start + end + 3
		case bytes.HasPrefix(rest, []byte("<![CDATA[")):
			end := bytes.Index(rest, []byte("]]>"))
			if end < 0 {
				return nil, len(content)
			}
			pos = start + end + 3
		case bytes.HasPrefix(rest, []byte("<?")), bytes.HasPrefix(rest, []byte("<!")):
			gt := bytes.IndexByte(rest, '>')
			if gt < 0 {
				return nil, len(content)
			}
			pos = start + gt + 1
		default:
			gt := bytes.IndexByte(rest, '>')
			if gt < 0 {
				return nil, len(content)
			}
			ev := &tagEvent{pos: start, end: start + gt + 1}
			inner := rest[1:gt]
			if bytes.HasPrefix(inner, []byte("/")) {
				ev.close = true
				ev.name = tagName(inner[1:])
			} else if bytes.HasSuffix(inner, []byte("/")) {
				ev.open, ev.close = true, true
				ev.name = tagName(inner)
			} else {
				ev.open = true
				ev.name = tagName(inner)
			}
			return ev, ev.end
		}
	}
}

func tagName(inner []byte) string {
	end := 0
	for end < len(inner) {
		b := inner[end]
		if b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '/' || b == '>' {
			break
		}
		end++
	}
	return string(inner[:end])
}
