package chunker

import (
	"context"
	"strings"
	"testing"

	"github.com/standardbeagle/codemill/internal/config"
	"github.com/standardbeagle/codemill/internal/types"
)

func textSource(path, content string) *Source {
	return &Source{
		Path:     path,
		Content:  []byte(content),
		Language: "text",
	}
}

func checkCoverage(t *testing.T, src *Source, chunks []types.Chunk) {
	t.Helper()
	covered := make([]bool, len(src.Content))
	for _, c := range chunks {
		if c.StartByte < 0 || c.EndByte > len(src.Content) || c.StartByte > c.EndByte {
			t.Fatalf("chunk range [%d,%d) outside source of %d bytes", c.StartByte, c.EndByte, len(src.Content))
		}
		if c.Content != string(src.Content[c.StartByte:c.EndByte]) {
			t.Fatalf("chunk content does not equal its byte range")
		}
		for i := c.StartByte; i < c.EndByte; i++ {
			covered[i] = true
		}
	}
	for i, b := range src.Content {
		if b == ' ' || b == '\t' || b == '\n' || b == '\r' {
			continue
		}
		if !covered[i] {
			t.Fatalf("non-whitespace byte %d (%q) not covered by any chunk", i, string(b))
		}
	}
}

func TestLineStrategy_WindowsByByteBudget(t *testing.T) {
	cfg := config.Default().Chunking
	cfg.MaxChunkBytes = 64

	var sb strings.Builder
	for i := 0; i < 40; i++ {
		sb.WriteString("line of ordinary length here\n")
	}
	src := textSource("f.txt", sb.String())

	chunks, err := lineStrategy{}.Split(context.Background(), src, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len(c.Content) > cfg.MaxChunkBytes && strings.Count(c.Content, "\n") > 1 {
			t.Errorf("chunk %d over budget with multiple lines: %d bytes", i, len(c.Content))
		}
		if c.Strategy != types.StrategyLine {
			t.Errorf("chunk %d strategy = %s", i, c.Strategy)
		}
	}
	checkCoverage(t, src, chunks)
}

func TestLineStrategy_EmptyInput(t *testing.T) {
	chunks, err := lineStrategy{}.Split(context.Background(), textSource("f.txt", ""), config.Default().Chunking)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 0 {
		t.Errorf("expected no chunks for empty input, got %d", len(chunks))
	}
}

func TestBracketStrategy_BalancedChunks(t *testing.T) {
	cfg := config.Default().Chunking
	cfg.MaxChunkBytes = 80

	var sb strings.Builder
	for i := 0; i < 12; i++ {
		sb.WriteString("void fn")
		sb.WriteByte(byte('a' + i))
		sb.WriteString("(int x) {\n    if (x) {\n        use(x);\n    }\n}\n")
	}
	src := &Source{Path: "f.c", Content: []byte(sb.String()), Language: "c"}

	chunks, err := bracketStrategy{}.Split(context.Background(), src, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if !isBalanced([]byte(c.Content)) {
			t.Errorf("chunk %d is not bracket-balanced:\n%s", i, c.Content)
		}
	}
	checkCoverage(t, src, chunks)
}

func TestBracketStrategy_NeverSplitsInsideBraces(t *testing.T) {
	cfg := config.Default().Chunking
	cfg.MaxChunkBytes = 32

	body := "void big(void) {\n" + strings.Repeat("    call();\n", 30) + "}\n"
	src := &Source{Path: "f.c", Content: []byte(body), Language: "c"}

	chunks, err := bracketStrategy{}.Split(context.Background(), src, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected one chunk for a single unsplittable function, got %d", len(chunks))
	}
	if !isBalanced([]byte(chunks[0].Content)) {
		t.Error("single chunk not balanced")
	}
}

func TestMarkdownStrategy_SplitsOnHeadings(t *testing.T) {
	doc := `# Title

intro paragraph

## Section One

some text

## Section Two

before the fence

` + "```go\nfunc main() {\n}\n```" + `

after the fence

## Section Three

closing text
`
	src := &Source{Path: "doc.md", Content: []byte(doc), Language: "markdown"}
	chunks, err := markdownStrategy{}.Split(context.Background(), src, config.Default().Chunking)
	if err != nil {
		t.Fatal(err)
	}
	// Preamble (# Title + intro) plus three H2 sections.
	if len(chunks) != 4 {
		t.Fatalf("expected 4 chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if c.Kind != "section" {
			t.Errorf("chunk %d kind = %s, want section", i, c.Kind)
		}
	}
	// The fenced block stays whole inside one chunk.
	fenced := 0
	for _, c := range chunks {
		if strings.Contains(c.Content, "```go") {
			if !strings.Contains(c.Content, "func main()") || strings.Count(c.Content, "```") != 2 {
				t.Error("fenced block split across chunks")
			}
			fenced++
		}
	}
	if fenced != 1 {
		t.Errorf("fenced block found in %d chunks, want 1", fenced)
	}
	checkCoverage(t, src, chunks)
}

func TestMarkdownStrategy_HeadingInsideFenceIgnored(t *testing.T) {
	doc := "## Real\n\n```\n# not a heading\n```\n\ntail\n"
	src := &Source{Path: "doc.md", Content: []byte(doc), Language: "markdown"}
	chunks, err := markdownStrategy{}.Split(context.Background(), src, config.Default().Chunking)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
}

func TestUniversalStrategy_BreaksAtBlankLines(t *testing.T) {
	cfg := config.Default().Chunking
	cfg.MaxChunkBytes = 120

	paragraph := strings.Repeat("prose sentence goes on and on. ", 3)
	doc := strings.Repeat(paragraph+"\n\n", 8)
	src := textSource("notes.txt", doc)

	chunks, err := universalStrategy{}.Split(context.Background(), src, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks[:len(chunks)-1] {
		trailing := c.Content[strings.LastIndex(strings.TrimRight(c.Content, "\n"), "\n")+1:]
		if strings.TrimSpace(trailing) != "" && i < len(chunks)-1 {
			// Every cut happens at a blank-line boundary, so the byte
			// right before the next chunk is a newline of a blank line.
			next := chunks[i+1]
			if strings.TrimSpace(string(src.Content[c.EndByte:next.StartByte])) != "" {
				t.Errorf("chunk %d does not end at a paragraph boundary", i)
			}
		}
	}
	checkCoverage(t, src, chunks)
}

func TestXMLStrategy_SplitsTopLevelElements(t *testing.T) {
	doc := `<?xml version="1.0"?>
<catalog>
  <book id="1">
    <title>First</title>
  </book>
  <book id="2">
    <title><![CDATA[Second </fake>]]></title>
  </book>
  <book id="3"/>
</catalog>
`
	src := &Source{Path: "cat.xml", Content: []byte(doc), Language: "xml"}
	chunks, err := xmlStrategy{}.Split(context.Background(), src, config.Default().Chunking)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks (one per book), got %d", len(chunks))
	}
	if !strings.Contains(chunks[1].Content, "CDATA") || !strings.Contains(chunks[1].Content, "</fake>") {
		t.Error("CDATA section not kept atomic")
	}
}
