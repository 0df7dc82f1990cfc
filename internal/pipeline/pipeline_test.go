package pipeline

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/standardbeagle/codemill/internal/config"
	"github.com/standardbeagle/codemill/internal/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestPipeline(t *testing.T, mutate func(*config.Config)) *Pipeline {
	t.Helper()
	cfg := config.Default()
	cfg.Pipeline.WorkerCount = 2
	if mutate != nil {
		mutate(cfg)
	}
	p, err := New(cfg, func() uint64 { return 0 })
	require.NoError(t, err)
	t.Cleanup(p.Close)
	return p
}

func TestPipeline_EmptyFile(t *testing.T) {
	p := newTestPipeline(t, nil)
	result := p.Run(context.Background(), "empty.c", []byte(""), Hints{})

	assert.Empty(t, result.Chunks)
	assert.Empty(t, result.Entities)
	assert.Empty(t, result.Relationships)
	require.Len(t, result.Diagnostics, 1)
	assert.Equal(t, types.SeverityInfo, result.Diagnostics[0].Severity)
	assert.Equal(t, types.StageParse, result.Diagnostics[0].Stage)
	assert.Equal(t, "empty input", result.Diagnostics[0].Message)
}

func TestPipeline_SingleShortCFunction(t *testing.T) {
	source := []byte("int add(int a, int b) { return a + b; }")
	p := newTestPipeline(t, nil)
	result := p.Run(context.Background(), "add.c", source, Hints{})

	require.Len(t, result.Chunks, 1)
	chunk := result.Chunks[0]
	assert.Equal(t, 0, chunk.StartByte)
	assert.Equal(t, len(source), chunk.EndByte)
	assert.Equal(t, "function", chunk.Kind)
	assert.Equal(t, types.StrategyAST, chunk.Strategy)

	require.Len(t, result.Entities, 1)
	entity := result.Entities[0]
	assert.Equal(t, types.EntityFunction, entity.Kind)
	assert.Equal(t, "add", entity.Name)
	assert.Equal(t, 2, entity.Properties["parameterCount"])
	assert.Equal(t, "int", entity.Properties["returnType"])

	assert.Empty(t, result.Relationships)
}

func TestPipeline_CFileWithCall(t *testing.T) {
	source := []byte("int f(){ return g(); }")
	p := newTestPipeline(t, nil)
	result := p.Run(context.Background(), "f.c", source, Hints{})

	require.Len(t, result.Entities, 1)
	f := result.Entities[0]
	assert.Equal(t, "f", f.Name)

	require.Len(t, result.Relationships, 1)
	call := result.Relationships[0]
	assert.Equal(t, types.RelCall, call.Category)
	assert.Equal(t, "function", call.Type)
	assert.Equal(t, f.ID, call.FromNodeID)
	assert.Equal(t, types.UnresolvedID("f.c", "g"), call.ToNodeID)
}

func TestPipeline_LoneClosingBraceNeverSurvives(t *testing.T) {
	// A Go file shaped so naive splitting strands closing braces on
	// their own lines.
	var sb strings.Builder
	sb.WriteString("package demo\n\n")
	for i := 0; i < 30; i++ {
		fmt.Fprintf(&sb, "func fn%d() {\n", i)
		for j := 0; j < 8; j++ {
			fmt.Fprintf(&sb, "\tuse(%d)\n", j)
		}
		sb.WriteString("}\n\n")
	}
	p := newTestPipeline(t, nil)
	result := p.Run(context.Background(), "big.go", []byte(sb.String()), Hints{})

	require.NotEmpty(t, result.Chunks)
	for _, c := range result.Chunks {
		assert.NotEqual(t, "}", strings.TrimSpace(c.Content), "lone closing brace chunk in result")
	}
}

func TestPipeline_MarkdownSectionsWithFence(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("## Alpha\n\n")
	for i := 0; i < 20; i++ {
		sb.WriteString("alpha prose line\n")
	}
	sb.WriteString("\n## Beta\n\nlead-in text\n\n```go\n")
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&sb, "fenced_line_%d()\n", i)
	}
	sb.WriteString("```\n\ntrailing text\n\n## Gamma\n\n")
	for i := 0; i < 20; i++ {
		sb.WriteString("gamma prose line\n")
	}

	p := newTestPipeline(t, nil)
	result := p.Run(context.Background(), "doc.md", []byte(sb.String()), Hints{})

	require.Len(t, result.Chunks, 3, "one chunk per H2 section")
	fenceChunk := result.Chunks[1]
	assert.Contains(t, fenceChunk.Content, "```go")
	assert.Contains(t, fenceChunk.Content, "fenced_line_39()")
	assert.Equal(t, 2, strings.Count(fenceChunk.Content, "```"), "fence split across chunks")
}

func TestPipeline_OversizeDeclaration(t *testing.T) {
	// One ~4000-byte C function plus trailing declarations in a ~5000
	// byte file; maxChunkBytes stays at the default 2048.
	var sb strings.Builder
	sb.WriteString("int big(int v) {\n")
	for sb.Len() < 3900 {
		sb.WriteString("    v += v * 3; v -= 2; v ^= 0x55;\n")
	}
	sb.WriteString("    return v;\n}\n\n")
	for i := 0; sb.Len() < 4900; i++ {
		fmt.Fprintf(&sb, "int filler_variable_%d = %d;\n", i, i)
	}
	source := []byte(sb.String())

	p := newTestPipeline(t, nil)
	result := p.Run(context.Background(), "big.c", source, Hints{})

	var oversize *types.Chunk
	for i := range result.Chunks {
		c := &result.Chunks[i]
		if c.Metadata[types.MetaOversize] == true {
			oversize = c
		}
	}
	require.NotNil(t, oversize, "no oversize chunk emitted")
	assert.Equal(t, types.StrategyAST, oversize.Strategy)
	assert.Greater(t, oversize.EndByte-oversize.StartByte, 2048)
	assert.Nil(t, oversize.Metadata[types.MetaOverlap])

	checkCoverageProperty(t, source, result.Chunks)
}

func checkCoverageProperty(t *testing.T, source []byte, chunks []types.Chunk) {
	t.Helper()
	covered := make([]bool, len(source))
	for _, c := range chunks {
		require.GreaterOrEqual(t, c.StartByte, 0)
		require.LessOrEqual(t, c.EndByte, len(source))
		for i := c.StartByte; i < c.EndByte; i++ {
			covered[i] = true
		}
	}
	for i, b := range source {
		if b == ' ' || b == '\t' || b == '\n' || b == '\r' {
			continue
		}
		if !covered[i] {
			t.Fatalf("non-whitespace byte %d (%q) not covered", i, string(b))
		}
	}
}

func TestPipeline_Determinism(t *testing.T) {
	source := []byte(`package demo

import "fmt"

type Widget struct {
	label string
}

func (w Widget) Show() {
	fmt.Println(w.label)
}

func build(label string) Widget {
	w := Widget{label: label}
	return w
}
`)
	p := newTestPipeline(t, nil)
	first := p.Run(context.Background(), "widget.go", source, Hints{})

	// A second pipeline instance: no shared cache, fresh everything.
	q := newTestPipeline(t, nil)
	second := q.Run(context.Background(), "widget.go", source, Hints{})

	require.True(t, reflect.DeepEqual(first, second),
		"identical input produced different results:\n%#v\nvs\n%#v", first, second)
}

func TestPipeline_CacheHitOnRerun(t *testing.T) {
	source := []byte("int add(int a, int b) { return a + b; }")
	p := newTestPipeline(t, nil)

	first := p.Run(context.Background(), "add.c", source, Hints{})
	second := p.Run(context.Background(), "add.c", source, Hints{})
	require.True(t, reflect.DeepEqual(first, second), "cache hit changed the result")

	stats := p.CacheStats()
	assert.Equal(t, int64(1), stats.Misses)
	assert.GreaterOrEqual(t, stats.Hits, int64(1))
}

func TestPipeline_DedupAndOrderingProperties(t *testing.T) {
	source := []byte(`package demo

func a() { b(); b() }

func b() {}
`)
	p := newTestPipeline(t, nil)
	result := p.Run(context.Background(), "dup.go", source, Hints{})

	seenEntity := map[string]bool{}
	for _, e := range result.Entities {
		assert.False(t, seenEntity[e.ID], "duplicate entity ID %s", e.ID)
		seenEntity[e.ID] = true
		assert.Equal(t, e.Content, string(source[e.Location.StartByte:e.Location.EndByte]),
			"entity content mismatch for %s", e.Name)
	}
	seenRel := map[string]bool{}
	for _, r := range result.Relationships {
		assert.False(t, seenRel[r.ID], "duplicate relationship ID %s", r.ID)
		seenRel[r.ID] = true
	}
	for i := 1; i < len(result.Entities); i++ {
		assert.LessOrEqual(t, result.Entities[i-1].Location.StartByte, result.Entities[i].Location.StartByte,
			"entities out of source order")
	}
	for i := 1; i < len(result.Chunks); i++ {
		assert.LessOrEqual(t, result.Chunks[i-1].StartByte, result.Chunks[i].StartByte,
			"chunks out of source order")
	}
	seenHash := map[uint64]bool{}
	for _, c := range result.Chunks {
		h := types.ChunkHash(c.Content)
		assert.False(t, seenHash[h], "duplicate chunk content")
		seenHash[h] = true
	}
}

func TestPipeline_BinarySkipped(t *testing.T) {
	p := newTestPipeline(t, nil)
	result := p.Run(context.Background(), "blob.bin", []byte{0x00, 0xFF, 0x10, 0x20}, Hints{})

	assert.Empty(t, result.Chunks)
	assert.Empty(t, result.Entities)
	require.NotEmpty(t, result.Diagnostics)
	assert.Equal(t, types.StageDetect, result.Diagnostics[0].Stage)
}

func TestPipeline_NoGrammarFallsBackToText(t *testing.T) {
	// No grammar for plain text: the universal strategy handles it and
	// the result has chunks but no entities.
	source := []byte("just some prose\n\nwith two paragraphs\n")
	p := newTestPipeline(t, nil)
	result := p.Run(context.Background(), "notes.txt", source, Hints{})

	assert.NotEmpty(t, result.Chunks)
	assert.Empty(t, result.Entities)
	assert.Empty(t, result.Relationships)
}

func TestPipeline_LanguageHintOverridesDetection(t *testing.T) {
	source := []byte("int add(int a, int b) { return a + b; }")
	p := newTestPipeline(t, nil)
	result := p.Run(context.Background(), "snippet.data", source, Hints{Language: "c"})

	assert.Equal(t, "c", result.Language)
	require.Len(t, result.Entities, 1)
	assert.Equal(t, "add", result.Entities[0].Name)
}

func TestPipeline_SubmitFutures(t *testing.T) {
	p := newTestPipeline(t, nil)

	var futures []*Future
	for i := 0; i < 20; i++ {
		path := fmt.Sprintf("file%d.go", i)
		content := fmt.Sprintf("package p\n\nfunc f%d() {}\n", i)
		futures = append(futures, p.Submit(path, []byte(content), Hints{}))
	}
	for i, f := range futures {
		result := f.Wait()
		require.NotNil(t, result)
		assert.Equal(t, fmt.Sprintf("file%d.go", i), result.Path)
		assert.NotEmpty(t, result.Chunks, "file %d produced no chunks", i)
	}
}

func TestPipeline_SubmitAfterClose(t *testing.T) {
	cfg := config.Default()
	cfg.Pipeline.WorkerCount = 1
	p, err := New(cfg, func() uint64 { return 0 })
	require.NoError(t, err)
	p.Close()

	result := p.Submit("late.go", []byte("package p\n"), Hints{}).Wait()
	require.NotEmpty(t, result.Diagnostics)
	assert.Equal(t, types.SeverityError, result.Diagnostics[0].Severity)
}

func TestPipeline_GuardDegradationForcesLineStrategy(t *testing.T) {
	// An estimator stuck far above the hard limit keeps the guard in
	// degraded mode: line strategy only, no parsing.
	p, err := New(config.Default(), func() uint64 { return 10 << 30 })
	require.NoError(t, err)
	defer p.Close()

	source := []byte("package p\n\nfunc f() { g() }\n")
	result := p.Run(context.Background(), "p.go", source, Hints{})

	require.NotEmpty(t, result.Chunks)
	for _, c := range result.Chunks {
		assert.Equal(t, types.StrategyLine, c.Strategy, "degraded run used %s", c.Strategy)
	}
	assert.Empty(t, result.Entities, "degraded run should skip parsing")
}

func TestPipeline_IdempotentDigest(t *testing.T) {
	source := []byte("int x = 1;\n")
	p := newTestPipeline(t, nil)
	r1 := p.Run(context.Background(), "x.c", source, Hints{})
	r2 := p.Run(context.Background(), "x.c", source, Hints{})
	assert.Equal(t, r1.Digest, r2.Digest)
	assert.Equal(t, r1.RunID, r2.RunID)
}
