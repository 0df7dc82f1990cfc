package astcache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"go.uber.org/goleak"

	"github.com/standardbeagle/codemill/internal/config"
	"github.com/standardbeagle/codemill/internal/parser"
	"github.com/standardbeagle/codemill/internal/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestCache(t *testing.T, budget int64, entries int) *Cache {
	t.Helper()
	c, err := New(config.Cache{ASTCacheBytes: budget, MaxEntries: entries})
	if err != nil {
		t.Fatal(err)
	}
	return c
}

// nilParse stands in for a real parse; entries tolerate nil trees.
func nilParse(context.Context) (*parser.Tree, error) {
	return nil, nil
}

func TestCache_MissThenHit(t *testing.T) {
	c := newTestCache(t, 1<<20, 16)
	digest := types.Digest([]byte("content"))

	e1, err := c.GetOrParse(context.Background(), digest, "go", 7, nilParse)
	if err != nil {
		t.Fatal(err)
	}
	defer e1.Release()

	e2, err := c.GetOrParse(context.Background(), digest, "go", 7, nilParse)
	if err != nil {
		t.Fatal(err)
	}
	defer e2.Release()

	if e1 != e2 {
		t.Error("same key returned different entries")
	}
	stats := c.Stats()
	if stats.Misses != 1 || stats.Hits != 1 {
		t.Errorf("stats = %d hits / %d misses, want 1/1", stats.Hits, stats.Misses)
	}
}

func TestCache_KeyIncludesLanguage(t *testing.T) {
	c := newTestCache(t, 1<<20, 16)
	digest := types.Digest([]byte("content"))

	e1, _ := c.GetOrParse(context.Background(), digest, "c", 7, nilParse)
	defer e1.Release()
	e2, _ := c.GetOrParse(context.Background(), digest, "cpp", 7, nilParse)
	defer e2.Release()

	if e1 == e2 {
		t.Error("different languages shared one entry")
	}
	if c.Stats().Misses != 2 {
		t.Errorf("misses = %d, want 2", c.Stats().Misses)
	}
}

func TestCache_SingleFlight(t *testing.T) {
	c := newTestCache(t, 1<<20, 16)
	digest := types.Digest([]byte("content"))

	var parses atomic.Int32
	gate := make(chan struct{})
	parse := func(context.Context) (*parser.Tree, error) {
		parses.Add(1)
		<-gate
		return nil, nil
	}

	const callers = 8
	var wg sync.WaitGroup
	entries := make([]*Entry, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			e, err := c.GetOrParse(context.Background(), digest, "go", 7, parse)
			if err != nil {
				t.Errorf("caller %d: %v", n, err)
			}
			entries[n] = e
		}(i)
	}
	close(gate)
	wg.Wait()

	if got := parses.Load(); got != 1 {
		t.Errorf("parse ran %d times, want 1 (single-flight)", got)
	}
	for _, e := range entries {
		if e != nil {
			e.Release()
		}
	}
}

func TestCache_ParseErrorSharedWithWaiters(t *testing.T) {
	c := newTestCache(t, 1<<20, 16)
	digest := types.Digest([]byte("bad"))

	wantErr := fmt.Errorf("parser exploded")
	e, err := c.GetOrParse(context.Background(), digest, "go", 3, func(context.Context) (*parser.Tree, error) {
		return nil, wantErr
	})
	if err == nil {
		t.Fatal("expected parse error")
	}
	if e == nil {
		t.Fatal("failed parse should still produce a (nil-tree) entry")
	}
	defer e.Release()
	if e.Tree() != nil {
		t.Error("failed parse cached a tree")
	}
}

func TestCache_ByteBudgetEviction(t *testing.T) {
	// Budget of ~3 entries at 6x factor over 100-byte sources.
	c := newTestCache(t, 1800, 64)
	for i := 0; i < 6; i++ {
		digest := types.Digest([]byte(fmt.Sprintf("file-%d", i)))
		e, err := c.GetOrParse(context.Background(), digest, "go", 100, nilParse)
		if err != nil {
			t.Fatal(err)
		}
		e.Release()
	}
	stats := c.Stats()
	if stats.Evictions == 0 {
		t.Error("no evictions despite exceeding the byte budget")
	}
	if stats.BytesHeld > 1800 {
		t.Errorf("bytes held %d over budget 1800", stats.BytesHeld)
	}
}

func TestCache_EvictHalf(t *testing.T) {
	c := newTestCache(t, 1<<20, 64)
	for i := 0; i < 8; i++ {
		digest := types.Digest([]byte(fmt.Sprintf("file-%d", i)))
		e, _ := c.GetOrParse(context.Background(), digest, "go", 10, nilParse)
		e.Release()
	}
	c.EvictHalf()
	if got := c.Stats().Entries; got != 4 {
		t.Errorf("entries after EvictHalf = %d, want 4", got)
	}
}

func TestEntry_DerivedArtifactsKeyedByPath(t *testing.T) {
	c := newTestCache(t, 1<<20, 16)
	digest := types.Digest([]byte("shared content"))
	e, _ := c.GetOrParse(context.Background(), digest, "go", 14, nilParse)
	defer e.Release()

	chunksA := []types.Chunk{{Path: "a.go", Content: "x"}}
	e.StoreChunks("a.go", chunksA)

	if _, ok := e.Chunks("b.go"); ok {
		t.Error("chunk set leaked across paths")
	}
	got, ok := e.Chunks("a.go")
	if !ok || len(got) != 1 || got[0].Path != "a.go" {
		t.Error("chunk set not returned for its own path")
	}

	e.StoreQueryResult("a.go", "entities.function", 42)
	if _, ok := e.QueryResult("b.go", "entities.function"); ok {
		t.Error("query result leaked across paths")
	}
	if v, ok := e.QueryResult("a.go", "entities.function"); !ok || v.(int) != 42 {
		t.Error("query result not returned for its own path")
	}
}

func TestEntry_DropDerivedKeepsTree(t *testing.T) {
	c := newTestCache(t, 1<<20, 16)
	digest := types.Digest([]byte("content"))
	e, _ := c.GetOrParse(context.Background(), digest, "go", 7, nilParse)
	defer e.Release()

	e.StoreChunks("a.go", []types.Chunk{{Path: "a.go"}})
	c.DropDerived()
	if _, ok := e.Chunks("a.go"); ok {
		t.Error("DropDerived kept the chunk set")
	}
}
