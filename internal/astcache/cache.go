// Package astcache holds parsed trees and their derived artifacts,
// content-addressed by (digest, language). Entries are LRU-evicted
// against a byte budget, and concurrent parses of the same key collapse
// into a single flight.
package astcache

import (
	"context"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	"golang.org/x/sync/singleflight"

	"github.com/standardbeagle/codemill/internal/config"
	"github.com/standardbeagle/codemill/internal/debug"
	"github.com/standardbeagle/codemill/internal/types"
)

// treeBytesFactor approximates tree memory as a multiple of source size.
const treeBytesFactor = 6

// Entry is one cached (digest, language) slot. The tree is owned by the
// entry; borrowers hold a reference and must Release when done. Query
// results and chunk sets ride along and die with the entry; both are
// keyed by path as well, because IDs and chunk records embed the file
// path while the cache key does not.
type Entry struct {
	key      string
	srcBytes int64
	mu       sync.Mutex
	refs     int
	evicted  bool
	tree     *tree_sitter.Tree
	queryRes map[string]any
	chunkSet map[string][]types.Chunk
}

// Tree returns the parsed tree, or nil when parsing failed for this key.
func (e *Entry) Tree() *tree_sitter.Tree {
	return e.tree
}

// Acquire takes an additional borrow on the entry.
func (e *Entry) Acquire() {
	e.mu.Lock()
	e.refs++
	e.mu.Unlock()
}

// Release drops one borrow. The tree closes once the entry has been
// evicted and the last borrower is gone.
func (e *Entry) Release() {
	e.mu.Lock()
	e.refs--
	closeNow := e.evicted && e.refs <= 0 && e.tree != nil
	var t *tree_sitter.Tree
	if closeNow {
		t = e.tree
		e.tree = nil
	}
	e.mu.Unlock()
	if t != nil {
		t.Close()
	}
}

func (e *Entry) evict() {
	e.mu.Lock()
	e.evicted = true
	closeNow := e.refs <= 0 && e.tree != nil
	var t *tree_sitter.Tree
	if closeNow {
		t = e.tree
		e.tree = nil
	}
	e.queryRes = nil
	e.chunkSet = nil
	e.mu.Unlock()
	if t != nil {
		t.Close()
	}
}

func resultKey(path, name string) string {
	return path + "\x00" + name
}

// QueryResult returns the cached normalization output for a query name
// and path.
func (e *Entry) QueryResult(path, name string) (any, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.queryRes == nil {
		return nil, false
	}
	v, ok := e.queryRes[resultKey(path, name)]
	return v, ok
}

// StoreQueryResult caches the normalization output for a query name and
// path.
func (e *Entry) StoreQueryResult(path, name string, result any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.evicted {
		return
	}
	if e.queryRes == nil {
		e.queryRes = make(map[string]any)
	}
	e.queryRes[resultKey(path, name)] = result
}

// Chunks returns the cached chunk set for this content at path.
func (e *Entry) Chunks(path string) ([]types.Chunk, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.chunkSet == nil {
		return nil, false
	}
	chunks, ok := e.chunkSet[path]
	return chunks, ok
}

// StoreChunks caches the post-processed chunk set for path.
func (e *Entry) StoreChunks(path string, chunks []types.Chunk) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.evicted {
		return
	}
	if e.chunkSet == nil {
		e.chunkSet = make(map[string][]types.Chunk)
	}
	e.chunkSet[path] = chunks
}

// DropDerived clears query results and chunk sets but keeps the tree.
// The guard calls this under memory pressure.
func (e *Entry) DropDerived() {
	e.mu.Lock()
	e.queryRes = nil
	e.chunkSet = nil
	e.mu.Unlock()
}

// Stats is a read-only snapshot of cache counters.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Entries   int
	BytesHeld int64
}

// Cache is the process-wide tree cache. All methods are safe for
// concurrent use.
type Cache struct {
	mu     sync.Mutex
	lru    *lru.Cache[string, *Entry]
	bytes  int64
	budget int64

	group singleflight.Group

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

// New builds a cache bounded by cfg.ASTCacheBytes and cfg.MaxEntries.
func New(cfg config.Cache) (*Cache, error) {
	c := &Cache{budget: cfg.ASTCacheBytes}
	inner, err := lru.NewWithEvict[string, *Entry](cfg.MaxEntries, func(key string, e *Entry) {
		c.evictions.Add(1)
		c.bytes -= e.srcBytes * treeBytesFactor
		e.evict()
		debug.LogCache("evicted %s", key)
	})
	if err != nil {
		return nil, err
	}
	c.lru = inner
	return c, nil
}

// Key combines digest and language into the cache key.
func Key(digest, language string) string {
	return digest + ":" + language
}

// flightToken shares one parse result between concurrent callers. The
// flight itself holds one reference on the entry; the first caller to
// unwrap the token drops it after taking its own.
type flightToken struct {
	entry *Entry
	once  sync.Once
}

// GetOrParse returns the entry for (digest, language), parsing at most
// once per key even under concurrent callers. The returned entry has
// one reference held for the caller; callers must Release. A nil-tree
// entry is cached when parse fails so repeated failures stay cheap; the
// parse error reaches every caller of the failing flight.
func (c *Cache) GetOrParse(ctx context.Context, digest, language string, srcLen int, parse func(context.Context) (*tree_sitter.Tree, error)) (*Entry, error) {
	key := Key(digest, language)

	if e := c.lookup(key); e != nil {
		c.hits.Add(1)
		return e, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		// A racing flight may have populated the key already; lookup
		// leaves its reference as the flight reference.
		if e := c.lookup(key); e != nil {
			c.hits.Add(1)
			return &flightToken{entry: e}, nil
		}
		c.misses.Add(1)

		tree, parseErr := parse(ctx)
		entry := &Entry{key: key, srcBytes: int64(srcLen), tree: tree, refs: 1}
		c.insert(key, entry)
		return &flightToken{entry: entry}, parseErr
	})

	tok := v.(*flightToken)
	tok.entry.Acquire()
	tok.once.Do(tok.entry.Release)
	return tok.entry, err
}

func (c *Cache) lookup(key string) *Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.lru.Get(key)
	if !ok {
		return nil
	}
	e.Acquire()
	return e
}

func (c *Cache) insert(key string, e *Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Add(key, e)
	c.bytes += e.srcBytes * treeBytesFactor
	for c.bytes > c.budget && c.lru.Len() > 1 {
		if _, _, ok := c.lru.RemoveOldest(); !ok {
			break
		}
	}
}

// EvictHalf removes the older half of the cache; the guard invokes this
// as its first memory-pressure response.
func (c *Cache) EvictHalf() {
	c.mu.Lock()
	defer c.mu.Unlock()
	target := c.lru.Len() / 2
	for i := 0; i < target; i++ {
		if _, _, ok := c.lru.RemoveOldest(); !ok {
			break
		}
	}
}

// DropDerived clears query results and chunk sets on every entry while
// keeping trees; the guard's second-stage cleanup.
func (c *Cache) DropDerived() {
	c.mu.Lock()
	keys := c.lru.Keys()
	entries := make([]*Entry, 0, len(keys))
	for _, k := range keys {
		if e, ok := c.lru.Peek(k); ok {
			entries = append(entries, e)
		}
	}
	c.mu.Unlock()
	for _, e := range entries {
		e.DropDerived()
	}
}

// Purge drops every entry.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Purge()
	c.bytes = 0
}

// Stats returns a point-in-time snapshot of the counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	entries := c.lru.Len()
	bytes := c.bytes
	c.mu.Unlock()
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Entries:   entries,
		BytesHeld: bytes,
	}
}
