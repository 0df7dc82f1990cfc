// Package pipeline drives one file through detection, parsing, strategy
// selection, chunk post-processing and entity normalization, and runs
// many files over a bounded worker pool. Everything recoverable is
// recovered here; a file always comes back with at least a diagnostic.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/standardbeagle/codemill/internal/adapter"
	"github.com/standardbeagle/codemill/internal/astcache"
	"github.com/standardbeagle/codemill/internal/cerrors"
	"github.com/standardbeagle/codemill/internal/chunker"
	"github.com/standardbeagle/codemill/internal/config"
	"github.com/standardbeagle/codemill/internal/debug"
	"github.com/standardbeagle/codemill/internal/detect"
	"github.com/standardbeagle/codemill/internal/guard"
	"github.com/standardbeagle/codemill/internal/parser"
	"github.com/standardbeagle/codemill/internal/types"
)

// Hints are optional caller-provided overrides for one submission.
type Hints struct {
	Language string
}

// Pipeline owns the process-wide components: parser registry, cache,
// guard, adapters, strategies. Construct once at startup and share.
type Pipeline struct {
	cfg      *config.Config
	detector *detect.Detector
	registry *parser.Registry
	engine   *parser.Engine
	adapters *adapter.Registry
	cache    *astcache.Cache
	guard    *guard.Guard
	factory  *chunker.Factory
	post     *chunker.PostProcessor
	pool     *pool
}

// New wires a pipeline from configuration. The guard watches the cache
// it is constructed over; tests may pass a custom memory estimator.
func New(cfg *config.Config, estimate guard.MemoryEstimator) (*Pipeline, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cache, err := astcache.New(cfg.Cache)
	if err != nil {
		return nil, err
	}
	p := &Pipeline{
		cfg:      cfg,
		detector: detect.New(),
		registry: parser.NewRegistry(),
		engine:   parser.NewEngine(),
		adapters: adapter.NewRegistry(),
		cache:    cache,
		guard:    guard.New(cfg.Guard, cache, estimate),
		factory:  chunker.NewFactory(),
		post:     chunker.NewPostProcessor(cfg.Chunking),
	}
	p.pool = newPool(cfg.Pipeline, p.process)
	return p, nil
}

// Submit queues one file and returns a future for its result. Submit
// blocks while the input queue is full.
func (p *Pipeline) Submit(path string, content []byte, hints Hints) *Future {
	return p.pool.submit(path, content, hints)
}

// Run processes one file synchronously on the caller's goroutine.
func (p *Pipeline) Run(ctx context.Context, path string, content []byte, hints Hints) *types.PipelineResult {
	return p.process(ctx, path, content, hints)
}

// Close drains the pool and releases cached trees.
func (p *Pipeline) Close() {
	p.pool.close()
	p.cache.Purge()
}

// CacheStats exposes the tree cache counters.
func (p *Pipeline) CacheStats() astcache.Stats {
	return p.cache.Stats()
}

// GuardState exposes the guard snapshot.
func (p *Pipeline) GuardState() guard.State {
	return p.guard.Snapshot()
}

// process is the per-file coordinator sequence.
func (p *Pipeline) process(ctx context.Context, path string, content []byte, hints Hints) *types.PipelineResult {
	digest := types.Digest(content)
	result := &types.PipelineResult{
		// Deterministic per (path, content) so identical reruns produce
		// identical results end to end.
		RunID:         uuid.NewSHA1(uuid.NameSpaceOID, []byte(path+"\x00"+digest)).String(),
		Path:          path,
		Digest:        digest,
		Chunks:        []types.Chunk{},
		Entities:      []types.Entity{},
		Relationships: []types.Relationship{},
		Diagnostics:   []types.Diagnostic{},
	}
	failed := false
	defer func() { p.guard.RecordResult(failed) }()

	ctx, cancel := context.WithTimeout(ctx, p.cfg.Pipeline.PerFileTimeout())
	defer cancel()

	// Guard check comes first: a degraded process does line-only work.
	degraded := p.guard.ShouldUseFallback()

	if len(bytes.TrimSpace(content)) == 0 {
		result.Diagnostics = append(result.Diagnostics, diag(types.SeverityInfo, types.StageParse, "empty input"))
		return result
	}

	det := p.detector.Detect(path, content)
	if hints.Language != "" && !det.IsBinary {
		det.Language = hints.Language
		det.IsCode = true
		det.IsText = false
	}
	result.Language = det.Language

	if det.IsBinary {
		result.Diagnostics = append(result.Diagnostics, diag(types.SeverityInfo, types.StageDetect, "binary file skipped"))
		return result
	}
	if det.Language == "unknown" && !det.IsText {
		result.Diagnostics = append(result.Diagnostics, diag(types.SeverityInfo, types.StageDetect, "unknown language, content not text; skipped"))
		return result
	}
	if det.IsBackup {
		result.Diagnostics = append(result.Diagnostics, diag(types.SeverityInfo, types.StageDetect, "backup artifact"))
	}

	// Parse through the cache when a grammar exists. Parse failure is
	// recoverable: the file continues treeless on the fallback strategies.
	var entry *astcache.Entry
	if !degraded && p.registry.Has(det.Language) {
		var parseErr error
		entry, parseErr = p.cache.GetOrParse(ctx, result.Digest, det.Language, len(content),
			func(ctx context.Context) (tree *parser.Tree, err error) {
				return p.registry.Parse(ctx, det.Language, content)
			})
		if entry != nil {
			defer entry.Release()
		}
		if parseErr != nil {
			if cerrors.IsTimeout(parseErr) {
				failed = true
				result.Diagnostics = append(result.Diagnostics, diag(types.SeverityError, types.StageParse, parseErr.Error()))
				return result
			}
			result.Diagnostics = append(result.Diagnostics, diag(types.SeverityWarn, types.StageParse, parseErr.Error()))
		}
	}

	src := &chunker.Source{
		Path:      path,
		Content:   content,
		Language:  det.Language,
		Detection: det,
	}
	if entry != nil {
		src.Tree = entry.Tree()
	}

	chunks, splitErr := p.split(ctx, src, entry, degraded)
	if splitErr != nil {
		failed = true
		result.Diagnostics = append(result.Diagnostics, diag(types.SeverityError, types.StageSplit, splitErr.Error()))
		return result
	}
	if chunks != nil {
		result.Chunks = chunks
	}
	if len(chunks) == 0 {
		result.Diagnostics = append(result.Diagnostics, diag(types.SeverityWarn, types.StageSplit, "no strategy produced chunks"))
	}

	// Normalization runs only with a tree; chunks without entities are a
	// valid partial result.
	if src.Tree != nil {
		if err := ctx.Err(); err != nil {
			failed = true
			result.Diagnostics = append(result.Diagnostics, diag(types.SeverityError, types.StageNormalize, "timeout before normalization"))
			return result
		}
		entities, relationships, diags := p.extract(ctx, src, entry, result.Digest)
		if entities != nil {
			result.Entities = entities
		}
		if relationships != nil {
			result.Relationships = relationships
		}
		result.Diagnostics = append(result.Diagnostics, diags...)
		for _, d := range diags {
			if d.Severity == types.SeverityError {
				failed = true
			}
		}
	}
	return result
}

// split walks the fallback chain until a strategy yields chunks, then
// post-processes. Only a timeout aborts; strategy failures fall through.
func (p *Pipeline) split(ctx context.Context, src *chunker.Source, entry *astcache.Entry, degraded bool) ([]types.Chunk, error) {
	if entry != nil {
		if cached, ok := entry.Chunks(src.Path); ok {
			debug.LogChunk("chunk cache hit for %s", src.Path)
			return cached, nil
		}
	}

	var chain []chunker.Strategy
	if degraded {
		chain = p.factory.DegradedChain()
	} else {
		chain = p.factory.Select(src.Detection, src.Tree != nil)
	}
	if chain == nil {
		return nil, nil
	}

	var raw []types.Chunk
	for i, strategy := range chain {
		if err := ctx.Err(); err != nil {
			return nil, cerrors.New(cerrors.ErrorTypeTimeout, "split", err)
		}
		chunks, err := trySplit(ctx, strategy, src, p.cfg.Chunking)
		if err != nil {
			if cerrors.IsTimeout(err) {
				return nil, err
			}
			debug.LogChunk("strategy %s failed for %s: %v", strategy.Name(), src.Path, err)
			continue
		}
		if len(chunks) == 0 {
			continue
		}
		if i > 0 {
			debug.LogChunk("fallback strategy %s used for %s", strategy.Name(), src.Path)
		}
		raw = chunks
		break
	}
	if raw == nil {
		return nil, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, cerrors.New(cerrors.ErrorTypeTimeout, "split", err)
	}
	processed := p.post.Process(src, raw)
	if entry != nil {
		entry.StoreChunks(src.Path, processed)
	}
	return processed, nil
}

// trySplit isolates a strategy invocation: a panic inside a strategy is
// a StrategyError, not a crashed worker.
func trySplit(ctx context.Context, strategy chunker.Strategy, src *chunker.Source, cfg config.Chunking) (chunks []types.Chunk, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			chunks = nil
			err = cerrors.New(cerrors.ErrorTypeStrategy, "split",
				fmt.Errorf("strategy %s panicked: %v", strategy.Name(), rec))
		}
	}()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, cerrors.New(cerrors.ErrorTypeTimeout, "split", ctxErr)
	}
	return strategy.Split(ctx, src, cfg)
}

func diag(sev types.Severity, stage types.Stage, msg string) types.Diagnostic {
	return types.Diagnostic{Severity: sev, Stage: stage, Message: msg}
}

func sortEntities(entities []types.Entity) {
	sort.SliceStable(entities, func(i, j int) bool {
		if entities[i].Location.StartByte != entities[j].Location.StartByte {
			return entities[i].Location.StartByte < entities[j].Location.StartByte
		}
		return entities[i].ID < entities[j].ID
	})
}

func sortRelationships(rels []types.Relationship) {
	sort.SliceStable(rels, func(i, j int) bool {
		if rels[i].Location.StartByte != rels[j].Location.StartByte {
			return rels[i].Location.StartByte < rels[j].Location.StartByte
		}
		return rels[i].ID < rels[j].ID
	})
}
