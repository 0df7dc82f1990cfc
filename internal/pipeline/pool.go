package pipeline

import (
	"context"
	"sync"

	"github.com/standardbeagle/codemill/internal/config"
	"github.com/standardbeagle/codemill/internal/types"
)

// Future is the pending result of one submitted file.
type Future struct {
	done   chan struct{}
	result *types.PipelineResult
}

// Wait blocks until the file finishes and returns its result.
func (f *Future) Wait() *types.PipelineResult {
	<-f.done
	return f.result
}

// Done exposes the completion channel for select loops.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

type task struct {
	path    string
	content []byte
	hints   Hints
	future  *Future
}

// pool runs file tasks over a fixed set of workers with a bounded input
// queue. One file is one task; tasks are independent; submit blocks
// when the queue is full, which is the backpressure contract.
type pool struct {
	queue   chan task
	process func(context.Context, string, []byte, Hints) *types.PipelineResult
	wg      sync.WaitGroup

	// mu orders submits against close: senders hold the read side across
	// the channel send so close never races a send on a closed channel.
	mu     sync.RWMutex
	closed bool
}

func newPool(cfg config.Pipeline, process func(context.Context, string, []byte, Hints) *types.PipelineResult) *pool {
	p := &pool{
		queue:   make(chan task, cfg.QueueSize()),
		process: process,
	}
	for i := 0; i < cfg.WorkerCount; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

func (p *pool) worker() {
	defer p.wg.Done()
	for t := range p.queue {
		t.future.result = p.process(context.Background(), t.path, t.content, t.hints)
		close(t.future.done)
	}
}

func (p *pool) submit(path string, content []byte, hints Hints) *Future {
	f := &Future{done: make(chan struct{})}
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		f.result = &types.PipelineResult{
			Path:          path,
			Chunks:        []types.Chunk{},
			Entities:      []types.Entity{},
			Relationships: []types.Relationship{},
			Diagnostics: []types.Diagnostic{{
				Severity: types.SeverityError,
				Stage:    types.StageDetect,
				Message:  "pipeline closed",
			}},
		}
		close(f.done)
		return f
	}
	p.queue <- task{path: path, content: content, hints: hints, future: f}
	p.mu.RUnlock()
	return f
}

func (p *pool) close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()
	close(p.queue)
	p.wg.Wait()
}
