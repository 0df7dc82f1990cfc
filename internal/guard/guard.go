// Package guard enforces the process-wide memory ceiling and error-rate
// budget. When either budget trips, the pipeline degrades to the line
// strategy until the pressure clears. The guard never fails a caller.
package guard

import (
	"runtime"
	"sync"
	"time"

	"github.com/standardbeagle/codemill/internal/config"
	"github.com/standardbeagle/codemill/internal/debug"
)

// Cleaner is the slice of the AST cache the guard is allowed to shrink.
type Cleaner interface {
	EvictHalf()
	DropDerived()
}

// MemoryEstimator reports current resident bytes. The default reads the
// Go heap; tests substitute a fixed estimator.
type MemoryEstimator func() uint64

func heapEstimator() uint64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return ms.HeapAlloc
}

// minCleanupInterval stops back-to-back cleanup storms when usage
// hovers at the high-water mark.
const minCleanupInterval = 5 * time.Second

// Guard tracks the two rolling budgets. All counters sit behind one
// mutex; per-file overhead is a handful of loads, never an allocation.
type Guard struct {
	cfg      config.Guard
	estimate MemoryEstimator
	cleaner  Cleaner

	mu sync.Mutex
	// Error window: ring of the last cfg.ErrorWindow run outcomes.
	window  []bool
	widx    int
	wcount  int
	werrors int
	// Degraded state.
	memDegraded    bool
	errDegradedFor int
	lastCleanup    time.Time
}

// New builds a guard over the given cache cleaner. A nil estimator uses
// the Go heap size.
func New(cfg config.Guard, cleaner Cleaner, estimate MemoryEstimator) *Guard {
	if estimate == nil {
		estimate = heapEstimator
	}
	return &Guard{
		cfg:      cfg,
		estimate: estimate,
		cleaner:  cleaner,
		window:   make([]bool, cfg.ErrorWindow),
	}
}

// ShouldUseFallback is the single predicate the coordinator consults
// before each file: true means process this file with the line strategy
// only. Calling it also advances the memory state machine.
func (g *Guard) ShouldUseFallback() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.checkMemoryLocked()
	return g.memDegraded || g.errDegradedFor > 0
}

func (g *Guard) checkMemoryLocked() {
	resident := g.estimate()
	highWater := uint64(g.cfg.MemoryHighWaterMB) * 1024 * 1024
	hardLimit := uint64(g.cfg.MemoryHardLimitMB) * 1024 * 1024
	lowWater := uint64(g.cfg.MemoryLowWaterMB) * 1024 * 1024

	if g.memDegraded {
		if resident < lowWater {
			g.memDegraded = false
			debug.LogGuard("memory recovered below low water (%d MB)", resident/1024/1024)
		}
		return
	}

	if resident < highWater {
		return
	}
	if time.Since(g.lastCleanup) < minCleanupInterval {
		return
	}
	g.lastCleanup = time.Now()

	debug.LogGuard("memory above high water (%d MB), cleaning", resident/1024/1024)
	if g.cleaner != nil {
		g.cleaner.EvictHalf()
		g.cleaner.DropDerived()
	}
	runtime.GC()

	if g.estimate() >= hardLimit {
		g.memDegraded = true
		debug.LogGuard("memory above hard limit after cleanup, entering degraded mode")
	}
}

// RecordResult feeds one pipeline run outcome into the error window.
// Crossing the error-rate threshold degrades the next DegradedRuns runs.
func (g *Guard) RecordResult(failed bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.errDegradedFor > 0 {
		g.errDegradedFor--
		if g.errDegradedFor == 0 {
			// Recovery resets the window so one bad burst does not
			// immediately re-trip the budget.
			g.resetWindowLocked()
			debug.LogGuard("error budget recovered")
		}
	}

	if g.wcount == len(g.window) {
		if g.window[g.widx] {
			g.werrors--
		}
	} else {
		g.wcount++
	}
	g.window[g.widx] = failed
	if failed {
		g.werrors++
	}
	g.widx = (g.widx + 1) % len(g.window)

	if g.wcount == len(g.window) && g.errDegradedFor == 0 {
		rate := float64(g.werrors) / float64(g.wcount)
		if rate > g.cfg.ErrorRateThreshold {
			g.errDegradedFor = g.cfg.DegradedRuns
			debug.LogGuard("error rate %.0f%% over threshold, degrading for %d runs",
				rate*100, g.cfg.DegradedRuns)
		}
	}
}

func (g *Guard) resetWindowLocked() {
	for i := range g.window {
		g.window[i] = false
	}
	g.widx, g.wcount, g.werrors = 0, 0, 0
}

// State is a read-only snapshot for status reporting.
type State struct {
	MemoryDegraded bool
	ErrorDegraded  bool
	WindowErrors   int
	WindowSize     int
}

// Snapshot returns the current guard state.
func (g *Guard) Snapshot() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return State{
		MemoryDegraded: g.memDegraded,
		ErrorDegraded:  g.errDegradedFor > 0,
		WindowErrors:   g.werrors,
		WindowSize:     g.wcount,
	}
}
