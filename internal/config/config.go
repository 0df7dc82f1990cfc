// Package config holds the tunables for the chunking and normalization
// core. Configuration is optional: Default() is a fully working setup,
// and project files (.codemill.kdl or codemill.toml) override it.
package config

import (
	"runtime"
	"time"
)

type Config struct {
	Chunking Chunking `toml:"chunking"`
	Cache    Cache    `toml:"cache"`
	Guard    Guard    `toml:"guard"`
	Pipeline Pipeline `toml:"pipeline"`
	Include  []string `toml:"include"`
	Exclude  []string `toml:"exclude"`
}

// Chunking controls chunk sizing, merging and overlap.
type Chunking struct {
	MaxChunkBytes       int  `toml:"max_chunk_bytes"`
	MinChunkBytes       int  `toml:"min_chunk_bytes"`
	OverlapTriggerBytes int  `toml:"overlap_trigger_bytes"`
	OverlapBytes        int  `toml:"overlap_bytes"`
	// OverlapNonSplit extends overlap to chunks that were not produced by
	// rebalancing. Off by default; the original behaviour flagged
	// cross-chunk overlap as problematic.
	OverlapNonSplit bool `toml:"overlap_non_split"`
	// TokenCounts annotates chunks with an approximate token count.
	TokenCounts bool `toml:"token_counts"`
}

// Cache bounds the in-process tree/query/chunk cache.
type Cache struct {
	ASTCacheBytes int64 `toml:"ast_cache_bytes"`
	MaxEntries    int   `toml:"max_entries"`
}

// Guard holds the memory and error budgets.
type Guard struct {
	MemoryHighWaterMB  int     `toml:"memory_high_water_mb"`
	MemoryHardLimitMB  int     `toml:"memory_hard_limit_mb"`
	MemoryLowWaterMB   int     `toml:"memory_low_water_mb"`
	ErrorWindow        int     `toml:"error_window"`
	ErrorRateThreshold float64 `toml:"error_rate_threshold"`
	DegradedRuns       int     `toml:"degraded_runs"`
}

// Pipeline sizes the worker pool and per-file timeout.
type Pipeline struct {
	PerFileTimeoutMs int `toml:"per_file_timeout_ms"`
	WorkerCount      int `toml:"worker_count"`
	QueueFactor      int `toml:"queue_factor"`
}

// Default returns the working configuration with the documented defaults.
func Default() *Config {
	return &Config{
		Chunking: Chunking{
			MaxChunkBytes:       2048,
			MinChunkBytes:       100,
			OverlapTriggerBytes: 1000,
			OverlapBytes:        128,
		},
		Cache: Cache{
			ASTCacheBytes: 128 * 1024 * 1024,
			MaxEntries:    4096,
		},
		Guard: Guard{
			MemoryHighWaterMB:  512,
			MemoryHardLimitMB:  768,
			MemoryLowWaterMB:   384,
			ErrorWindow:        100,
			ErrorRateThreshold: 0.30,
			DegradedRuns:       50,
		},
		Pipeline: Pipeline{
			PerFileTimeoutMs: 30000,
			WorkerCount:      runtime.NumCPU(),
			QueueFactor:      4,
		},
	}
}

// PerFileTimeout returns the per-file timeout as a duration; one deadline
// covers every stage of a file.
func (p Pipeline) PerFileTimeout() time.Duration {
	return time.Duration(p.PerFileTimeoutMs) * time.Millisecond
}

// QueueSize returns the bounded submit queue capacity.
func (p Pipeline) QueueSize() int {
	return p.QueueFactor * p.WorkerCount
}
