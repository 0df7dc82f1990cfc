package config

import (
	"fmt"
	"runtime"

	"github.com/bmatcuk/doublestar/v4"
)

// Validate fills zero values from defaults, clamps out-of-range settings
// and rejects configurations that cannot work at all.
func (c *Config) Validate() error {
	def := Default()

	if c.Chunking.MaxChunkBytes <= 0 {
		c.Chunking.MaxChunkBytes = def.Chunking.MaxChunkBytes
	}
	if c.Chunking.MinChunkBytes <= 0 {
		c.Chunking.MinChunkBytes = def.Chunking.MinChunkBytes
	}
	if c.Chunking.MinChunkBytes >= c.Chunking.MaxChunkBytes {
		return fmt.Errorf("min_chunk_bytes (%d) must be smaller than max_chunk_bytes (%d)",
			c.Chunking.MinChunkBytes, c.Chunking.MaxChunkBytes)
	}
	if c.Chunking.OverlapTriggerBytes <= 0 {
		c.Chunking.OverlapTriggerBytes = def.Chunking.OverlapTriggerBytes
	}
	if c.Chunking.OverlapBytes <= 0 {
		c.Chunking.OverlapBytes = def.Chunking.OverlapBytes
	}
	if c.Chunking.OverlapBytes > c.Chunking.MaxChunkBytes/2 {
		c.Chunking.OverlapBytes = c.Chunking.MaxChunkBytes / 2
	}

	if c.Cache.ASTCacheBytes <= 0 {
		c.Cache.ASTCacheBytes = def.Cache.ASTCacheBytes
	}
	if c.Cache.MaxEntries <= 0 {
		c.Cache.MaxEntries = def.Cache.MaxEntries
	}

	if c.Guard.MemoryHighWaterMB <= 0 {
		c.Guard.MemoryHighWaterMB = def.Guard.MemoryHighWaterMB
	}
	if c.Guard.MemoryHardLimitMB <= c.Guard.MemoryHighWaterMB {
		c.Guard.MemoryHardLimitMB = c.Guard.MemoryHighWaterMB * 3 / 2
	}
	if c.Guard.MemoryLowWaterMB <= 0 || c.Guard.MemoryLowWaterMB >= c.Guard.MemoryHighWaterMB {
		c.Guard.MemoryLowWaterMB = c.Guard.MemoryHighWaterMB * 3 / 4
	}
	if c.Guard.ErrorWindow <= 0 {
		c.Guard.ErrorWindow = def.Guard.ErrorWindow
	}
	if c.Guard.ErrorRateThreshold <= 0 || c.Guard.ErrorRateThreshold > 1 {
		c.Guard.ErrorRateThreshold = def.Guard.ErrorRateThreshold
	}
	if c.Guard.DegradedRuns <= 0 {
		c.Guard.DegradedRuns = def.Guard.DegradedRuns
	}

	if c.Pipeline.PerFileTimeoutMs <= 0 {
		c.Pipeline.PerFileTimeoutMs = def.Pipeline.PerFileTimeoutMs
	}
	if c.Pipeline.WorkerCount <= 0 {
		c.Pipeline.WorkerCount = runtime.NumCPU()
	}
	if c.Pipeline.QueueFactor <= 0 {
		c.Pipeline.QueueFactor = def.Pipeline.QueueFactor
	}

	for _, pattern := range append(append([]string{}, c.Include...), c.Exclude...) {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid glob pattern %q", pattern)
		}
	}
	return nil
}

// Matches reports whether a path passes the include/exclude filters.
// An empty include list admits everything.
func (c *Config) Matches(path string) bool {
	for _, pattern := range c.Exclude {
		if ok, _ := doublestar.Match(pattern, path); ok {
			return false
		}
	}
	if len(c.Include) == 0 {
		return true
	}
	for _, pattern := range c.Include {
		if ok, _ := doublestar.Match(pattern, path); ok {
			return true
		}
	}
	return false
}
