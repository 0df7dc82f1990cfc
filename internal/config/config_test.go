package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault_MatchesDocumentedValues(t *testing.T) {
	cfg := Default()
	if cfg.Chunking.MaxChunkBytes != 2048 {
		t.Errorf("max chunk bytes = %d, want 2048", cfg.Chunking.MaxChunkBytes)
	}
	if cfg.Chunking.MinChunkBytes != 100 {
		t.Errorf("min chunk bytes = %d, want 100", cfg.Chunking.MinChunkBytes)
	}
	if cfg.Chunking.OverlapTriggerBytes != 1000 {
		t.Errorf("overlap trigger = %d, want 1000", cfg.Chunking.OverlapTriggerBytes)
	}
	if cfg.Chunking.OverlapBytes != 128 {
		t.Errorf("overlap bytes = %d, want 128", cfg.Chunking.OverlapBytes)
	}
	if cfg.Cache.ASTCacheBytes != 128*1024*1024 {
		t.Errorf("ast cache bytes = %d, want 128 MB", cfg.Cache.ASTCacheBytes)
	}
	if cfg.Guard.MemoryHighWaterMB != 512 || cfg.Guard.MemoryHardLimitMB != 768 || cfg.Guard.MemoryLowWaterMB != 384 {
		t.Errorf("memory watermarks = %d/%d/%d, want 512/768/384",
			cfg.Guard.MemoryHighWaterMB, cfg.Guard.MemoryHardLimitMB, cfg.Guard.MemoryLowWaterMB)
	}
	if cfg.Guard.ErrorWindow != 100 || cfg.Guard.ErrorRateThreshold != 0.30 {
		t.Errorf("error budget = %d/%v, want 100/0.30", cfg.Guard.ErrorWindow, cfg.Guard.ErrorRateThreshold)
	}
	if cfg.Pipeline.PerFileTimeoutMs != 30000 {
		t.Errorf("per file timeout = %d, want 30000", cfg.Pipeline.PerFileTimeoutMs)
	}
}

func TestValidate_FillsAndClamps(t *testing.T) {
	cfg := &Config{}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate empty config: %v", err)
	}
	if cfg.Chunking.MaxChunkBytes != 2048 {
		t.Errorf("zero max chunk bytes not defaulted: %d", cfg.Chunking.MaxChunkBytes)
	}
	if cfg.Pipeline.WorkerCount <= 0 {
		t.Error("worker count not defaulted")
	}

	cfg = Default()
	cfg.Chunking.OverlapBytes = 100000
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.Chunking.OverlapBytes > cfg.Chunking.MaxChunkBytes/2 {
		t.Errorf("overlap bytes not clamped: %d", cfg.Chunking.OverlapBytes)
	}
}

func TestValidate_RejectsInvertedSizes(t *testing.T) {
	cfg := Default()
	cfg.Chunking.MinChunkBytes = 4096
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for min >= max")
	}
}

func TestValidate_RejectsBadGlob(t *testing.T) {
	cfg := Default()
	cfg.Exclude = []string{"[unclosed"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for invalid glob pattern")
	}
}

func TestMatches_IncludeExclude(t *testing.T) {
	cfg := Default()
	cfg.Exclude = []string{"vendor/**"}
	if cfg.Matches("vendor/lib/a.go") {
		t.Error("excluded path matched")
	}
	if !cfg.Matches("src/a.go") {
		t.Error("unfiltered path did not match")
	}

	cfg.Include = []string{"**/*.go"}
	if cfg.Matches("src/a.py") {
		t.Error("path outside include list matched")
	}
	if !cfg.Matches("src/a.go") {
		t.Error("included path did not match")
	}
}

func TestLoad_TOML(t *testing.T) {
	dir := t.TempDir()
	toml := `
exclude = ["dist/**"]

[chunking]
max_chunk_bytes = 4096
token_counts = true

[guard]
error_window = 50
`
	if err := os.WriteFile(filepath.Join(dir, "codemill.toml"), []byte(toml), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Chunking.MaxChunkBytes != 4096 {
		t.Errorf("max chunk bytes = %d, want 4096", cfg.Chunking.MaxChunkBytes)
	}
	if !cfg.Chunking.TokenCounts {
		t.Error("token counts flag not read")
	}
	if cfg.Guard.ErrorWindow != 50 {
		t.Errorf("error window = %d, want 50", cfg.Guard.ErrorWindow)
	}
	if len(cfg.Exclude) != 1 || cfg.Exclude[0] != "dist/**" {
		t.Errorf("exclude = %v", cfg.Exclude)
	}
	// Untouched settings keep their defaults.
	if cfg.Chunking.MinChunkBytes != 100 {
		t.Errorf("min chunk bytes = %d, want default 100", cfg.Chunking.MinChunkBytes)
	}
}

func TestLoad_KDLWinsOverTOML(t *testing.T) {
	dir := t.TempDir()
	kdl := `
chunking {
    max_chunk_bytes 1024
    overlap_non_split true
}
pipeline {
    worker_count 2
}
exclude "node_modules/**" "dist/**"
`
	if err := os.WriteFile(filepath.Join(dir, ".codemill.kdl"), []byte(kdl), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "codemill.toml"), []byte("[chunking]\nmax_chunk_bytes = 9999\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Chunking.MaxChunkBytes != 1024 {
		t.Errorf("max chunk bytes = %d, want 1024 from KDL", cfg.Chunking.MaxChunkBytes)
	}
	if !cfg.Chunking.OverlapNonSplit {
		t.Error("overlap_non_split not read from KDL")
	}
	if cfg.Pipeline.WorkerCount != 2 {
		t.Errorf("worker count = %d, want 2", cfg.Pipeline.WorkerCount)
	}
	if len(cfg.Exclude) != 2 {
		t.Errorf("exclude = %v, want two patterns", cfg.Exclude)
	}
}

func TestLoad_MissingFilesUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Chunking.MaxChunkBytes != 2048 {
		t.Errorf("expected defaults, got max chunk bytes %d", cfg.Chunking.MaxChunkBytes)
	}
}
