package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"

	"github.com/pelletier/go-toml/v2"
)

// Load reads project configuration from dir. A .codemill.kdl file wins
// over codemill.toml; with neither present the defaults are returned.
func Load(dir string) (*Config, error) {
	if cfg, err := loadKDL(filepath.Join(dir, ".codemill.kdl")); err != nil {
		return nil, err
	} else if cfg != nil {
		return cfg, cfg.Validate()
	}
	if cfg, err := loadTOML(filepath.Join(dir, "codemill.toml")); err != nil {
		return nil, err
	} else if cfg != nil {
		return cfg, cfg.Validate()
	}
	cfg := Default()
	return cfg, cfg.Validate()
}

func loadTOML(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	cfg := Default()
	if err := toml.Unmarshal(content, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

func loadKDL(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	doc, err := kdl.Parse(strings.NewReader(string(content)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse KDL config: %w", err)
	}

	cfg := Default()
	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "chunking":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "max_chunk_bytes":
					if v, ok := firstIntArg(cn); ok {
						cfg.Chunking.MaxChunkBytes = v
					}
				case "min_chunk_bytes":
					if v, ok := firstIntArg(cn); ok {
						cfg.Chunking.MinChunkBytes = v
					}
				case "overlap_trigger_bytes":
					if v, ok := firstIntArg(cn); ok {
						cfg.Chunking.OverlapTriggerBytes = v
					}
				case "overlap_bytes":
					if v, ok := firstIntArg(cn); ok {
						cfg.Chunking.OverlapBytes = v
					}
				case "overlap_non_split":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Chunking.OverlapNonSplit = b
					}
				case "token_counts":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Chunking.TokenCounts = b
					}
				}
			}
		case "cache":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "ast_cache_bytes":
					if v, ok := firstIntArg(cn); ok {
						cfg.Cache.ASTCacheBytes = int64(v)
					}
				case "max_entries":
					if v, ok := firstIntArg(cn); ok {
						cfg.Cache.MaxEntries = v
					}
				}
			}
		case "guard":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "memory_high_water_mb":
					if v, ok := firstIntArg(cn); ok {
						cfg.Guard.MemoryHighWaterMB = v
					}
				case "memory_hard_limit_mb":
					if v, ok := firstIntArg(cn); ok {
						cfg.Guard.MemoryHardLimitMB = v
					}
				case "memory_low_water_mb":
					if v, ok := firstIntArg(cn); ok {
						cfg.Guard.MemoryLowWaterMB = v
					}
				case "error_window":
					if v, ok := firstIntArg(cn); ok {
						cfg.Guard.ErrorWindow = v
					}
				case "error_rate_threshold":
					if v, ok := firstFloatArg(cn); ok {
						cfg.Guard.ErrorRateThreshold = v
					}
				case "degraded_runs":
					if v, ok := firstIntArg(cn); ok {
						cfg.Guard.DegradedRuns = v
					}
				}
			}
		case "pipeline":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "per_file_timeout_ms":
					if v, ok := firstIntArg(cn); ok {
						cfg.Pipeline.PerFileTimeoutMs = v
					}
				case "worker_count":
					if v, ok := firstIntArg(cn); ok {
						cfg.Pipeline.WorkerCount = v
					}
				case "queue_factor":
					if v, ok := firstIntArg(cn); ok {
						cfg.Pipeline.QueueFactor = v
					}
				}
			}
		case "include":
			cfg.Include = collectStringArgs(n)
		case "exclude":
			cfg.Exclude = collectStringArgs(n)
		}
	}
	return cfg, nil
}

// Helpers over the kdl-go document model.
func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	if b, ok := n.Arguments[0].Value.(bool); ok {
		return b, true
	}
	return false, false
}

func firstFloatArg(n *document.Node) (float64, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

func collectStringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}
	// Block form: exclude { "pattern" } puts each string in a child node name.
	if len(out) == 0 && len(n.Children) > 0 {
		for _, child := range n.Children {
			if s, ok := firstStringArg(child); ok {
				out = append(out, s)
			} else if child.Name != nil {
				if s, ok := child.Name.Value.(string); ok {
					out = append(out, s)
				}
			}
		}
	}
	return out
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}
