// Package debug provides optional diagnostic logging for the pipeline.
// Output is disabled unless a writer is configured or CODEMILL_DEBUG is
// set; the core never logs to stdio on its own since callers may speak
// a line protocol there.
package debug

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

var (
	mu     sync.Mutex
	output io.Writer
)

func init() {
	if os.Getenv("CODEMILL_DEBUG") != "" {
		output = os.Stderr
	}
}

// SetOutput directs debug logging to w. Pass nil to disable.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// Enabled reports whether debug logging is active.
func Enabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return output != nil
}

// Logf writes a timestamped debug line.
func Logf(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if output == nil {
		return
	}
	fmt.Fprintf(output, "[%s] %s\n", time.Now().Format("15:04:05.000"), fmt.Sprintf(format, args...))
}

// LogParse logs parser and query events.
func LogParse(format string, args ...any) { Logf("parse: "+format, args...) }

// LogChunk logs strategy selection and chunk production events.
func LogChunk(format string, args ...any) { Logf("chunk: "+format, args...) }

// LogGuard logs guard state transitions.
func LogGuard(format string, args ...any) { Logf("guard: "+format, args...) }

// LogCache logs cache hits, misses and evictions.
func LogCache(format string, args ...any) { Logf("cache: "+format, args...) }
