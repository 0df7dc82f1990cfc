package chunker

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/standardbeagle/codemill/internal/debug"
)

// tokenCounter wraps a lazily-initialized BPE encoder. Encoder setup can
// fail (the encoding tables may be unavailable offline); counting then
// stays silently disabled for the process.
type tokenCounter struct {
	once sync.Once
	enc  *tiktoken.Tiktoken
}

func newTokenCounter() *tokenCounter {
	return &tokenCounter{}
}

func (t *tokenCounter) count(content string) (int, bool) {
	t.once.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			debug.LogChunk("token counting disabled: %v", err)
			return
		}
		t.enc = enc
	})
	if t.enc == nil {
		return 0, false
	}
	return len(t.enc.Encode(content, nil, nil)), true
}
