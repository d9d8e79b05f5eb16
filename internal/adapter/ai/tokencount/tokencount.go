// Package tokencount provides token counting for prompt budgeting.
//
// It uses tiktoken-go, a Go port of OpenAI's official tiktoken library. The
// context window reader uses it to keep rendered interview history within a
// token budget instead of guessing by characters.
package tokencount

import (
	"log/slog"
	"sync"
	"unicode/utf8"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

const defaultEncoding = "cl100k_base"

// Counter provides thread-safe token counting.
type Counter struct {
	mu  sync.Mutex
	enc *tiktoken.Tiktoken
}

// NewCounter creates a new token counter instance.
func NewCounter() *Counter { return &Counter{} }

// DefaultCounter is a global token counter instance.
var DefaultCounter = NewCounter()

// Count returns the token count for text. When the encoding cannot be loaded
// (offline environments without the BPE file), it falls back to a rune-based
// estimate so budgeting still degrades gracefully.
func (c *Counter) Count(text string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.enc == nil {
		enc, err := tiktoken.GetEncoding(defaultEncoding)
		if err != nil {
			slog.Warn("tiktoken encoding unavailable, estimating tokens", slog.Any("error", err))
			return estimate(text)
		}
		c.enc = enc
	}
	return len(c.enc.Encode(text, nil, nil))
}

// estimate approximates tokens as runes/4, the usual rule of thumb for
// English prose.
func estimate(text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	return n/4 + 1
}
