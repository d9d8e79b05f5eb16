package textx_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fairyhunter13/ai-interviewer/pkg/textx"
)

func TestSanitizeText_StripsControlChars(t *testing.T) {
	t.Parallel()
	in := "hello\x00 world\x07\n\tnext"
	assert.Equal(t, "hello world\n\tnext", textx.SanitizeText(in))
}

func TestSanitizeText_TrimsSpace(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "answer", textx.SanitizeText("  answer \n"))
}

func TestTruncate(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "short", textx.Truncate("short", 10))
	assert.Equal(t, "abcdefg...", textx.Truncate("abcdefghijkl", 10))
	assert.Equal(t, "ab", textx.Truncate("abcd", 2))
}
