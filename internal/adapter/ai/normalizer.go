// Package ai provides normalization of unreliable model output into
// display-ready text.
//
// The completion gateway's output is untrusted: usually a JSON object with
// feedback/next_question keys, sometimes wrapped in Markdown code fences,
// occasionally not valid JSON at all. The normalizer runs an explicit ordered
// chain of parser strategies and is guaranteed to never fail and never return
// an empty string.
package ai

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/fairyhunter13/ai-interviewer/internal/adapter/observability"
)

// DefaultFollowUp is the hardcoded fallback question used when the model
// returns a JSON object carrying neither feedback nor a next question, or
// nothing usable at all.
const DefaultFollowUp = "Tell me more about your experience."

// parserFunc is one strategy in the chain: it returns the display text and
// whether it succeeded.
type parserFunc func(raw string) (string, bool)

// NormalizeReply converts raw model output into display-ready text. Strategies
// are tried in order; the first success wins. The final verbatim strategy
// cannot fail, so the function always yields non-empty text.
func NormalizeReply(raw string) string {
	chain := []struct {
		stage string
		fn    parserFunc
	}{
		{"fenced_json", parseFencedJSON},
		{"bare_json", parseBareJSON},
		{"verbatim", parseVerbatim},
	}
	for _, p := range chain {
		if text, ok := p.fn(raw); ok {
			observability.NormalizerFallbackTotal.WithLabelValues(p.stage).Inc()
			return text
		}
	}
	// Unreachable: parseVerbatim always succeeds.
	return DefaultFollowUp
}

// parseFencedJSON strips a leading code fence (with optional language tag) and
// a trailing fence, then parses the remainder as JSON.
func parseFencedJSON(raw string) (string, bool) {
	return parseReplyJSON(stripFences(raw))
}

// parseBareJSON parses the raw trimmed text directly as JSON.
func parseBareJSON(raw string) (string, bool) {
	return parseReplyJSON(strings.TrimSpace(raw))
}

// parseVerbatim strips fence markers and uses the remainder as-is. It never
// fails: an empty remainder falls back to the default question.
func parseVerbatim(raw string) (string, bool) {
	s := stripFences(raw)
	if s == "" {
		return DefaultFollowUp, true
	}
	return s, true
}

func parseReplyJSON(s string) (string, bool) {
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return "", false
	}
	feedback := stringField(m, "feedback")
	if feedback == "" {
		// Tolerated misspelling for backward compatibility with the data the
		// model was trained against.
		feedback = stringField(m, "feeedback")
	}
	question := stringField(m, "next_question")
	switch {
	case feedback != "" && question != "":
		return feedback + " " + question, true
	case feedback != "":
		return feedback, true
	case question != "":
		return question, true
	default:
		return DefaultFollowUp, true
	}
}

func stringField(m map[string]any, key string) string {
	v, ok := m[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// stripFences removes a leading triple-backtick opener (dropping any language
// tag on the opener line) and a trailing closing fence.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		if idx := strings.IndexByte(s, '\n'); idx >= 0 {
			s = s[idx+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// Flatten collapses model output into a flat display string for persistence,
// so stored history never contains raw JSON syntax that would leak into
// future prompt context. If the (fence-stripped) output parses as a JSON
// object, all string-valued fields are joined with spaces in key order;
// otherwise the output is normalized like any reply.
func Flatten(raw string) string {
	s := stripFences(raw)
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return NormalizeReply(raw)
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		if _, ok := m[k].(string); ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if v := strings.TrimSpace(m[k].(string)); v != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) == 0 {
		return DefaultFollowUp
	}
	return strings.Join(parts, " ")
}
