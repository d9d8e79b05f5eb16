// Package stub provides a fast, deterministic completion client for
// local development and tests. No network access, no API keys.
package stub

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/fairyhunter13/ai-interviewer/internal/domain"
)

// Client is a deterministic completion client. It inspects the prompt to
// decide whether an interview turn or an evaluation is being requested and
// returns schema-conformant JSON for either.
type Client struct {
	questionSeq atomic.Int64
}

// New constructs a stub Client.
func New() *Client { return &Client{} }

var questions = []string{
	"Tell me about your most recent project and your role in it.",
	"How do you approach debugging a production incident?",
	"Describe a technical decision you later regretted and why.",
	"How do you keep a codebase maintainable as a team grows?",
	"What would you improve about the last system you built?",
}

// Generate returns deterministic JSON for the detected prompt kind.
func (c *Client) Generate(_ domain.Context, prompt string) (string, error) {
	if strings.Contains(prompt, "interview evaluator") {
		payload := map[string]any{
			"overall_score":         78,
			"technical_score":       75,
			"communication_score":   82,
			"problem_solving_score": 76,
			"strengths":             []string{"clear communication", "solid fundamentals"},
			"gaps":                  []string{"limited production experience"},
			"contradictions":        []string{},
			"recommendation":        "proceed",
			"feedback":              "The candidate answered consistently and with concrete examples. Depth on operations topics was adequate.",
			"analysis":              map[string]any{"notes": "stub evaluation"},
		}
		b, _ := json.Marshal(payload)
		return string(b), nil
	}
	n := c.questionSeq.Add(1)
	q := questions[int(n-1)%len(questions)]
	payload := map[string]string{
		"feedback":      feedbackFor(n),
		"next_question": q,
	}
	b, _ := json.Marshal(payload)
	// Fenced on purpose: exercises the normalizer the way real models do.
	return fmt.Sprintf("```json\n%s\n```", string(b)), nil
}

func feedbackFor(n int64) string {
	if n == 1 {
		return ""
	}
	return "Thanks, noted."
}

// TestConnection always succeeds for the stub.
func (c *Client) TestConnection(_ domain.Context) bool { return true }
