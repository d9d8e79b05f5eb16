package ai_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fairyhunter13/ai-interviewer/internal/adapter/ai"
)

func TestNormalizeReply_FencedJSONBothKeys(t *testing.T) {
	t.Parallel()
	raw := "```json\n{\"feedback\": \"Good answer.\", \"next_question\": \"What is a goroutine?\"}\n```"
	assert.Equal(t, "Good answer. What is a goroutine?", ai.NormalizeReply(raw))
}

func TestNormalizeReply_BareJSON(t *testing.T) {
	t.Parallel()
	raw := `{"feedback": "Noted.", "next_question": "Describe a race condition."}`
	assert.Equal(t, "Noted. Describe a race condition.", ai.NormalizeReply(raw))
}

func TestNormalizeReply_MisspelledFeedbackKey(t *testing.T) {
	t.Parallel()
	raw := `{"feeedback": "Thanks.", "next_question": "Why channels?"}`
	assert.Equal(t, "Thanks. Why channels?", ai.NormalizeReply(raw))
}

func TestNormalizeReply_OnlyQuestion(t *testing.T) {
	t.Parallel()
	raw := "```\n{\"next_question\": \"How do you test?\"}\n```"
	assert.Equal(t, "How do you test?", ai.NormalizeReply(raw))
}

func TestNormalizeReply_OnlyFeedback(t *testing.T) {
	t.Parallel()
	raw := `{"feedback": "Solid reasoning."}`
	assert.Equal(t, "Solid reasoning.", ai.NormalizeReply(raw))
}

func TestNormalizeReply_JSONWithoutKnownKeys_Default(t *testing.T) {
	t.Parallel()
	raw := `{"something": "else"}`
	assert.Equal(t, ai.DefaultFollowUp, ai.NormalizeReply(raw))
}

func TestNormalizeReply_PlainProseVerbatim(t *testing.T) {
	t.Parallel()
	raw := "That is interesting. Can you expand on the caching layer?"
	assert.Equal(t, raw, ai.NormalizeReply(raw))
}

func TestNormalizeReply_FencedProse(t *testing.T) {
	t.Parallel()
	raw := "```\nJust ask them about Go.\n```"
	assert.Equal(t, "Just ask them about Go.", ai.NormalizeReply(raw))
}

func TestNormalizeReply_MalformedJSON_FallsThrough(t *testing.T) {
	t.Parallel()
	raw := "```json\n{\"feedback\": \"broken\n```"
	// Stage 1 and 2 fail to parse; stage 3 returns the fence-stripped text.
	assert.Equal(t, "{\"feedback\": \"broken", ai.NormalizeReply(raw))
}

func TestNormalizeReply_EmptyInput_Default(t *testing.T) {
	t.Parallel()
	assert.Equal(t, ai.DefaultFollowUp, ai.NormalizeReply(""))
	assert.Equal(t, ai.DefaultFollowUp, ai.NormalizeReply("``` ```"))
}

func TestNormalizeReply_NonStringValues_Default(t *testing.T) {
	t.Parallel()
	raw := `{"feedback": 42, "next_question": null}`
	assert.Equal(t, ai.DefaultFollowUp, ai.NormalizeReply(raw))
}

func TestFlatten_JoinsStringFieldsInKeyOrder(t *testing.T) {
	t.Parallel()
	raw := `{"feedback": "Nice.", "next_question": "Next one?", "score": 3}`
	assert.Equal(t, "Nice. Next one?", ai.Flatten(raw))
}

func TestFlatten_FencedObject(t *testing.T) {
	t.Parallel()
	raw := "```json\n{\"b\": \"world\", \"a\": \"hello\"}\n```"
	assert.Equal(t, "hello world", ai.Flatten(raw))
}

func TestFlatten_NonJSONFallsBackToNormalize(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "plain text", ai.Flatten("plain text"))
}

func TestFlatten_EmptyObject_Default(t *testing.T) {
	t.Parallel()
	assert.Equal(t, ai.DefaultFollowUp, ai.Flatten("{}"))
}
