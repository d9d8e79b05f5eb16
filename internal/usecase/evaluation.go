package usecase

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/fairyhunter13/ai-interviewer/internal/adapter/observability"
	"github.com/fairyhunter13/ai-interviewer/internal/domain"
	"github.com/fairyhunter13/ai-interviewer/internal/prompt"
)

// fullHistoryLimit bounds the transcript replayed into the scoring prompt.
// Interviews are short; this is far above anything a real session produces.
const fullHistoryLimit = 500

// EvaluationService closes out a completed interview: it replays the turn
// history through a single scoring prompt and produces a validated, clamped
// evaluation record plus a candidate-facing feedback message.
type EvaluationService struct {
	Turns   domain.TurnRepository
	Evals   domain.EvaluationRepository
	AI      domain.CompletionClient
	Prompts *prompt.Registry
}

// NewEvaluationService constructs an EvaluationService.
func NewEvaluationService(turns domain.TurnRepository, evals domain.EvaluationRepository, aiClient domain.CompletionClient, prompts *prompt.Registry) *EvaluationService {
	return &EvaluationService{Turns: turns, Evals: evals, AI: aiClient, Prompts: prompts}
}

// Evaluate runs the scoring prompt once for a (candidate, vacancy) pair and
// upserts the resulting evaluation. Malformed model output degrades to a
// neutral fallback rather than an error; only gateway and storage failures
// propagate.
func (s *EvaluationService) Evaluate(ctx domain.Context, candidateID string, v domain.Vacancy) (domain.Evaluation, error) {
	turns, err := s.Turns.Window(ctx, candidateID, v.ID, fullHistoryLimit)
	if err != nil {
		return domain.Evaluation{}, fmt.Errorf("op=evaluation.Evaluate: %w", err)
	}
	promptText, err := s.Prompts.Render("evaluation", map[string]string{
		"vacancy_title":          v.Title,
		"vacancy_requirements":   v.Requirements,
		"technical_weight":       strconv.Itoa(v.TechnicalWeight),
		"communication_weight":   strconv.Itoa(v.CommunicationWeight),
		"problem_solving_weight": strconv.Itoa(v.ProblemSolvingWeight),
		"transcript":             renderTranscript(turns),
	})
	if err != nil {
		return domain.Evaluation{}, fmt.Errorf("op=evaluation.Evaluate: %w", err)
	}
	raw, err := s.AI.Generate(ctx, promptText)
	if err != nil {
		return domain.Evaluation{}, fmt.Errorf("op=evaluation.Evaluate: %w", err)
	}
	e, ok := parseEvaluation(raw)
	if !ok {
		e = neutralEvaluation()
	}
	e.CandidateID = candidateID
	e.VacancyID = v.ID
	id, err := s.Evals.Upsert(ctx, e)
	if err != nil {
		return domain.Evaluation{}, fmt.Errorf("op=evaluation.Evaluate: %w", err)
	}
	e.ID = id
	observability.OverallScoreHistogram.Observe(float64(e.OverallScore))
	observability.RecommendationsTotal.WithLabelValues(string(e.Recommendation)).Inc()
	return e, nil
}

// RenderFeedback assembles the candidate-facing feedback message
// deterministically from the evaluation fields.
func (s *EvaluationService) RenderFeedback(e domain.Evaluation) string {
	var b strings.Builder
	b.WriteString("Thank you for completing the interview!")
	if len(e.Strengths) > 0 {
		b.WriteString("\n\nStrengths: ")
		b.WriteString(strings.Join(e.Strengths, "; "))
		b.WriteString(".")
	}
	if len(e.Gaps) > 0 {
		b.WriteString("\n\nAreas to develop: ")
		b.WriteString(strings.Join(e.Gaps, "; "))
		b.WriteString(".")
	}
	if e.Feedback != "" {
		b.WriteString("\n\n")
		b.WriteString(e.Feedback)
	}
	b.WriteString("\n\n")
	switch e.Recommendation {
	case domain.RecommendProceed:
		b.WriteString("Our team will contact you about the next steps shortly.")
	case domain.RecommendReject:
		b.WriteString("We will keep your profile on file for future openings.")
	default:
		b.WriteString("We may reach out with a few follow-up questions.")
	}
	return b.String()
}

// renderTranscript renders turns as Candidate/Interviewer lines joined by
// blank lines. This exact text feeds prompts, so the labels and ordering are
// load-bearing.
func renderTranscript(turns []domain.Turn) string {
	lines := make([]string, 0, len(turns))
	for _, t := range turns {
		label := "Candidate"
		if t.Sender == domain.SenderAssistant {
			label = "Interviewer"
		}
		lines = append(lines, label+": "+t.Content)
	}
	return strings.Join(lines, "\n\n")
}

// parseEvaluation extracts an evaluation from raw model output. It reports
// false only when no JSON object can be parsed at all; any recognizable object
// is coerced field by field with clamping and defaulting.
func parseEvaluation(raw string) (domain.Evaluation, bool) {
	m, ok := extractJSONObject(raw)
	if !ok {
		return domain.Evaluation{}, false
	}
	e := domain.Evaluation{
		OverallScore:        clampScore(m["overall_score"]),
		TechnicalScore:      clampScore(m["technical_score"]),
		CommunicationScore:  clampScore(m["communication_score"]),
		ProblemSolvingScore: clampScore(m["problem_solving_score"]),
		Strengths:           stringSlice(m["strengths"]),
		Gaps:                stringSlice(m["gaps"]),
		Contradictions:      stringSlice(m["contradictions"]),
		Recommendation:      normalizeRecommendation(m["recommendation"]),
		Feedback:            stringValue(m["feedback"]),
	}
	if analysis, ok := m["analysis"].(map[string]any); ok {
		e.AnalysisData = analysis
	}
	return e, true
}

// extractJSONObject finds the outermost JSON object in raw text, tolerating
// code fences and surrounding prose.
func extractJSONObject(raw string) (map[string]any, bool) {
	s := strings.TrimSpace(raw)
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return nil, false
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(s[start:end+1]), &m); err != nil {
		return nil, false
	}
	return m, true
}

// neutralEvaluation is the hardcoded fallback when the model output cannot be
// parsed at all: a completed interview must always produce some evaluation.
func neutralEvaluation() domain.Evaluation {
	return domain.Evaluation{
		OverallScore:        50,
		TechnicalScore:      50,
		CommunicationScore:  50,
		ProblemSolvingScore: 50,
		Strengths:           []string{},
		Gaps:                []string{},
		Contradictions:      []string{},
		Recommendation:      domain.RecommendClarify,
		Feedback:            "The interview is complete and is pending a manual review.",
	}
}

// clampScore coerces a raw JSON value into [0,100]. Numbers are rounded,
// numeric strings parsed; anything else counts as zero.
func clampScore(v any) int {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	n := int(math.Round(f))
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}

func stringSlice(v any) []string {
	arr, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

func stringValue(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func normalizeRecommendation(v any) domain.Recommendation {
	s, _ := v.(string)
	switch domain.Recommendation(strings.ToLower(strings.TrimSpace(s))) {
	case domain.RecommendProceed:
		return domain.RecommendProceed
	case domain.RecommendReject:
		return domain.RecommendReject
	default:
		return domain.RecommendClarify
	}
}
