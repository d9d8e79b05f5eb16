// Package usecase contains the interview orchestration core: the session
// state machine and the evaluation engine. It depends only on domain ports
// plus the prompt compiler and output normalizer.
package usecase

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/fairyhunter13/ai-interviewer/internal/adapter/ai"
	"github.com/fairyhunter13/ai-interviewer/internal/adapter/ai/tokencount"
	"github.com/fairyhunter13/ai-interviewer/internal/adapter/observability"
	"github.com/fairyhunter13/ai-interviewer/internal/config"
	"github.com/fairyhunter13/ai-interviewer/internal/domain"
	"github.com/fairyhunter13/ai-interviewer/internal/prompt"
	"github.com/fairyhunter13/ai-interviewer/pkg/textx"
)

// maxDocumentChars caps extracted document text before it is stored as a turn.
const maxDocumentChars = 4000

// completedReply is sent when a candidate keeps writing after the interview
// has finished. The counter does not move in that state.
const completedReply = "The interview is already complete. Thank you again! Send /reset if you would like to start over with another vacancy."

// InterviewService is the per-candidate session state machine. Session state
// lives in an injected store and is volatile; turns and results are durable
// and survive restarts.
type InterviewService struct {
	Sessions  domain.SessionStore
	Turns     domain.TurnRepository
	Vacancies domain.VacancyRepository
	Results   domain.ResultRepository
	AI        domain.CompletionClient
	Prompts   *prompt.Registry
	Events    domain.EventPublisher
	Extractor domain.TextExtractor
	Evaluator *EvaluationService

	questionTarget int
	contextTurns   int
	tokenBudget    int
	counter        *tokencount.Counter
}

// NewInterviewService wires the state machine with its collaborators.
func NewInterviewService(
	sessions domain.SessionStore,
	turns domain.TurnRepository,
	vacancies domain.VacancyRepository,
	results domain.ResultRepository,
	aiClient domain.CompletionClient,
	prompts *prompt.Registry,
	events domain.EventPublisher,
	extractor domain.TextExtractor,
	evaluator *EvaluationService,
	cfg config.Config,
) *InterviewService {
	return &InterviewService{
		Sessions:       sessions,
		Turns:          turns,
		Vacancies:      vacancies,
		Results:        results,
		AI:             aiClient,
		Prompts:        prompts,
		Events:         events,
		Extractor:      extractor,
		Evaluator:      evaluator,
		questionTarget: cfg.QuestionTarget,
		contextTurns:   cfg.ContextTurns,
		tokenBudget:    cfg.ContextTokenBudget,
		counter:        tokencount.DefaultCounter,
	}
}

// StartSession creates (or replaces) the candidate's session at the vacancy
// selection stage and returns the greeting.
func (s *InterviewService) StartSession(ctx domain.Context, candidateID, candidateName string) (string, error) {
	now := time.Now().UTC()
	sess := domain.Session{
		CandidateID:  candidateID,
		Stage:        domain.StageSelectingVacancy,
		StartedAt:    now,
		LastActivity: now,
	}
	if err := s.Sessions.Set(ctx, sess); err != nil {
		return "", fmt.Errorf("op=interview.StartSession: %w", err)
	}
	if candidateName == "" {
		candidateName = "there"
	}
	greeting, err := s.Prompts.Render("greeting", map[string]string{"candidate_name": candidateName})
	if err != nil {
		return "", fmt.Errorf("op=interview.StartSession: %w", err)
	}
	return greeting, nil
}

// Session returns the candidate's current session, if any.
func (s *InterviewService) Session(ctx domain.Context, candidateID string) (domain.Session, bool, error) {
	return s.Sessions.Get(ctx, candidateID)
}

// ListVacancies returns the active vacancies a candidate can pick from.
func (s *InterviewService) ListVacancies(ctx domain.Context) ([]domain.Vacancy, error) {
	out, err := s.Vacancies.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("op=interview.ListVacancies: %w", err)
	}
	return out, nil
}

// SelectVacancy moves the candidate into the interviewing stage: it validates
// the vacancy, resets the question counter, starts a durable in-progress
// result, and asks the first question. Prior turns under other vacancies stay
// intact; the context window is scoped by vacancy key.
func (s *InterviewService) SelectVacancy(ctx domain.Context, candidateID, vacancyID string) (string, error) {
	v, err := s.Vacancies.Get(ctx, vacancyID)
	if err != nil {
		return "", fmt.Errorf("op=interview.SelectVacancy: %w", err)
	}
	if !v.Active {
		return "", fmt.Errorf("op=interview.SelectVacancy inactive vacancy %s: %w", vacancyID, domain.ErrVacancyNotFound)
	}
	now := time.Now().UTC()
	sess := domain.Session{
		CandidateID:  candidateID,
		Stage:        domain.StageInterviewing,
		VacancyID:    v.ID,
		StartedAt:    now,
		LastActivity: now,
	}
	if err := s.Sessions.Set(ctx, sess); err != nil {
		return "", fmt.Errorf("op=interview.SelectVacancy: %w", err)
	}
	if err := s.Results.Upsert(ctx, domain.InterviewResult{
		CandidateID:    candidateID,
		VacancyID:      v.ID,
		Status:         domain.ResultInProgress,
		TotalQuestions: s.questionTarget,
	}); err != nil {
		return "", fmt.Errorf("op=interview.SelectVacancy: %w", err)
	}
	s.publish(ctx, domain.InterviewEvent{
		Type: domain.EventInterviewStarted, CandidateID: candidateID, VacancyID: v.ID, At: now,
	})
	observability.InterviewsStartedTotal.Inc()

	promptText, err := s.Prompts.Render("first_question", map[string]string{
		"vacancy_title":        v.Title,
		"vacancy_description":  v.Description,
		"vacancy_requirements": v.Requirements,
	})
	if err != nil {
		return "", fmt.Errorf("op=interview.SelectVacancy: %w", err)
	}
	raw, err := s.AI.Generate(ctx, promptText)
	if err != nil {
		return "", fmt.Errorf("op=interview.SelectVacancy: %w", err)
	}
	question := ai.Flatten(raw)
	if _, err := s.Turns.Append(ctx, domain.Turn{
		CandidateID: candidateID, VacancyID: v.ID,
		Sender: domain.SenderAssistant, Kind: domain.TurnText, Content: question,
	}); err != nil {
		return "", fmt.Errorf("op=interview.SelectVacancy: %w", err)
	}
	return question, nil
}

// RecordAnswer processes a candidate answer. On a gateway failure the counter
// is not incremented and no assistant turn is stored, so the same answer can
// be resubmitted. Reaching the question target runs the evaluation engine
// exactly once, guarded by the stage transition.
func (s *InterviewService) RecordAnswer(ctx domain.Context, candidateID, text string) (string, error) {
	sess, ok, err := s.Sessions.Get(ctx, candidateID)
	if err != nil {
		return "", fmt.Errorf("op=interview.RecordAnswer: %w", err)
	}
	if !ok || sess.Stage == domain.StageSelectingVacancy {
		return "", fmt.Errorf("op=interview.RecordAnswer: %w", domain.ErrNoActiveSession)
	}
	text = textx.SanitizeText(text)
	if text == "" {
		return "", fmt.Errorf("op=interview.RecordAnswer: empty answer: %w", domain.ErrInvalidArgument)
	}
	if sess.Stage == domain.StageCompleted {
		return completedReply, nil
	}

	if _, err := s.Turns.Append(ctx, domain.Turn{
		CandidateID: candidateID, VacancyID: sess.VacancyID,
		Sender: domain.SenderCandidate, Kind: domain.TurnText, Content: text,
	}); err != nil {
		return "", fmt.Errorf("op=interview.RecordAnswer: %w", err)
	}

	answered := sess.QuestionCount + 1
	if answered >= s.questionTarget {
		return s.complete(ctx, sess, answered)
	}

	v, err := s.Vacancies.Get(ctx, sess.VacancyID)
	if err != nil {
		return "", fmt.Errorf("op=interview.RecordAnswer: %w", err)
	}
	contextText, err := s.windowText(ctx, candidateID, sess.VacancyID)
	if err != nil {
		return "", fmt.Errorf("op=interview.RecordAnswer: %w", err)
	}
	promptText, err := s.Prompts.Render("next_question", map[string]string{
		"vacancy_title":        v.Title,
		"vacancy_requirements": v.Requirements,
		"context":              contextText,
		"question_number":      strconv.Itoa(answered + 1),
		"question_target":      strconv.Itoa(s.questionTarget),
	})
	if err != nil {
		return "", fmt.Errorf("op=interview.RecordAnswer: %w", err)
	}
	raw, err := s.AI.Generate(ctx, promptText)
	if err != nil {
		// Counter untouched, no assistant turn: the candidate can resend the
		// same answer after the apology.
		return "", fmt.Errorf("op=interview.RecordAnswer: %w", err)
	}
	reply := ai.Flatten(raw)
	if _, err := s.Turns.Append(ctx, domain.Turn{
		CandidateID: candidateID, VacancyID: sess.VacancyID,
		Sender: domain.SenderAssistant, Kind: domain.TurnText, Content: reply,
	}); err != nil {
		return "", fmt.Errorf("op=interview.RecordAnswer: %w", err)
	}

	sess.QuestionCount = answered
	sess.LastActivity = time.Now().UTC()
	if err := s.Sessions.Set(ctx, sess); err != nil {
		return "", fmt.Errorf("op=interview.RecordAnswer: %w", err)
	}
	if err := s.Results.Upsert(ctx, domain.InterviewResult{
		CandidateID:          candidateID,
		VacancyID:            sess.VacancyID,
		Status:               domain.ResultInProgress,
		TotalQuestions:       s.questionTarget,
		TotalAnswers:         answered,
		CompletionPercentage: completionPercentage(answered, s.questionTarget),
	}); err != nil {
		return "", fmt.Errorf("op=interview.RecordAnswer: %w", err)
	}
	s.publish(ctx, domain.InterviewEvent{
		Type: domain.EventInterviewProgress, CandidateID: candidateID, VacancyID: sess.VacancyID,
		At: time.Now().UTC(), Data: map[string]any{"answered": answered},
	})
	return reply, nil
}

// complete transitions the session to completed and runs the evaluation
// engine. The stage is persisted before evaluating so a retried delivery of
// the final answer lands in the completed branch instead of evaluating twice.
func (s *InterviewService) complete(ctx domain.Context, sess domain.Session, answered int) (string, error) {
	now := time.Now().UTC()
	sess.QuestionCount = answered
	sess.Stage = domain.StageCompleted
	sess.LastActivity = now
	if err := s.Sessions.Set(ctx, sess); err != nil {
		return "", fmt.Errorf("op=interview.complete: %w", err)
	}
	duration := int(now.Sub(sess.StartedAt).Minutes())

	v, err := s.Vacancies.Get(ctx, sess.VacancyID)
	if err != nil {
		return "", fmt.Errorf("op=interview.complete: %w", err)
	}
	eval, err := s.Evaluator.Evaluate(ctx, sess.CandidateID, v)
	if err != nil {
		// The interview is still closed out best-effort; the candidate gets a
		// generic goodbye instead of an error.
		slog.Error("evaluation failed, completing without scores",
			slog.String("candidate_id", sess.CandidateID), slog.Any("error", err))
		s.finalize(ctx, sess, answered, duration, nil, nil)
		return "Thank you for completing the interview! We'll be in touch with the results soon.", nil
	}
	feedback := s.Evaluator.RenderFeedback(eval)
	s.finalize(ctx, sess, answered, duration, &eval.ID, &feedback)

	if _, err := s.Turns.Append(ctx, domain.Turn{
		CandidateID: sess.CandidateID, VacancyID: sess.VacancyID,
		Sender: domain.SenderAssistant, Kind: domain.TurnText, Content: feedback,
	}); err != nil {
		slog.Error("appending final feedback turn failed", slog.Any("error", err))
	}
	s.publish(ctx, domain.InterviewEvent{
		Type: domain.EventInterviewCompleted, CandidateID: sess.CandidateID, VacancyID: sess.VacancyID,
		At: now, Data: map[string]any{"overall_score": eval.OverallScore, "recommendation": string(eval.Recommendation)},
	})
	observability.InterviewsCompletedTotal.Inc()
	return feedback, nil
}

func (s *InterviewService) finalize(ctx domain.Context, sess domain.Session, answered, durationMinutes int, evaluationID, feedback *string) {
	if err := s.Results.Upsert(ctx, domain.InterviewResult{
		CandidateID:          sess.CandidateID,
		VacancyID:            sess.VacancyID,
		Status:               domain.ResultCompleted,
		TotalQuestions:       s.questionTarget,
		TotalAnswers:         answered,
		CompletionPercentage: 100,
		DurationMinutes:      &durationMinutes,
		EvaluationID:         evaluationID,
		FinalFeedback:        feedback,
	}); err != nil {
		slog.Error("finalizing interview result failed",
			slog.String("candidate_id", sess.CandidateID), slog.Any("error", err))
	}
}

// Reset cancels any in-progress interview and removes the session, returning
// the candidate to vacancy selection on next contact.
func (s *InterviewService) Reset(ctx domain.Context, candidateID string) error {
	sess, ok, err := s.Sessions.Get(ctx, candidateID)
	if err != nil {
		return fmt.Errorf("op=interview.Reset: %w", err)
	}
	if ok && sess.Stage == domain.StageInterviewing && sess.VacancyID != "" {
		if err := s.Results.Upsert(ctx, domain.InterviewResult{
			CandidateID:          candidateID,
			VacancyID:            sess.VacancyID,
			Status:               domain.ResultCancelled,
			TotalQuestions:       s.questionTarget,
			TotalAnswers:         sess.QuestionCount,
			CompletionPercentage: completionPercentage(sess.QuestionCount, s.questionTarget),
			ResultData:           map[string]any{"cancel_reason": "user-initiated reset"},
		}); err != nil {
			return fmt.Errorf("op=interview.Reset: %w", err)
		}
		s.publish(ctx, domain.InterviewEvent{
			Type: domain.EventInterviewCancelled, CandidateID: candidateID, VacancyID: sess.VacancyID,
			At: time.Now().UTC(), Data: map[string]any{"reason": "user-initiated reset"},
		})
		observability.InterviewsCancelledTotal.Inc()
	}
	if err := s.Sessions.Delete(ctx, candidateID); err != nil {
		return fmt.Errorf("op=interview.Reset: %w", err)
	}
	return nil
}

// HandleDocument attaches an uploaded document to the interview context.
// Extraction is best-effort: a failed or empty extraction acknowledges the
// upload without storing a turn. Documents do not count as answers.
func (s *InterviewService) HandleDocument(ctx domain.Context, candidateID, fileName, path string) (string, error) {
	sess, ok, err := s.Sessions.Get(ctx, candidateID)
	if err != nil {
		return "", fmt.Errorf("op=interview.HandleDocument: %w", err)
	}
	if !ok || sess.Stage != domain.StageInterviewing {
		return "", fmt.Errorf("op=interview.HandleDocument: %w", domain.ErrNoActiveSession)
	}
	text, err := s.Extractor.ExtractPath(ctx, fileName, path)
	if err != nil {
		slog.Warn("document extraction failed",
			slog.String("file", fileName), slog.Any("error", err))
		text = ""
	}
	text = textx.SanitizeText(text)
	if text == "" {
		return "I received the document but could not read any text from it. Let's continue with the interview.", nil
	}
	content := "Document " + fileName + ":\n" + textx.Truncate(text, maxDocumentChars)
	if _, err := s.Turns.Append(ctx, domain.Turn{
		CandidateID: candidateID, VacancyID: sess.VacancyID,
		Sender: domain.SenderCandidate, Kind: domain.TurnDocument, Content: content,
	}); err != nil {
		return "", fmt.Errorf("op=interview.HandleDocument: %w", err)
	}
	return "Thanks, I've attached your document to the interview context.", nil
}

// windowText renders the bounded context window fed back into prompts. The
// window is capped by turn count first, then trimmed oldest-first to the
// token budget.
func (s *InterviewService) windowText(ctx domain.Context, candidateID, vacancyID string) (string, error) {
	turns, err := s.Turns.Window(ctx, candidateID, vacancyID, s.contextTurns)
	if err != nil {
		return "", err
	}
	for len(turns) > 1 && s.counter.Count(renderTranscript(turns)) > s.tokenBudget {
		turns = turns[1:]
	}
	return renderTranscript(turns), nil
}

// publish emits a lifecycle event best-effort; failures never abort the flow.
func (s *InterviewService) publish(ctx domain.Context, ev domain.InterviewEvent) {
	if s.Events == nil {
		return
	}
	if err := s.Events.Publish(ctx, ev); err != nil {
		slog.Warn("publishing interview event failed",
			slog.String("type", ev.Type), slog.Any("error", err))
	}
}

// completionPercentage is min(100, round(answered/target*100)).
func completionPercentage(answered, target int) int {
	if target <= 0 {
		return 0
	}
	pct := int(float64(answered)/float64(target)*100 + 0.5)
	if pct > 100 {
		return 100
	}
	return pct
}
