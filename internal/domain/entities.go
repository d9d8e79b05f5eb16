package domain

import (
	"context"
	"errors"
	"time"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrNotFound         = errors.New("not found")
	ErrVacancyNotFound  = errors.New("vacancy not found")
	ErrNoActiveSession  = errors.New("no active session")
	ErrTemplateNotFound = errors.New("template not found")
	ErrGenerationFailed = errors.New("generation failed")
	ErrInternal         = errors.New("internal error")
)

// Stage enumerates the lifecycle of an interview session.
type Stage string

const (
	StageSelectingVacancy Stage = "selecting_vacancy"
	StageInterviewing     Stage = "interviewing"
	StageCompleted        Stage = "completed"
)

// Sender enumerates who authored a turn.
type Sender string

const (
	SenderCandidate Sender = "candidate"
	SenderAssistant Sender = "assistant"
)

// TurnKind enumerates the payload type of a turn.
type TurnKind string

const (
	TurnText     TurnKind = "text"
	TurnAudio    TurnKind = "audio"
	TurnDocument TurnKind = "document"
	TurnSystem   TurnKind = "system"
)

// Turn is one message in a conversation, immutable once written.
// Turns for a (candidate, vacancy) pair are totally ordered by ID,
// which is a ULID and therefore sorts by creation time.
type Turn struct {
	ID          string
	CandidateID string
	VacancyID   string
	Sender      Sender
	Kind        TurnKind
	Content     string
	CreatedAt   time.Time
}

// Vacancy is a job opening a candidate can interview for.
// The per-axis weights bias the evaluation prompt, not a post-hoc weighted sum.
type Vacancy struct {
	ID                   string
	Title                string
	Description          string
	Requirements         string
	Active               bool
	TechnicalWeight      int
	CommunicationWeight  int
	ProblemSolvingWeight int
	CreatedAt            time.Time
}

// Recommendation is the closed-set outcome of an evaluation.
type Recommendation string

const (
	RecommendProceed Recommendation = "proceed"
	RecommendReject  Recommendation = "reject"
	RecommendClarify Recommendation = "clarify"
)

// Evaluation is the structured multi-axis outcome of a completed interview.
// Invariants: all scores in [0,100]; Recommendation one of the three literals.
// At most one current evaluation per (candidate, vacancy); a re-run replaces it.
type Evaluation struct {
	ID                  string
	CandidateID         string
	VacancyID           string
	OverallScore        int
	TechnicalScore      int
	CommunicationScore  int
	ProblemSolvingScore int
	Strengths           []string
	Gaps                []string
	Contradictions      []string
	Recommendation      Recommendation
	Feedback            string
	AnalysisData        map[string]any
	CreatedAt           time.Time
}

// ResultStatus enumerates interview result states.
type ResultStatus string

const (
	ResultInProgress ResultStatus = "in_progress"
	ResultCompleted  ResultStatus = "completed"
	ResultCancelled  ResultStatus = "cancelled"
)

// InterviewResult is the durable mirror of session progress, one row per
// (candidate, vacancy). It survives process restarts; the in-memory session
// does not.
type InterviewResult struct {
	CandidateID          string
	VacancyID            string
	Status               ResultStatus
	TotalQuestions       int
	TotalAnswers         int
	CompletionPercentage int
	DurationMinutes      *int
	EvaluationID         *string
	FinalFeedback        *string
	FollowUpRequired     bool
	FollowUpDate         *time.Time
	ResultData           map[string]any
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Session is the ephemeral per-candidate interview progress state.
// It is owned by the SessionStore and may be lost on restart: a restarted
// candidate starts over at vacancy selection while their durable history and
// any completed evaluation remain queryable.
type Session struct {
	CandidateID   string    `json:"candidate_id"`
	Stage         Stage     `json:"stage"`
	VacancyID     string    `json:"vacancy_id,omitempty"`
	QuestionCount int       `json:"question_count"`
	StartedAt     time.Time `json:"started_at"`
	LastActivity  time.Time `json:"last_activity"`
}

// InterviewEvent is a lifecycle event published for the analytics pipeline.
type InterviewEvent struct {
	Type        string         `json:"type"`
	CandidateID string         `json:"candidate_id"`
	VacancyID   string         `json:"vacancy_id"`
	At          time.Time      `json:"at"`
	Data        map[string]any `json:"data,omitempty"`
}

// Event types.
const (
	EventInterviewStarted   = "interview.started"
	EventInterviewProgress  = "interview.progress"
	EventInterviewCompleted = "interview.completed"
	EventInterviewCancelled = "interview.cancelled"
)

// Context is an alias so the domain layer does not import std context at
// every call site; adapters and usecases pass context.Context through.
type Context = context.Context
