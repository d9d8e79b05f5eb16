package domain

// Repositories (ports)

// TurnFilter narrows turn listings for the admin surface.
type TurnFilter struct {
	CandidateID string
	VacancyID   string
	Limit       int
	Offset      int
}

// EvaluationFilter narrows evaluation listings for the admin surface.
type EvaluationFilter struct {
	CandidateID    string
	VacancyID      string
	Recommendation string
	Limit          int
	Offset         int
}

// ResultFilter narrows interview result listings for the admin surface.
type ResultFilter struct {
	CandidateID string
	VacancyID   string
	Status      string
	Limit       int
	Offset      int
}

// TurnRepository is the append-only log of conversation turns.
// Append never mutates existing rows; Window returns the most recent limit
// turns for the pair in chronological order.
type TurnRepository interface {
	Append(ctx Context, t Turn) (string, error)
	Window(ctx Context, candidateID, vacancyID string, limit int) ([]Turn, error)
	List(ctx Context, f TurnFilter) ([]Turn, error)
}

// VacancyRepository provides vacancy lookups.
type VacancyRepository interface {
	Create(ctx Context, v Vacancy) (string, error)
	Get(ctx Context, id string) (Vacancy, error)
	ListActive(ctx Context) ([]Vacancy, error)
}

// EvaluationRepository persists evaluations, keyed by (candidate, vacancy):
// upserting a second evaluation for the pair replaces the first outright.
type EvaluationRepository interface {
	Upsert(ctx Context, e Evaluation) (string, error)
	GetByPair(ctx Context, candidateID, vacancyID string) (Evaluation, error)
	List(ctx Context, f EvaluationFilter) ([]Evaluation, error)
}

// ResultRepository persists interview results with idempotent upserts keyed
// on (candidate, vacancy).
type ResultRepository interface {
	Upsert(ctx Context, r InterviewResult) error
	GetByPair(ctx Context, candidateID, vacancyID string) (InterviewResult, error)
	List(ctx Context, f ResultFilter) ([]InterviewResult, error)
}

// SessionStore owns the volatile per-candidate session state. Implementations
// may be an in-memory map (single process, tests) or a shared cache.
type SessionStore interface {
	Get(ctx Context, candidateID string) (Session, bool, error)
	Set(ctx Context, s Session) error
	Delete(ctx Context, candidateID string) error
}

// CompletionClient abstracts any language-model backend capable of text
// completion. Generate is synchronous from the caller's perspective and does
// not retry beyond transport-level concerns.
type CompletionClient interface {
	Generate(ctx Context, prompt string) (string, error)
	TestConnection(ctx Context) bool
}

// TextExtractor extracts plain text from an uploaded file, best-effort.
type TextExtractor interface {
	ExtractPath(ctx Context, fileName, path string) (string, error)
}

// EventPublisher emits interview lifecycle events. Publishing is best-effort;
// failures must never abort the interview flow.
type EventPublisher interface {
	Publish(ctx Context, ev InterviewEvent) error
}

// Transport is the outward chat channel capability. Message delivery
// internals (bot API, webhooks) stay outside the orchestration core.
type Transport interface {
	SendText(ctx Context, candidateID, text string) error
	SendTyping(ctx Context, candidateID string) error
	// DownloadAttachment fetches an attachment by reference and returns a
	// local file path.
	DownloadAttachment(ctx Context, ref string) (string, error)
}
