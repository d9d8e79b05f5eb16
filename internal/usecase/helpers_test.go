package usecase_test

import (
	"strconv"
	"sync"
	"time"

	"github.com/fairyhunter13/ai-interviewer/internal/config"
	"github.com/fairyhunter13/ai-interviewer/internal/domain"
)

func testConfig() config.Config {
	return config.Config{
		QuestionTarget:     5,
		ContextTurns:       20,
		ContextTokenBudget: 6000,
	}
}

type fakeSessions struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{sessions: map[string]domain.Session{}}
}

func (f *fakeSessions) Get(_ domain.Context, candidateID string) (domain.Session, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[candidateID]
	return s, ok, nil
}

func (f *fakeSessions) Set(_ domain.Context, s domain.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[s.CandidateID] = s
	return nil
}

func (f *fakeSessions) Delete(_ domain.Context, candidateID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, candidateID)
	return nil
}

type fakeTurns struct {
	mu        sync.Mutex
	turns     []domain.Turn
	appendErr error
}

func (f *fakeTurns) Append(_ domain.Context, t domain.Turn) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return "", f.appendErr
	}
	t.ID = strconv.Itoa(len(f.turns) + 1)
	t.CreatedAt = time.Now().UTC()
	f.turns = append(f.turns, t)
	return t.ID, nil
}

func (f *fakeTurns) Window(_ domain.Context, candidateID, vacancyID string, limit int) ([]domain.Turn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Turn
	for _, t := range f.turns {
		if t.CandidateID == candidateID && t.VacancyID == vacancyID {
			out = append(out, t)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (f *fakeTurns) List(_ domain.Context, filter domain.TurnFilter) ([]domain.Turn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Turn
	for _, t := range f.turns {
		if (filter.CandidateID == "" || t.CandidateID == filter.CandidateID) &&
			(filter.VacancyID == "" || t.VacancyID == filter.VacancyID) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTurns) bySender(sender domain.Sender) []domain.Turn {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Turn
	for _, t := range f.turns {
		if t.Sender == sender {
			out = append(out, t)
		}
	}
	return out
}

type fakeVacancies struct {
	vacancies map[string]domain.Vacancy
}

func newFakeVacancies(vs ...domain.Vacancy) *fakeVacancies {
	m := map[string]domain.Vacancy{}
	for _, v := range vs {
		m[v.ID] = v
	}
	return &fakeVacancies{vacancies: m}
}

func (f *fakeVacancies) Create(_ domain.Context, v domain.Vacancy) (string, error) {
	f.vacancies[v.ID] = v
	return v.ID, nil
}

func (f *fakeVacancies) Get(_ domain.Context, id string) (domain.Vacancy, error) {
	v, ok := f.vacancies[id]
	if !ok {
		return domain.Vacancy{}, domain.ErrVacancyNotFound
	}
	return v, nil
}

func (f *fakeVacancies) ListActive(_ domain.Context) ([]domain.Vacancy, error) {
	var out []domain.Vacancy
	for _, v := range f.vacancies {
		if v.Active {
			out = append(out, v)
		}
	}
	return out, nil
}

type fakeResults struct {
	mu      sync.Mutex
	current map[string]domain.InterviewResult
	history []domain.InterviewResult
}

func newFakeResults() *fakeResults {
	return &fakeResults{current: map[string]domain.InterviewResult{}}
}

func (f *fakeResults) Upsert(_ domain.Context, r domain.InterviewResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current[r.CandidateID+"|"+r.VacancyID] = r
	f.history = append(f.history, r)
	return nil
}

func (f *fakeResults) GetByPair(_ domain.Context, candidateID, vacancyID string) (domain.InterviewResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.current[candidateID+"|"+vacancyID]
	if !ok {
		return domain.InterviewResult{}, domain.ErrNotFound
	}
	return r, nil
}

func (f *fakeResults) List(_ domain.Context, _ domain.ResultFilter) ([]domain.InterviewResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.InterviewResult, 0, len(f.current))
	for _, r := range f.current {
		out = append(out, r)
	}
	return out, nil
}

// fakeAI scripts the completion gateway with a prompt-inspecting function.
type fakeAI struct {
	mu      sync.Mutex
	fn      func(prompt string) (string, error)
	prompts []string
}

func (f *fakeAI) Generate(_ domain.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	return f.fn(prompt)
}

func (f *fakeAI) TestConnection(_ domain.Context) bool { return true }

type fakeEvaluations struct {
	mu      sync.Mutex
	upserts []domain.Evaluation
}

func (f *fakeEvaluations) Upsert(_ domain.Context, e domain.Evaluation) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e.ID = "eval-" + strconv.Itoa(len(f.upserts)+1)
	f.upserts = append(f.upserts, e)
	return e.ID, nil
}

func (f *fakeEvaluations) GetByPair(_ domain.Context, candidateID, vacancyID string) (domain.Evaluation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.upserts) - 1; i >= 0; i-- {
		if f.upserts[i].CandidateID == candidateID && f.upserts[i].VacancyID == vacancyID {
			return f.upserts[i], nil
		}
	}
	return domain.Evaluation{}, domain.ErrNotFound
}

func (f *fakeEvaluations) List(_ domain.Context, _ domain.EvaluationFilter) ([]domain.Evaluation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Evaluation(nil), f.upserts...), nil
}

type fakeEvents struct {
	mu     sync.Mutex
	events []domain.InterviewEvent
	err    error
}

func (f *fakeEvents) Publish(_ domain.Context, ev domain.InterviewEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeEvents) byType(eventType string) []domain.InterviewEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.InterviewEvent
	for _, ev := range f.events {
		if ev.Type == eventType {
			out = append(out, ev)
		}
	}
	return out
}

type fakeExtractor struct {
	text string
	err  error
}

func (f *fakeExtractor) ExtractPath(_ domain.Context, _, _ string) (string, error) {
	return f.text, f.err
}
