package httpserver

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/fairyhunter13/ai-interviewer/internal/config"
	"github.com/fairyhunter13/ai-interviewer/internal/domain"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 200
)

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() { vld = validator.New() })
	return vld
}

// Server wires the admin read handlers to the repositories.
type Server struct {
	Cfg     config.Config
	Turns   domain.TurnRepository
	Evals   domain.EvaluationRepository
	Results domain.ResultRepository
}

// NewServer constructs a Server.
func NewServer(cfg config.Config, turns domain.TurnRepository, evals domain.EvaluationRepository, results domain.ResultRepository) *Server {
	return &Server{Cfg: cfg, Turns: turns, Evals: evals, Results: results}
}

type pageQuery struct {
	CandidateID    string `validate:"max=128"`
	VacancyID      string `validate:"max=128"`
	Recommendation string `validate:"omitempty,oneof=proceed reject clarify"`
	Status         string `validate:"omitempty,oneof=in_progress completed cancelled"`
	Limit          int    `validate:"min=1,max=200"`
	Offset         int    `validate:"min=0"`
}

func parsePageQuery(r *http.Request) (pageQuery, error) {
	q := r.URL.Query()
	pq := pageQuery{
		CandidateID:    q.Get("candidate_id"),
		VacancyID:      q.Get("vacancy_id"),
		Recommendation: q.Get("recommendation"),
		Status:         q.Get("status"),
		Limit:          defaultPageLimit,
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return pageQuery{}, fmt.Errorf("%w: limit must be an integer", domain.ErrInvalidArgument)
		}
		pq.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return pageQuery{}, fmt.Errorf("%w: offset must be an integer", domain.ErrInvalidArgument)
		}
		pq.Offset = n
	}
	if pq.Limit > maxPageLimit {
		pq.Limit = maxPageLimit
	}
	if err := getValidator().Struct(pq); err != nil {
		return pageQuery{}, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
	}
	return pq, nil
}

// Wire DTOs. Timestamps serialize as RFC 3339; optional references stay
// explicit nulls for "not yet evaluated" rather than being coerced to zero.

type turnDTO struct {
	ID          string    `json:"id"`
	CandidateID string    `json:"candidate_id"`
	VacancyID   string    `json:"vacancy_id"`
	Sender      string    `json:"sender"`
	Kind        string    `json:"kind"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"created_at"`
}

type evaluationDTO struct {
	ID                  string         `json:"id"`
	CandidateID         string         `json:"candidate_id"`
	VacancyID           string         `json:"vacancy_id"`
	OverallScore        int            `json:"overall_score"`
	TechnicalScore      int            `json:"technical_score"`
	CommunicationScore  int            `json:"communication_score"`
	ProblemSolvingScore int            `json:"problem_solving_score"`
	Strengths           []string       `json:"strengths"`
	Gaps                []string       `json:"gaps"`
	Contradictions      []string       `json:"contradictions"`
	Recommendation      string         `json:"recommendation"`
	Feedback            string         `json:"feedback"`
	AnalysisData        map[string]any `json:"analysis_data"`
	CreatedAt           time.Time      `json:"created_at"`
}

type resultDTO struct {
	CandidateID          string         `json:"candidate_id"`
	VacancyID            string         `json:"vacancy_id"`
	Status               string         `json:"status"`
	TotalQuestions       int            `json:"total_questions"`
	TotalAnswers         int            `json:"total_answers"`
	CompletionPercentage int            `json:"completion_percentage"`
	DurationMinutes      *int           `json:"duration_minutes"`
	EvaluationID         *string        `json:"evaluation_id"`
	FinalFeedback        *string        `json:"final_feedback"`
	FollowUpRequired     bool           `json:"follow_up_required"`
	FollowUpDate         *time.Time     `json:"follow_up_date"`
	ResultData           map[string]any `json:"result_data"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
}

type listEnvelope[T any] struct {
	Items  []T `json:"items"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// ListTurnsHandler serves GET /v1/turns.
func (s *Server) ListTurnsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pq, err := parsePageQuery(r)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		turns, err := s.Turns.List(r.Context(), domain.TurnFilter{
			CandidateID: pq.CandidateID, VacancyID: pq.VacancyID,
			Limit: pq.Limit, Offset: pq.Offset,
		})
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		items := make([]turnDTO, 0, len(turns))
		for _, t := range turns {
			items = append(items, turnDTO{
				ID: t.ID, CandidateID: t.CandidateID, VacancyID: t.VacancyID,
				Sender: string(t.Sender), Kind: string(t.Kind),
				Content: t.Content, CreatedAt: t.CreatedAt.UTC(),
			})
		}
		writeJSON(w, http.StatusOK, listEnvelope[turnDTO]{Items: items, Limit: pq.Limit, Offset: pq.Offset})
	}
}

// ListEvaluationsHandler serves GET /v1/evaluations.
func (s *Server) ListEvaluationsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pq, err := parsePageQuery(r)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		evals, err := s.Evals.List(r.Context(), domain.EvaluationFilter{
			CandidateID: pq.CandidateID, VacancyID: pq.VacancyID,
			Recommendation: pq.Recommendation, Limit: pq.Limit, Offset: pq.Offset,
		})
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		items := make([]evaluationDTO, 0, len(evals))
		for _, e := range evals {
			items = append(items, evaluationDTO{
				ID: e.ID, CandidateID: e.CandidateID, VacancyID: e.VacancyID,
				OverallScore: e.OverallScore, TechnicalScore: e.TechnicalScore,
				CommunicationScore: e.CommunicationScore, ProblemSolvingScore: e.ProblemSolvingScore,
				Strengths: orEmptySlice(e.Strengths), Gaps: orEmptySlice(e.Gaps),
				Contradictions: orEmptySlice(e.Contradictions),
				Recommendation: string(e.Recommendation), Feedback: e.Feedback,
				AnalysisData: e.AnalysisData, CreatedAt: e.CreatedAt.UTC(),
			})
		}
		writeJSON(w, http.StatusOK, listEnvelope[evaluationDTO]{Items: items, Limit: pq.Limit, Offset: pq.Offset})
	}
}

// ListResultsHandler serves GET /v1/results.
func (s *Server) ListResultsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pq, err := parsePageQuery(r)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		results, err := s.Results.List(r.Context(), domain.ResultFilter{
			CandidateID: pq.CandidateID, VacancyID: pq.VacancyID,
			Status: pq.Status, Limit: pq.Limit, Offset: pq.Offset,
		})
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		items := make([]resultDTO, 0, len(results))
		for _, res := range results {
			items = append(items, resultDTO{
				CandidateID: res.CandidateID, VacancyID: res.VacancyID,
				Status: string(res.Status), TotalQuestions: res.TotalQuestions,
				TotalAnswers: res.TotalAnswers, CompletionPercentage: res.CompletionPercentage,
				DurationMinutes: res.DurationMinutes, EvaluationID: res.EvaluationID,
				FinalFeedback: res.FinalFeedback, FollowUpRequired: res.FollowUpRequired,
				FollowUpDate: res.FollowUpDate, ResultData: res.ResultData,
				CreatedAt: res.CreatedAt.UTC(), UpdatedAt: res.UpdatedAt.UTC(),
			})
		}
		writeJSON(w, http.StatusOK, listEnvelope[resultDTO]{Items: items, Limit: pq.Limit, Offset: pq.Offset})
	}
}

func orEmptySlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
