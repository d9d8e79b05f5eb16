package postgres

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/ai-interviewer/internal/domain"
)

// ResultRepo persists interview results, one row per (candidate, vacancy),
// with idempotent upserts across the session lifetime.
type ResultRepo struct{ Pool PgxPool }

// NewResultRepo constructs a ResultRepo with the given pool.
func NewResultRepo(p PgxPool) *ResultRepo { return &ResultRepo{Pool: p} }

// Upsert inserts or updates the result keyed by (candidate_id, vacancy_id).
func (r *ResultRepo) Upsert(ctx domain.Context, res domain.InterviewResult) error {
	tracer := otel.Tracer("repo.results")
	ctx, span := tracer.Start(ctx, "results.Upsert")
	defer span.End()
	resultData, _ := json.Marshal(res.ResultData)
	now := time.Now().UTC()
	q := `INSERT INTO interview_results (candidate_id, vacancy_id, status, total_questions, total_answers, completion_percentage, duration_minutes, evaluation_id, final_feedback, follow_up_required, follow_up_date, result_data, created_at, updated_at)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$13)
	ON CONFLICT (candidate_id, vacancy_id)
	DO UPDATE SET status=EXCLUDED.status, total_questions=EXCLUDED.total_questions, total_answers=EXCLUDED.total_answers,
	completion_percentage=EXCLUDED.completion_percentage, duration_minutes=EXCLUDED.duration_minutes,
	evaluation_id=EXCLUDED.evaluation_id, final_feedback=EXCLUDED.final_feedback,
	follow_up_required=EXCLUDED.follow_up_required, follow_up_date=EXCLUDED.follow_up_date,
	result_data=EXCLUDED.result_data, updated_at=EXCLUDED.updated_at`
	_, err := r.Pool.Exec(ctx, q, res.CandidateID, res.VacancyID, string(res.Status),
		res.TotalQuestions, res.TotalAnswers, res.CompletionPercentage, res.DurationMinutes,
		res.EvaluationID, res.FinalFeedback, res.FollowUpRequired, res.FollowUpDate, resultData, now)
	if err != nil {
		return fmt.Errorf("op=result.upsert: %w", err)
	}
	return nil
}

// GetByPair loads the result for a (candidate, vacancy) pair.
func (r *ResultRepo) GetByPair(ctx domain.Context, candidateID, vacancyID string) (domain.InterviewResult, error) {
	tracer := otel.Tracer("repo.results")
	ctx, span := tracer.Start(ctx, "results.GetByPair")
	defer span.End()
	q := resultSelect + ` WHERE candidate_id=$1 AND vacancy_id=$2`
	row := r.Pool.QueryRow(ctx, q, candidateID, vacancyID)
	res, err := scanResult(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.InterviewResult{}, fmt.Errorf("op=result.get: %w", domain.ErrNotFound)
		}
		return domain.InterviewResult{}, fmt.Errorf("op=result.get: %w", err)
	}
	return res, nil
}

// List returns results for the admin surface, most recently updated first.
func (r *ResultRepo) List(ctx domain.Context, f domain.ResultFilter) ([]domain.InterviewResult, error) {
	tracer := otel.Tracer("repo.results")
	ctx, span := tracer.Start(ctx, "results.List")
	defer span.End()
	q := resultSelect + ` WHERE ($1 = '' OR candidate_id = $1) AND ($2 = '' OR vacancy_id = $2) AND ($3 = '' OR status = $3)
	ORDER BY updated_at DESC LIMIT $4 OFFSET $5`
	rows, err := r.Pool.Query(ctx, q, f.CandidateID, f.VacancyID, f.Status, f.Limit, f.Offset)
	if err != nil {
		return nil, fmt.Errorf("op=result.list: %w", err)
	}
	defer rows.Close()
	var out []domain.InterviewResult
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("op=result.list: %w", err)
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=result.list: %w", err)
	}
	return out, nil
}

const resultSelect = `SELECT candidate_id, vacancy_id, status, total_questions, total_answers, completion_percentage, duration_minutes, evaluation_id, final_feedback, follow_up_required, follow_up_date, result_data, created_at, updated_at FROM interview_results`

func scanResult(row pgx.Row) (domain.InterviewResult, error) {
	var res domain.InterviewResult
	var status string
	var resultData []byte
	if err := row.Scan(&res.CandidateID, &res.VacancyID, &status,
		&res.TotalQuestions, &res.TotalAnswers, &res.CompletionPercentage,
		&res.DurationMinutes, &res.EvaluationID, &res.FinalFeedback,
		&res.FollowUpRequired, &res.FollowUpDate, &resultData,
		&res.CreatedAt, &res.UpdatedAt); err != nil {
		return domain.InterviewResult{}, err
	}
	res.Status = domain.ResultStatus(status)
	_ = json.Unmarshal(resultData, &res.ResultData)
	return res, nil
}
