package postgres

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/ai-interviewer/internal/domain"
)

// EvaluationRepo persists evaluations. The unique key is (candidate_id,
// vacancy_id): a second completed interview replaces the first evaluation
// outright, no history retained.
type EvaluationRepo struct{ Pool PgxPool }

// NewEvaluationRepo constructs an EvaluationRepo with the given pool.
func NewEvaluationRepo(p PgxPool) *EvaluationRepo { return &EvaluationRepo{Pool: p} }

// Upsert inserts or replaces the evaluation for a (candidate, vacancy) pair
// and returns the row id.
func (r *EvaluationRepo) Upsert(ctx domain.Context, e domain.Evaluation) (string, error) {
	tracer := otel.Tracer("repo.evaluations")
	ctx, span := tracer.Start(ctx, "evaluations.Upsert")
	defer span.End()
	id := e.ID
	if id == "" {
		id = uuid.New().String()
	}
	strengths, _ := json.Marshal(orEmpty(e.Strengths))
	gaps, _ := json.Marshal(orEmpty(e.Gaps))
	contradictions, _ := json.Marshal(orEmpty(e.Contradictions))
	analysis, _ := json.Marshal(e.AnalysisData)
	q := `INSERT INTO evaluations (id, candidate_id, vacancy_id, overall_score, technical_score, communication_score, problem_solving_score, strengths, gaps, contradictions, recommendation, feedback, analysis_data, created_at)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	ON CONFLICT (candidate_id, vacancy_id)
	DO UPDATE SET overall_score=EXCLUDED.overall_score, technical_score=EXCLUDED.technical_score,
	communication_score=EXCLUDED.communication_score, problem_solving_score=EXCLUDED.problem_solving_score,
	strengths=EXCLUDED.strengths, gaps=EXCLUDED.gaps, contradictions=EXCLUDED.contradictions,
	recommendation=EXCLUDED.recommendation, feedback=EXCLUDED.feedback, analysis_data=EXCLUDED.analysis_data,
	created_at=EXCLUDED.created_at
	RETURNING id`
	row := r.Pool.QueryRow(ctx, q, id, e.CandidateID, e.VacancyID,
		e.OverallScore, e.TechnicalScore, e.CommunicationScore, e.ProblemSolvingScore,
		strengths, gaps, contradictions, string(e.Recommendation), e.Feedback, analysis, time.Now().UTC())
	var outID string
	if err := row.Scan(&outID); err != nil {
		return "", fmt.Errorf("op=evaluation.upsert: %w", err)
	}
	return outID, nil
}

// GetByPair loads the current evaluation for a (candidate, vacancy) pair.
func (r *EvaluationRepo) GetByPair(ctx domain.Context, candidateID, vacancyID string) (domain.Evaluation, error) {
	tracer := otel.Tracer("repo.evaluations")
	ctx, span := tracer.Start(ctx, "evaluations.GetByPair")
	defer span.End()
	q := evalSelect + ` WHERE candidate_id=$1 AND vacancy_id=$2`
	row := r.Pool.QueryRow(ctx, q, candidateID, vacancyID)
	e, err := scanEvaluation(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Evaluation{}, fmt.Errorf("op=evaluation.get: %w", domain.ErrNotFound)
		}
		return domain.Evaluation{}, fmt.Errorf("op=evaluation.get: %w", err)
	}
	return e, nil
}

// List returns evaluations for the admin surface, newest first.
func (r *EvaluationRepo) List(ctx domain.Context, f domain.EvaluationFilter) ([]domain.Evaluation, error) {
	tracer := otel.Tracer("repo.evaluations")
	ctx, span := tracer.Start(ctx, "evaluations.List")
	defer span.End()
	q := evalSelect + ` WHERE ($1 = '' OR candidate_id = $1) AND ($2 = '' OR vacancy_id = $2) AND ($3 = '' OR recommendation = $3)
	ORDER BY created_at DESC LIMIT $4 OFFSET $5`
	rows, err := r.Pool.Query(ctx, q, f.CandidateID, f.VacancyID, f.Recommendation, f.Limit, f.Offset)
	if err != nil {
		return nil, fmt.Errorf("op=evaluation.list: %w", err)
	}
	defer rows.Close()
	var out []domain.Evaluation
	for rows.Next() {
		e, err := scanEvaluation(rows)
		if err != nil {
			return nil, fmt.Errorf("op=evaluation.list: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=evaluation.list: %w", err)
	}
	return out, nil
}

const evalSelect = `SELECT id, candidate_id, vacancy_id, overall_score, technical_score, communication_score, problem_solving_score, strengths, gaps, contradictions, recommendation, feedback, analysis_data, created_at FROM evaluations`

func scanEvaluation(row pgx.Row) (domain.Evaluation, error) {
	var e domain.Evaluation
	var strengths, gaps, contradictions, analysis []byte
	var rec string
	if err := row.Scan(&e.ID, &e.CandidateID, &e.VacancyID,
		&e.OverallScore, &e.TechnicalScore, &e.CommunicationScore, &e.ProblemSolvingScore,
		&strengths, &gaps, &contradictions, &rec, &e.Feedback, &analysis, &e.CreatedAt); err != nil {
		return domain.Evaluation{}, err
	}
	e.Recommendation = domain.Recommendation(rec)
	_ = json.Unmarshal(strengths, &e.Strengths)
	_ = json.Unmarshal(gaps, &e.Gaps)
	_ = json.Unmarshal(contradictions, &e.Contradictions)
	_ = json.Unmarshal(analysis, &e.AnalysisData)
	return e, nil
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
