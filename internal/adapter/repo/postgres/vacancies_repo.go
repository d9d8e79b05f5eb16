package postgres

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/ai-interviewer/internal/domain"
)

// VacancyRepo persists and loads vacancies.
type VacancyRepo struct{ Pool PgxPool }

// NewVacancyRepo constructs a VacancyRepo with the given pool.
func NewVacancyRepo(p PgxPool) *VacancyRepo { return &VacancyRepo{Pool: p} }

// Create inserts a vacancy and returns its id.
func (r *VacancyRepo) Create(ctx domain.Context, v domain.Vacancy) (string, error) {
	tracer := otel.Tracer("repo.vacancies")
	ctx, span := tracer.Start(ctx, "vacancies.Create")
	defer span.End()
	id := v.ID
	if id == "" {
		id = uuid.New().String()
	}
	q := `INSERT INTO vacancies (id, title, description, requirements, active, technical_weight, communication_weight, problem_solving_weight, created_at)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`
	_, err := r.Pool.Exec(ctx, q, id, v.Title, v.Description, v.Requirements, v.Active,
		v.TechnicalWeight, v.CommunicationWeight, v.ProblemSolvingWeight, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("op=vacancy.create: %w", err)
	}
	return id, nil
}

// Get loads a vacancy by id.
func (r *VacancyRepo) Get(ctx domain.Context, id string) (domain.Vacancy, error) {
	tracer := otel.Tracer("repo.vacancies")
	ctx, span := tracer.Start(ctx, "vacancies.Get")
	defer span.End()
	q := `SELECT id, title, description, requirements, active, technical_weight, communication_weight, problem_solving_weight, created_at
	FROM vacancies WHERE id=$1`
	row := r.Pool.QueryRow(ctx, q, id)
	var v domain.Vacancy
	if err := row.Scan(&v.ID, &v.Title, &v.Description, &v.Requirements, &v.Active,
		&v.TechnicalWeight, &v.CommunicationWeight, &v.ProblemSolvingWeight, &v.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return domain.Vacancy{}, fmt.Errorf("op=vacancy.get: %w", domain.ErrVacancyNotFound)
		}
		return domain.Vacancy{}, fmt.Errorf("op=vacancy.get: %w", err)
	}
	return v, nil
}

// ListActive returns vacancies open for interviewing, oldest first.
func (r *VacancyRepo) ListActive(ctx domain.Context) ([]domain.Vacancy, error) {
	tracer := otel.Tracer("repo.vacancies")
	ctx, span := tracer.Start(ctx, "vacancies.ListActive")
	defer span.End()
	q := `SELECT id, title, description, requirements, active, technical_weight, communication_weight, problem_solving_weight, created_at
	FROM vacancies WHERE active ORDER BY created_at`
	rows, err := r.Pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("op=vacancy.list_active: %w", err)
	}
	defer rows.Close()
	var out []domain.Vacancy
	for rows.Next() {
		var v domain.Vacancy
		if err := rows.Scan(&v.ID, &v.Title, &v.Description, &v.Requirements, &v.Active,
			&v.TechnicalWeight, &v.CommunicationWeight, &v.ProblemSolvingWeight, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("op=vacancy.list_active: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=vacancy.list_active: %w", err)
	}
	return out, nil
}
