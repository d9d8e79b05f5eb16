package postgres

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/ai-interviewer/internal/domain"
)

// TurnRepo persists conversation turns. The log is append-only: no update or
// delete statements exist in this file on purpose. Turn ids are ULIDs so
// lexicographic order is creation order.
type TurnRepo struct{ Pool PgxPool }

// NewTurnRepo constructs a TurnRepo with the given pool.
func NewTurnRepo(p PgxPool) *TurnRepo { return &TurnRepo{Pool: p} }

// Append inserts a turn and returns its id.
func (r *TurnRepo) Append(ctx domain.Context, t domain.Turn) (string, error) {
	tracer := otel.Tracer("repo.turns")
	ctx, span := tracer.Start(ctx, "turns.Append")
	defer span.End()
	id := t.ID
	now := time.Now().UTC()
	if id == "" {
		id = ulid.MustNew(ulid.Timestamp(now), rand.Reader).String()
	}
	q := `INSERT INTO turns (id, candidate_id, vacancy_id, sender, kind, content, created_at) VALUES ($1,$2,$3,$4,$5,$6,$7)`
	_, err := r.Pool.Exec(ctx, q, id, t.CandidateID, t.VacancyID, t.Sender, t.Kind, t.Content, now)
	if err != nil {
		return "", fmt.Errorf("op=turn.append: %w", err)
	}
	return id, nil
}

// Window returns the most recent limit turns for the pair in chronological
// order. Turns are partitioned by vacancy: switching vacancies starts a fresh
// context even for the same candidate.
func (r *TurnRepo) Window(ctx domain.Context, candidateID, vacancyID string, limit int) ([]domain.Turn, error) {
	tracer := otel.Tracer("repo.turns")
	ctx, span := tracer.Start(ctx, "turns.Window")
	defer span.End()
	q := `SELECT id, candidate_id, vacancy_id, sender, kind, content, created_at
	FROM turns WHERE candidate_id=$1 AND vacancy_id=$2 ORDER BY id DESC LIMIT $3`
	rows, err := r.Pool.Query(ctx, q, candidateID, vacancyID, limit)
	if err != nil {
		return nil, fmt.Errorf("op=turn.window: %w", err)
	}
	defer rows.Close()
	turns, err := scanTurns(rows)
	if err != nil {
		return nil, fmt.Errorf("op=turn.window: %w", err)
	}
	// Reverse newest-first into chronological order.
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

// List returns turns for the admin surface, newest first.
func (r *TurnRepo) List(ctx domain.Context, f domain.TurnFilter) ([]domain.Turn, error) {
	tracer := otel.Tracer("repo.turns")
	ctx, span := tracer.Start(ctx, "turns.List")
	defer span.End()
	q := `SELECT id, candidate_id, vacancy_id, sender, kind, content, created_at
	FROM turns WHERE ($1 = '' OR candidate_id = $1) AND ($2 = '' OR vacancy_id = $2)
	ORDER BY id DESC LIMIT $3 OFFSET $4`
	rows, err := r.Pool.Query(ctx, q, f.CandidateID, f.VacancyID, f.Limit, f.Offset)
	if err != nil {
		return nil, fmt.Errorf("op=turn.list: %w", err)
	}
	defer rows.Close()
	turns, err := scanTurns(rows)
	if err != nil {
		return nil, fmt.Errorf("op=turn.list: %w", err)
	}
	return turns, nil
}

func scanTurns(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]domain.Turn, error) {
	var turns []domain.Turn
	for rows.Next() {
		var t domain.Turn
		if err := rows.Scan(&t.ID, &t.CandidateID, &t.VacancyID, &t.Sender, &t.Kind, &t.Content, &t.CreatedAt); err != nil {
			return nil, err
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}
