package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-interviewer/internal/adapter/repo/postgres"
	"github.com/fairyhunter13/ai-interviewer/internal/domain"
)

func TestResultRepo_Upsert(t *testing.T) {
	t.Parallel()
	pool := &poolStub{}
	repo := postgres.NewResultRepo(pool)
	err := repo.Upsert(context.Background(), domain.InterviewResult{
		CandidateID: "c1", VacancyID: "v1", Status: domain.ResultInProgress,
		TotalQuestions: 5, TotalAnswers: 2, CompletionPercentage: 40,
	})
	require.NoError(t, err)
	require.Len(t, pool.gotSQL, 1)
	assert.Contains(t, pool.gotSQL[0], "ON CONFLICT (candidate_id, vacancy_id)")
}

func TestResultRepo_Upsert_Error(t *testing.T) {
	t.Parallel()
	pool := &poolStub{execErr: errors.New("db down")}
	repo := postgres.NewResultRepo(pool)
	err := repo.Upsert(context.Background(), domain.InterviewResult{CandidateID: "c1", VacancyID: "v1"})
	require.Error(t, err)
}

func TestResultRepo_GetByPair_NotFound(t *testing.T) {
	t.Parallel()
	pool := &poolStub{row: rowStub{scan: func(_ ...any) error { return pgx.ErrNoRows }}}
	repo := postgres.NewResultRepo(pool)
	_, err := repo.GetByPair(context.Background(), "c1", "v1")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestResultRepo_List_ScansRows(t *testing.T) {
	t.Parallel()
	now := time.Now().UTC()
	durPtr := 12
	evalID := "eval-1"
	feedback := "well done"
	pool := &poolStub{rows: &rowsStub{rows: [][]any{
		{"c1", "v1", "completed", 5, 5, 100, &durPtr, &evalID, &feedback, false, (*time.Time)(nil), []byte(`{"k":"v"}`), now, now},
	}}}
	repo := postgres.NewResultRepo(pool)
	out, err := repo.List(context.Background(), domain.ResultFilter{Status: "completed", Limit: 10})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, domain.ResultCompleted, out[0].Status)
	require.NotNil(t, out[0].DurationMinutes)
	assert.Equal(t, 12, *out[0].DurationMinutes)
	assert.Equal(t, "v", out[0].ResultData["k"])
}
