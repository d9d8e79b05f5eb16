package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-interviewer/internal/adapter/repo/postgres"
	"github.com/fairyhunter13/ai-interviewer/internal/domain"
)

func TestEvaluationRepo_Upsert_ReturnsID(t *testing.T) {
	t.Parallel()
	pool := &poolStub{row: rowStub{scan: func(dest ...any) error {
		*(dest[0].(*string)) = "eval-1"
		return nil
	}}}
	repo := postgres.NewEvaluationRepo(pool)
	id, err := repo.Upsert(context.Background(), domain.Evaluation{
		CandidateID: "c1", VacancyID: "v1", OverallScore: 80,
		Recommendation: domain.RecommendProceed,
	})
	require.NoError(t, err)
	assert.Equal(t, "eval-1", id)
	require.Len(t, pool.gotSQL, 1)
	assert.Contains(t, pool.gotSQL[0], "ON CONFLICT (candidate_id, vacancy_id)")
}

func TestEvaluationRepo_Upsert_NilArraysStoredAsEmpty(t *testing.T) {
	t.Parallel()
	pool := &poolStub{row: rowStub{scan: func(dest ...any) error {
		*(dest[0].(*string)) = "eval-1"
		return nil
	}}}
	repo := postgres.NewEvaluationRepo(pool)
	_, err := repo.Upsert(context.Background(), domain.Evaluation{CandidateID: "c1", VacancyID: "v1"})
	require.NoError(t, err)
	// strengths is the 8th positional arg ($8)
	assert.JSONEq(t, `[]`, string(pool.gotArgs[0][7].([]byte)))
}

func TestEvaluationRepo_GetByPair_NotFound(t *testing.T) {
	t.Parallel()
	pool := &poolStub{row: rowStub{scan: func(_ ...any) error { return pgx.ErrNoRows }}}
	repo := postgres.NewEvaluationRepo(pool)
	_, err := repo.GetByPair(context.Background(), "c1", "v1")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEvaluationRepo_List_ScansRows(t *testing.T) {
	t.Parallel()
	now := time.Now().UTC()
	pool := &poolStub{rows: &rowsStub{rows: [][]any{
		{"eval-1", "c1", "v1", 80, 75, 85, 78, []byte(`["a"]`), []byte(`[]`), []byte(`[]`), "proceed", "fine", []byte(`{}`), now},
	}}}
	repo := postgres.NewEvaluationRepo(pool)
	out, err := repo.List(context.Background(), domain.EvaluationFilter{Recommendation: "proceed", Limit: 10})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, domain.RecommendProceed, out[0].Recommendation)
	assert.Equal(t, []string{"a"}, out[0].Strengths)
	assert.Equal(t, 80, out[0].OverallScore)
}
