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

func TestVacancyRepo_Create_GeneratesID(t *testing.T) {
	t.Parallel()
	pool := &poolStub{}
	repo := postgres.NewVacancyRepo(pool)
	id, err := repo.Create(context.Background(), domain.Vacancy{Title: "Backend Engineer", Active: true})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	require.Len(t, pool.gotSQL, 1)
	assert.Contains(t, pool.gotSQL[0], "INSERT INTO vacancies")
}

func TestVacancyRepo_Create_Error(t *testing.T) {
	t.Parallel()
	pool := &poolStub{execErr: errors.New("boom")}
	repo := postgres.NewVacancyRepo(pool)
	_, err := repo.Create(context.Background(), domain.Vacancy{Title: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "op=vacancy.create")
}

func TestVacancyRepo_Get_NotFound(t *testing.T) {
	t.Parallel()
	pool := &poolStub{row: rowStub{scan: func(_ ...any) error { return pgx.ErrNoRows }}}
	repo := postgres.NewVacancyRepo(pool)
	_, err := repo.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrVacancyNotFound)
}

func TestVacancyRepo_ListActive_ScansRows(t *testing.T) {
	t.Parallel()
	now := time.Now().UTC()
	pool := &poolStub{rows: &rowsStub{rows: [][]any{
		{"v1", "Backend Engineer", "Builds APIs", "Go, Postgres", true, 50, 25, 25, now},
		{"v2", "SRE", "Keeps it up", "Linux", true, 40, 30, 30, now},
	}}}
	repo := postgres.NewVacancyRepo(pool)
	out, err := repo.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "Backend Engineer", out[0].Title)
	assert.Equal(t, 50, out[0].TechnicalWeight)
	assert.True(t, out[1].Active)
}
