package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-interviewer/internal/adapter/repo/postgres"
	"github.com/fairyhunter13/ai-interviewer/internal/domain"
)

func TestTurnRepo_Append_GeneratesULID(t *testing.T) {
	t.Parallel()
	pool := &poolStub{}
	repo := postgres.NewTurnRepo(pool)
	id, err := repo.Append(context.Background(), domain.Turn{
		CandidateID: "c1", VacancyID: "v1", Sender: domain.SenderCandidate, Kind: domain.TurnText, Content: "hi",
	})
	require.NoError(t, err)
	assert.Len(t, id, 26) // ULID string length
	require.Len(t, pool.gotArgs, 1)
	assert.Equal(t, id, pool.gotArgs[0][0])
}

func TestTurnRepo_Append_Error(t *testing.T) {
	t.Parallel()
	pool := &poolStub{execErr: errors.New("db down")}
	repo := postgres.NewTurnRepo(pool)
	_, err := repo.Append(context.Background(), domain.Turn{CandidateID: "c1", VacancyID: "v1"})
	require.Error(t, err)
}

func TestTurnRepo_Window_ChronologicalOrder(t *testing.T) {
	t.Parallel()
	now := time.Now().UTC()
	// The query returns newest-first; Window must hand back chronological order.
	pool := &poolStub{rows: &rowsStub{rows: [][]any{
		{"02", "c1", "v1", "assistant", "text", "second", now},
		{"01", "c1", "v1", "candidate", "text", "first", now.Add(-time.Minute)},
	}}}
	repo := postgres.NewTurnRepo(pool)
	turns, err := repo.Window(context.Background(), "c1", "v1", 10)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "first", turns[0].Content)
	assert.Equal(t, "second", turns[1].Content)
	assert.Equal(t, domain.SenderCandidate, turns[0].Sender)
}

func TestTurnRepo_Window_QueryError(t *testing.T) {
	t.Parallel()
	pool := &poolStub{queryErr: errors.New("boom")}
	repo := postgres.NewTurnRepo(pool)
	_, err := repo.Window(context.Background(), "c1", "v1", 10)
	require.Error(t, err)
}

func TestTurnRepo_List_PassesFilter(t *testing.T) {
	t.Parallel()
	pool := &poolStub{rows: &rowsStub{}}
	repo := postgres.NewTurnRepo(pool)
	_, err := repo.List(context.Background(), domain.TurnFilter{CandidateID: "c1", Limit: 20, Offset: 40})
	require.NoError(t, err)
	require.Len(t, pool.gotArgs, 1)
	assert.Equal(t, []any{"c1", "", 20, 40}, pool.gotArgs[0])
}
