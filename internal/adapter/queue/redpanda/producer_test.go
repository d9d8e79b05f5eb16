package redpanda

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/fairyhunter13/ai-interviewer/internal/domain"
)

type clientStub struct {
	records []*kgo.Record
	closed  bool
}

func (c *clientStub) Produce(_ context.Context, r *kgo.Record, promise func(*kgo.Record, error)) {
	c.records = append(c.records, r)
	if promise != nil {
		promise(r, nil)
	}
}

func (c *clientStub) Close() { c.closed = true }

func TestProducer_PublishKeyedByCandidate(t *testing.T) {
	t.Parallel()
	stub := &clientStub{}
	p := &Producer{client: stub, topic: TopicInterviewEvents}

	ev := domain.InterviewEvent{
		Type: domain.EventInterviewStarted, CandidateID: "c1", VacancyID: "v1",
		At: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, p.Publish(context.Background(), ev))

	require.Len(t, stub.records, 1)
	rec := stub.records[0]
	assert.Equal(t, TopicInterviewEvents, rec.Topic)
	assert.Equal(t, []byte("c1"), rec.Key)
	require.Len(t, rec.Headers, 1)
	assert.Equal(t, "event_type", rec.Headers[0].Key)
	assert.Equal(t, []byte(domain.EventInterviewStarted), rec.Headers[0].Value)

	var got domain.InterviewEvent
	require.NoError(t, json.Unmarshal(rec.Value, &got))
	assert.Equal(t, ev.Type, got.Type)
	assert.Equal(t, ev.VacancyID, got.VacancyID)
}

func TestProducer_Close(t *testing.T) {
	t.Parallel()
	stub := &clientStub{}
	p := &Producer{client: stub, topic: TopicInterviewEvents}
	p.Close()
	assert.True(t, stub.closed)
}

func TestNewProducer_RequiresBrokers(t *testing.T) {
	t.Parallel()
	_, err := NewProducer(nil)
	require.Error(t, err)
}
