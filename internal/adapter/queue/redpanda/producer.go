// Package redpanda publishes interview lifecycle events to a Redpanda/Kafka
// topic consumed by the analytics pipeline. Publishing is best-effort: the
// interview flow never blocks on, or fails because of, the broker.
package redpanda

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kotel"
	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/ai-interviewer/internal/domain"
)

// TopicInterviewEvents is the topic carrying interview lifecycle events.
const TopicInterviewEvents = "interview-events"

// producerClient is the subset of kgo.Client the producer uses; tests swap in
// a recording stub.
type producerClient interface {
	Produce(ctx context.Context, r *kgo.Record, promise func(*kgo.Record, error))
	Close()
}

// Producer emits interview events keyed by candidate id so per-candidate
// ordering is preserved within a partition.
type Producer struct {
	client producerClient
	topic  string
}

// NewProducer connects to the brokers and ensures the events topic exists.
func NewProducer(brokers []string) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("op=redpanda.NewProducer: no seed brokers provided")
	}
	kotelService := kotel.NewKotel(
		kotel.WithTracer(kotel.NewTracer(kotel.TracerProvider(otel.GetTracerProvider()))),
	)
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.RequestRetries(5),
		kgo.WithHooks(kotelService.Hooks()...),
	)
	if err != nil {
		return nil, fmt.Errorf("op=redpanda.NewProducer: %w", err)
	}
	if err := createTopicIfNotExists(context.Background(), client, TopicInterviewEvents, 1, 1); err != nil {
		slog.Warn("ensuring events topic failed",
			slog.String("topic", TopicInterviewEvents), slog.Any("error", err))
	}
	return &Producer{client: client, topic: TopicInterviewEvents}, nil
}

// Publish sends one event asynchronously. Delivery failures are logged, not
// returned: by the time the promise runs the interview flow has moved on.
func (p *Producer) Publish(ctx domain.Context, ev domain.InterviewEvent) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("op=redpanda.Publish: %w", err)
	}
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(ev.CandidateID),
		Value: b,
		Headers: []kgo.RecordHeader{
			{Key: "event_type", Value: []byte(ev.Type)},
		},
	}
	p.client.Produce(ctx, record, func(r *kgo.Record, err error) {
		if err != nil {
			slog.Warn("event delivery failed",
				slog.String("topic", r.Topic), slog.String("type", ev.Type), slog.Any("error", err))
		}
	})
	return nil
}

// Close flushes and closes the underlying client.
func (p *Producer) Close() {
	p.client.Close()
}
