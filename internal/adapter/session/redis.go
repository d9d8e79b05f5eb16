package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fairyhunter13/ai-interviewer/internal/domain"
)

const keyPrefix = "interview:session:"

// RedisStore keeps sessions in Redis so multiple replicas see the same state.
// Records expire after TTL to bound abandoned sessions.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore constructs a RedisStore for the given address.
func NewRedisStore(addr string, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		ttl:    ttl,
	}
}

// Ping verifies connectivity; used by startup checks.
func (s *RedisStore) Ping(ctx domain.Context) error {
	return s.client.Ping(ctx).Err()
}

// Get loads and decodes the candidate's session.
func (s *RedisStore) Get(ctx domain.Context, candidateID string) (domain.Session, bool, error) {
	b, err := s.client.Get(ctx, keyPrefix+candidateID).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Session{}, false, nil
	}
	if err != nil {
		return domain.Session{}, false, fmt.Errorf("op=session.get: %w", err)
	}
	var sess domain.Session
	if err := json.Unmarshal(b, &sess); err != nil {
		return domain.Session{}, false, fmt.Errorf("op=session.decode: %w", err)
	}
	return sess, true, nil
}

// Set encodes and stores the session with the configured TTL.
func (s *RedisStore) Set(ctx domain.Context, sess domain.Session) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("op=session.encode: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+sess.CandidateID, b, s.ttl).Err(); err != nil {
		return fmt.Errorf("op=session.set: %w", err)
	}
	return nil
}

// Delete removes the candidate's session.
func (s *RedisStore) Delete(ctx domain.Context, candidateID string) error {
	if err := s.client.Del(ctx, keyPrefix+candidateID).Err(); err != nil {
		return fmt.Errorf("op=session.delete: %w", err)
	}
	return nil
}
