// Package session provides SessionStore implementations.
//
// The in-memory store backs single-process deployments and tests; the Redis
// store shares session state across replicas. Either way session state is
// volatile: losing it sends the candidate back to vacancy selection while
// their durable history stays intact.
package session

import (
	"sync"

	"github.com/fairyhunter13/ai-interviewer/internal/domain"
)

// MemoryStore keeps sessions in a process-local map.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]domain.Session)}
}

// Get returns the session for a candidate, if present.
func (s *MemoryStore) Get(_ domain.Context, candidateID string) (domain.Session, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[candidateID]
	return sess, ok, nil
}

// Set stores the session keyed by its candidate id.
func (s *MemoryStore) Set(_ domain.Context, sess domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.CandidateID] = sess
	return nil
}

// Delete removes the candidate's session; absent keys are a no-op.
func (s *MemoryStore) Delete(_ domain.Context, candidateID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, candidateID)
	return nil
}
