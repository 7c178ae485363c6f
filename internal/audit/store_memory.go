package audit

import (
	"context"
	"sync"

	id "heritage/pkg/domain"
)

// InMemoryStore keeps audit history in memory for tests and single-node dev.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[id.UserID][]Entry // append order, oldest first
}

// NewInMemoryStore constructs an empty in-memory audit store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: make(map[id.UserID][]Entry)}
}

func (s *InMemoryStore) Append(_ context.Context, userID id.UserID, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[userID] = append(s.entries[userID], entry)
	return nil
}

func (s *InMemoryStore) ListByUser(_ context.Context, userID id.UserID) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.entries[userID]
	out := make([]Entry, len(stored))
	for i, e := range stored {
		out[len(stored)-1-i] = e // newest-first
	}
	return out, nil
}
