package identity

import (
	"context"
	"sync"

	id "heritage/pkg/domain"
	"heritage/pkg/platform/sentinel"
)

// InMemoryStore backs unit tests and local runs.
type InMemoryStore struct {
	mu     sync.RWMutex
	owners map[id.UserID]Owner
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{owners: make(map[id.UserID]Owner)}
}

func (s *InMemoryStore) ByUser(ctx context.Context, userID id.UserID) (Owner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	owner, ok := s.owners[userID]
	if !ok {
		return Owner{}, sentinel.ErrNotFound
	}
	return owner, nil
}

func (s *InMemoryStore) Save(ctx context.Context, owner Owner) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.owners[owner.UserID] = owner
	return nil
}
