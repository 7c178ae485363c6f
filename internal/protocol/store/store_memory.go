package store

import (
	"context"
	"sync"
	"time"

	"heritage/internal/protocol/models"
	id "heritage/pkg/domain"
	"heritage/pkg/platform/sentinel"
)

// InMemoryStore keeps records per user, in insertion order. It deliberately
// does not implement atomic upsert so that the service's supersede-then-insert
// fallback stays exercised in unit tests and local runs.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[id.UserID][]models.SuccessionRecord
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[id.UserID][]models.SuccessionRecord)}
}

func (s *InMemoryStore) Upsert(ctx context.Context, record models.SuccessionRecord) error {
	return sentinel.ErrNoUpsertSupport
}

func (s *InMemoryStore) Insert(ctx context.Context, record models.SuccessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.records[record.UserID] {
		if existing.Status == models.StatusActive {
			return sentinel.ErrConflict
		}
	}
	s.records[record.UserID] = append(s.records[record.UserID], record)
	return nil
}

func (s *InMemoryStore) ActiveByUser(ctx context.Context, userID id.UserID) (models.SuccessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, record := range s.records[userID] {
		if record.Status == models.StatusActive {
			return record, nil
		}
	}
	return models.SuccessionRecord{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) BySeed(ctx context.Context, seed string) (models.SuccessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, records := range s.records {
		for _, record := range records {
			if record.Data.ProtocolSeed == seed {
				return record, nil
			}
		}
	}
	return models.SuccessionRecord{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) ByID(ctx context.Context, recordID id.RecordID) (models.SuccessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, records := range s.records {
		for _, record := range records {
			if record.ID == recordID {
				return record, nil
			}
		}
	}
	return models.SuccessionRecord{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) ListByUser(ctx context.Context, userID id.UserID) ([]models.SuccessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := s.records[userID]
	out := make([]models.SuccessionRecord, len(records))
	for i, record := range records {
		out[len(records)-1-i] = record
	}
	return out, nil
}

func (s *InMemoryStore) AllActive(ctx context.Context) ([]models.SuccessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var active []models.SuccessionRecord
	for _, records := range s.records {
		for _, record := range records {
			if record.Status == models.StatusActive {
				active = append(active, record)
			}
		}
	}
	return active, nil
}

func (s *InMemoryStore) StampAnnualNotice(ctx context.Context, recordID id.RecordID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for userID := range s.records {
		for i := range s.records[userID] {
			if s.records[userID][i].ID == recordID {
				stamp := at
				s.records[userID][i].Data.LastAnnualNoticeAt = &stamp
				return nil
			}
		}
	}
	return sentinel.ErrNotFound
}

func (s *InMemoryStore) MarkSuperseded(ctx context.Context, userID id.UserID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.records[userID] {
		if s.records[userID][i].Status == models.StatusActive {
			s.records[userID][i].Supersede(at)
		}
	}
	return nil
}
