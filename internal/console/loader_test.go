package console

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heritage/internal/protocol/models"
	"heritage/internal/protocol/store"
	id "heritage/pkg/domain"
)

// slowStore wraps the in-memory store, delaying and counting ActiveByUser.
type slowStore struct {
	*store.InMemoryStore
	delay time.Duration
	calls atomic.Int32
	gate  chan struct{}
}

func (s *slowStore) ActiveByUser(ctx context.Context, userID id.UserID) (models.SuccessionRecord, error) {
	s.calls.Add(1)
	if s.gate != nil {
		<-s.gate
	} else if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return s.InMemoryStore.ActiveByUser(ctx, userID)
}

func seedActive(t *testing.T, s *store.InMemoryStore, userID id.UserID) models.SuccessionRecord {
	t.Helper()
	record := models.SuccessionRecord{
		ID:     id.NewRecordID(),
		UserID: userID,
		Data: models.ProtocolData{
			Type: models.ProtocolWill,
			Will: &models.WillData{
				FullName:        "Alex Mercer",
				County:          "Travis",
				MaritalStatus:   models.MaritalSingle,
				ExecutorName:    "Robin Vale",
				BeneficiaryName: "Jamie Mercer",
			},
			FinalizedAt:  time.Now(),
			ProtocolSeed: "AAAABBBBCCCC",
		},
		Status:    models.StatusActive,
		CreatedAt: time.Now(),
	}
	require.NoError(t, s.Insert(context.Background(), record))
	return record
}

func TestLoader(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the active record", func(t *testing.T) {
		records := store.NewInMemoryStore()
		userID := id.NewUserID()
		want := seedActive(t, records, userID)

		loader := NewLoader(records)
		got, ok := loader.Load(ctx, userID)
		require.True(t, ok)
		assert.Equal(t, want.ID, got.ID)
	})

	t.Run("missing record reads as empty vault, not an error", func(t *testing.T) {
		loader := NewLoader(store.NewInMemoryStore())
		_, ok := loader.Load(ctx, id.NewUserID())
		assert.False(t, ok)
	})

	t.Run("slow store degrades to empty vault at the timeout", func(t *testing.T) {
		records := store.NewInMemoryStore()
		userID := id.NewUserID()
		seedActive(t, records, userID)
		slow := &slowStore{InMemoryStore: records, delay: 200 * time.Millisecond}

		loader := NewLoader(slow, WithLoadTimeout(20*time.Millisecond))

		start := time.Now()
		_, ok := loader.Load(ctx, userID)
		assert.False(t, ok)
		assert.Less(t, time.Since(start), 150*time.Millisecond, "must give up at the timeout")
	})

	t.Run("concurrent loads share one store read", func(t *testing.T) {
		records := store.NewInMemoryStore()
		userID := id.NewUserID()
		seedActive(t, records, userID)
		slow := &slowStore{InMemoryStore: records, gate: make(chan struct{})}

		loader := NewLoader(slow)

		var wg sync.WaitGroup
		results := make([]bool, 5)
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, results[i] = loader.Load(ctx, userID)
			}(i)
		}

		// Let all five goroutines pile onto the loader, then release.
		time.Sleep(50 * time.Millisecond)
		close(slow.gate)
		wg.Wait()

		assert.Equal(t, int32(1), slow.calls.Load(), "in-flight load must be shared")
		for _, ok := range results {
			assert.True(t, ok)
		}
	})
}
