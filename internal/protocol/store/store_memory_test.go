package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heritage/internal/protocol/models"
	id "heritage/pkg/domain"
	"heritage/pkg/platform/sentinel"
)

func newRecord(userID id.UserID, seed string, createdAt time.Time) models.SuccessionRecord {
	return models.SuccessionRecord{
		ID:     id.NewRecordID(),
		UserID: userID,
		Data: models.ProtocolData{
			Type:         models.ProtocolWill,
			Will:         &models.WillData{FullName: "Alex Mercer", County: "Travis"},
			FinalizedAt:  createdAt,
			ProtocolSeed: seed,
		},
		Status:    models.StatusActive,
		CreatedAt: createdAt,
	}
}

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()
	userID := id.NewUserID()
	base := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)

	t.Run("upsert is unsupported, forcing the fallback path", func(t *testing.T) {
		s := NewInMemoryStore()
		err := s.Upsert(ctx, newRecord(userID, "AAAABBBBCCCC", base))
		assert.ErrorIs(t, err, sentinel.ErrNoUpsertSupport)
	})

	t.Run("insert rejects a second active record", func(t *testing.T) {
		s := NewInMemoryStore()
		require.NoError(t, s.Insert(ctx, newRecord(userID, "AAAABBBBCCCC", base)))

		err := s.Insert(ctx, newRecord(userID, "DDDDEEEEFFFF", base.Add(time.Hour)))
		assert.ErrorIs(t, err, sentinel.ErrConflict)
	})

	t.Run("supersede then insert keeps a single active record", func(t *testing.T) {
		s := NewInMemoryStore()
		require.NoError(t, s.Insert(ctx, newRecord(userID, "AAAABBBBCCCC", base)))

		at := base.Add(24 * time.Hour)
		require.NoError(t, s.MarkSuperseded(ctx, userID, at))
		require.NoError(t, s.Insert(ctx, newRecord(userID, "DDDDEEEEFFFF", at)))

		active, err := s.ActiveByUser(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, "DDDDEEEEFFFF", active.Data.ProtocolSeed)

		records, err := s.ListByUser(ctx, userID)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, models.StatusActive, records[0].Status)
		assert.Equal(t, models.StatusSuperseded, records[1].Status)
		require.NotNil(t, records[1].SupersededAt)
		assert.Equal(t, at, *records[1].SupersededAt)
	})

	t.Run("seed lookup spans superseded records", func(t *testing.T) {
		s := NewInMemoryStore()
		require.NoError(t, s.Insert(ctx, newRecord(userID, "AAAABBBBCCCC", base)))
		require.NoError(t, s.MarkSuperseded(ctx, userID, base.Add(time.Hour)))
		require.NoError(t, s.Insert(ctx, newRecord(userID, "DDDDEEEEFFFF", base.Add(time.Hour))))

		old, err := s.BySeed(ctx, "AAAABBBBCCCC")
		require.NoError(t, err)
		assert.Equal(t, models.StatusSuperseded, old.Status)

		_, err = s.BySeed(ctx, "ZZZZZZZZZZZZ")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("no active record is not found", func(t *testing.T) {
		s := NewInMemoryStore()
		_, err := s.ActiveByUser(ctx, userID)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)

		assert.NoError(t, s.MarkSuperseded(ctx, userID, base))
	})
}
