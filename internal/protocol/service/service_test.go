package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heritage/internal/audit"
	"heritage/internal/protocol/models"
	"heritage/internal/protocol/store"
	id "heritage/pkg/domain"
	dErrors "heritage/pkg/domain-errors"
	"heritage/pkg/requestcontext"
	"heritage/pkg/seed"
)

type capturingAuditor struct {
	entries []audit.Entry
}

func (c *capturingAuditor) Emit(ctx context.Context, userID id.UserID, entry audit.Entry) error {
	c.entries = append(c.entries, entry)
	return nil
}

func (c *capturingAuditor) byAction(action audit.Action) (audit.Entry, bool) {
	for _, entry := range c.entries {
		if entry.Action == action {
			return entry, true
		}
	}
	return audit.Entry{}, false
}

func finalizedWill(at time.Time) models.ProtocolData {
	return models.ProtocolData{
		Type: models.ProtocolWill,
		Will: &models.WillData{
			FullName:        "Alex Mercer",
			County:          "Travis",
			MaritalStatus:   models.MaritalSingle,
			ExecutorName:    "Robin Vale",
			BeneficiaryName: "Jamie Mercer",
		},
		FinalizedAt: at,
	}
}

func TestAnchor(t *testing.T) {
	base := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

	t.Run("assigns a seed on first anchor", func(t *testing.T) {
		auditor := &capturingAuditor{}
		svc := NewService(store.NewInMemoryStore(), auditor)
		ctx := requestcontext.WithTime(context.Background(), base)

		record, err := svc.Anchor(ctx, id.NewUserID(), finalizedWill(base))
		require.NoError(t, err)
		assert.Len(t, record.Data.ProtocolSeed, seed.Length)
		assert.Equal(t, models.StatusActive, record.Status)
		assert.Equal(t, base, record.CreatedAt)

		_, superseded := auditor.byAction(audit.ActionProtocolSuperseded)
		assert.False(t, superseded, "first anchor has nothing to supersede")
		_, anchored := auditor.byAction(audit.ActionKineticAnchorSecured)
		assert.True(t, anchored)
	})

	t.Run("preserves a seed already assigned to the lifecycle", func(t *testing.T) {
		svc := NewService(store.NewInMemoryStore(), &capturingAuditor{})
		ctx := requestcontext.WithTime(context.Background(), base)

		data := finalizedWill(base)
		data.ProtocolSeed = "AAAABBBBCCCC"

		record, err := svc.Anchor(ctx, id.NewUserID(), data)
		require.NoError(t, err)
		assert.Equal(t, "AAAABBBBCCCC", record.Data.ProtocolSeed)
	})

	t.Run("re-anchoring supersedes the prior record with a fresh seed", func(t *testing.T) {
		auditor := &capturingAuditor{}
		recordStore := store.NewInMemoryStore()
		svc := NewService(recordStore, auditor)
		userID := id.NewUserID()

		first, err := svc.Anchor(requestcontext.WithTime(context.Background(), base), userID, finalizedWill(base))
		require.NoError(t, err)

		later := base.Add(48 * time.Hour)
		second, err := svc.Anchor(requestcontext.WithTime(context.Background(), later), userID, finalizedWill(later))
		require.NoError(t, err)

		assert.NotEqual(t, first.Data.ProtocolSeed, second.Data.ProtocolSeed)

		records, err := svc.History(context.Background(), userID)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, models.StatusActive, records[0].Status)
		assert.Equal(t, models.StatusSuperseded, records[1].Status)

		supersededEntry, ok := auditor.byAction(audit.ActionProtocolSuperseded)
		require.True(t, ok)
		anchorEntries := 0
		var lastAnchor audit.Entry
		for _, entry := range auditor.entries {
			if entry.Action == audit.ActionKineticAnchorSecured {
				anchorEntries++
				lastAnchor = entry
			}
		}
		assert.Equal(t, 2, anchorEntries)
		assert.True(t, supersededEntry.Time.Before(lastAnchor.Time),
			"supersession must be logged strictly before the anchor")
		assert.True(t, supersededEntry.Time.Before(second.CreatedAt))
	})

	t.Run("rejects an unfinalized payload", func(t *testing.T) {
		svc := NewService(store.NewInMemoryStore(), &capturingAuditor{})
		data := finalizedWill(base)
		data.FinalizedAt = time.Time{}

		_, err := svc.Anchor(context.Background(), id.NewUserID(), data)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

func TestActive(t *testing.T) {
	t.Run("maps a missing record to not found", func(t *testing.T) {
		svc := NewService(store.NewInMemoryStore(), &capturingAuditor{})
		_, err := svc.Active(context.Background(), id.NewUserID())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}
