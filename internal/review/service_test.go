package review

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heritage/internal/audit"
	"heritage/internal/notify"
	"heritage/internal/protocol/models"
	"heritage/internal/protocol/store"
	id "heritage/pkg/domain"
	"heritage/pkg/requestcontext"
)

type capturingAuditor struct {
	entries []audit.Entry
}

func (c *capturingAuditor) Emit(ctx context.Context, userID id.UserID, entry audit.Entry) error {
	c.entries = append(c.entries, entry)
	return nil
}

type fixture struct {
	queue   *notify.InMemoryQueue
	records *store.InMemoryStore
	auditor *capturingAuditor
	service *Service
}

func newFixture() *fixture {
	f := &fixture{
		queue:   notify.NewInMemoryQueue(),
		records: store.NewInMemoryStore(),
		auditor: &capturingAuditor{},
	}
	f.service = NewService(f.queue, f.records, f.auditor)
	return f
}

func (f *fixture) seedRecord(t *testing.T, createdAt time.Time, lastNotice *time.Time) models.SuccessionRecord {
	t.Helper()
	record := models.SuccessionRecord{
		ID:     id.NewRecordID(),
		UserID: id.NewUserID(),
		Data: models.ProtocolData{
			Type: models.ProtocolWill,
			Will: &models.WillData{
				FullName:        "Alex Mercer",
				County:          "Travis",
				MaritalStatus:   models.MaritalSingle,
				ExecutorName:    "Robin Vale",
				BeneficiaryName: "Jamie Mercer",
			},
			FinalizedAt:        createdAt,
			ProtocolSeed:       "AAAABBBBCCCC",
			LastAnnualNoticeAt: lastNotice,
		},
		Status:    models.StatusActive,
		CreatedAt: createdAt,
	}
	require.NoError(t, f.records.Insert(context.Background(), record))
	return record
}

func TestIsDue(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	assert.False(t, IsDue(now.Add(-339*24*time.Hour), now))
	assert.True(t, IsDue(now.Add(-340*24*time.Hour), now))
	assert.True(t, IsDue(now.Add(-400*24*time.Hour), now))
}

func TestCheckAndTrigger(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)

	t.Run("no-op inside the window", func(t *testing.T) {
		f := newFixture()
		record := f.seedRecord(t, now.Add(-100*24*time.Hour), nil)

		for i := 0; i < 3; i++ {
			data, err := f.service.CheckAndTrigger(ctx, "owner@example.com", record)
			require.NoError(t, err)
			assert.Equal(t, record.Data, data, "data must come back unchanged")
		}
		assert.Empty(t, f.queue.All())
		assert.Empty(t, f.auditor.entries)
	})

	t.Run("recent notice suppresses even on an old record", func(t *testing.T) {
		f := newFixture()
		lastNotice := now.Add(-10 * 24 * time.Hour)
		record := f.seedRecord(t, now.Add(-700*24*time.Hour), &lastNotice)

		data, err := f.service.CheckAndTrigger(ctx, "owner@example.com", record)
		require.NoError(t, err)
		assert.Equal(t, record.Data, data)
		assert.Empty(t, f.queue.All())
	})

	t.Run("fires once per stamp", func(t *testing.T) {
		f := newFixture()
		record := f.seedRecord(t, now.Add(-341*24*time.Hour), nil)

		data, err := f.service.CheckAndTrigger(ctx, "owner@example.com", record)
		require.NoError(t, err)
		require.NotNil(t, data.LastAnnualNoticeAt)
		assert.Equal(t, now, *data.LastAnnualNoticeAt)

		queued := f.queue.All()
		require.Len(t, queued, 1)
		assert.Equal(t, notify.TypeAnnualReviewDue, queued[0].Type)
		assert.Equal(t, "owner@example.com", queued[0].Recipient)
		assert.Equal(t, "Robin Vale", queued[0].Payload.SuccessorName)
		assert.Equal(t, "AAAABBBBCCCC", queued[0].Payload.ProtocolSeed)

		require.Len(t, f.auditor.entries, 1)
		assert.Equal(t, audit.ActionAnnualReviewNotice, f.auditor.entries[0].Action)
		assert.Equal(t, audit.ActorSystem, f.auditor.entries[0].Actor)

		// Second call with the stamped record is a strict no-op.
		record.Data = data
		again, err := f.service.CheckAndTrigger(ctx, "owner@example.com", record)
		require.NoError(t, err)
		assert.Equal(t, data, again)
		assert.Len(t, f.queue.All(), 1)
		assert.Len(t, f.auditor.entries, 1)
	})

	t.Run("stamp persists to the store, not just the returned copy", func(t *testing.T) {
		f := newFixture()
		record := f.seedRecord(t, now.Add(-341*24*time.Hour), nil)

		_, err := f.service.CheckAndTrigger(ctx, "owner@example.com", record)
		require.NoError(t, err)

		stored, err := f.records.ActiveByUser(ctx, record.UserID)
		require.NoError(t, err)
		require.NotNil(t, stored.Data.LastAnnualNoticeAt)
		assert.Equal(t, now, *stored.Data.LastAnnualNoticeAt)
	})

	t.Run("queue failure does not block the caller", func(t *testing.T) {
		f := newFixture()
		record := f.seedRecord(t, now.Add(-341*24*time.Hour), nil)

		failing := NewService(failingQueue{}, f.records, f.auditor)
		data, err := failing.CheckAndTrigger(ctx, "owner@example.com", record)
		require.NoError(t, err)
		require.NotNil(t, data.LastAnnualNoticeAt, "stamp still lands so the window closes")
		assert.Len(t, f.auditor.entries, 1)
	})
}

type failingQueue struct{}

func (failingQueue) Enqueue(ctx context.Context, n notify.Notification) error {
	return assert.AnError
}

func (failingQueue) NextPending(ctx context.Context, limit int) ([]notify.Notification, error) {
	return nil, nil
}

func (failingQueue) MarkSent(ctx context.Context, notificationID id.NotificationID, at time.Time) error {
	return nil
}

func (failingQueue) MarkFailed(ctx context.Context, notificationID id.NotificationID, terminal bool) error {
	return nil
}

func TestSchedulerSweep(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)

	f := newFixture()
	due := f.seedRecord(t, now.Add(-341*24*time.Hour), nil)
	f.seedRecord(t, now.Add(-10*24*time.Hour), nil)

	scheduler := NewScheduler(f.service, f.records, staticResolver("owner@example.com"))
	scheduler.Sweep(ctx)

	queued := f.queue.All()
	require.Len(t, queued, 1)
	assert.Equal(t, due.UserID, queued[0].UserID)

	// The stamp landed, so the next sweep finds nothing due.
	scheduler.Sweep(ctx)
	assert.Len(t, f.queue.All(), 1)
}

type staticResolver string

func (r staticResolver) Email(ctx context.Context, userID id.UserID) (string, error) {
	return string(r), nil
}
