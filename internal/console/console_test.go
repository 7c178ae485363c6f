package console

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heritage/internal/audit"
	"heritage/internal/notify"
	"heritage/internal/protocol/models"
	protocolservice "heritage/internal/protocol/service"
	"heritage/internal/protocol/store"
	"heritage/internal/review"
	"heritage/internal/vault"
	id "heritage/pkg/domain"
	dErrors "heritage/pkg/domain-errors"
	"heritage/pkg/requestcontext"
)

type pinStub struct{ pin string }

func (v pinStub) VerifyPIN(ctx context.Context, userID id.UserID, pin string) bool {
	return pin == v.pin
}

type emailStub string

func (e emailStub) Email(ctx context.Context, userID id.UserID) (string, error) {
	return string(e), nil
}

type sessionFixture struct {
	console *Console
	records *store.InMemoryStore
	queue   *notify.InMemoryQueue
	trail   *audit.Trail
}

func newSession(t *testing.T, userID id.UserID) *sessionFixture {
	t.Helper()

	f := &sessionFixture{
		records: store.NewInMemoryStore(),
		queue:   notify.NewInMemoryQueue(),
		trail:   audit.NewTrail(audit.DefaultTrailCap),
	}
	publisher := audit.NewPublisher(audit.NewInMemoryStore(), audit.WithTrail(f.trail))
	registry := vault.NewRegistry(userID, pinStub{pin: "4821"}, publisher, vault.WithPINDelay(0))
	anchors := protocolservice.NewService(f.records, publisher)
	reviews := review.NewService(f.queue, f.records, publisher)

	f.console = NewConsole(userID, registry, NewLoader(f.records), anchors, reviews, emailStub("owner@example.com"))
	return f
}

func runWizardToPreview(t *testing.T, c *Console) {
	t.Helper()
	w, err := c.Wizard()
	require.NoError(t, err)
	require.NoError(t, w.SetWill(models.WillData{
		FullName:        "Alex Mercer",
		County:          "Travis",
		MaritalStatus:   models.MaritalSingle,
		ExecutorName:    "Robin Vale",
		BeneficiaryName: "Jamie Mercer",
	}))
	for !w.AtPreview() {
		require.NoError(t, w.Next())
	}
}

func TestSessionFlow(t *testing.T) {
	ctx := context.Background()
	userID := id.NewUserID()

	t.Run("full designate-and-reopen cycle", func(t *testing.T) {
		f := newSession(t, userID)

		view := f.console.Open(ctx)
		assert.Equal(t, vault.StateOpenLocked, view.Vault.State)
		assert.False(t, view.HasRecord)
		assert.Nil(t, view.Record)

		require.True(t, f.console.Unlock(ctx, "4821"))
		require.NoError(t, f.console.StartWizard(ctx, models.ProtocolWill))
		runWizardToPreview(t, f.console)

		record, err := f.console.Finalize(ctx)
		require.NoError(t, err)
		assert.NotEmpty(t, record.Data.ProtocolSeed)

		view = f.console.View()
		assert.True(t, view.HasRecord)
		require.NotNil(t, view.Record, "unlocked session sees the document")

		f.console.Close(ctx)
		view = f.console.View()
		assert.Equal(t, vault.StateClosed, view.Vault.State)
		assert.Nil(t, view.Record, "closed session never exposes the document")
	})

	t.Run("locked session hides the document body", func(t *testing.T) {
		f := newSession(t, userID)
		seedActive(t, f.records, userID)

		view := f.console.Open(ctx)
		assert.True(t, view.HasRecord)
		assert.Nil(t, view.Record, "locked gate shows existence, not content")
	})

	t.Run("wizard requires an unlocked vault", func(t *testing.T) {
		f := newSession(t, userID)
		f.console.Open(ctx)

		err := f.console.StartWizard(ctx, models.ProtocolWill)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	t.Run("opening an overdue vault queues the review notice", func(t *testing.T) {
		f := newSession(t, userID)
		record := seedActive(t, f.records, userID)
		// Age the record past the review window.
		now := record.CreatedAt.Add(341 * 24 * time.Hour)

		f.console.Open(requestcontext.WithTime(ctx, now))

		queued := f.queue.All()
		require.Len(t, queued, 1)
		assert.Equal(t, notify.TypeAnnualReviewDue, queued[0].Type)
		assert.Equal(t, "owner@example.com", queued[0].Recipient)

		// Reopening inside the fresh window is a no-op.
		f.console.Open(requestcontext.WithTime(ctx, now.Add(time.Hour)))
		assert.Len(t, f.queue.All(), 1)
	})

	t.Run("session trail records the whole visit newest-first", func(t *testing.T) {
		f := newSession(t, userID)

		f.console.Open(ctx)
		f.console.Unlock(ctx, "0000")
		f.console.Unlock(ctx, "4821")
		f.console.Close(ctx)

		snap := f.trail.Snapshot()
		require.Len(t, snap, 4)
		assert.Equal(t, audit.ActionVaultClosed, snap[0].Action)
		assert.Equal(t, audit.ActionPINVerified, snap[1].Action)
		assert.Equal(t, audit.ActionPINDenied, snap[2].Action)
		assert.Equal(t, audit.ActionVaultOpened, snap[3].Action)
	})
}
