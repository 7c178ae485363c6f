package notify_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"heritage/internal/notify"
	"heritage/internal/notify/mocks"
	id "heritage/pkg/domain"
)

type stubMailer struct {
	err  error
	sent []notify.Notification
}

func (m *stubMailer) Send(n notify.Notification) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, n)
	return nil
}

type stubEvents struct {
	keys []string
}

func (e *stubEvents) Publish(ctx context.Context, key string, value []byte) error {
	e.keys = append(e.keys, key)
	return nil
}

func queued(userID id.UserID) notify.Notification {
	return notify.Notification{
		ID:        id.NewNotificationID(),
		UserID:    userID,
		RecordID:  id.NewRecordID(),
		Type:      notify.TypeAnnualReviewDue,
		Recipient: "owner@example.com",
		Payload: notify.Payload{
			SuccessorName: "Robin Vale",
			PrincipalName: "Alex Mercer",
			ProtocolSeed:  "AAAABBBBCCCC",
		},
		Status:   notify.StatusQueued,
		QueuedAt: time.Now(),
	}
}

func TestWorkerSweep(t *testing.T) {
	ctx := context.Background()

	t.Run("delivers pending notifications and mirrors events", func(t *testing.T) {
		queue := notify.NewInMemoryQueue()
		mailer := &stubMailer{}
		events := &stubEvents{}
		userID := id.NewUserID()
		require.NoError(t, queue.Enqueue(ctx, queued(userID)))

		worker := notify.NewWorker(queue, mailer, notify.WithEventPublisher(events))
		worker.Sweep(ctx)

		require.Len(t, mailer.sent, 1)
		assert.Equal(t, []string{userID.String()}, events.keys)

		all := queue.All()
		require.Len(t, all, 1)
		assert.Equal(t, notify.StatusSent, all[0].Status)
		require.NotNil(t, all[0].DeliveredAt)
	})

	t.Run("delivery failure leaves the row queued for retry", func(t *testing.T) {
		queue := notify.NewInMemoryQueue()
		mailer := &stubMailer{err: errors.New("smtp unreachable")}
		require.NoError(t, queue.Enqueue(ctx, queued(id.NewUserID())))

		worker := notify.NewWorker(queue, mailer)
		worker.Sweep(ctx)

		all := queue.All()
		require.Len(t, all, 1)
		assert.Equal(t, notify.StatusQueued, all[0].Status)
		assert.Equal(t, 1, all[0].Attempts)

		// A later sweep retries the same row.
		mailer.err = nil
		worker.Sweep(ctx)
		assert.Equal(t, notify.StatusSent, queue.All()[0].Status)
	})

	t.Run("marks a notification failed once the retry budget is spent", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		queue := mocks.NewMockQueue(ctrl)
		mailer := &stubMailer{err: errors.New("smtp unreachable")}

		n := queued(id.NewUserID())
		n.Attempts = 4 // one attempt left

		queue.EXPECT().NextPending(gomock.Any(), gomock.Any()).Return([]notify.Notification{n}, nil)
		queue.EXPECT().MarkFailed(gomock.Any(), n.ID, true).Return(nil)

		notify.NewWorker(queue, mailer).Sweep(ctx)
	})
}
