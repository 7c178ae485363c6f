package notify

import (
	"context"
	"time"

	id "heritage/pkg/domain"
)

//go:generate mockgen -source=queue.go -destination=mocks/queue_mock.go -package=mocks

// Queue is the outbox port. Enqueue must be cheap and durable; delivery is
// the worker's problem.
type Queue interface {
	// Enqueue stores a notification in queued state.
	Enqueue(ctx context.Context, notification Notification) error

	// NextPending returns up to limit queued notifications, oldest first.
	NextPending(ctx context.Context, limit int) ([]Notification, error)

	// MarkSent transitions a notification to sent.
	MarkSent(ctx context.Context, notificationID id.NotificationID, at time.Time) error

	// MarkFailed increments the attempt counter; the notification stays
	// queued until attempts exceed the worker's retry budget, then fails.
	MarkFailed(ctx context.Context, notificationID id.NotificationID, terminal bool) error
}
