package notify

import (
	"context"
	"sync"
	"time"

	id "heritage/pkg/domain"
	"heritage/pkg/platform/sentinel"
)

// InMemoryQueue backs unit tests and local runs.
type InMemoryQueue struct {
	mu            sync.Mutex
	notifications []Notification
}

func NewInMemoryQueue() *InMemoryQueue {
	return &InMemoryQueue{}
}

func (q *InMemoryQueue) Enqueue(ctx context.Context, notification Notification) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.notifications = append(q.notifications, notification)
	return nil
}

func (q *InMemoryQueue) NextPending(ctx context.Context, limit int) ([]Notification, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var pending []Notification
	for _, n := range q.notifications {
		if n.Status == StatusQueued {
			pending = append(pending, n)
			if len(pending) == limit {
				break
			}
		}
	}
	return pending, nil
}

func (q *InMemoryQueue) MarkSent(ctx context.Context, notificationID id.NotificationID, at time.Time) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i := range q.notifications {
		if q.notifications[i].ID == notificationID {
			stamp := at
			q.notifications[i].Status = StatusSent
			q.notifications[i].DeliveredAt = &stamp
			return nil
		}
	}
	return sentinel.ErrNotFound
}

func (q *InMemoryQueue) MarkFailed(ctx context.Context, notificationID id.NotificationID, terminal bool) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i := range q.notifications {
		if q.notifications[i].ID == notificationID {
			q.notifications[i].Attempts++
			if terminal {
				q.notifications[i].Status = StatusFailed
			}
			return nil
		}
	}
	return sentinel.ErrNotFound
}

// All returns a copy of every notification, for tests.
func (q *InMemoryQueue) All() []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Notification, len(q.notifications))
	copy(out, q.notifications)
	return out
}
