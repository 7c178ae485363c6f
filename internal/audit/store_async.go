package audit

import (
	"context"

	id "heritage/pkg/domain"
	dErrors "heritage/pkg/domain-errors"
)

// AsyncStore decouples appends from the durable store: Append enqueues into
// a bounded inbox that a Worker drains, while reads delegate to the wrapped
// store. A full inbox fails the append instead of blocking; the publisher's
// best-effort contract turns that into a logged drop.
type AsyncStore struct {
	Store
	inbox chan UserEntry
}

// NewAsyncStore wraps the store with an inbox of the given capacity.
func NewAsyncStore(store Store, buffer int) *AsyncStore {
	if buffer <= 0 {
		buffer = 256
	}
	return &AsyncStore{Store: store, inbox: make(chan UserEntry, buffer)}
}

// Inbox exposes the channel a Worker consumes.
func (s *AsyncStore) Inbox() <-chan UserEntry { return s.inbox }

// Append enqueues the entry without blocking.
func (s *AsyncStore) Append(ctx context.Context, userID id.UserID, entry Entry) error {
	select {
	case s.inbox <- UserEntry{UserID: userID, Entry: entry}:
		return nil
	default:
		return dErrors.New(dErrors.CodeUnavailable, "audit inbox full")
	}
}
