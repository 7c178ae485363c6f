package audit

import (
	"context"

	id "heritage/pkg/domain"
)

// Store is the durable, append-only sink for audit entries.
//
// Error contract: Append returns nil on success and a wrapped error on
// infrastructure failure; ListByUser returns entries newest-first and an
// empty slice (not an error) for users with no history.
type Store interface {
	Append(ctx context.Context, userID id.UserID, entry Entry) error
	ListByUser(ctx context.Context, userID id.UserID) ([]Entry, error)
}
