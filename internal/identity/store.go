// Package identity holds vault owner credentials: the contact address for
// review notices and the bcrypt hash of the access PIN. There is no default
// PIN anywhere; an owner without a provisioned row simply cannot unlock.
package identity

import (
	"context"
	"time"

	id "heritage/pkg/domain"
)

// Owner is one provisioned vault owner.
type Owner struct {
	UserID    id.UserID
	Email     string
	PINHash   string
	UpdatedAt time.Time
}

// OwnerStore is the persistence port for owner credentials.
type OwnerStore interface {
	// ByUser returns the owner row, or sentinel.ErrNotFound.
	ByUser(ctx context.Context, userID id.UserID) (Owner, error)

	// Save inserts or replaces the owner row.
	Save(ctx context.Context, owner Owner) error
}
