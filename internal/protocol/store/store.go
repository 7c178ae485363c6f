// Package store persists succession records. Implementations must uphold the
// single-active invariant: at most one active record per user.
package store

import (
	"context"
	"time"

	"heritage/internal/protocol/models"
	id "heritage/pkg/domain"
)

// RecordStore is the persistence port for succession records.
//
// Upsert replaces the caller's active record in one operation. Backends that
// cannot express that atomically return sentinel.ErrNoUpsertSupport, and the
// caller falls back to MarkSuperseded followed by Insert.
type RecordStore interface {
	// Upsert atomically supersedes any existing active record for the
	// record's user and persists the given record as the new active one.
	Upsert(ctx context.Context, record models.SuccessionRecord) error

	// Insert persists a new record. Returns sentinel.ErrConflict when an
	// active record already exists for the user.
	Insert(ctx context.Context, record models.SuccessionRecord) error

	// ActiveByUser returns the user's active record, or sentinel.ErrNotFound.
	ActiveByUser(ctx context.Context, userID id.UserID) (models.SuccessionRecord, error)

	// BySeed returns the record carrying the given normalized seed,
	// regardless of status, or sentinel.ErrNotFound.
	BySeed(ctx context.Context, seed string) (models.SuccessionRecord, error)

	// ByID returns a record by identifier, or sentinel.ErrNotFound.
	ByID(ctx context.Context, recordID id.RecordID) (models.SuccessionRecord, error)

	// ListByUser returns every record for the user, newest first.
	ListByUser(ctx context.Context, userID id.UserID) ([]models.SuccessionRecord, error)

	// AllActive returns every active record, for the review sweep.
	AllActive(ctx context.Context) ([]models.SuccessionRecord, error)

	// MarkSuperseded transitions the user's active record out of the active
	// chain, stamping it with at. A user with no active record is a no-op,
	// not an error.
	MarkSuperseded(ctx context.Context, userID id.UserID, at time.Time) error

	// StampAnnualNotice records that a review notice went out for the given
	// record, resetting its review clock.
	StampAnnualNotice(ctx context.Context, recordID id.RecordID, at time.Time) error
}
