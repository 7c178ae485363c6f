// Package domain holds the identifier types shared across the succession
// service. IDs are distinct uuid-backed types so the compiler rejects
// cross-assignment between, say, a user and a record.
package domain

import (
	"github.com/google/uuid"

	dErrors "heritage/pkg/domain-errors"
)

// UserID identifies the owner of a vault and its succession records.
type UserID uuid.UUID

// RecordID identifies a single succession record (active or superseded).
type RecordID uuid.UUID

// NotificationID identifies a queued notification.
type NotificationID uuid.UUID

func (id UserID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id RecordID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id NotificationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func (id UserID) String() string         { return uuid.UUID(id).String() }
func (id RecordID) String() string       { return uuid.UUID(id).String() }
func (id NotificationID) String() string { return uuid.UUID(id).String() }

// Distinct types don't inherit uuid.UUID's marshaling, so each ID spells it
// out; without these, encoding/json would emit raw 16-byte arrays.

func (id UserID) MarshalText() ([]byte, error)         { return uuid.UUID(id).MarshalText() }
func (id RecordID) MarshalText() ([]byte, error)       { return uuid.UUID(id).MarshalText() }
func (id NotificationID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *UserID) UnmarshalText(b []byte) error         { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *RecordID) UnmarshalText(b []byte) error       { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *NotificationID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }

// NewUserID returns a fresh user identifier.
func NewUserID() UserID { return UserID(uuid.New()) }

// NewRecordID returns a fresh record identifier.
func NewRecordID() RecordID { return RecordID(uuid.New()) }

// NewNotificationID returns a fresh notification identifier.
func NewNotificationID() NotificationID { return NotificationID(uuid.New()) }

// ParseUserID validates and converts a string into a UserID.
// IDs must be valid, non-empty, non-nil UUIDs.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user id")
	return UserID(u), err
}

// ParseRecordID validates and converts a string into a RecordID.
func ParseRecordID(s string) (RecordID, error) {
	u, err := parseUUID(s, "record id")
	return RecordID(u), err
}

func parseUUID(s, what string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid "+what)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" cannot be the nil uuid")
	}
	return u, nil
}
