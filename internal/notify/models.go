// Package notify queues and delivers outbound notifications. The queue is an
// outbox: callers enqueue best-effort, a worker delivers at-least-once.
package notify

import (
	"time"

	id "heritage/pkg/domain"
)

// Type discriminates the notification payload.
type Type string

const (
	// TypeAnnualReviewDue asks the owner to re-confirm their designation.
	TypeAnnualReviewDue Type = "ANNUAL_REVIEW_DUE"
)

// Status tracks delivery.
type Status string

const (
	StatusQueued Status = "queued"
	StatusSent   Status = "sent"
	StatusFailed Status = "failed"
)

// Payload carries the template fields for an annual review notice.
type Payload struct {
	SuccessorName string `json:"successor_name"`
	PrincipalName string `json:"principal_name"`
	ProtocolSeed  string `json:"protocol_seed"`
}

// Notification is one outbox row.
type Notification struct {
	ID          id.NotificationID `json:"id"`
	UserID      id.UserID         `json:"user_id"`
	RecordID    id.RecordID       `json:"record_id"`
	Type        Type              `json:"type"`
	Recipient   string            `json:"recipient"`
	Payload     Payload           `json:"payload"`
	Status      Status            `json:"status"`
	Attempts    int               `json:"attempts"`
	QueuedAt    time.Time         `json:"queued_at"`
	DeliveredAt *time.Time        `json:"delivered_at,omitempty"`
}
