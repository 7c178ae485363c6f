package notify

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	id "heritage/pkg/domain"
	"heritage/pkg/platform/sentinel"
)

// PostgresQueue is the durable outbox, on the notifications table.
type PostgresQueue struct {
	db *sql.DB
}

func NewPostgresQueue(db *sql.DB) *PostgresQueue {
	return &PostgresQueue{db: db}
}

func (q *PostgresQueue) Enqueue(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(n.Payload)
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}

	_, err = q.db.ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, record_id, type, recipient, payload, status, attempts, queued_at, delivered_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		uuid.UUID(n.ID), uuid.UUID(n.UserID), uuid.UUID(n.RecordID),
		string(n.Type), n.Recipient, payload, string(n.Status),
		n.Attempts, n.QueuedAt, n.DeliveredAt,
	)
	if err != nil {
		return fmt.Errorf("enqueue notification: %w", err)
	}
	return nil
}

func (q *PostgresQueue) NextPending(ctx context.Context, limit int) ([]Notification, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, user_id, record_id, type, recipient, payload, status, attempts, queued_at, delivered_at
		FROM notifications
		WHERE status = 'queued'
		ORDER BY queued_at
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query pending notifications: %w", err)
	}
	defer rows.Close()

	var pending []Notification
	for rows.Next() {
		var (
			n                      Notification
			rawID, rawUser, rawRec uuid.UUID
			notifType, status      string
			payload                []byte
		)
		if err := rows.Scan(&rawID, &rawUser, &rawRec, &notifType, &n.Recipient,
			&payload, &status, &n.Attempts, &n.QueuedAt, &n.DeliveredAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.ID = id.NotificationID(rawID)
		n.UserID = id.UserID(rawUser)
		n.RecordID = id.RecordID(rawRec)
		n.Type = Type(notifType)
		n.Status = Status(status)
		if err := json.Unmarshal(payload, &n.Payload); err != nil {
			return nil, fmt.Errorf("unmarshal notification payload: %w", err)
		}
		pending = append(pending, n)
	}
	return pending, rows.Err()
}

func (q *PostgresQueue) MarkSent(ctx context.Context, notificationID id.NotificationID, at time.Time) error {
	return q.update(ctx, `
		UPDATE notifications SET status = 'sent', delivered_at = $2
		WHERE id = $1`, uuid.UUID(notificationID), at)
}

func (q *PostgresQueue) MarkFailed(ctx context.Context, notificationID id.NotificationID, terminal bool) error {
	if terminal {
		return q.update(ctx, `
			UPDATE notifications SET status = 'failed', attempts = attempts + 1
			WHERE id = $1`, uuid.UUID(notificationID))
	}
	return q.update(ctx, `
		UPDATE notifications SET attempts = attempts + 1
		WHERE id = $1`, uuid.UUID(notificationID))
}

func (q *PostgresQueue) update(ctx context.Context, query string, args ...any) error {
	res, err := q.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update notification: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update notification: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
