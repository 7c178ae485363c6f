package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "heritage/pkg/domain"
)

// PostgresStore persists audit entries to the audit_entries table. Rows are
// insert-only; there is deliberately no update or delete path.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgreSQL-backed audit store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, userID id.UserID, entry Entry) error {
	query := `
		INSERT INTO audit_entries (id, user_id, action, category, details, occurred_at, actor, ip, origin)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.New(),
		uuid.UUID(userID),
		string(entry.Action),
		string(entry.Action.Category()),
		entry.Details,
		entry.Time,
		entry.Actor,
		entry.IP,
		entry.Origin,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID id.UserID) ([]Entry, error) {
	query := `
		SELECT action, details, occurred_at, actor, ip, origin
		FROM audit_entries
		WHERE user_id = $1
		ORDER BY occurred_at DESC, id DESC
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(userID))
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			entry  Entry
			action string
		)
		if err := rows.Scan(&action, &entry.Details, &entry.Time, &entry.Actor, &entry.IP, &entry.Origin); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entry.Action = Action(action)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}
