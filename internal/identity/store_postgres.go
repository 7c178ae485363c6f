package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	id "heritage/pkg/domain"
	"heritage/pkg/platform/sentinel"
)

// PostgresStore persists owner credentials in the vault_owners table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) ByUser(ctx context.Context, userID id.UserID) (Owner, error) {
	var (
		owner Owner
		rawID string
	)
	err := s.pool.QueryRow(ctx, `
		SELECT user_id, email, pin_hash, updated_at
		FROM vault_owners WHERE user_id = $1`, userID.String(),
	).Scan(&rawID, &owner.Email, &owner.PINHash, &owner.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Owner{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Owner{}, fmt.Errorf("load vault owner: %w", err)
	}
	if owner.UserID, err = id.ParseUserID(rawID); err != nil {
		return Owner{}, err
	}
	return owner, nil
}

func (s *PostgresStore) Save(ctx context.Context, owner Owner) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO vault_owners (user_id, email, pin_hash, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET email = EXCLUDED.email, pin_hash = EXCLUDED.pin_hash, updated_at = EXCLUDED.updated_at`,
		owner.UserID.String(), owner.Email, owner.PINHash, owner.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save vault owner: %w", err)
	}
	return nil
}
