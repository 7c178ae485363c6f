package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"heritage/internal/protocol/models"
	id "heritage/pkg/domain"
	"heritage/pkg/platform/sentinel"
)

// PostgresStore persists succession records with the designation payload as
// jsonb. The single-active invariant is enforced twice: by the service logic
// and by a partial unique index on (user_id) WHERE status = 'active'.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const selectRecord = `
	SELECT id, user_id, protocol_type, data, seed, status, created_at, superseded_at
	FROM succession_records`

// Upsert supersedes the user's active record and inserts the new one in a
// single transaction.
func (s *PostgresStore) Upsert(ctx context.Context, record models.SuccessionRecord) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		UPDATE succession_records
		SET status = 'superseded', superseded_at = $2
		WHERE user_id = $1 AND status = 'active'`,
		record.UserID.String(), record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("supersede active record: %w", err)
	}

	if err := insertRecord(ctx, tx, record); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) Insert(ctx context.Context, record models.SuccessionRecord) error {
	return insertRecord(ctx, s.pool, record)
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func insertRecord(ctx context.Context, db execer, record models.SuccessionRecord) error {
	data, err := json.Marshal(record.Data)
	if err != nil {
		return fmt.Errorf("marshal protocol data: %w", err)
	}

	_, err = db.Exec(ctx, `
		INSERT INTO succession_records (id, user_id, protocol_type, data, seed, status, created_at, superseded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		record.ID.String(), record.UserID.String(), record.Data.Type.String(),
		data, record.Data.ProtocolSeed, string(record.Status),
		record.CreatedAt, record.SupersededAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert succession record: %w", err)
	}
	return nil
}

func (s *PostgresStore) ActiveByUser(ctx context.Context, userID id.UserID) (models.SuccessionRecord, error) {
	row := s.pool.QueryRow(ctx, selectRecord+` WHERE user_id = $1 AND status = 'active'`, userID.String())
	return scanRecord(row)
}

func (s *PostgresStore) BySeed(ctx context.Context, seed string) (models.SuccessionRecord, error) {
	row := s.pool.QueryRow(ctx, selectRecord+` WHERE seed = $1`, seed)
	return scanRecord(row)
}

func (s *PostgresStore) ByID(ctx context.Context, recordID id.RecordID) (models.SuccessionRecord, error) {
	row := s.pool.QueryRow(ctx, selectRecord+` WHERE id = $1`, recordID.String())
	return scanRecord(row)
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID id.UserID) ([]models.SuccessionRecord, error) {
	rows, err := s.pool.Query(ctx, selectRecord+` WHERE user_id = $1 ORDER BY created_at DESC, id DESC`, userID.String())
	if err != nil {
		return nil, fmt.Errorf("list succession records: %w", err)
	}
	defer rows.Close()

	var records []models.SuccessionRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (s *PostgresStore) AllActive(ctx context.Context) ([]models.SuccessionRecord, error) {
	rows, err := s.pool.Query(ctx, selectRecord+` WHERE status = 'active' ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list active records: %w", err)
	}
	defer rows.Close()

	var records []models.SuccessionRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (s *PostgresStore) StampAnnualNotice(ctx context.Context, recordID id.RecordID, at time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE succession_records
		SET data = jsonb_set(data, '{last_annual_notice_at}', to_jsonb($2::timestamptz))
		WHERE id = $1`,
		recordID.String(), at,
	)
	if err != nil {
		return fmt.Errorf("stamp annual notice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) MarkSuperseded(ctx context.Context, userID id.UserID, at time.Time) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE succession_records
		SET status = 'superseded', superseded_at = $2
		WHERE user_id = $1 AND status = 'active'`,
		userID.String(), at,
	)
	if err != nil {
		return fmt.Errorf("mark superseded: %w", err)
	}
	return nil
}

func scanRecord(row pgx.Row) (models.SuccessionRecord, error) {
	var (
		record       models.SuccessionRecord
		rawID        string
		rawUserID    string
		protocolType string
		data         []byte
		seed         string
		status       string
	)
	err := row.Scan(&rawID, &rawUserID, &protocolType, &data, &seed, &status,
		&record.CreatedAt, &record.SupersededAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.SuccessionRecord{}, sentinel.ErrNotFound
	}
	if err != nil {
		return models.SuccessionRecord{}, fmt.Errorf("scan succession record: %w", err)
	}

	if record.ID, err = id.ParseRecordID(rawID); err != nil {
		return models.SuccessionRecord{}, err
	}
	if record.UserID, err = id.ParseUserID(rawUserID); err != nil {
		return models.SuccessionRecord{}, err
	}
	if err := json.Unmarshal(data, &record.Data); err != nil {
		return models.SuccessionRecord{}, fmt.Errorf("unmarshal protocol data: %w", err)
	}
	record.Status = models.RecordStatus(status)
	return record, nil
}
