package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fintrack/internal/domain/user"
)

const userRecordsSchema = `
CREATE TABLE IF NOT EXISTS user_records (
	user_id    TEXT PRIMARY KEY,
	data       JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// UserRepository stores each user record as one JSONB document.
type UserRepository struct {
	db *DB
}

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// EnsureSchema creates the user_records table if it does not exist.
func (r *UserRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, userRecordsSchema); err != nil {
		return fmt.Errorf("creating user_records table: %w", err)
	}
	return nil
}

func (r *UserRepository) Get(ctx context.Context, userID string) (*user.Record, error) {
	var data []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT data FROM user_records WHERE user_id = $1`, userID,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, user.ErrNotFound
	}
	if err != nil {
		return nil, &user.StoreError{Op: "get", UserID: userID, Err: err}
	}

	rec, err := user.Decode(data)
	if err != nil {
		return nil, &user.StoreError{Op: "decode", UserID: userID, Err: err}
	}
	rec.ID = userID
	return rec, nil
}

func (r *UserRepository) Put(ctx context.Context, rec *user.Record) error {
	data, err := user.Encode(rec)
	if err != nil {
		return &user.StoreError{Op: "encode", UserID: rec.ID, Err: err}
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO user_records (user_id, data, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET data = EXCLUDED.data, updated_at = NOW()`,
		rec.ID, data,
	)
	if err != nil {
		return &user.StoreError{Op: "put", UserID: rec.ID, Err: err}
	}
	return nil
}

// ListIDs returns every stored user ID, used by maintenance commands.
func (r *UserRepository) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT user_id FROM user_records ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("listing user records: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
