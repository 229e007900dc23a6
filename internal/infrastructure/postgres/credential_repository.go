package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"fintrack/internal/shared/auth"
)

const credentialsSchema = `
CREATE TABLE IF NOT EXISTS credentials (
	email         TEXT PRIMARY KEY,
	user_id       TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// uniqueViolation is the Postgres SQLSTATE for a duplicate key.
const uniqueViolation = "23505"

// CredentialRepository implements auth.CredentialStore.
type CredentialRepository struct {
	db *DB
}

func NewCredentialRepository(db *DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

func (r *CredentialRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, credentialsSchema); err != nil {
		return fmt.Errorf("creating credentials table: %w", err)
	}
	return nil
}

func (r *CredentialRepository) GetCredential(ctx context.Context, email string) (*auth.Credential, error) {
	var c auth.Credential
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id, email, password_hash, created_at
		FROM credentials WHERE email = $1`, email,
	).Scan(&c.UserID, &c.Email, &c.PasswordHash, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrCredentialNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading credential: %w", err)
	}
	return &c, nil
}

func (r *CredentialRepository) CreateCredential(ctx context.Context, c *auth.Credential) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO credentials (email, user_id, password_hash, created_at)
		VALUES ($1, $2, $3, $4)`,
		c.Email, c.UserID, c.PasswordHash, c.CreatedAt,
	)
	if isUniqueViolation(err) {
		return auth.ErrEmailInUse
	}
	if err != nil {
		return fmt.Errorf("creating credential: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
