package token

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Store is the durable record of issued refresh tokens.
// Implementations must return ErrUnknownToken from Find when no row matches;
// every other failure is a storage error and is wrapped, not translated.
type Store interface {
	// Save inserts a new record with revoked=false.
	Save(ctx context.Context, tokenString, subject string, expiresAt time.Time) error

	// Find returns the record for the exact token string.
	Find(ctx context.Context, tokenString string) (RefreshToken, error)

	// Revoke flips revoked to true for the token iff it is still active.
	// It reports whether this call performed the revocation, so that two
	// concurrent rotations of the same token cannot both win.
	Revoke(ctx context.Context, tokenString string) (bool, error)

	// DeleteExpiredBefore bulk-removes records whose expiry is before now.
	// Maintenance only; never called on the request path.
	DeleteExpiredBefore(ctx context.Context, now time.Time) (int64, error)
}

// PostgresStore implements Store over database/sql.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, tokenString, subject string, expiresAt time.Time) error {
	const q = `
INSERT INTO refresh_tokens (token, subject, expires_at, revoked, created_at)
VALUES ($1, $2, $3, FALSE, NOW())
`
	if _, err := s.db.ExecContext(ctx, q, tokenString, subject, expiresAt); err != nil {
		return fmt.Errorf("save refresh token: %w", err)
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, tokenString string) (RefreshToken, error) {
	const q = `
SELECT id, token, subject, expires_at, revoked, created_at
FROM refresh_tokens
WHERE token = $1
`
	var rec RefreshToken
	err := s.db.QueryRowContext(ctx, q, tokenString).Scan(
		&rec.ID,
		&rec.Token,
		&rec.Subject,
		&rec.ExpiresAt,
		&rec.Revoked,
		&rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RefreshToken{}, ErrUnknownToken
		}
		return RefreshToken{}, fmt.Errorf("find refresh token: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) Revoke(ctx context.Context, tokenString string) (bool, error) {
	// Conditional update: only one caller can transition active -> revoked.
	const q = `
UPDATE refresh_tokens
SET revoked = TRUE
WHERE token = $1 AND revoked = FALSE
`
	res, err := s.db.ExecContext(ctx, q, tokenString)
	if err != nil {
		return false, fmt.Errorf("revoke refresh token: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("revoke refresh token: %w", err)
	}
	return n > 0, nil
}

func (s *PostgresStore) DeleteExpiredBefore(ctx context.Context, now time.Time) (int64, error) {
	const q = `
DELETE FROM refresh_tokens
WHERE expires_at < $1
`
	res, err := s.db.ExecContext(ctx, q, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired refresh tokens: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired refresh tokens: %w", err)
	}
	return n, nil
}
