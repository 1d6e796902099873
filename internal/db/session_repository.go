package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Session repository errors.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
)

// SessionRepository handles bearer-token sessions.
type SessionRepository struct {
	db  *DB
	now func() time.Time
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// WithNow overrides the clock, used by tests.
func (r *SessionRepository) WithNow(now func() time.Time) *SessionRepository {
	if now != nil {
		r.now = now
	}
	return r
}

// Create issues a new token for the account.
func (r *SessionRepository) Create(ctx context.Context, email string, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	expires := r.now().Add(ttl)

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (token, email, expires_at) VALUES (?, ?, ?)`,
		token, strings.ToLower(email), expires.Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", err
	}
	return token, nil
}

// Lookup resolves a token to the account email. Expired sessions are
// removed as they are observed.
func (r *SessionRepository) Lookup(ctx context.Context, token string) (string, error) {
	var email, expiresAt string
	err := r.db.QueryRowContext(ctx,
		`SELECT email, expires_at FROM sessions WHERE token = ?`, token,
	).Scan(&email, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrSessionNotFound
	}
	if err != nil {
		return "", err
	}

	expires, err := time.Parse(time.RFC3339Nano, expiresAt)
	if err != nil || r.now().After(expires) {
		r.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token)
		return "", ErrSessionExpired
	}
	return email, nil
}

// Delete revokes a token. Revoking an unknown token is not an error.
func (r *SessionRepository) Delete(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token)
	return err
}
