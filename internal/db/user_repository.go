package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User repository errors.
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrUserExists      = errors.New("user already exists")
	ErrInvalidPassword = errors.New("invalid password")
)

// User is a registered participant.
type User struct {
	Email     string
	Name      string
	CreatedAt time.Time
}

// UserRepository handles user accounts and the block list.
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create registers a user with a bcrypt-hashed password.
func (r *UserRepository) Create(ctx context.Context, email, name, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return fmt.Errorf("email and password required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO users (email, name, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		email, name, string(hash), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") || strings.Contains(err.Error(), "PRIMARY") {
			return ErrUserExists
		}
		return err
	}
	return nil
}

// Authenticate verifies the password for an account.
func (r *UserRepository) Authenticate(ctx context.Context, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	var hash string
	err := r.db.QueryRowContext(ctx,
		`SELECT password_hash FROM users WHERE email = ?`, email,
	).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrUserNotFound
	}
	if err != nil {
		return err
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return ErrInvalidPassword
	}
	return nil
}

// Get returns a user by email.
func (r *UserRepository) Get(ctx context.Context, email string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var user User
	var createdAt string
	err := r.db.QueryRowContext(ctx,
		`SELECT email, name, created_at FROM users WHERE email = ?`, email,
	).Scan(&user.Email, &user.Name, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	user.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return &user, nil
}

// Block adds blocked to blocker's block list. Idempotent.
func (r *UserRepository) Block(ctx context.Context, blocker, blocked string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO blocks (blocker, blocked) VALUES (?, ?)`,
		strings.ToLower(blocker), strings.ToLower(blocked),
	)
	return err
}

// IsBlocked reports whether blocker has blocked the given sender.
func (r *UserRepository) IsBlocked(ctx context.Context, blocker, sender string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM blocks WHERE blocker = ? AND blocked = ?`,
		strings.ToLower(blocker), strings.ToLower(sender),
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
