package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// UserRepository persists the administrative account
type UserRepository struct {
	db *sql.DB
}

// Create inserts a new user. Returns ErrDuplicate when the username is
// already taken (UNIQUE constraint).
func (r *UserRepository) Create(ctx context.Context, username, passwordHash string) (*User, error) {
	now := time.Now()

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, created_at) VALUES (?, ?, ?)`,
		username, passwordHash, now.Unix())
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read user id: %w", err)
	}

	return &User{
		ID:           id,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    now,
	}, nil
}

// GetByUsername returns the user with the given username, or
// ErrNotFound.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	var (
		u         User
		createdAt int64
	)

	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE username = ?`,
		username).Scan(&u.ID, &u.Username, &u.PasswordHash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select user: %w", err)
	}

	u.CreatedAt = time.Unix(createdAt, 0)
	return &u, nil
}

// Count returns the number of users. Setup is gated on this being zero.
func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}
