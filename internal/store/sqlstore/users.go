package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"journalledger/internal/models"
)

var (
	ErrEmailTaken   = errors.New("email already registered")
	ErrUserNotFound = errors.New("user not found")
)

const userColumns = `id, email, password_hash, created_at`

// CreateUser inserts a user. A duplicate email yields ErrEmailTaken.
func (s *Store) CreateUser(ctx context.Context, email, passwordHash string) (models.User, error) {
	var u models.User
	q := s.db.Rebind(`INSERT INTO users (email, password_hash, created_at) VALUES (?, ?, ?)
		ON CONFLICT (email) DO NOTHING
		RETURNING ` + userColumns)
	err := s.db.GetContext(ctx, &u, q, email, passwordHash, time.Now().UTC())
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrEmailTaken
	}
	if err != nil {
		return models.User{}, fmt.Errorf("create user: %w", err)
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return u, nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	err := s.db.GetContext(ctx, &u, s.db.Rebind(`SELECT `+userColumns+` FROM users WHERE email = ?`), email)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("get user: %w", err)
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return u, nil
}
