package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wolfeidau/statuspage/internal/models"
	"github.com/wolfeidau/statuspage/internal/store"
)

// UserStore implements store.UserStore using PostgreSQL.
type UserStore struct {
	pool *pgxpool.Pool
}

// NewUserStore creates a new PostgreSQL-backed user directory.
func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

// Upsert records the user, refreshing email and last-seen time if present.
// The users_email_lower_key index refuses an address held by another user.
func (s *UserStore) Upsert(ctx context.Context, user *models.User) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO users (user_id, email, created_at, last_seen_at)
		VALUES ($1, $2, now(), now())
		ON CONFLICT (user_id) DO UPDATE SET email = EXCLUDED.email, last_seen_at = now()
		RETURNING created_at, last_seen_at
	`, user.UserID, user.Email).Scan(&user.CreatedAt, &user.LastSeenAt)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", mapPostgresError(err))
	}
	return nil
}

// Get retrieves a user by identity provider subject.
func (s *UserStore) Get(ctx context.Context, userID string) (*models.User, error) {
	return s.scanOne(ctx, `SELECT user_id, email, created_at, last_seen_at FROM users WHERE user_id = $1`, userID)
}

// GetByEmail retrieves a user by email, ignoring case.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if email == "" {
		return nil, store.ErrUserNotFound
	}
	return s.scanOne(ctx, `
		SELECT user_id, email, created_at, last_seen_at FROM users
		WHERE lower(email) = lower($1)
	`, email)
}

func (s *UserStore) scanOne(ctx context.Context, query string, arg string) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx, query, arg).Scan(&u.UserID, &u.Email, &u.CreatedAt, &u.LastSeenAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}
