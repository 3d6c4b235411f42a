package store

import (
	"context"
	"errors"

	"github.com/wolfeidau/statuspage/internal/models"
)

// Sentinel errors for user directory operations
var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered to another user")
)

// UserStore is the directory of principals seen by the API.
type UserStore interface {
	// Upsert records the user, refreshing email and last-seen time, and
	// fills in CreatedAt and LastSeenAt. Emails are unique ignoring case:
	// returns ErrEmailTaken if a different user already holds the address.
	Upsert(ctx context.Context, user *models.User) error

	// Get retrieves a user by ID.
	// Returns ErrUserNotFound if the user has never authenticated.
	Get(ctx context.Context, userID string) (*models.User, error)

	// GetByEmail retrieves the single user holding email, case-insensitively.
	// Returns ErrUserNotFound if no user has that email or email is empty.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}
