package memory

import (
	"context"
	"strings"
	"time"

	"github.com/wolfeidau/statuspage/internal/models"
	"github.com/wolfeidau/statuspage/internal/store"
)

// UserStore implements store.UserStore using in-memory storage.
type UserStore struct {
	db *db
}

// Upsert records the user, keeping the original creation time. An email
// already held by another user is refused with store.ErrEmailTaken.
func (s *UserStore) Upsert(ctx context.Context, user *models.User) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if user.Email != "" {
		if owner := s.findByEmailLocked(user.Email); owner != nil && owner.UserID != user.UserID {
			return store.ErrEmailTaken
		}
	}

	now := time.Now()
	user.CreatedAt = now
	user.LastSeenAt = now
	if existing, ok := s.db.users[user.UserID]; ok {
		user.CreatedAt = existing.CreatedAt
	}

	clone := *user
	s.db.users[user.UserID] = &clone

	return nil
}

// Get retrieves a user by ID.
func (s *UserStore) Get(ctx context.Context, userID string) (*models.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	user, ok := s.db.users[userID]
	if !ok {
		return nil, store.ErrUserNotFound
	}

	clone := *user
	return &clone, nil
}

// GetByEmail retrieves a user by email, case-insensitively.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	if email == "" {
		return nil, store.ErrUserNotFound
	}

	user := s.findByEmailLocked(email)
	if user == nil {
		return nil, store.ErrUserNotFound
	}

	clone := *user
	return &clone, nil
}

// findByEmailLocked relies on Upsert keeping emails unique, so at most one
// user can match.
func (s *UserStore) findByEmailLocked(email string) *models.User {
	for _, user := range s.db.users {
		if strings.EqualFold(user.Email, email) {
			return user
		}
	}
	return nil
}
