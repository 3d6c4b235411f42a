package models

import "time"

// User is the directory entry for an authenticated principal.
// It is upserted on every authenticated request so members can be invited by email.
type User struct {
	UserID     string    `json:"id"` // subject from the identity provider
	Email      string    `json:"email"`
	CreatedAt  time.Time `json:"created_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
}
