package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidRole is returned when a role string is not one of admin, member or viewer.
var ErrInvalidRole = errors.New("invalid role")

// Role is a membership role within an organization.
type Role string

const (
	RoleAdmin  Role = "admin"  // full control, including membership and deletion
	RoleMember Role = "member" // can mutate incidents, maintenances and service status
	RoleViewer Role = "viewer" // read-only
)

// ParseRole validates a wire-level role string.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleAdmin, RoleMember, RoleViewer:
		return r, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
}

// Valid returns true if r is a known role.
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// Membership binds a user to an organization with a role.
type Membership struct {
	OrgID     uuid.UUID  `json:"organization_id"`
	UserID    string     `json:"user_id"`
	Role      Role       `json:"role"`
	InvitedBy *string    `json:"invited_by,omitempty"`
	JoinedAt  time.Time  `json:"joined_at"`
	Email     string     `json:"email,omitempty"` // populated from the user directory on list
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}
