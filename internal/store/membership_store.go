package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/wolfeidau/statuspage/internal/models"
)

// Sentinel errors for membership store operations
var (
	ErrMembershipNotFound      = errors.New("membership not found")
	ErrMembershipAlreadyExists = errors.New("user is already a member")
)

// MembershipStore manages the binding of users to organizations.
//
// UpdateRole and Remove enforce the last-admin invariant atomically with the write:
// two concurrent demotions of different admins in a two-admin organization can
// never both succeed. Implementations return membership.ErrLastAdmin on violation.
type MembershipStore interface {
	// Get returns the membership for (orgID, userID), keyed for O(1) lookup.
	// Returns ErrMembershipNotFound if the user is not a member.
	Get(ctx context.Context, orgID uuid.UUID, userID string) (*models.Membership, error)

	// ListByOrganization returns every member of an organization, emails included.
	ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]*models.Membership, error)

	// ListByUser returns every organization the user belongs to with their role.
	ListByUser(ctx context.Context, userID string) ([]*models.OrganizationWithRole, error)

	// Add creates a membership.
	// Returns ErrMembershipAlreadyExists if the user is already a member.
	Add(ctx context.Context, m *models.Membership) error

	// UpdateRole changes a member's role and returns the updated membership.
	// Returns ErrMembershipNotFound or membership.ErrLastAdmin.
	UpdateRole(ctx context.Context, orgID uuid.UUID, userID string, role models.Role) (*models.Membership, error)

	// Remove deletes a membership.
	// Returns ErrMembershipNotFound or membership.ErrLastAdmin.
	Remove(ctx context.Context, orgID uuid.UUID, userID string) error
}
