// Package access decides whether an authenticated principal may act within an
// organization, and with which role.
package access

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/statuspage/internal/auth"
	"github.com/wolfeidau/statuspage/internal/models"
	"github.com/wolfeidau/statuspage/internal/store"
)

var (
	ErrUnauthenticated  = errors.New("authentication required")
	ErrNotAMember       = errors.New("not a member of this organization")
	ErrInsufficientRole = errors.New("insufficient role")
)

// Role requirement sets used by the route table.
var (
	AnyMember = []models.Role{models.RoleAdmin, models.RoleMember, models.RoleViewer}
	Editors   = []models.Role{models.RoleAdmin, models.RoleMember}
	AdminOnly = []models.Role{models.RoleAdmin}
)

// MembershipLookup resolves the membership of a user in an organization.
type MembershipLookup interface {
	Get(ctx context.Context, orgID uuid.UUID, userID string) (*models.Membership, error)
}

// Gate authorizes principals against organization memberships.
type Gate struct {
	memberships MembershipLookup
}

func NewGate(memberships MembershipLookup) *Gate {
	return &Gate{memberships: memberships}
}

// Authorize returns the principal's role in orgID if it is one of required.
// An empty required set admits any member. A missing organization and a
// missing membership are indistinguishable to the caller.
func (g *Gate) Authorize(ctx context.Context, principal *auth.Principal, orgID uuid.UUID, required []models.Role) (models.Role, error) {
	if principal == nil || principal.UserID == "" {
		return "", ErrUnauthenticated
	}

	m, err := g.memberships.Get(ctx, orgID, principal.UserID)
	if err != nil {
		if errors.Is(err, store.ErrMembershipNotFound) {
			return "", ErrNotAMember
		}
		return "", fmt.Errorf("failed to look up membership: %w", err)
	}

	if !Satisfies(m.Role, required) {
		return m.Role, fmt.Errorf("%w: have %s", ErrInsufficientRole, m.Role)
	}

	log.Ctx(ctx).Debug().
		Str("org_id", orgID.String()).
		Str("role", string(m.Role)).
		Msg("Access granted")

	return m.Role, nil
}

// Satisfies reports whether role is in the allow-list. An empty allow-list
// admits any valid role.
func Satisfies(role models.Role, required []models.Role) bool {
	if !role.Valid() {
		return false
	}
	if len(required) == 0 {
		return true
	}
	return slices.Contains(required, role)
}
