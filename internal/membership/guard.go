// Package membership holds the last-admin invariant check shared by every
// membership store. Stores evaluate it inside the same critical section (mutex
// or row lock) as the write it guards.
package membership

import (
	"errors"

	"github.com/wolfeidau/statuspage/internal/models"
)

// ErrLastAdmin is returned when a mutation would leave an organization without an admin.
var ErrLastAdmin = errors.New("organization must have at least one admin")

// Mutation describes a proposed change to a single membership.
type Mutation struct {
	CurrentRole  models.Role
	ProposedRole models.Role // ignored when Remove is set
	Remove       bool
}

// Demotes returns true if the mutation takes an admin out of the admin set.
func (m Mutation) Demotes() bool {
	if m.CurrentRole != models.RoleAdmin {
		return false
	}
	return m.Remove || m.ProposedRole != models.RoleAdmin
}

// Check decides whether the mutation may proceed given the number of admins
// currently in the organization, the target included.
func Check(m Mutation, adminCount int) error {
	if !m.Demotes() {
		return nil
	}
	if adminCount <= 1 {
		return ErrLastAdmin
	}
	return nil
}

// LastAdminMessage is the user-facing explanation for ErrLastAdmin.
func LastAdminMessage(m Mutation) string {
	if m.Remove {
		return "Cannot remove the last admin. Organization must have at least one admin."
	}
	return "Cannot change role of the last admin. Organization must have at least one admin."
}
