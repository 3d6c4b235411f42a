package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/wolfeidau/statuspage/internal/membership"
	"github.com/wolfeidau/statuspage/internal/models"
	"github.com/wolfeidau/statuspage/internal/store"
)

// MembershipStore implements store.MembershipStore using in-memory storage.
// The last-admin check and the write happen under the same lock.
type MembershipStore struct {
	db *db
}

// Get returns the membership for (orgID, userID).
func (s *MembershipStore) Get(ctx context.Context, orgID uuid.UUID, userID string) (*models.Membership, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	m, exists := s.db.memberships[orgID][userID]
	if !exists {
		return nil, store.ErrMembershipNotFound
	}

	clone := *m
	return &clone, nil
}

// ListByOrganization returns every member of an organization ordered by join time.
func (s *MembershipStore) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]*models.Membership, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	members := s.db.memberships[orgID]
	result := make([]*models.Membership, 0, len(members))
	for _, m := range members {
		clone := *m
		if u, ok := s.db.users[m.UserID]; ok {
			clone.Email = u.Email
		}
		result = append(result, &clone)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].JoinedAt.Before(result[j].JoinedAt)
	})

	return result, nil
}

// ListByUser returns every organization the user belongs to.
func (s *MembershipStore) ListByUser(ctx context.Context, userID string) ([]*models.OrganizationWithRole, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	var result []*models.OrganizationWithRole
	for orgID, members := range s.db.memberships {
		m, ok := members[userID]
		if !ok {
			continue
		}
		org, ok := s.db.organizations[orgID]
		if !ok {
			continue
		}
		result = append(result, &models.OrganizationWithRole{Organization: *org, Role: m.Role})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	return result, nil
}

// Add creates a membership.
func (s *MembershipStore) Add(ctx context.Context, m *models.Membership) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, exists := s.db.organizations[m.OrgID]; !exists {
		return store.ErrOrganizationNotFound
	}

	members := s.db.memberships[m.OrgID]
	if members == nil {
		members = make(map[string]*models.Membership)
		s.db.memberships[m.OrgID] = members
	}
	if _, exists := members[m.UserID]; exists {
		return store.ErrMembershipAlreadyExists
	}

	clone := *m
	members[m.UserID] = &clone

	return nil
}

// UpdateRole changes a member's role, refusing to demote the last admin.
func (s *MembershipStore) UpdateRole(ctx context.Context, orgID uuid.UUID, userID string, role models.Role) (*models.Membership, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	m, exists := s.db.memberships[orgID][userID]
	if !exists {
		return nil, store.ErrMembershipNotFound
	}

	mutation := membership.Mutation{CurrentRole: m.Role, ProposedRole: role}
	if err := membership.Check(mutation, s.countAdminsLocked(orgID)); err != nil {
		return nil, err
	}

	now := time.Now()
	m.Role = role
	m.UpdatedAt = &now

	clone := *m
	return &clone, nil
}

// Remove deletes a membership, refusing to remove the last admin.
func (s *MembershipStore) Remove(ctx context.Context, orgID uuid.UUID, userID string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	m, exists := s.db.memberships[orgID][userID]
	if !exists {
		return store.ErrMembershipNotFound
	}

	mutation := membership.Mutation{CurrentRole: m.Role, Remove: true}
	if err := membership.Check(mutation, s.countAdminsLocked(orgID)); err != nil {
		return err
	}

	delete(s.db.memberships[orgID], userID)

	return nil
}

func (s *MembershipStore) countAdminsLocked(orgID uuid.UUID) int {
	count := 0
	for _, m := range s.db.memberships[orgID] {
		if m.Role == models.RoleAdmin {
			count++
		}
	}
	return count
}
