package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/wolfeidau/statuspage/internal/models"
	"github.com/wolfeidau/statuspage/internal/store"
)

// OrganizationStore implements store.OrganizationStore using in-memory storage.
type OrganizationStore struct {
	db *db
}

// CreateWithAdmin creates a new organization and its first admin in memory.
func (s *OrganizationStore) CreateWithAdmin(ctx context.Context, org *models.Organization, admin *models.Membership) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, exists := s.db.organizations[org.OrgID]; exists {
		return store.ErrOrganizationAlreadyExists
	}
	if _, exists := s.db.orgsBySlug[org.Slug]; exists {
		return store.ErrOrganizationAlreadyExists
	}

	// Clone to avoid external modifications
	clone := *org
	s.db.organizations[org.OrgID] = &clone
	s.db.orgsBySlug[org.Slug] = org.OrgID

	m := *admin
	s.db.memberships[org.OrgID] = map[string]*models.Membership{admin.UserID: &m}

	return nil
}

// Get retrieves an organization by ID.
func (s *OrganizationStore) Get(ctx context.Context, orgID uuid.UUID) (*models.Organization, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	org, exists := s.db.organizations[orgID]
	if !exists {
		return nil, store.ErrOrganizationNotFound
	}

	clone := *org
	return &clone, nil
}

// GetBySlug retrieves an organization by slug.
func (s *OrganizationStore) GetBySlug(ctx context.Context, slug string) (*models.Organization, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	orgID, exists := s.db.orgsBySlug[slug]
	if !exists {
		return nil, store.ErrOrganizationNotFound
	}

	clone := *s.db.organizations[orgID]
	return &clone, nil
}

// Update applies a partial update to an existing organization.
func (s *OrganizationStore) Update(ctx context.Context, orgID uuid.UUID, patch models.OrganizationPatch) (*models.Organization, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	org, exists := s.db.organizations[orgID]
	if !exists {
		return nil, store.ErrOrganizationNotFound
	}

	updated := *org
	patch.Apply(&updated)
	if updated.Slug != org.Slug {
		if _, taken := s.db.orgsBySlug[updated.Slug]; taken {
			return nil, store.ErrOrganizationAlreadyExists
		}
		delete(s.db.orgsBySlug, org.Slug)
		s.db.orgsBySlug[updated.Slug] = orgID
	}
	updated.UpdatedAt = time.Now()
	s.db.organizations[orgID] = &updated

	clone := updated
	return &clone, nil
}

// Delete deletes an organization and everything scoped to it.
func (s *OrganizationStore) Delete(ctx context.Context, orgID uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	org, exists := s.db.organizations[orgID]
	if !exists {
		return store.ErrOrganizationNotFound
	}

	delete(s.db.orgsBySlug, org.Slug)
	delete(s.db.organizations, orgID)
	delete(s.db.memberships, orgID)
	for id, svc := range s.db.services {
		if svc.OrgID == orgID {
			delete(s.db.services, id)
		}
	}
	for id, inc := range s.db.incidents {
		if inc.OrgID == orgID {
			delete(s.db.incidents, id)
		}
	}
	for id, m := range s.db.maintenances {
		if m.OrgID == orgID {
			delete(s.db.maintenances, id)
		}
	}

	return nil
}

// List returns every organization ordered by name.
func (s *OrganizationStore) List(ctx context.Context) ([]*models.Organization, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	result := make([]*models.Organization, 0, len(s.db.organizations))
	for _, org := range s.db.organizations {
		clone := *org
		result = append(result, &clone)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})

	return result, nil
}
