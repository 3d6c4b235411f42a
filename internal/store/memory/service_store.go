package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/wolfeidau/statuspage/internal/models"
	"github.com/wolfeidau/statuspage/internal/store"
)

// ServiceStore implements store.ServiceStore using in-memory storage.
type ServiceStore struct {
	db *db
}

// Create stores a new service.
func (s *ServiceStore) Create(ctx context.Context, svc *models.Service) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, exists := s.db.organizations[svc.OrgID]; !exists {
		return store.ErrOrganizationNotFound
	}

	clone := *svc
	s.db.services[svc.ServiceID] = &clone

	return nil
}

// Get retrieves a service within an organization.
func (s *ServiceStore) Get(ctx context.Context, orgID, serviceID uuid.UUID) (*models.Service, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	svc, ok := s.db.services[serviceID]
	if !ok || svc.OrgID != orgID {
		return nil, store.ErrServiceNotFound
	}

	clone := *svc
	return &clone, nil
}

// ListByOrganization returns services ordered by display order, then name.
func (s *ServiceStore) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]*models.Service, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	result := []*models.Service{}
	for _, svc := range s.db.services {
		if svc.OrgID == orgID {
			clone := *svc
			result = append(result, &clone)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].DisplayOrder != result[j].DisplayOrder {
			return result[i].DisplayOrder < result[j].DisplayOrder
		}
		return result[i].Name < result[j].Name
	})

	return result, nil
}

// Update applies a partial update to a service.
func (s *ServiceStore) Update(ctx context.Context, orgID, serviceID uuid.UUID, patch models.ServicePatch) (*models.Service, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	svc, ok := s.db.services[serviceID]
	if !ok || svc.OrgID != orgID {
		return nil, store.ErrServiceNotFound
	}

	patch.Apply(svc)
	svc.UpdatedAt = time.Now()

	clone := *svc
	return &clone, nil
}

// Delete removes a service.
func (s *ServiceStore) Delete(ctx context.Context, orgID, serviceID uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	svc, ok := s.db.services[serviceID]
	if !ok || svc.OrgID != orgID {
		return store.ErrServiceNotFound
	}
	delete(s.db.services, serviceID)

	return nil
}
