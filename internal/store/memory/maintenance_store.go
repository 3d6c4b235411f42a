package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/wolfeidau/statuspage/internal/models"
	"github.com/wolfeidau/statuspage/internal/store"
)

// MaintenanceStore implements store.MaintenanceStore using in-memory storage.
type MaintenanceStore struct {
	db *db
}

func cloneMaintenance(m *models.Maintenance) *models.Maintenance {
	clone := *m
	clone.ServiceIDs = cloneIDs(m.ServiceIDs)
	return &clone
}

// Create stores a new maintenance window.
func (s *MaintenanceStore) Create(ctx context.Context, m *models.Maintenance) error {
	if err := m.ValidateWindow(); err != nil {
		return err
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, exists := s.db.organizations[m.OrgID]; !exists {
		return store.ErrOrganizationNotFound
	}
	s.db.maintenances[m.MaintenanceID] = cloneMaintenance(m)

	return nil
}

// Get retrieves a maintenance window within an organization.
func (s *MaintenanceStore) Get(ctx context.Context, orgID, maintenanceID uuid.UUID) (*models.Maintenance, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	m, ok := s.db.maintenances[maintenanceID]
	if !ok || m.OrgID != orgID {
		return nil, store.ErrMaintenanceNotFound
	}

	return cloneMaintenance(m), nil
}

// List returns maintenance windows ordered by scheduled start.
func (s *MaintenanceStore) List(ctx context.Context, orgID uuid.UUID, opts store.ListMaintenancesOptions) ([]*models.Maintenance, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	result := []*models.Maintenance{}
	for _, m := range s.db.maintenances {
		if m.OrgID != orgID {
			continue
		}
		if opts.UpcomingAt != nil && !m.Upcoming(*opts.UpcomingAt) {
			continue
		}
		result = append(result, cloneMaintenance(m))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ScheduledStart.Before(result[j].ScheduledStart)
	})

	return result, nil
}

// Update applies a partial update to a maintenance window.
func (s *MaintenanceStore) Update(ctx context.Context, orgID, maintenanceID uuid.UUID, patch models.MaintenancePatch) (*models.Maintenance, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	m, ok := s.db.maintenances[maintenanceID]
	if !ok || m.OrgID != orgID {
		return nil, store.ErrMaintenanceNotFound
	}

	updated := cloneMaintenance(m)
	if err := patch.Apply(updated); err != nil {
		return nil, err
	}
	updated.UpdatedAt = time.Now()
	s.db.maintenances[maintenanceID] = updated

	return cloneMaintenance(updated), nil
}

// Delete removes a maintenance window.
func (s *MaintenanceStore) Delete(ctx context.Context, orgID, maintenanceID uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	m, ok := s.db.maintenances[maintenanceID]
	if !ok || m.OrgID != orgID {
		return store.ErrMaintenanceNotFound
	}
	delete(s.db.maintenances, maintenanceID)

	return nil
}
