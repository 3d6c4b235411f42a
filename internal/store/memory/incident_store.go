package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/wolfeidau/statuspage/internal/models"
	"github.com/wolfeidau/statuspage/internal/store"
)

// IncidentStore implements store.IncidentStore using in-memory storage.
type IncidentStore struct {
	db *db
}

func cloneIncident(inc *models.Incident) *models.Incident {
	clone := *inc
	clone.ServiceIDs = cloneIDs(inc.ServiceIDs)
	return &clone
}

// Create stores a new incident.
func (s *IncidentStore) Create(ctx context.Context, inc *models.Incident) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, exists := s.db.organizations[inc.OrgID]; !exists {
		return store.ErrOrganizationNotFound
	}
	s.db.incidents[inc.IncidentID] = cloneIncident(inc)

	return nil
}

// Get retrieves an incident within an organization.
func (s *IncidentStore) Get(ctx context.Context, orgID, incidentID uuid.UUID) (*models.Incident, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	inc, ok := s.db.incidents[incidentID]
	if !ok || inc.OrgID != orgID {
		return nil, store.ErrIncidentNotFound
	}

	return cloneIncident(inc), nil
}

// List returns incidents matching opts.
func (s *IncidentStore) List(ctx context.Context, orgID uuid.UUID, opts store.ListIncidentsOptions) ([]*models.Incident, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	result := []*models.Incident{}
	for _, inc := range s.db.incidents {
		if inc.OrgID != orgID {
			continue
		}
		if opts.Status != "" && inc.Status != opts.Status {
			continue
		}
		if opts.Active && inc.Status == models.IncidentResolved {
			continue
		}
		if opts.ServiceID != uuid.Nil && !inc.Affects(opts.ServiceID) {
			continue
		}
		result = append(result, cloneIncident(inc))
	}

	byResolved := opts.Status == models.IncidentResolved
	sort.Slice(result, func(i, j int) bool {
		if byResolved && result[i].ResolvedAt != nil && result[j].ResolvedAt != nil {
			return result[i].ResolvedAt.After(*result[j].ResolvedAt)
		}
		return result[i].StartedAt.After(result[j].StartedAt)
	})

	if opts.Limit > 0 && len(result) > opts.Limit {
		result = result[:opts.Limit]
	}

	return result, nil
}

// Update applies a partial update to an incident.
func (s *IncidentStore) Update(ctx context.Context, orgID, incidentID uuid.UUID, patch models.IncidentPatch) (*models.Incident, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	inc, ok := s.db.incidents[incidentID]
	if !ok || inc.OrgID != orgID {
		return nil, store.ErrIncidentNotFound
	}

	now := time.Now()
	patch.Apply(inc, now)
	inc.UpdatedAt = now

	return cloneIncident(inc), nil
}

// Delete removes an incident.
func (s *IncidentStore) Delete(ctx context.Context, orgID, incidentID uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	inc, ok := s.db.incidents[incidentID]
	if !ok || inc.OrgID != orgID {
		return store.ErrIncidentNotFound
	}
	delete(s.db.incidents, incidentID)

	return nil
}
