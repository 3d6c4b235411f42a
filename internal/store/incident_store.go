package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/wolfeidau/statuspage/internal/models"
)

// ListIncidentsOptions specifies filters for listing incidents
type ListIncidentsOptions struct {
	Status    models.IncidentStatus // Only this status (empty = all)
	Active    bool                  // Exclude resolved incidents
	ServiceID uuid.UUID             // Only incidents affecting this service (Nil = all)
	Limit     int                   // Max results (0 = unlimited)
}

// IncidentStore manages incidents, scoped by organization.
// Resolved incidents are ordered by resolved_at descending, all others by started_at descending.
type IncidentStore interface {
	Create(ctx context.Context, inc *models.Incident) error

	// Get returns ErrIncidentNotFound if the incident does not exist in orgID.
	Get(ctx context.Context, orgID, incidentID uuid.UUID) (*models.Incident, error)

	List(ctx context.Context, orgID uuid.UUID, opts ListIncidentsOptions) ([]*models.Incident, error)

	Update(ctx context.Context, orgID, incidentID uuid.UUID, patch models.IncidentPatch) (*models.Incident, error)

	Delete(ctx context.Context, orgID, incidentID uuid.UUID) error
}
