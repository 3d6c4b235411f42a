package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/wolfeidau/statuspage/internal/models"
)

// ListMaintenancesOptions specifies filters for listing maintenances
type ListMaintenancesOptions struct {
	// UpcomingAt restricts results to scheduled/in-progress windows ending at or after this time.
	UpcomingAt *time.Time
}

// MaintenanceStore manages maintenance windows, scoped by organization.
// Results are ordered by scheduled_start ascending.
type MaintenanceStore interface {
	Create(ctx context.Context, m *models.Maintenance) error

	// Get returns ErrMaintenanceNotFound if the maintenance does not exist in orgID.
	Get(ctx context.Context, orgID, maintenanceID uuid.UUID) (*models.Maintenance, error)

	List(ctx context.Context, orgID uuid.UUID, opts ListMaintenancesOptions) ([]*models.Maintenance, error)

	Update(ctx context.Context, orgID, maintenanceID uuid.UUID, patch models.MaintenancePatch) (*models.Maintenance, error)

	Delete(ctx context.Context, orgID, maintenanceID uuid.UUID) error
}
