package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/wolfeidau/statuspage/internal/models"
)

// ServiceStore manages services. Every lookup is filtered by organization so a
// service id from another tenant behaves exactly like a missing one.
type ServiceStore interface {
	Create(ctx context.Context, svc *models.Service) error

	// Get returns ErrServiceNotFound if the service does not exist in orgID.
	Get(ctx context.Context, orgID, serviceID uuid.UUID) (*models.Service, error)

	// ListByOrganization returns services ordered by display order, then name.
	ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]*models.Service, error)

	Update(ctx context.Context, orgID, serviceID uuid.UUID, patch models.ServicePatch) (*models.Service, error)

	Delete(ctx context.Context, orgID, serviceID uuid.UUID) error
}
