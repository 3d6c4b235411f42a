package targets

import (
	"context"

	"github.com/google/uuid"
	"github.com/wolfeidau/statuspage/internal/models"
	"github.com/wolfeidau/statuspage/internal/store"
)

// StoreSource adapts the organization and service stores to Source.
type StoreSource struct {
	Organizations store.OrganizationStore
	Services      store.ServiceStore
}

func (s StoreSource) List(ctx context.Context) ([]*models.Organization, error) {
	return s.Organizations.List(ctx)
}

func (s StoreSource) ListServices(ctx context.Context, orgID uuid.UUID) ([]*models.Service, error) {
	return s.Services.ListByOrganization(ctx, orgID)
}
