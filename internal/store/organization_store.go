package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/wolfeidau/statuspage/internal/models"
)

// Sentinel errors for organization store operations
var (
	ErrOrganizationNotFound      = errors.New("organization not found")
	ErrOrganizationAlreadyExists = errors.New("organization already exists")
)

// OrganizationStore defines the interface for organization storage operations.
// Organizations represent tenants in the system; every other entity is scoped to one.
type OrganizationStore interface {
	// CreateWithAdmin creates a new organization and the creator's admin membership atomically.
	// Returns ErrOrganizationAlreadyExists if the slug is already taken.
	CreateWithAdmin(ctx context.Context, org *models.Organization, admin *models.Membership) error

	// Get retrieves an organization by ID.
	// Returns ErrOrganizationNotFound if the organization doesn't exist.
	Get(ctx context.Context, orgID uuid.UUID) (*models.Organization, error)

	// GetBySlug retrieves an organization by its public slug.
	// Returns ErrOrganizationNotFound if the organization doesn't exist.
	GetBySlug(ctx context.Context, slug string) (*models.Organization, error)

	// Update applies a partial update to an existing organization and returns the result.
	// Returns ErrOrganizationNotFound if the organization doesn't exist and
	// ErrOrganizationAlreadyExists if a renamed slug collides.
	Update(ctx context.Context, orgID uuid.UUID, patch models.OrganizationPatch) (*models.Organization, error)

	// Delete deletes an organization by ID.
	// This cascade-deletes memberships, services, incidents and maintenances.
	// Returns ErrOrganizationNotFound if the organization doesn't exist.
	Delete(ctx context.Context, orgID uuid.UUID) error

	// List returns every organization ordered by name. Used by the target sync
	// and the internal service listing.
	List(ctx context.Context) ([]*models.Organization, error)
}
