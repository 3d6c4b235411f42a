package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/statuspage/internal/models"
	"github.com/wolfeidau/statuspage/internal/store"
)

const organizationColumns = `org_id, name, slug, description, logo_url, website_url, created_at, updated_at`

// OrganizationStore implements store.OrganizationStore using PostgreSQL.
type OrganizationStore struct {
	pool       *pgxpool.Pool
	maxRetries uint
}

// NewOrganizationStore creates a new PostgreSQL-backed organization store.
// It shares the connection pool with other stores.
func NewOrganizationStore(pool *pgxpool.Pool, maxRetries uint) *OrganizationStore {
	return &OrganizationStore{pool: pool, maxRetries: maxRetries}
}

// CreateWithAdmin inserts the organization and its founding admin in one transaction.
func (s *OrganizationStore) CreateWithAdmin(ctx context.Context, org *models.Organization, admin *models.Membership) error {
	err := inTx(ctx, s.pool, s.maxRetries, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO organizations (`+organizationColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`,
			org.OrgID, org.Name, org.Slug, org.Description, org.LogoURL, org.WebsiteURL,
			org.CreatedAt, org.UpdatedAt,
		)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO memberships (org_id, user_id, role, invited_by, joined_at)
			VALUES ($1, $2, $3, $4, $5)
		`, admin.OrgID, admin.UserID, admin.Role, admin.InvitedBy, admin.JoinedAt)
		return err
	})
	if err != nil {
		if isUniqueViolation(err) {
			return mapPostgresError(err)
		}
		return fmt.Errorf("failed to create organization: %w", mapPostgresError(err))
	}

	log.Debug().
		Str("org_id", org.OrgID.String()).
		Str("slug", org.Slug).
		Msg("Created organization")

	return nil
}

// Get retrieves an organization by ID.
func (s *OrganizationStore) Get(ctx context.Context, orgID uuid.UUID) (*models.Organization, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+organizationColumns+` FROM organizations WHERE org_id = $1`, orgID)
	return scanOrganization(row)
}

// GetBySlug retrieves an organization by its slug.
func (s *OrganizationStore) GetBySlug(ctx context.Context, slug string) (*models.Organization, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+organizationColumns+` FROM organizations WHERE slug = $1`, slug)
	return scanOrganization(row)
}

// Update applies a partial update. A new name regenerates the slug.
func (s *OrganizationStore) Update(ctx context.Context, orgID uuid.UUID, patch models.OrganizationPatch) (*models.Organization, error) {
	var updated *models.Organization

	err := inTx(ctx, s.pool, s.maxRetries, func(tx pgx.Tx) error {
		org, err := scanOrganization(tx.QueryRow(ctx,
			`SELECT `+organizationColumns+` FROM organizations WHERE org_id = $1 FOR UPDATE`, orgID))
		if err != nil {
			return err
		}

		patch.Apply(org)
		org.UpdatedAt = time.Now()

		_, err = tx.Exec(ctx, `
			UPDATE organizations SET
				name = $2, slug = $3, description = $4, logo_url = $5, website_url = $6, updated_at = $7
			WHERE org_id = $1
		`, org.OrgID, org.Name, org.Slug, org.Description, org.LogoURL, org.WebsiteURL, org.UpdatedAt)
		if err != nil {
			return err
		}

		updated = org
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrOrganizationNotFound) || isUniqueViolation(err) {
			return nil, mapPostgresError(err)
		}
		return nil, fmt.Errorf("failed to update organization: %w", mapPostgresError(err))
	}

	return updated, nil
}

// Delete deletes an organization by ID.
// Memberships, services, incidents and maintenances cascade via FK constraints.
func (s *OrganizationStore) Delete(ctx context.Context, orgID uuid.UUID) error {
	result, err := s.pool.Exec(ctx, `DELETE FROM organizations WHERE org_id = $1`, orgID)
	if err != nil {
		return fmt.Errorf("failed to delete organization: %w", mapPostgresError(err))
	}

	if result.RowsAffected() == 0 {
		return store.ErrOrganizationNotFound
	}

	log.Info().
		Str("org_id", orgID.String()).
		Msg("Deleted organization")

	return nil
}

// List returns every organization ordered by name.
func (s *OrganizationStore) List(ctx context.Context) ([]*models.Organization, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+organizationColumns+` FROM organizations ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	defer rows.Close()

	orgs := []*models.Organization{}
	for rows.Next() {
		org, err := scanOrganization(rows)
		if err != nil {
			return nil, err
		}
		orgs = append(orgs, org)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating organizations: %w", err)
	}

	return orgs, nil
}

func scanOrganization(row pgx.Row) (*models.Organization, error) {
	var org models.Organization
	err := row.Scan(
		&org.OrgID,
		&org.Name,
		&org.Slug,
		&org.Description,
		&org.LogoURL,
		&org.WebsiteURL,
		&org.CreatedAt,
		&org.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to scan organization: %w", err)
	}
	return &org, nil
}
