package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wolfeidau/statuspage/internal/models"
	"github.com/wolfeidau/statuspage/internal/store"
)

const serviceColumns = `service_id, org_id, name, description, target_url, display_order, current_status, created_at, updated_at`

// ServiceStore implements store.ServiceStore using PostgreSQL.
type ServiceStore struct {
	pool *pgxpool.Pool
}

// NewServiceStore creates a new PostgreSQL-backed service store.
func NewServiceStore(pool *pgxpool.Pool) *ServiceStore {
	return &ServiceStore{pool: pool}
}

func (s *ServiceStore) Create(ctx context.Context, svc *models.Service) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO services (`+serviceColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		svc.ServiceID, svc.OrgID, svc.Name, svc.Description, svc.TargetURL,
		svc.DisplayOrder, svc.CurrentStatus, svc.CreatedAt, svc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", mapPostgresError(err))
	}
	return nil
}

func (s *ServiceStore) Get(ctx context.Context, orgID, serviceID uuid.UUID) (*models.Service, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+serviceColumns+` FROM services WHERE org_id = $1 AND service_id = $2`, orgID, serviceID)
	return scanService(row)
}

func (s *ServiceStore) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]*models.Service, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+serviceColumns+` FROM services WHERE org_id = $1 ORDER BY display_order, name`, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	defer rows.Close()

	services := []*models.Service{}
	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		services = append(services, svc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating services: %w", err)
	}

	return services, nil
}

func (s *ServiceStore) Update(ctx context.Context, orgID, serviceID uuid.UUID, patch models.ServicePatch) (*models.Service, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	svc, err := s.Get(ctx, orgID, serviceID)
	if err != nil {
		return nil, err
	}

	patch.Apply(svc)
	svc.UpdatedAt = time.Now()

	result, err := s.pool.Exec(ctx, `
		UPDATE services SET
			name = $3, description = $4, target_url = $5, display_order = $6, current_status = $7, updated_at = $8
		WHERE org_id = $1 AND service_id = $2
	`, orgID, serviceID, svc.Name, svc.Description, svc.TargetURL, svc.DisplayOrder, svc.CurrentStatus, svc.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to update service: %w", mapPostgresError(err))
	}
	if result.RowsAffected() == 0 {
		return nil, store.ErrServiceNotFound
	}

	return svc, nil
}

func (s *ServiceStore) Delete(ctx context.Context, orgID, serviceID uuid.UUID) error {
	result, err := s.pool.Exec(ctx, `DELETE FROM services WHERE org_id = $1 AND service_id = $2`, orgID, serviceID)
	if err != nil {
		return fmt.Errorf("failed to delete service: %w", mapPostgresError(err))
	}
	if result.RowsAffected() == 0 {
		return store.ErrServiceNotFound
	}
	return nil
}

func scanService(row pgx.Row) (*models.Service, error) {
	var svc models.Service
	err := row.Scan(
		&svc.ServiceID,
		&svc.OrgID,
		&svc.Name,
		&svc.Description,
		&svc.TargetURL,
		&svc.DisplayOrder,
		&svc.CurrentStatus,
		&svc.CreatedAt,
		&svc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrServiceNotFound
		}
		return nil, fmt.Errorf("failed to scan service: %w", err)
	}
	return &svc, nil
}
