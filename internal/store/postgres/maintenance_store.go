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

const maintenanceColumns = `maintenance_id, org_id, title, description, status, service_ids,
	scheduled_start, scheduled_end, created_by, created_at, updated_at`

// MaintenanceStore implements store.MaintenanceStore using PostgreSQL.
type MaintenanceStore struct {
	pool *pgxpool.Pool
}

// NewMaintenanceStore creates a new PostgreSQL-backed maintenance store.
func NewMaintenanceStore(pool *pgxpool.Pool) *MaintenanceStore {
	return &MaintenanceStore{pool: pool}
}

func (s *MaintenanceStore) Create(ctx context.Context, m *models.Maintenance) error {
	if err := m.ValidateWindow(); err != nil {
		return err
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO maintenances (`+maintenanceColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		m.MaintenanceID, m.OrgID, m.Title, m.Description, m.Status, serviceIDs(m.ServiceIDs),
		m.ScheduledStart, m.ScheduledEnd, m.CreatedBy, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create maintenance: %w", mapPostgresError(err))
	}
	return nil
}

func (s *MaintenanceStore) Get(ctx context.Context, orgID, maintenanceID uuid.UUID) (*models.Maintenance, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+maintenanceColumns+` FROM maintenances WHERE org_id = $1 AND maintenance_id = $2`, orgID, maintenanceID)
	return scanMaintenance(row)
}

func (s *MaintenanceStore) List(ctx context.Context, orgID uuid.UUID, opts store.ListMaintenancesOptions) ([]*models.Maintenance, error) {
	query := `SELECT ` + maintenanceColumns + ` FROM maintenances WHERE org_id = $1`
	args := []any{orgID}
	if opts.UpcomingAt != nil {
		query += ` AND status IN ('scheduled', 'in_progress') AND scheduled_end >= $2`
		args = append(args, *opts.UpcomingAt)
	}
	query += ` ORDER BY scheduled_start`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list maintenances: %w", err)
	}
	defer rows.Close()

	result := []*models.Maintenance{}
	for rows.Next() {
		m, err := scanMaintenance(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating maintenances: %w", err)
	}

	return result, nil
}

func (s *MaintenanceStore) Update(ctx context.Context, orgID, maintenanceID uuid.UUID, patch models.MaintenancePatch) (*models.Maintenance, error) {
	m, err := s.Get(ctx, orgID, maintenanceID)
	if err != nil {
		return nil, err
	}

	if err := patch.Apply(m); err != nil {
		return nil, err
	}
	m.UpdatedAt = time.Now()

	result, err := s.pool.Exec(ctx, `
		UPDATE maintenances SET
			title = $3, description = $4, status = $5, service_ids = $6,
			scheduled_start = $7, scheduled_end = $8, updated_at = $9
		WHERE org_id = $1 AND maintenance_id = $2
	`, orgID, maintenanceID, m.Title, m.Description, m.Status, serviceIDs(m.ServiceIDs),
		m.ScheduledStart, m.ScheduledEnd, m.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to update maintenance: %w", mapPostgresError(err))
	}
	if result.RowsAffected() == 0 {
		return nil, store.ErrMaintenanceNotFound
	}

	return m, nil
}

func (s *MaintenanceStore) Delete(ctx context.Context, orgID, maintenanceID uuid.UUID) error {
	result, err := s.pool.Exec(ctx, `DELETE FROM maintenances WHERE org_id = $1 AND maintenance_id = $2`, orgID, maintenanceID)
	if err != nil {
		return fmt.Errorf("failed to delete maintenance: %w", mapPostgresError(err))
	}
	if result.RowsAffected() == 0 {
		return store.ErrMaintenanceNotFound
	}
	return nil
}

func scanMaintenance(row pgx.Row) (*models.Maintenance, error) {
	var m models.Maintenance
	err := row.Scan(
		&m.MaintenanceID,
		&m.OrgID,
		&m.Title,
		&m.Description,
		&m.Status,
		&m.ServiceIDs,
		&m.ScheduledStart,
		&m.ScheduledEnd,
		&m.CreatedBy,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrMaintenanceNotFound
		}
		return nil, fmt.Errorf("failed to scan maintenance: %w", err)
	}
	return &m, nil
}
