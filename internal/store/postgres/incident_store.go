package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wolfeidau/statuspage/internal/models"
	"github.com/wolfeidau/statuspage/internal/store"
)

const incidentColumns = `incident_id, org_id, title, description, status, impact, service_ids,
	started_at, resolved_at, created_by, created_at, updated_at`

// IncidentStore implements store.IncidentStore using PostgreSQL.
type IncidentStore struct {
	pool *pgxpool.Pool
}

// NewIncidentStore creates a new PostgreSQL-backed incident store.
func NewIncidentStore(pool *pgxpool.Pool) *IncidentStore {
	return &IncidentStore{pool: pool}
}

func (s *IncidentStore) Create(ctx context.Context, inc *models.Incident) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO incidents (`+incidentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		inc.IncidentID, inc.OrgID, inc.Title, inc.Description, inc.Status, inc.Impact, serviceIDs(inc.ServiceIDs),
		inc.StartedAt, inc.ResolvedAt, inc.CreatedBy, inc.CreatedAt, inc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create incident: %w", mapPostgresError(err))
	}
	return nil
}

func (s *IncidentStore) Get(ctx context.Context, orgID, incidentID uuid.UUID) (*models.Incident, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+incidentColumns+` FROM incidents WHERE org_id = $1 AND incident_id = $2`, orgID, incidentID)
	return scanIncident(row)
}

// List builds the filter from opts. Resolved listings are ordered by
// resolution time, everything else by start time, newest first.
func (s *IncidentStore) List(ctx context.Context, orgID uuid.UUID, opts store.ListIncidentsOptions) ([]*models.Incident, error) {
	where := []string{"org_id = $1"}
	args := []any{orgID}

	if opts.Status != "" {
		args = append(args, opts.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if opts.Active {
		where = append(where, "status <> 'resolved'")
	}
	if opts.ServiceID != uuid.Nil {
		args = append(args, opts.ServiceID)
		where = append(where, fmt.Sprintf("$%d = ANY(service_ids)", len(args)))
	}

	orderBy := "started_at DESC"
	if opts.Status == models.IncidentResolved {
		orderBy = "resolved_at DESC NULLS LAST, started_at DESC"
	}

	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE ` + strings.Join(where, " AND ") + ` ORDER BY ` + orderBy
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list incidents: %w", err)
	}
	defer rows.Close()

	incidents := []*models.Incident{}
	for rows.Next() {
		inc, err := scanIncident(rows)
		if err != nil {
			return nil, err
		}
		incidents = append(incidents, inc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating incidents: %w", err)
	}

	return incidents, nil
}

func (s *IncidentStore) Update(ctx context.Context, orgID, incidentID uuid.UUID, patch models.IncidentPatch) (*models.Incident, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	inc, err := s.Get(ctx, orgID, incidentID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	patch.Apply(inc, now)
	inc.UpdatedAt = now

	result, err := s.pool.Exec(ctx, `
		UPDATE incidents SET
			title = $3, description = $4, status = $5, impact = $6, service_ids = $7,
			resolved_at = $8, updated_at = $9
		WHERE org_id = $1 AND incident_id = $2
	`, orgID, incidentID, inc.Title, inc.Description, inc.Status, inc.Impact, serviceIDs(inc.ServiceIDs),
		inc.ResolvedAt, inc.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to update incident: %w", mapPostgresError(err))
	}
	if result.RowsAffected() == 0 {
		return nil, store.ErrIncidentNotFound
	}

	return inc, nil
}

func (s *IncidentStore) Delete(ctx context.Context, orgID, incidentID uuid.UUID) error {
	result, err := s.pool.Exec(ctx, `DELETE FROM incidents WHERE org_id = $1 AND incident_id = $2`, orgID, incidentID)
	if err != nil {
		return fmt.Errorf("failed to delete incident: %w", mapPostgresError(err))
	}
	if result.RowsAffected() == 0 {
		return store.ErrIncidentNotFound
	}
	return nil
}

func scanIncident(row pgx.Row) (*models.Incident, error) {
	var inc models.Incident
	err := row.Scan(
		&inc.IncidentID,
		&inc.OrgID,
		&inc.Title,
		&inc.Description,
		&inc.Status,
		&inc.Impact,
		&inc.ServiceIDs,
		&inc.StartedAt,
		&inc.ResolvedAt,
		&inc.CreatedBy,
		&inc.CreatedAt,
		&inc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrIncidentNotFound
		}
		return nil, fmt.Errorf("failed to scan incident: %w", err)
	}
	return &inc, nil
}

// serviceIDs keeps NOT NULL array columns from receiving a nil slice.
func serviceIDs(ids []uuid.UUID) []uuid.UUID {
	if ids == nil {
		return []uuid.UUID{}
	}
	return ids
}
