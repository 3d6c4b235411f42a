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
	"github.com/wolfeidau/statuspage/internal/membership"
	"github.com/wolfeidau/statuspage/internal/models"
	"github.com/wolfeidau/statuspage/internal/store"
)

// MembershipStore implements store.MembershipStore using PostgreSQL.
//
// Role changes and removals lock the parent organization row before counting
// admins, so concurrent demotions in the same organization are serialised and
// the last-admin check cannot be raced.
type MembershipStore struct {
	pool       *pgxpool.Pool
	maxRetries uint
}

// NewMembershipStore creates a new PostgreSQL-backed membership store.
func NewMembershipStore(pool *pgxpool.Pool, maxRetries uint) *MembershipStore {
	return &MembershipStore{pool: pool, maxRetries: maxRetries}
}

// Get returns the membership for (orgID, userID).
func (s *MembershipStore) Get(ctx context.Context, orgID uuid.UUID, userID string) (*models.Membership, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT org_id, user_id, role, invited_by, joined_at, updated_at
		FROM memberships
		WHERE org_id = $1 AND user_id = $2
	`, orgID, userID)

	var m models.Membership
	if err := row.Scan(&m.OrgID, &m.UserID, &m.Role, &m.InvitedBy, &m.JoinedAt, &m.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrMembershipNotFound
		}
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}

	return &m, nil
}

// ListByOrganization returns every member of an organization with their email.
func (s *MembershipStore) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]*models.Membership, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT m.org_id, m.user_id, m.role, m.invited_by, m.joined_at, m.updated_at, COALESCE(u.email, '')
		FROM memberships m
		LEFT JOIN users u ON u.user_id = m.user_id
		WHERE m.org_id = $1
		ORDER BY m.joined_at
	`, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	members := []*models.Membership{}
	for rows.Next() {
		var m models.Membership
		if err := rows.Scan(&m.OrgID, &m.UserID, &m.Role, &m.InvitedBy, &m.JoinedAt, &m.UpdatedAt, &m.Email); err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		members = append(members, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating memberships: %w", err)
	}

	return members, nil
}

// ListByUser returns every organization the user belongs to with their role.
func (s *MembershipStore) ListByUser(ctx context.Context, userID string) ([]*models.OrganizationWithRole, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT o.org_id, o.name, o.slug, o.description, o.logo_url, o.website_url, o.created_at, o.updated_at, m.role
		FROM organizations o
		JOIN memberships m ON m.org_id = o.org_id
		WHERE m.user_id = $1
		ORDER BY o.created_at
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations for user: %w", err)
	}
	defer rows.Close()

	result := []*models.OrganizationWithRole{}
	for rows.Next() {
		var o models.OrganizationWithRole
		err := rows.Scan(
			&o.OrgID, &o.Name, &o.Slug, &o.Description, &o.LogoURL, &o.WebsiteURL,
			&o.CreatedAt, &o.UpdatedAt, &o.Role,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan organization: %w", err)
		}
		result = append(result, &o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating organizations: %w", err)
	}

	return result, nil
}

// Add creates a membership.
func (s *MembershipStore) Add(ctx context.Context, m *models.Membership) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO memberships (org_id, user_id, role, invited_by, joined_at)
		VALUES ($1, $2, $3, $4, $5)
	`, m.OrgID, m.UserID, m.Role, m.InvitedBy, m.JoinedAt)
	if err != nil {
		return mapPostgresError(err)
	}

	log.Debug().
		Str("org_id", m.OrgID.String()).
		Str("user_id", m.UserID).
		Str("role", string(m.Role)).
		Msg("Added member")

	return nil
}

// UpdateRole changes a member's role, refusing to demote the last admin.
func (s *MembershipStore) UpdateRole(ctx context.Context, orgID uuid.UUID, userID string, role models.Role) (*models.Membership, error) {
	var updated models.Membership

	err := inTx(ctx, s.pool, s.maxRetries, func(tx pgx.Tx) error {
		current, adminCount, err := lockMembership(ctx, tx, orgID, userID)
		if err != nil {
			return err
		}

		if err := membership.Check(membership.Mutation{CurrentRole: current, ProposedRole: role}, adminCount); err != nil {
			return err
		}

		return tx.QueryRow(ctx, `
			UPDATE memberships SET role = $3, updated_at = $4
			WHERE org_id = $1 AND user_id = $2
			RETURNING org_id, user_id, role, invited_by, joined_at, updated_at
		`, orgID, userID, role, time.Now()).Scan(
			&updated.OrgID, &updated.UserID, &updated.Role, &updated.InvitedBy, &updated.JoinedAt, &updated.UpdatedAt,
		)
	})
	if err != nil {
		return nil, mapPostgresError(err)
	}

	return &updated, nil
}

// Remove deletes a membership, refusing to remove the last admin.
func (s *MembershipStore) Remove(ctx context.Context, orgID uuid.UUID, userID string) error {
	err := inTx(ctx, s.pool, s.maxRetries, func(tx pgx.Tx) error {
		current, adminCount, err := lockMembership(ctx, tx, orgID, userID)
		if err != nil {
			return err
		}

		if err := membership.Check(membership.Mutation{CurrentRole: current, Remove: true}, adminCount); err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `DELETE FROM memberships WHERE org_id = $1 AND user_id = $2`, orgID, userID)
		return err
	})
	if err != nil {
		return mapPostgresError(err)
	}

	log.Debug().
		Str("org_id", orgID.String()).
		Str("user_id", userID).
		Msg("Removed member")

	return nil
}

// lockMembership takes the organization row lock, then reads the member's
// current role and the admin count under it.
func lockMembership(ctx context.Context, tx pgx.Tx, orgID uuid.UUID, userID string) (models.Role, int, error) {
	var locked uuid.UUID
	err := tx.QueryRow(ctx, `SELECT org_id FROM organizations WHERE org_id = $1 FOR UPDATE`, orgID).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", 0, store.ErrMembershipNotFound
		}
		return "", 0, err
	}

	var current models.Role
	err = tx.QueryRow(ctx, `SELECT role FROM memberships WHERE org_id = $1 AND user_id = $2`, orgID, userID).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", 0, store.ErrMembershipNotFound
		}
		return "", 0, err
	}

	var adminCount int
	err = tx.QueryRow(ctx, `SELECT count(*) FROM memberships WHERE org_id = $1 AND role = 'admin'`, orgID).Scan(&adminCount)
	if err != nil {
		return "", 0, err
	}

	return current, adminCount, nil
}
