package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/statuspage/internal/auth"
	httpmiddleware "github.com/wolfeidau/statuspage/internal/http"
	"github.com/wolfeidau/statuspage/internal/membership"
	"github.com/wolfeidau/statuspage/internal/models"
	"github.com/wolfeidau/statuspage/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type addMemberRequest struct {
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

type updateMemberRequest struct {
	Role string `json:"role"`
}

func (s *Server) listMembers(w http.ResponseWriter, r *http.Request) {
	members, err := s.stores.Memberships.ListByOrganization(r.Context(), orgID(r))
	if err != nil {
		writeError(w, r, err, "fetch members")
		return
	}
	for _, m := range members {
		if m.Email == "" {
			m.Email = "Unknown"
		}
	}
	if members == nil {
		members = []*models.Membership{}
	}

	httpmiddleware.WriteJSON(w, http.StatusOK, map[string]any{"members": members})
}

// addMember invites an existing user by email. The role defaults to viewer.
func (s *Server) addMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req addMemberRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, "add member")
		return
	}

	email := strings.TrimSpace(req.Email)
	if email == "" {
		writeError(w, r, validationErrorf("Email is required"), "add member")
		return
	}

	role := models.RoleViewer
	if req.Role != "" {
		parsed, err := models.ParseRole(req.Role)
		if err != nil {
			writeError(w, r, err, "add member")
			return
		}
		role = parsed
	}

	user, err := s.stores.Users.GetByEmail(ctx, email)
	if err != nil {
		writeError(w, r, err, "add member")
		return
	}

	inviter := auth.PrincipalFromContext(ctx).UserID
	m := &models.Membership{
		OrgID:     orgID(r),
		UserID:    user.UserID,
		Role:      role,
		InvitedBy: &inviter,
		JoinedAt:  s.now(),
	}
	if err := s.stores.Memberships.Add(ctx, m); err != nil {
		writeError(w, r, err, "add member")
		return
	}
	m.Email = user.Email

	log.Ctx(ctx).Info().
		Str("org_id", m.OrgID.String()).
		Str("member_id", m.UserID).
		Str("role", string(role)).
		Msg("Member added")

	httpmiddleware.WriteJSON(w, http.StatusCreated, map[string]any{"member": m})
}

// updateMemberRole changes a member's role. The store refuses to demote the
// last admin within the same transaction as the write.
func (s *Server) updateMemberRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := chi.URLParam(r, "userId")

	var req updateMemberRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, "update member role")
		return
	}
	role, err := models.ParseRole(req.Role)
	if err != nil {
		writeError(w, r, err, "update member role")
		return
	}

	m, err := s.stores.Memberships.UpdateRole(ctx, orgID(r), userID, role)
	recordMutation(r, "update_role", err)
	if err != nil {
		if errors.Is(err, membership.ErrLastAdmin) {
			httpmiddleware.WriteError(w, http.StatusBadRequest,
				membership.LastAdminMessage(membership.Mutation{CurrentRole: models.RoleAdmin, ProposedRole: role}))
			return
		}
		writeError(w, r, err, "update member role")
		return
	}

	log.Ctx(ctx).Info().
		Str("org_id", m.OrgID.String()).
		Str("member_id", userID).
		Str("role", string(role)).
		Msg("Member role updated")

	httpmiddleware.WriteJSON(w, http.StatusOK, map[string]any{"member": m})
}

func (s *Server) removeMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := chi.URLParam(r, "userId")

	err := s.stores.Memberships.Remove(ctx, orgID(r), userID)
	recordMutation(r, "remove", err)
	if err != nil {
		if errors.Is(err, membership.ErrLastAdmin) {
			httpmiddleware.WriteError(w, http.StatusBadRequest,
				membership.LastAdminMessage(membership.Mutation{CurrentRole: models.RoleAdmin, Remove: true}))
			return
		}
		writeError(w, r, err, "remove member")
		return
	}

	log.Ctx(ctx).Info().
		Str("org_id", orgID(r).String()).
		Str("member_id", userID).
		Msg("Member removed")

	httpmiddleware.WriteJSON(w, http.StatusOK, map[string]any{"message": "Member removed successfully"})
}

func recordMutation(r *http.Request, op string, err error) {
	result := "ok"
	switch {
	case errors.Is(err, membership.ErrLastAdmin):
		result = "last_admin"
	case err != nil:
		result = "error"
	}
	telemetry.GetMetrics().MembershipMutationsTotal.Add(r.Context(), 1,
		metric.WithAttributes(attribute.String("op", op), attribute.String("result", result)))
}
