package server

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/statuspage/internal/access"
	"github.com/wolfeidau/statuspage/internal/auth"
	httpmiddleware "github.com/wolfeidau/statuspage/internal/http"
	"github.com/wolfeidau/statuspage/internal/models"
)

type createOrganizationRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	LogoURL     *string `json:"logo_url,omitempty"`
	WebsiteURL  *string `json:"website_url,omitempty"`
}

// listOrganizations returns every organization the caller belongs to, with their role.
func (s *Server) listOrganizations(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())

	orgs, err := s.stores.Memberships.ListByUser(r.Context(), principal.UserID)
	if err != nil {
		writeError(w, r, err, "fetch organizations")
		return
	}
	if orgs == nil {
		orgs = []*models.OrganizationWithRole{}
	}

	httpmiddleware.WriteJSON(w, http.StatusOK, map[string]any{"organizations": orgs})
}

// createOrganization creates an organization with the caller as its first admin.
func (s *Server) createOrganization(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal := auth.PrincipalFromContext(ctx)

	var req createOrganizationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, "create organization")
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, r, validationErrorf("Organization name is required"), "create organization")
		return
	}
	slug := models.GenerateSlug(name)
	if slug == "" {
		writeError(w, r, validationErrorf("Organization name must contain letters or digits"), "create organization")
		return
	}

	now := s.now()
	org := &models.Organization{
		OrgID:       uuid.Must(uuid.NewV7()),
		Name:        name,
		Slug:        slug,
		Description: req.Description,
		LogoURL:     req.LogoURL,
		WebsiteURL:  req.WebsiteURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	admin := &models.Membership{
		OrgID:    org.OrgID,
		UserID:   principal.UserID,
		Role:     models.RoleAdmin,
		JoinedAt: now,
	}

	if err := s.stores.Organizations.CreateWithAdmin(ctx, org, admin); err != nil {
		writeError(w, r, err, "create organization")
		return
	}

	log.Ctx(ctx).Info().
		Str("org_id", org.OrgID.String()).
		Str("slug", org.Slug).
		Msg("Organization created")

	httpmiddleware.WriteJSON(w, http.StatusCreated, map[string]any{
		"organization": models.OrganizationWithRole{Organization: *org, Role: models.RoleAdmin},
	})
}

func (s *Server) getOrganization(w http.ResponseWriter, r *http.Request) {
	org, err := s.stores.Organizations.Get(r.Context(), orgID(r))
	if err != nil {
		writeError(w, r, err, "fetch organization")
		return
	}

	role, _ := access.RoleFromContext(r.Context())
	httpmiddleware.WriteJSON(w, http.StatusOK, map[string]any{
		"organization": models.OrganizationWithRole{Organization: *org, Role: role},
	})
}

func (s *Server) updateOrganization(w http.ResponseWriter, r *http.Request) {
	var patch models.OrganizationPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, err, "update organization")
		return
	}
	if patch.Name != nil {
		trimmed := strings.TrimSpace(*patch.Name)
		if trimmed != "" && models.GenerateSlug(trimmed) == "" {
			writeError(w, r, validationErrorf("Organization name must contain letters or digits"), "update organization")
			return
		}
		patch.Name = &trimmed
	}

	org, err := s.stores.Organizations.Update(r.Context(), orgID(r), patch)
	if err != nil {
		writeError(w, r, err, "update organization")
		return
	}

	httpmiddleware.WriteJSON(w, http.StatusOK, map[string]any{"organization": org})
}

func (s *Server) deleteOrganization(w http.ResponseWriter, r *http.Request) {
	id := orgID(r)
	if err := s.stores.Organizations.Delete(r.Context(), id); err != nil {
		writeError(w, r, err, "delete organization")
		return
	}

	log.Ctx(r.Context()).Info().Str("org_id", id.String()).Msg("Organization deleted")
	httpmiddleware.WriteJSON(w, http.StatusOK, map[string]any{"message": "Organization deleted successfully"})
}
