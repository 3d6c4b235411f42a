package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/statuspage/internal/auth"
	httpmiddleware "github.com/wolfeidau/statuspage/internal/http"
	"github.com/wolfeidau/statuspage/internal/models"
	"github.com/wolfeidau/statuspage/internal/store"
)

type createIncidentRequest struct {
	Title       string                `json:"title"`
	Description *string               `json:"description,omitempty"`
	Status      models.IncidentStatus `json:"status,omitempty"`
	Impact      models.Impact         `json:"impact,omitempty"`
	ServiceIDs  []uuid.UUID           `json:"affected_service_ids,omitempty"`
	StartedAt   *time.Time            `json:"started_at,omitempty"`
}

func (s *Server) listIncidents(w http.ResponseWriter, r *http.Request) {
	opts := store.ListIncidentsOptions{}
	if status := r.URL.Query().Get("status"); status != "" {
		opts.Status = models.IncidentStatus(status)
		if !opts.Status.Valid() {
			writeError(w, r, validationErrorf("Invalid status value"), "fetch incidents")
			return
		}
	}

	incidents, err := s.stores.Incidents.List(r.Context(), orgID(r), opts)
	if err != nil {
		writeError(w, r, err, "fetch incidents")
		return
	}
	if incidents == nil {
		incidents = []*models.Incident{}
	}

	httpmiddleware.WriteJSON(w, http.StatusOK, map[string]any{"incidents": incidents})
}

func (s *Server) createIncident(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createIncidentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, "create incident")
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		writeError(w, r, validationErrorf("Incident title is required"), "create incident")
		return
	}
	if req.Status == "" {
		req.Status = models.IncidentInvestigating
	}
	if req.Impact == "" {
		req.Impact = models.ImpactMinor
	}
	if !req.Status.Valid() {
		writeError(w, r, validationErrorf("Invalid status value"), "create incident")
		return
	}
	if !req.Impact.Valid() {
		writeError(w, r, validationErrorf("Invalid impact value"), "create incident")
		return
	}

	org := orgID(r)
	if err := s.checkServices(ctx, org, req.ServiceIDs); err != nil {
		writeError(w, r, err, "create incident")
		return
	}

	now := s.now()
	inc := &models.Incident{
		IncidentID:  uuid.Must(uuid.NewV7()),
		OrgID:       org,
		Title:       title,
		Description: req.Description,
		Status:      req.Status,
		Impact:      req.Impact,
		ServiceIDs:  req.ServiceIDs,
		StartedAt:   now,
		CreatedBy:   auth.PrincipalFromContext(ctx).UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if inc.ServiceIDs == nil {
		inc.ServiceIDs = []uuid.UUID{}
	}
	if req.StartedAt != nil {
		inc.StartedAt = *req.StartedAt
	}
	if inc.Status == models.IncidentResolved {
		inc.ResolvedAt = &now
	}

	if err := s.stores.Incidents.Create(ctx, inc); err != nil {
		writeError(w, r, err, "create incident")
		return
	}

	log.Ctx(ctx).Info().
		Str("org_id", org.String()).
		Str("incident_id", inc.IncidentID.String()).
		Str("impact", string(inc.Impact)).
		Msg("Incident created")

	httpmiddleware.WriteJSON(w, http.StatusCreated, map[string]any{"incident": inc})
}

func (s *Server) getIncident(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, "fetch incident")
		return
	}

	inc, err := s.stores.Incidents.Get(r.Context(), orgID(r), id)
	if err != nil {
		writeError(w, r, err, "fetch incident")
		return
	}

	httpmiddleware.WriteJSON(w, http.StatusOK, map[string]any{"incident": inc})
}

func (s *Server) updateIncident(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, "update incident")
		return
	}

	var patch models.IncidentPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, err, "update incident")
		return
	}
	if patch.ServiceIDs != nil {
		if err := s.checkServices(r.Context(), orgID(r), *patch.ServiceIDs); err != nil {
			writeError(w, r, err, "update incident")
			return
		}
	}

	inc, err := s.stores.Incidents.Update(r.Context(), orgID(r), id, patch)
	if err != nil {
		writeError(w, r, err, "update incident")
		return
	}

	httpmiddleware.WriteJSON(w, http.StatusOK, map[string]any{"incident": inc})
}

func (s *Server) resolveIncident(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, "resolve incident")
		return
	}

	resolved := models.IncidentResolved
	inc, err := s.stores.Incidents.Update(r.Context(), orgID(r), id, models.IncidentPatch{Status: &resolved})
	if err != nil {
		writeError(w, r, err, "resolve incident")
		return
	}

	log.Ctx(r.Context()).Info().Str("incident_id", id.String()).Msg("Incident resolved")
	httpmiddleware.WriteJSON(w, http.StatusOK, map[string]any{"incident": inc})
}

func (s *Server) deleteIncident(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, "delete incident")
		return
	}

	if err := s.stores.Incidents.Delete(r.Context(), orgID(r), id); err != nil {
		writeError(w, r, err, "delete incident")
		return
	}

	httpmiddleware.WriteJSON(w, http.StatusOK, map[string]any{"message": "Incident deleted successfully"})
}

// checkServices rejects affected service ids that do not belong to the organization.
func (s *Server) checkServices(ctx context.Context, org uuid.UUID, ids []uuid.UUID) error {
	for _, id := range ids {
		if _, err := s.stores.Services.Get(ctx, org, id); err != nil {
			if errors.Is(err, store.ErrServiceNotFound) {
				return validationErrorf("Unknown service %s", id)
			}
			return err
		}
	}
	return nil
}
