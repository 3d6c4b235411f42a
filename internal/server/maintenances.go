package server

import (
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

type createMaintenanceRequest struct {
	Title          string      `json:"title"`
	Description    *string     `json:"description,omitempty"`
	ServiceIDs     []uuid.UUID `json:"affected_service_ids,omitempty"`
	ScheduledStart *time.Time  `json:"scheduled_start"`
	ScheduledEnd   *time.Time  `json:"scheduled_end"`
}

func (s *Server) listMaintenances(w http.ResponseWriter, r *http.Request) {
	opts := store.ListMaintenancesOptions{}
	if r.URL.Query().Get("upcoming") == "true" {
		now := s.now()
		opts.UpcomingAt = &now
	}

	maintenances, err := s.stores.Maintenances.List(r.Context(), orgID(r), opts)
	if err != nil {
		writeError(w, r, err, "fetch maintenances")
		return
	}
	if maintenances == nil {
		maintenances = []*models.Maintenance{}
	}

	httpmiddleware.WriteJSON(w, http.StatusOK, map[string]any{"maintenances": maintenances})
}

func (s *Server) createMaintenance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createMaintenanceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, "create maintenance")
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" || req.ScheduledStart == nil || req.ScheduledEnd == nil {
		writeError(w, r, validationErrorf("Title, scheduled_start, and scheduled_end are required"), "create maintenance")
		return
	}

	org := orgID(r)
	if err := s.checkServices(ctx, org, req.ServiceIDs); err != nil {
		writeError(w, r, err, "create maintenance")
		return
	}

	now := s.now()
	m := &models.Maintenance{
		MaintenanceID:  uuid.Must(uuid.NewV7()),
		OrgID:          org,
		Title:          title,
		Description:    req.Description,
		Status:         models.MaintenanceScheduled,
		ServiceIDs:     req.ServiceIDs,
		ScheduledStart: *req.ScheduledStart,
		ScheduledEnd:   *req.ScheduledEnd,
		CreatedBy:      auth.PrincipalFromContext(ctx).UserID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if m.ServiceIDs == nil {
		m.ServiceIDs = []uuid.UUID{}
	}

	if err := s.stores.Maintenances.Create(ctx, m); err != nil {
		writeError(w, r, err, "create maintenance")
		return
	}

	log.Ctx(ctx).Info().
		Str("org_id", org.String()).
		Str("maintenance_id", m.MaintenanceID.String()).
		Msg("Maintenance scheduled")

	httpmiddleware.WriteJSON(w, http.StatusCreated, map[string]any{"maintenance": m})
}

func (s *Server) getMaintenance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, "fetch maintenance")
		return
	}

	m, err := s.stores.Maintenances.Get(r.Context(), orgID(r), id)
	if err != nil {
		writeError(w, r, err, "fetch maintenance")
		return
	}

	httpmiddleware.WriteJSON(w, http.StatusOK, map[string]any{"maintenance": m})
}

func (s *Server) updateMaintenance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, "update maintenance")
		return
	}

	var patch models.MaintenancePatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, err, "update maintenance")
		return
	}
	if patch.ServiceIDs != nil {
		if err := s.checkServices(r.Context(), orgID(r), *patch.ServiceIDs); err != nil {
			writeError(w, r, err, "update maintenance")
			return
		}
	}

	s.patchMaintenance(w, r, id, patch, "update maintenance")
}

func (s *Server) startMaintenance(w http.ResponseWriter, r *http.Request) {
	s.transitionMaintenance(w, r, models.MaintenanceInProgress, "start maintenance")
}

func (s *Server) completeMaintenance(w http.ResponseWriter, r *http.Request) {
	s.transitionMaintenance(w, r, models.MaintenanceCompleted, "complete maintenance")
}

func (s *Server) transitionMaintenance(w http.ResponseWriter, r *http.Request, status models.MaintenanceStatus, action string) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, action)
		return
	}

	s.patchMaintenance(w, r, id, models.MaintenancePatch{Status: &status}, action)
}

func (s *Server) patchMaintenance(w http.ResponseWriter, r *http.Request, id uuid.UUID, patch models.MaintenancePatch, action string) {
	m, err := s.stores.Maintenances.Update(r.Context(), orgID(r), id, patch)
	if err != nil {
		writeError(w, r, err, action)
		return
	}

	httpmiddleware.WriteJSON(w, http.StatusOK, map[string]any{"maintenance": m})
}

func (s *Server) deleteMaintenance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, "delete maintenance")
		return
	}

	if err := s.stores.Maintenances.Delete(r.Context(), orgID(r), id); err != nil {
		writeError(w, r, err, "delete maintenance")
		return
	}

	httpmiddleware.WriteJSON(w, http.StatusOK, map[string]any{"message": "Maintenance deleted successfully"})
}
