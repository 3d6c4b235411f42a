package server

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	httpmiddleware "github.com/wolfeidau/statuspage/internal/http"
	"github.com/wolfeidau/statuspage/internal/models"
)

type createServiceRequest struct {
	Name         string  `json:"name"`
	Description  *string `json:"description,omitempty"`
	TargetURL    *string `json:"target_url,omitempty"`
	DisplayOrder int     `json:"display_order"`
}

type serviceStatusRequest struct {
	Status models.ServiceStatus `json:"status"`
}

func (s *Server) listServices(w http.ResponseWriter, r *http.Request) {
	services, err := s.stores.Services.ListByOrganization(r.Context(), orgID(r))
	if err != nil {
		writeError(w, r, err, "fetch services")
		return
	}
	if services == nil {
		services = []*models.Service{}
	}

	httpmiddleware.WriteJSON(w, http.StatusOK, map[string]any{"services": services})
}

func (s *Server) createService(w http.ResponseWriter, r *http.Request) {
	var req createServiceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, "create service")
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, r, validationErrorf("Service name is required"), "create service")
		return
	}

	now := s.now()
	svc := &models.Service{
		ServiceID:     uuid.Must(uuid.NewV7()),
		OrgID:         orgID(r),
		Name:          name,
		Description:   req.Description,
		TargetURL:     req.TargetURL,
		DisplayOrder:  req.DisplayOrder,
		CurrentStatus: models.ServiceStatusOperational,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.stores.Services.Create(r.Context(), svc); err != nil {
		writeError(w, r, err, "create service")
		return
	}

	log.Ctx(r.Context()).Info().
		Str("org_id", svc.OrgID.String()).
		Str("service_id", svc.ServiceID.String()).
		Msg("Service created")

	httpmiddleware.WriteJSON(w, http.StatusCreated, map[string]any{"service": svc})
}

func (s *Server) getService(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, "fetch service")
		return
	}

	svc, err := s.stores.Services.Get(r.Context(), orgID(r), id)
	if err != nil {
		writeError(w, r, err, "fetch service")
		return
	}

	httpmiddleware.WriteJSON(w, http.StatusOK, map[string]any{"service": svc})
}

func (s *Server) updateService(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, "update service")
		return
	}

	var patch models.ServicePatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, err, "update service")
		return
	}

	svc, err := s.stores.Services.Update(r.Context(), orgID(r), id, patch)
	if err != nil {
		writeError(w, r, err, "update service")
		return
	}

	httpmiddleware.WriteJSON(w, http.StatusOK, map[string]any{"service": svc})
}

// updateServiceStatus is the narrow status-only update open to members.
func (s *Server) updateServiceStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, "update service status")
		return
	}

	var req serviceStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, "update service status")
		return
	}
	if !req.Status.Valid() {
		writeError(w, r, validationErrorf("Invalid status value"), "update service status")
		return
	}

	svc, err := s.stores.Services.Update(r.Context(), orgID(r), id, models.ServicePatch{CurrentStatus: &req.Status})
	if err != nil {
		writeError(w, r, err, "update service status")
		return
	}

	log.Ctx(r.Context()).Info().
		Str("service_id", id.String()).
		Str("status", string(req.Status)).
		Msg("Service status changed")

	httpmiddleware.WriteJSON(w, http.StatusOK, map[string]any{"service": svc})
}

func (s *Server) deleteService(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, "delete service")
		return
	}

	if err := s.stores.Services.Delete(r.Context(), orgID(r), id); err != nil {
		writeError(w, r, err, "delete service")
		return
	}

	httpmiddleware.WriteJSON(w, http.StatusOK, map[string]any{"message": "Service deleted successfully"})
}
