package server

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
	httpmiddleware "github.com/wolfeidau/statuspage/internal/http"
	"github.com/wolfeidau/statuspage/internal/models"
	"github.com/wolfeidau/statuspage/internal/targets"
)

// requireInternalToken guards /api/internal with a shared bearer token when one is configured.
func (s *Server) requireInternalToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.internalToken == "" {
			next.ServeHTTP(w, r)
			return
		}

		scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") ||
			subtle.ConstantTimeCompare([]byte(token), []byte(s.internalToken)) != 1 {
			httpmiddleware.WriteError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// listAllServices returns every organization's services, for operators.
func (s *Server) listAllServices(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orgs, err := s.stores.Organizations.List(ctx)
	if err != nil {
		writeError(w, r, err, "fetch organizations")
		return
	}

	data := make([]models.OrganizationServices, 0, len(orgs))
	total := 0
	for _, org := range orgs {
		services, err := s.stores.Services.ListByOrganization(ctx, org.OrgID)
		if err != nil {
			log.Ctx(ctx).Error().Err(err).Str("org_id", org.OrgID.String()).Msg("Failed to list services")
			continue
		}
		total += len(services)
		data = append(data, models.OrganizationServices{Organization: org, Services: nonNil(services)})
	}

	httpmiddleware.WriteJSON(w, http.StatusOK, map[string]any{
		"total_organizations": len(orgs),
		"total_services":      total,
		"data":                data,
	})
}

func (s *Server) syncTargets(w http.ResponseWriter, r *http.Request) {
	if s.syncer == nil {
		httpmiddleware.WriteError(w, http.StatusServiceUnavailable, "Prometheus sync service not initialized")
		return
	}

	log.Ctx(r.Context()).Info().Msg("Manual Prometheus sync triggered")

	result, err := s.syncer.Sync(r.Context())
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Manual Prometheus sync failed")
		httpmiddleware.WriteError(w, http.StatusInternalServerError, "Prometheus sync failed")
		return
	}

	httpmiddleware.WriteJSON(w, http.StatusOK, result)
}

func (s *Server) targetStatus(w http.ResponseWriter, r *http.Request) {
	if s.syncer == nil {
		httpmiddleware.WriteJSON(w, http.StatusOK, targets.Status{Enabled: false})
		return
	}

	httpmiddleware.WriteJSON(w, http.StatusOK, s.syncer.Status())
}
