package server

import (
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	httpmiddleware "github.com/wolfeidau/statuspage/internal/http"
	"github.com/wolfeidau/statuspage/internal/models"
	"github.com/wolfeidau/statuspage/internal/store"
	"golang.org/x/sync/errgroup"
)

const (
	recentIncidentLimit  = 10
	serviceIncidentLimit = 10
	publicCacheControl   = "public, max-age=30"
)

// publicStatus renders the unauthenticated status page for an organization slug.
func (s *Server) publicStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	org, err := s.stores.Organizations.GetBySlug(ctx, chi.URLParam(r, "orgSlug"))
	if err != nil {
		writeError(w, r, err, "fetch organization")
		return
	}

	now := s.now()
	page := &models.PublicStatus{Organization: publicOrganization(org), GeneratedAt: now}

	var (
		services []*models.Service
		g, gctx  = errgroup.WithContext(ctx)
	)
	g.Go(func() (err error) {
		services, err = s.stores.Services.ListByOrganization(gctx, org.OrgID)
		return err
	})
	g.Go(func() (err error) {
		page.ActiveIncidents, err = s.stores.Incidents.List(gctx, org.OrgID, store.ListIncidentsOptions{Active: true})
		return err
	})
	g.Go(func() (err error) {
		page.RecentIncidents, err = s.stores.Incidents.List(gctx, org.OrgID, store.ListIncidentsOptions{
			Status: models.IncidentResolved,
			Limit:  recentIncidentLimit,
		})
		return err
	})
	g.Go(func() (err error) {
		page.UpcomingMaintenances, err = s.stores.Maintenances.List(gctx, org.OrgID, store.ListMaintenancesOptions{UpcomingAt: &now})
		return err
	})
	if err := g.Wait(); err != nil {
		writeError(w, r, err, "fetch status")
		return
	}

	page.Services = publicServices(services)
	page.OverallStatus = models.OverallStatus(services)
	page.ActiveIncidents = nonNil(page.ActiveIncidents)
	page.RecentIncidents = nonNil(page.RecentIncidents)
	page.UpcomingMaintenances = nonNil(page.UpcomingMaintenances)

	w.Header().Set("Cache-Control", publicCacheControl)
	httpmiddleware.WriteJSON(w, http.StatusOK, page)
}

// publicServiceDetail renders a service with its recent incidents and probe
// metrics. Metrics failures degrade inside the bridge and never fail the request.
func (s *Server) publicServiceDetail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	org, err := s.stores.Organizations.GetBySlug(ctx, chi.URLParam(r, "orgSlug"))
	if err != nil {
		writeError(w, r, err, "fetch organization")
		return
	}

	serviceID, err := uuid.Parse(chi.URLParam(r, "serviceId"))
	if err != nil {
		writeError(w, r, store.ErrServiceNotFound, "fetch service")
		return
	}

	// scoped by the resolved organization so a service of another tenant is a 404
	svc, err := s.stores.Services.Get(ctx, org.OrgID, serviceID)
	if err != nil {
		writeError(w, r, err, "fetch service")
		return
	}

	incidents, err := s.stores.Incidents.List(ctx, org.OrgID, store.ListIncidentsOptions{
		ServiceID: serviceID,
		Limit:     serviceIncidentLimit,
	})
	if err != nil {
		writeError(w, r, err, "fetch incidents")
		return
	}

	detail := &models.ServiceDetail{
		Organization: publicOrganization(org),
		Service:      publicService(svc),
		Incidents:    nonNil(incidents),
		Metrics:      s.bridge.GetServiceMetrics(ctx, serviceID.String(), r.URL.Query().Get("timeRange")),
	}

	w.Header().Set("Cache-Control", publicCacheControl)
	httpmiddleware.WriteJSON(w, http.StatusOK, detail)
}

func publicOrganization(org *models.Organization) *models.Organization {
	out := *org
	return &out
}

// publicService hides the probe target, which may be an internal address.
func publicService(svc *models.Service) *models.Service {
	out := *svc
	out.TargetURL = nil
	return &out
}

func publicServices(services []*models.Service) []*models.Service {
	out := make([]*models.Service, 0, len(services))
	for _, svc := range services {
		out = append(out, publicService(svc))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DisplayOrder < out[j].DisplayOrder })
	return out
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
