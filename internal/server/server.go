package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"filippo.io/csrf"
	"github.com/go-chi/chi/v5"
	"github.com/klauspost/compress/gzhttp"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/statuspage/internal/access"
	"github.com/wolfeidau/statuspage/internal/auth"
	httpmiddleware "github.com/wolfeidau/statuspage/internal/http"
	"github.com/wolfeidau/statuspage/internal/logger"
	"github.com/wolfeidau/statuspage/internal/metrics"
	"github.com/wolfeidau/statuspage/internal/store"
	"github.com/wolfeidau/statuspage/internal/targets"
)

// TargetSyncer is the control surface of the Prometheus target sync.
type TargetSyncer interface {
	Sync(ctx context.Context) (*targets.Result, error)
	Status() targets.Status
}

// Config holds the collaborators of the API server.
type Config struct {
	Stores   store.Stores
	Verifier auth.IdentityVerifier
	Metrics  *metrics.Bridge

	// Syncer is nil when target sync is disabled.
	Syncer TargetSyncer

	// RateLimiter throttles the public routes. Nil disables limiting.
	RateLimiter httpmiddleware.RateLimiter

	// InternalToken, when set, must be presented as a bearer token on /api/internal.
	InternalToken string

	// TrustProxyHeaders keys rate limits and logs on X-Forwarded-For / X-Real-IP.
	TrustProxyHeaders bool

	Logger zerolog.Logger
}

// Validate checks that required collaborators are present.
func (c *Config) Validate() error {
	if c.Stores.Organizations == nil || c.Stores.Memberships == nil || c.Stores.Users == nil ||
		c.Stores.Services == nil || c.Stores.Incidents == nil || c.Stores.Maintenances == nil {
		return errors.New("all stores are required")
	}
	if c.Verifier == nil {
		return errors.New("identity verifier is required")
	}
	if c.Metrics == nil {
		return errors.New("metrics bridge is required")
	}
	return nil
}

// Server serves the status page REST API.
type Server struct {
	stores        store.Stores
	verifier      auth.IdentityVerifier
	gate          *access.Gate
	bridge        *metrics.Bridge
	syncer        TargetSyncer
	limiter       httpmiddleware.RateLimiter
	internalToken string
	clientIP      httpmiddleware.ClientIPOptions
	logger        zerolog.Logger
	now           func() time.Time
}

// NewServer creates a new server from cfg.
func NewServer(cfg Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Server{
		stores:        cfg.Stores,
		verifier:      cfg.Verifier,
		gate:          access.NewGate(cfg.Stores.Memberships),
		bridge:        cfg.Metrics,
		syncer:        cfg.Syncer,
		limiter:       cfg.RateLimiter,
		internalToken: cfg.InternalToken,
		clientIP:      httpmiddleware.ClientIPOptions{TrustForwardedHeaders: cfg.TrustProxyHeaders},
		logger:        cfg.Logger,
		now:           time.Now,
	}, nil
}

// Handler returns the HTTP handler for the server
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(httpmiddleware.ClientIPMiddleware(s.clientIP))
	r.Use(logger.HTTPRequests(s.logger))

	// Health check endpoint for load balancer
	r.Get("/health", s.health)

	r.Route("/api/organizations", func(r chi.Router) {
		r.Use(auth.Authenticate(s.verifier, s.stores.Users))

		r.Get("/", s.listOrganizations)
		r.Post("/", s.createOrganization)

		r.Route("/{orgId}", func(r chi.Router) {
			r.Use(s.gate.RequireOrganization("orgId"))

			r.Get("/", s.getOrganization)
			r.With(access.RequireRole(access.AdminOnly...)).Put("/", s.updateOrganization)
			r.With(access.RequireRole(access.AdminOnly...)).Delete("/", s.deleteOrganization)

			r.Route("/members", func(r chi.Router) {
				r.Get("/", s.listMembers)
				r.With(access.RequireRole(access.AdminOnly...)).Post("/", s.addMember)
				r.With(access.RequireRole(access.AdminOnly...)).Put("/{userId}", s.updateMemberRole)
				r.With(access.RequireRole(access.AdminOnly...)).Delete("/{userId}", s.removeMember)
			})

			r.Route("/services", func(r chi.Router) {
				r.Get("/", s.listServices)
				r.With(access.RequireRole(access.AdminOnly...)).Post("/", s.createService)
				r.Get("/{id}", s.getService)
				r.With(access.RequireRole(access.AdminOnly...)).Put("/{id}", s.updateService)
				r.With(access.RequireRole(access.AdminOnly...)).Delete("/{id}", s.deleteService)
				r.With(access.RequireRole(access.Editors...)).Post("/{id}/status", s.updateServiceStatus)
			})

			r.Route("/incidents", func(r chi.Router) {
				r.Get("/", s.listIncidents)
				r.With(access.RequireRole(access.Editors...)).Post("/", s.createIncident)
				r.Get("/{id}", s.getIncident)
				r.With(access.RequireRole(access.Editors...)).Put("/{id}", s.updateIncident)
				r.With(access.RequireRole(access.AdminOnly...)).Delete("/{id}", s.deleteIncident)
				r.With(access.RequireRole(access.Editors...)).Post("/{id}/resolve", s.resolveIncident)
			})

			r.Route("/maintenances", func(r chi.Router) {
				r.Get("/", s.listMaintenances)
				r.With(access.RequireRole(access.Editors...)).Post("/", s.createMaintenance)
				r.Get("/{id}", s.getMaintenance)
				r.With(access.RequireRole(access.Editors...)).Put("/{id}", s.updateMaintenance)
				r.With(access.RequireRole(access.AdminOnly...)).Delete("/{id}", s.deleteMaintenance)
				r.With(access.RequireRole(access.Editors...)).Post("/{id}/start", s.startMaintenance)
				r.With(access.RequireRole(access.Editors...)).Post("/{id}/complete", s.completeMaintenance)
			})
		})
	})

	r.Route("/api/public", func(r chi.Router) {
		if s.limiter != nil {
			r.Use(httpmiddleware.RateLimitMiddleware(s.limiter))
		}
		r.Use(func(next http.Handler) http.Handler { return gzhttp.GzipHandler(next) })

		r.Get("/status/{orgSlug}", s.publicStatus)
		r.Get("/status/{orgSlug}/{serviceId}", s.publicServiceDetail)
	})

	r.Route("/api/internal", func(r chi.Router) {
		r.Use(csrf.New().Handler)
		r.Use(s.requireInternalToken)

		r.Get("/services", s.listAllServices)
		r.Post("/prometheus/sync", s.syncTargets)
		r.Get("/prometheus/status", s.targetStatus)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpmiddleware.WriteError(w, http.StatusNotFound, "route not found")
	})

	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	httpmiddleware.WriteJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": s.now().UTC(),
	})
}
