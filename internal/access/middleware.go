package access

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/statuspage/internal/auth"
	httpmiddleware "github.com/wolfeidau/statuspage/internal/http"
	"github.com/wolfeidau/statuspage/internal/models"
	"github.com/wolfeidau/statuspage/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ForbiddenMessage is returned for every Forbidden outcome so that
// non-members cannot tell whether an organization exists.
const ForbiddenMessage = "access denied to this organization"

type contextKey int

const (
	organizationContextKey contextKey = iota
	roleContextKey
)

// OrganizationFromContext returns the organization id that was authorized for this request.
func OrganizationFromContext(ctx context.Context) (uuid.UUID, bool) {
	orgID, ok := ctx.Value(organizationContextKey).(uuid.UUID)
	return orgID, ok
}

// RoleFromContext returns the caller's role in the authorized organization.
func RoleFromContext(ctx context.Context) (models.Role, bool) {
	role, ok := ctx.Value(roleContextKey).(models.Role)
	return role, ok
}

// RequireOrganization returns middleware that authorizes the principal as a
// member of the organization named by the URL parameter param. The resolved
// organization id and role are stored on the context for handlers and
// RequireRole; handlers must scope their queries with that id.
func (g *Gate) RequireOrganization(param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			raw := chi.URLParam(r, param)
			if raw == "" {
				httpmiddleware.WriteError(w, http.StatusBadRequest, "organization id is required")
				return
			}

			principal := auth.PrincipalFromContext(ctx)

			orgID, err := uuid.Parse(raw)
			if err != nil {
				// unparseable ids are treated like any other unknown organization
				Deny(w, r, ErrNotAMember)
				return
			}

			role, err := g.Authorize(ctx, principal, orgID, nil)
			if err != nil {
				Deny(w, r, err)
				return
			}

			ctx = context.WithValue(ctx, organizationContextKey, orgID)
			ctx = context.WithValue(ctx, roleContextKey, role)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole returns middleware that admits only callers whose role, as
// resolved by RequireOrganization, is in roles.
func RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := RoleFromContext(r.Context())
			if !ok {
				Deny(w, r, ErrNotAMember)
				return
			}
			if !Satisfies(role, roles) {
				Deny(w, r, ErrInsufficientRole)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Deny writes the response for an authorization failure.
func Deny(w http.ResponseWriter, r *http.Request, err error) {
	logger := log.Ctx(r.Context())

	switch {
	case errors.Is(err, ErrUnauthenticated):
		logger.Warn().Err(err).Msg("Access denied")
		httpmiddleware.WriteError(w, http.StatusUnauthorized, "authentication required")
	case errors.Is(err, ErrNotAMember), errors.Is(err, ErrInsufficientRole):
		logger.Warn().Err(err).Str("path", r.URL.Path).Msg("Access denied")
		reason := "not_a_member"
		if errors.Is(err, ErrInsufficientRole) {
			reason = "insufficient_role"
		}
		telemetry.GetMetrics().AccessDeniedTotal.Add(r.Context(), 1,
			metric.WithAttributes(attribute.String("reason", reason)))
		httpmiddleware.WriteError(w, http.StatusForbidden, ForbiddenMessage)
	default:
		logger.Error().Err(err).Msg("Authorization failed")
		httpmiddleware.WriteError(w, http.StatusInternalServerError, "internal server error")
	}
}
