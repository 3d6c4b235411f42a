package access

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/statuspage/internal/auth"
	"github.com/wolfeidau/statuspage/internal/models"
)

// withPrincipal stands in for auth.Authenticate.
func withPrincipal(userID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID != "" {
				r = r.WithContext(auth.WithPrincipal(r.Context(), &auth.Principal{UserID: userID}))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func newRouter(gate *Gate, userID string) (*chi.Mux, *uuid.UUID) {
	var seen uuid.UUID

	r := chi.NewRouter()
	r.Use(withPrincipal(userID))
	r.Route("/api/organizations/{orgId}", func(r chi.Router) {
		r.Use(gate.RequireOrganization("orgId"))
		r.Get("/services", func(w http.ResponseWriter, r *http.Request) {
			seen, _ = OrganizationFromContext(r.Context())
			role, _ := RoleFromContext(r.Context())
			_, _ = w.Write([]byte(role))
		})
		r.With(RequireRole(models.RoleAdmin, models.RoleMember)).Post("/incidents", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusCreated)
		})
		r.With(RequireRole(models.RoleAdmin)).Delete("/", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
	})

	return r, &seen
}

func serve(h http.Handler, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestRequireOrganization(t *testing.T) {
	f := newFixture(t)
	gate := NewGate(f.stores.Memberships)

	t.Run("member", func(t *testing.T) {
		router, seen := newRouter(gate, "bob")
		rec := serve(router, http.MethodGet, "/api/organizations/"+f.orgA.String()+"/services")

		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "member", rec.Body.String())
		require.Equal(t, f.orgA, *seen)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		router, _ := newRouter(gate, "")
		rec := serve(router, http.MethodGet, "/api/organizations/"+f.orgA.String()+"/services")

		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("identical denial for other and missing organizations", func(t *testing.T) {
		router, _ := newRouter(gate, "bob")

		other := serve(router, http.MethodGet, "/api/organizations/"+f.orgB.String()+"/services")
		missing := serve(router, http.MethodGet, "/api/organizations/"+uuid.NewString()+"/services")
		malformed := serve(router, http.MethodGet, "/api/organizations/not-a-uuid/services")

		for _, rec := range []*httptest.ResponseRecorder{other, missing, malformed} {
			require.Equal(t, http.StatusForbidden, rec.Code)
			require.JSONEq(t, `{"error":"access denied to this organization"}`, rec.Body.String())
		}
	})
}

func TestRequireRole(t *testing.T) {
	f := newFixture(t)
	gate := NewGate(f.stores.Memberships)
	orgPath := "/api/organizations/" + f.orgA.String()

	tests := []struct {
		user         string
		method, path string
		expected     int
	}{
		{"alice", http.MethodPost, orgPath + "/incidents", http.StatusCreated},
		{"bob", http.MethodPost, orgPath + "/incidents", http.StatusCreated},
		{"carol", http.MethodPost, orgPath + "/incidents", http.StatusForbidden},
		{"alice", http.MethodDelete, orgPath + "/", http.StatusNoContent},
		{"bob", http.MethodDelete, orgPath + "/", http.StatusForbidden},
		{"carol", http.MethodDelete, orgPath + "/", http.StatusForbidden},
		{"mallory", http.MethodDelete, orgPath + "/", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.user+" "+tt.method+" "+tt.path, func(t *testing.T) {
			router, _ := newRouter(gate, tt.user)
			rec := serve(router, tt.method, tt.path)
			require.Equal(t, tt.expected, rec.Code)
		})
	}
}

func TestRequireRole_withoutOrganization(t *testing.T) {
	h := RequireRole(models.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil).WithContext(context.Background()))
	require.Equal(t, http.StatusForbidden, rec.Code)
}
