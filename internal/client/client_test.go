package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/statuspage/internal/models"
	"github.com/wolfeidau/statuspage/internal/targets"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/public/status/{orgSlug}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("orgSlug") != "acme" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"organization not found"}`))
			return
		}
		writeJSON(w, models.PublicStatus{
			Organization:  &models.Organization{Name: "Acme", Slug: "acme"},
			OverallStatus: models.ServiceStatusDegraded,
		})
	})
	mux.HandleFunc("GET /api/public/status/{orgSlug}/{serviceId}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, models.ServiceDetail{
			Service: &models.Service{Name: r.PathValue("serviceId")},
			Metrics: &models.ServiceMetrics{TimeRange: r.URL.Query().Get("timeRange")},
		})
	})
	mux.HandleFunc("POST /api/internal/prometheus/sync", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer s3cret" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"authentication required"}`))
			return
		}
		writeJSON(w, targets.Result{TargetCount: 3, File: "/tmp/services.json"})
	})
	mux.HandleFunc("GET /api/internal/prometheus/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, targets.Status{Enabled: false})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_GetPublicStatus(t *testing.T) {
	srv := newTestServer(t)
	c := New(Config{ServerURL: srv.URL, Timeout: 5 * time.Second})

	status, err := c.GetPublicStatus(context.Background(), "acme")
	require.NoError(t, err)
	require.Equal(t, "acme", status.Organization.Slug)
	require.Equal(t, models.ServiceStatusDegraded, status.OverallStatus)

	_, err = c.GetPublicStatus(context.Background(), "nope")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	require.Equal(t, "organization not found", apiErr.Message)
}

func TestClient_GetServiceDetail(t *testing.T) {
	srv := newTestServer(t)
	c := New(Config{ServerURL: srv.URL, Timeout: 5 * time.Second})

	detail, err := c.GetServiceDetail(context.Background(), "acme", "svc-1", "24h")
	require.NoError(t, err)
	require.Equal(t, "svc-1", detail.Service.Name)
	require.Equal(t, "24h", detail.Metrics.TimeRange)
}

func TestClient_SyncTargets(t *testing.T) {
	srv := newTestServer(t)

	_, err := New(Config{ServerURL: srv.URL, Timeout: 5 * time.Second}).SyncTargets(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)

	result, err := New(Config{ServerURL: srv.URL, Timeout: 5 * time.Second, Token: "s3cret"}).SyncTargets(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, result.TargetCount)
}

func TestClient_TargetStatus(t *testing.T) {
	srv := newTestServer(t)
	c := New(Config{ServerURL: srv.URL, Timeout: 5 * time.Second})

	status, err := c.TargetStatus(context.Background())
	require.NoError(t, err)
	require.False(t, status.Enabled)
}

func TestClient_Unreachable(t *testing.T) {
	c := New(Config{ServerURL: "http://127.0.0.1:1", Timeout: time.Second})

	_, err := c.GetPublicStatus(context.Background(), "acme")
	require.Error(t, err)
	var apiErr *APIError
	require.NotErrorAs(t, err, &apiErr)
}
