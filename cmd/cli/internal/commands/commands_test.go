package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/statuspage/internal/models"
	"github.com/wolfeidau/statuspage/internal/targets"
)

func TestPrintMetrics(t *testing.T) {
	detail := &models.ServiceDetail{
		Organization: &models.Organization{Name: "Acme"},
		Service:      &models.Service{Name: "API", CurrentStatus: models.ServiceStatusOperational},
		Metrics: &models.ServiceMetrics{
			TimeRange: "24h",
			Step:      "15m",
			Series: map[models.MetricKind]models.MetricSeries{
				models.MetricUptime: {Status: models.SeriesOK, Points: []models.MetricPoint{
					{Timestamp: 1, Value: 1}, {Timestamp: 2, Value: 1}, {Timestamp: 3, Value: 1}, {Timestamp: 4, Value: 0},
				}},
				models.MetricResponseTime: {Status: models.SeriesOK, Points: []models.MetricPoint{
					{Timestamp: 1, Value: 0.1}, {Timestamp: 2, Value: 0.3},
				}},
				models.MetricHTTPStatusCode: {Status: models.SeriesEmpty},
				models.MetricSSLExpiry:      {Status: models.SeriesError},
			},
			Current: &models.CurrentStatus{Up: true, Timestamp: 0},
		},
	}

	var buf bytes.Buffer
	printMetrics(&buf, detail)

	out := buf.String()
	require.Contains(t, out, "Acme / API")
	require.Contains(t, out, "Range: 24h (step 15m)")
	require.Contains(t, out, "Current: UP at 1970-01-01T00:00:00Z")
	require.Contains(t, out, "Uptime: 75.00%")
	require.Contains(t, out, "Avg response time: 200ms")
	require.Regexp(t, `sslExpiry\s+error\s+0`, out)
}

func TestPrintMetrics_Unavailable(t *testing.T) {
	detail := &models.ServiceDetail{
		Organization: &models.Organization{Name: "Acme"},
		Service:      &models.Service{Name: "API", CurrentStatus: models.ServiceStatusMajor},
		Metrics: &models.ServiceMetrics{
			TimeRange: "1h",
			Step:      "1m",
			Series:    map[models.MetricKind]models.MetricSeries{},
			Error:     "Metrics temporarily unavailable",
		},
	}

	var buf bytes.Buffer
	printMetrics(&buf, detail)

	out := buf.String()
	require.Contains(t, out, "Warning: Metrics temporarily unavailable")
	require.Contains(t, out, "Uptime: n/a")
	require.Contains(t, out, "Avg response time: n/a")
	require.NotContains(t, out, "Current:")
}

func TestPrintStatus(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	status := &models.PublicStatus{
		Organization:  &models.Organization{Name: "Acme"},
		OverallStatus: models.ServiceStatusPartial,
		Services: []*models.Service{
			{ServiceID: uuid.New(), Name: "API", CurrentStatus: models.ServiceStatusPartial},
		},
		ActiveIncidents: []*models.Incident{
			{Title: "Elevated errors", Status: models.IncidentInvestigating, Impact: models.ImpactMinor},
		},
		UpcomingMaintenances: []*models.Maintenance{
			{Title: "Database upgrade", ScheduledStart: start},
		},
	}

	var buf bytes.Buffer
	printStatus(&buf, status)

	out := buf.String()
	require.Contains(t, out, "Acme: partial_outage")
	require.Contains(t, out, "[investigating/minor] Elevated errors")
	require.Contains(t, out, "2026-03-01 10:00  Database upgrade")
}

func TestPrintSyncStatus(t *testing.T) {
	var buf bytes.Buffer
	printSyncStatus(&buf, &targets.Status{Enabled: false})
	require.Equal(t, "Prometheus target sync is disabled.\n", buf.String())

	buf.Reset()
	printSyncStatus(&buf, &targets.Status{Enabled: true, File: "services.json", Interval: "30s", LastError: "disk full"})
	require.Contains(t, buf.String(), "File: services.json")
	require.Contains(t, buf.String(), "Last error: disk full")
}

func TestSyncCmd_SendsToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(targets.Result{TargetCount: 3, File: "services.json"})
	}))
	t.Cleanup(srv.Close)

	cmd := &SyncCmd{
		ServerFlags: ServerFlags{BaseURL: srv.URL, Timeout: 5 * time.Second},
		Token:       "s3cret",
	}
	require.NoError(t, cmd.Run(context.Background(), &Globals{}))
	require.Equal(t, "Bearer s3cret", gotAuth)
}

func TestStatusCmd_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"Organization not found"}`))
	}))
	t.Cleanup(srv.Close)

	cmd := &StatusCmd{ServerFlags: ServerFlags{BaseURL: srv.URL, Timeout: 5 * time.Second}, Org: "nope"}
	err := cmd.Run(context.Background(), &Globals{})
	require.ErrorContains(t, err, "Organization not found")
}
