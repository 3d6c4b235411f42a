package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/statuspage/internal/auth"
	"github.com/wolfeidau/statuspage/internal/metrics"
	"github.com/wolfeidau/statuspage/internal/models"
	"github.com/wolfeidau/statuspage/internal/store"
	"github.com/wolfeidau/statuspage/internal/store/memory"
	"github.com/wolfeidau/statuspage/internal/targets"
)

const testSecret = "test-secret-for-hs256-signing-0123456789"

// stubQuerier returns canned probe data, or fails every query when down is set.
type stubQuerier struct {
	down atomic.Bool
}

func (q *stubQuerier) QueryRange(ctx context.Context, query string, w metrics.Window) ([]models.MetricPoint, error) {
	if q.down.Load() {
		return nil, context.DeadlineExceeded
	}
	return []models.MetricPoint{
		{Timestamp: w.Start.UnixMilli(), Value: 1},
		{Timestamp: w.End.UnixMilli(), Value: 1},
	}, nil
}

func (q *stubQuerier) Query(ctx context.Context, query string, ts time.Time) (*models.MetricPoint, error) {
	if q.down.Load() {
		return nil, context.DeadlineExceeded
	}
	return &models.MetricPoint{Timestamp: ts.UnixMilli(), Value: 1}, nil
}

type fakeSyncer struct {
	calls int
}

func (f *fakeSyncer) Sync(ctx context.Context) (*targets.Result, error) {
	f.calls++
	return &targets.Result{TargetCount: 2, File: "services.json", SyncedAt: time.Now()}, nil
}

func (f *fakeSyncer) Status() targets.Status {
	return targets.Status{Enabled: true, File: "services.json", Interval: "30s", Running: true}
}

type harness struct {
	t       *testing.T
	url     string
	stores  store.Stores
	querier *stubQuerier
}

type options struct {
	syncer        TargetSyncer
	internalToken string
}

func newHarness(t *testing.T, opts ...func(*options)) *harness {
	t.Helper()

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	verifier, err := auth.NewHS256Verifier(testSecret)
	require.NoError(t, err)

	h := &harness{t: t, stores: memory.NewStores(), querier: &stubQuerier{}}

	srv, err := NewServer(Config{
		Stores:        h.stores,
		Verifier:      verifier,
		Metrics:       metrics.NewBridge(h.querier, metrics.WithQueryTimeout(time.Second)),
		Syncer:        o.syncer,
		InternalToken: o.internalToken,
		Logger:        zerolog.Nop(),
	})
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	h.url = ts.URL

	return h
}

// token signs in as userID, which also registers the user in the directory on first use.
func (h *harness) token(userID string) string {
	h.t.Helper()
	tok, err := auth.IssueToken(testSecret, userID, userID+"@example.com", time.Hour)
	require.NoError(h.t, err)
	return tok
}

// do sends a request and decodes the JSON response into out when non-nil.
func (h *harness) do(method, path, token string, body any, out any) int {
	h.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(h.t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, h.url+path, reader)
	require.NoError(h.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(h.t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(h.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

// doNoAssert is do for use off the test goroutine. It returns 0 on transport errors.
func (h *harness) doNoAssert(method, path, token string, body any) int {
	data, err := json.Marshal(body)
	if err != nil {
		return 0
	}
	req, err := http.NewRequest(method, h.url+path, bytes.NewReader(data))
	if err != nil {
		return 0
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0
	}
	defer resp.Body.Close()
	return resp.StatusCode
}

type orgResponse struct {
	Organization models.OrganizationWithRole `json:"organization"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// createOrg creates an organization owned by admin and returns its id.
func (h *harness) createOrg(admin, name string) string {
	h.t.Helper()
	var out orgResponse
	status := h.do(http.MethodPost, "/api/organizations", h.token(admin), map[string]any{"name": name}, &out)
	require.Equal(h.t, http.StatusCreated, status)
	return out.Organization.OrgID.String()
}

// addMember signs userID in once so they exist in the directory, then adds them.
func (h *harness) addMember(admin, orgID, userID string, role models.Role) {
	h.t.Helper()
	require.Equal(h.t, http.StatusOK, h.do(http.MethodGet, "/api/organizations", h.token(userID), nil, nil))
	status := h.do(http.MethodPost, "/api/organizations/"+orgID+"/members", h.token(admin),
		map[string]any{"email": userID + "@example.com", "role": role}, nil)
	require.Equal(h.t, http.StatusCreated, status)
}

func TestHealth(t *testing.T) {
	h := newHarness(t)

	var out map[string]any
	require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/health", "", nil, &out))
	require.Equal(t, "ok", out["status"])
	require.NotEmpty(t, out["timestamp"])
}

func TestAuthentication(t *testing.T) {
	h := newHarness(t)

	var out errorResponse
	require.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/api/organizations", "", nil, &out))
	require.Equal(t, "authentication required", out.Error)

	require.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/api/organizations", "not-a-jwt", nil, &out))
	require.Equal(t, "invalid or expired token", out.Error)

	expired, err := auth.IssueToken(testSecret, "alice", "alice@example.com", -time.Minute)
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/api/organizations", expired, nil, nil))
}

func TestOrganizationLifecycle(t *testing.T) {
	h := newHarness(t)
	alice := h.token("alice")

	var created orgResponse
	require.Equal(t, http.StatusCreated, h.do(http.MethodPost, "/api/organizations", alice,
		map[string]any{"name": "Acme Corp", "website_url": "https://acme.test"}, &created))
	require.Equal(t, "acme-corp", created.Organization.Slug)
	require.Equal(t, models.RoleAdmin, created.Organization.Role)
	orgID := created.Organization.OrgID.String()

	t.Run("duplicate name", func(t *testing.T) {
		var out errorResponse
		require.Equal(t, http.StatusBadRequest, h.do(http.MethodPost, "/api/organizations", h.token("bob"),
			map[string]any{"name": "acme corp"}, &out))
		require.Equal(t, "Organization with this name already exists", out.Error)
	})

	t.Run("name required", func(t *testing.T) {
		var out errorResponse
		require.Equal(t, http.StatusBadRequest, h.do(http.MethodPost, "/api/organizations", alice,
			map[string]any{"name": "  "}, &out))
		require.Equal(t, "Organization name is required", out.Error)
	})

	t.Run("list mine", func(t *testing.T) {
		var out struct {
			Organizations []models.OrganizationWithRole `json:"organizations"`
		}
		require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/api/organizations", alice, nil, &out))
		require.Len(t, out.Organizations, 1)
		require.Equal(t, models.RoleAdmin, out.Organizations[0].Role)
	})

	t.Run("get", func(t *testing.T) {
		var out orgResponse
		require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/api/organizations/"+orgID, alice, nil, &out))
		require.Equal(t, "Acme Corp", out.Organization.Name)
		require.Equal(t, models.RoleAdmin, out.Organization.Role)
	})

	t.Run("update renames slug and keeps other fields", func(t *testing.T) {
		var out orgResponse
		require.Equal(t, http.StatusOK, h.do(http.MethodPut, "/api/organizations/"+orgID, alice,
			map[string]any{"name": "Acme Cloud"}, &out))
		require.Equal(t, "acme-cloud", out.Organization.Slug)
		require.NotNil(t, out.Organization.WebsiteURL)
		require.Equal(t, "https://acme.test", *out.Organization.WebsiteURL)
	})

	t.Run("delete", func(t *testing.T) {
		require.Equal(t, http.StatusOK, h.do(http.MethodDelete, "/api/organizations/"+orgID, alice, nil, nil))
		// the membership went with it, so the organization is now indistinguishable from a foreign one
		var out errorResponse
		require.Equal(t, http.StatusForbidden, h.do(http.MethodGet, "/api/organizations/"+orgID, alice, nil, &out))
		require.Equal(t, "access denied to this organization", out.Error)
	})
}

func TestMalformedBody(t *testing.T) {
	h := newHarness(t)
	orgID := h.createOrg("alice", "Acme")

	req, err := http.NewRequest(http.MethodPost, h.url+"/api/organizations/"+orgID+"/services", bytes.NewBufferString("{"))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+h.token("alice"))

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out errorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "malformed request body", out.Error)
}

func TestNewServer_Validate(t *testing.T) {
	_, err := NewServer(Config{})
	require.Error(t, err)
}
