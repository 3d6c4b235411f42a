package server

import (
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/statuspage/internal/auth"
	"github.com/wolfeidau/statuspage/internal/models"
)

type memberResponse struct {
	Member models.Membership `json:"member"`
}

type membersResponse struct {
	Members []models.Membership `json:"members"`
}

func TestMembers_AddByEmail(t *testing.T) {
	h := newHarness(t)
	orgID := h.createOrg("alice", "Acme")
	alice := h.token("alice")
	path := "/api/organizations/" + orgID + "/members"

	t.Run("unknown email", func(t *testing.T) {
		var out errorResponse
		require.Equal(t, http.StatusNotFound, h.do(http.MethodPost, path, alice,
			map[string]any{"email": "nobody@example.com"}, &out))
		require.Equal(t, "User not found", out.Error)
	})

	t.Run("email required", func(t *testing.T) {
		var out errorResponse
		require.Equal(t, http.StatusBadRequest, h.do(http.MethodPost, path, alice, map[string]any{}, &out))
		require.Equal(t, "Email is required", out.Error)
	})

	// bob signs in once so the directory knows his email
	require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/api/organizations", h.token("bob"), nil, nil))

	t.Run("invalid role", func(t *testing.T) {
		var out errorResponse
		require.Equal(t, http.StatusBadRequest, h.do(http.MethodPost, path, alice,
			map[string]any{"email": "bob@example.com", "role": "owner"}, &out))
		require.Equal(t, "Invalid role", out.Error)
	})

	t.Run("defaults to viewer", func(t *testing.T) {
		var out memberResponse
		require.Equal(t, http.StatusCreated, h.do(http.MethodPost, path, alice,
			map[string]any{"email": "BOB@example.com"}, &out))
		require.Equal(t, "bob", out.Member.UserID)
		require.Equal(t, models.RoleViewer, out.Member.Role)
		require.Equal(t, "bob@example.com", out.Member.Email)
		require.NotNil(t, out.Member.InvitedBy)
		require.Equal(t, "alice", *out.Member.InvitedBy)
	})

	t.Run("duplicate", func(t *testing.T) {
		var out errorResponse
		require.Equal(t, http.StatusBadRequest, h.do(http.MethodPost, path, alice,
			map[string]any{"email": "bob@example.com"}, &out))
		require.Equal(t, "User is already a member", out.Error)
	})

	t.Run("list includes emails", func(t *testing.T) {
		var out membersResponse
		require.Equal(t, http.StatusOK, h.do(http.MethodGet, path, h.token("bob"), nil, &out))
		require.Len(t, out.Members, 2)
		emails := []string{out.Members[0].Email, out.Members[1].Email}
		require.ElementsMatch(t, []string{"alice@example.com", "bob@example.com"}, emails)
	})

	t.Run("viewer cannot add members", func(t *testing.T) {
		require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/api/organizations", h.token("carol"), nil, nil))
		require.Equal(t, http.StatusForbidden, h.do(http.MethodPost, path, h.token("bob"),
			map[string]any{"email": "carol@example.com"}, nil))
	})
}

func TestMembers_AddByEmailIgnoresLaterClaimant(t *testing.T) {
	h := newHarness(t)
	orgID := h.createOrg("alice", "Acme")
	path := "/api/organizations/" + orgID + "/members"

	require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/api/organizations", h.token("victim"), nil, nil))

	// a second subject presenting the same address still authenticates
	imposter, err := auth.IssueToken(testSecret, "imposter", "VICTIM@example.com", time.Hour)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/api/organizations", imposter, nil, nil))

	var out memberResponse
	require.Equal(t, http.StatusCreated, h.do(http.MethodPost, path, h.token("alice"),
		map[string]any{"email": "victim@example.com"}, &out))
	require.Equal(t, "victim", out.Member.UserID)

	require.Equal(t, http.StatusForbidden, h.do(http.MethodGet, path, imposter, nil, nil))
}

func TestMembers_LastAdmin(t *testing.T) {
	h := newHarness(t)
	orgID := h.createOrg("alice", "Acme")
	alice := h.token("alice")
	path := "/api/organizations/" + orgID + "/members/"

	t.Run("cannot demote sole admin", func(t *testing.T) {
		var out errorResponse
		require.Equal(t, http.StatusBadRequest, h.do(http.MethodPut, path+"alice", alice,
			map[string]any{"role": "member"}, &out))
		require.Equal(t, "Cannot change role of the last admin. Organization must have at least one admin.", out.Error)
	})

	t.Run("cannot remove sole admin", func(t *testing.T) {
		var out errorResponse
		require.Equal(t, http.StatusBadRequest, h.do(http.MethodDelete, path+"alice", alice, nil, &out))
		require.Equal(t, "Cannot remove the last admin. Organization must have at least one admin.", out.Error)
	})

	t.Run("re-asserting admin is allowed", func(t *testing.T) {
		require.Equal(t, http.StatusOK, h.do(http.MethodPut, path+"alice", alice, map[string]any{"role": "admin"}, nil))
	})

	h.addMember("alice", orgID, "bob", models.RoleAdmin)

	t.Run("one of two admins can be demoted", func(t *testing.T) {
		var out memberResponse
		require.Equal(t, http.StatusOK, h.do(http.MethodPut, path+"alice", alice, map[string]any{"role": "viewer"}, &out))
		require.Equal(t, models.RoleViewer, out.Member.Role)
	})

	t.Run("demoted admin lost admin routes", func(t *testing.T) {
		require.Equal(t, http.StatusForbidden, h.do(http.MethodDelete, path+"bob", alice, nil, nil))
	})

	t.Run("unknown member", func(t *testing.T) {
		var out errorResponse
		require.Equal(t, http.StatusNotFound, h.do(http.MethodPut, path+"zed", h.token("bob"),
			map[string]any{"role": "viewer"}, &out))
		require.Equal(t, "Member not found", out.Error)
	})

	t.Run("remove member", func(t *testing.T) {
		require.Equal(t, http.StatusOK, h.do(http.MethodDelete, path+"alice", h.token("bob"), nil, nil))
		require.Equal(t, http.StatusForbidden, h.do(http.MethodGet, "/api/organizations/"+orgID, alice, nil, nil))
	})
}

func TestMembers_ConcurrentDemotionsKeepAnAdmin(t *testing.T) {
	h := newHarness(t)
	orgID := h.createOrg("alice", "Acme")
	h.addMember("alice", orgID, "bob", models.RoleAdmin)
	path := "/api/organizations/" + orgID + "/members/"

	tokens := map[string]string{"alice": h.token("alice"), "bob": h.token("bob")}

	var (
		wg       sync.WaitGroup
		statuses [2]int
	)
	for i, pair := range [][2]string{{"alice", "bob"}, {"bob", "alice"}} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// each admin demotes the other
			statuses[i] = h.doNoAssert(http.MethodPut, path+pair[1], tokens[pair[0]], map[string]any{"role": "member"})
		}()
	}
	wg.Wait()

	var out membersResponse
	require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/api/organizations/"+orgID+"/members", h.token("alice"), nil, &out))

	admins := 0
	for _, m := range out.Members {
		if m.Role == models.RoleAdmin {
			admins++
		}
	}
	require.GreaterOrEqual(t, admins, 1)
	require.Contains(t, statuses[:], http.StatusOK)
}
