package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/statuspage/internal/models"
	"github.com/wolfeidau/statuspage/internal/store"
)

func TestOrganizationStore_CreateWithAdmin(t *testing.T) {
	st := NewStores()
	ctx := context.Background()

	org := &models.Organization{OrgID: uuid.Must(uuid.NewV7()), Name: "Acme", Slug: "acme", CreatedAt: time.Now()}
	admin := &models.Membership{OrgID: org.OrgID, UserID: "alice", Role: models.RoleAdmin, JoinedAt: time.Now()}

	require.NoError(t, st.Organizations.CreateWithAdmin(ctx, org, admin))

	m, err := st.Memberships.Get(ctx, org.OrgID, "alice")
	require.NoError(t, err)
	require.Equal(t, models.RoleAdmin, m.Role)

	bySlug, err := st.Organizations.GetBySlug(ctx, "acme")
	require.NoError(t, err)
	require.Equal(t, org.OrgID, bySlug.OrgID)

	t.Run("duplicate slug", func(t *testing.T) {
		dup := &models.Organization{OrgID: uuid.Must(uuid.NewV7()), Name: "ACME", Slug: "acme"}
		err := st.Organizations.CreateWithAdmin(ctx, dup, &models.Membership{OrgID: dup.OrgID, UserID: "bob", Role: models.RoleAdmin})
		require.ErrorIs(t, err, store.ErrOrganizationAlreadyExists)

		_, err = st.Memberships.Get(ctx, dup.OrgID, "bob")
		require.ErrorIs(t, err, store.ErrMembershipNotFound)
	})
}

func TestOrganizationStore_UpdateRenamesSlug(t *testing.T) {
	st := NewStores()
	ctx := context.Background()
	orgID := seedOrg(t, st, "alice")

	name := "Globex Status"
	org, err := st.Organizations.Update(ctx, orgID, models.OrganizationPatch{Name: &name})
	require.NoError(t, err)
	require.Equal(t, "globex-status", org.Slug)

	_, err = st.Organizations.GetBySlug(ctx, "globex-status")
	require.NoError(t, err)

	t.Run("colliding rename", func(t *testing.T) {
		other := seedOrg(t, st, "bob")
		_, err := st.Organizations.Update(ctx, other, models.OrganizationPatch{Name: &name})
		require.ErrorIs(t, err, store.ErrOrganizationAlreadyExists)
	})
}

func TestOrganizationStore_DeleteCascades(t *testing.T) {
	st := NewStores()
	ctx := context.Background()
	orgID := seedOrg(t, st, "alice")

	svc := &models.Service{ServiceID: uuid.Must(uuid.NewV7()), OrgID: orgID, Name: "API", CurrentStatus: models.ServiceStatusOperational}
	require.NoError(t, st.Services.Create(ctx, svc))

	require.NoError(t, st.Organizations.Delete(ctx, orgID))

	_, err := st.Organizations.Get(ctx, orgID)
	require.ErrorIs(t, err, store.ErrOrganizationNotFound)
	_, err = st.Memberships.Get(ctx, orgID, "alice")
	require.ErrorIs(t, err, store.ErrMembershipNotFound)
	_, err = st.Services.Get(ctx, orgID, svc.ServiceID)
	require.ErrorIs(t, err, store.ErrServiceNotFound)

	require.ErrorIs(t, st.Organizations.Delete(ctx, orgID), store.ErrOrganizationNotFound)
}

func TestServiceStore_TenantScoped(t *testing.T) {
	st := NewStores()
	ctx := context.Background()
	orgA := seedOrg(t, st, "alice")
	orgB := seedOrg(t, st, "bob")

	svc := &models.Service{ServiceID: uuid.Must(uuid.NewV7()), OrgID: orgA, Name: "API", CurrentStatus: models.ServiceStatusOperational}
	require.NoError(t, st.Services.Create(ctx, svc))

	_, err := st.Services.Get(ctx, orgB, svc.ServiceID)
	require.ErrorIs(t, err, store.ErrServiceNotFound)

	status := models.ServiceStatusMajor
	_, err = st.Services.Update(ctx, orgB, svc.ServiceID, models.ServicePatch{CurrentStatus: &status})
	require.ErrorIs(t, err, store.ErrServiceNotFound)
	require.ErrorIs(t, st.Services.Delete(ctx, orgB, svc.ServiceID), store.ErrServiceNotFound)

	got, err := st.Services.Get(ctx, orgA, svc.ServiceID)
	require.NoError(t, err)
	require.Equal(t, models.ServiceStatusOperational, got.CurrentStatus)
}

func TestIncidentStore_List(t *testing.T) {
	st := NewStores()
	ctx := context.Background()
	orgID := seedOrg(t, st, "alice")
	serviceID := uuid.Must(uuid.NewV7())
	now := time.Now()

	resolvedAt := now.Add(-time.Hour)
	incidents := []*models.Incident{
		{IncidentID: uuid.Must(uuid.NewV7()), OrgID: orgID, Title: "old", Status: models.IncidentResolved, StartedAt: now.Add(-3 * time.Hour), ResolvedAt: &resolvedAt},
		{IncidentID: uuid.Must(uuid.NewV7()), OrgID: orgID, Title: "current", Status: models.IncidentInvestigating, StartedAt: now.Add(-time.Minute), ServiceIDs: []uuid.UUID{serviceID}},
		{IncidentID: uuid.Must(uuid.NewV7()), OrgID: orgID, Title: "earlier", Status: models.IncidentMonitoring, StartedAt: now.Add(-2 * time.Hour)},
	}
	for _, inc := range incidents {
		require.NoError(t, st.Incidents.Create(ctx, inc))
	}

	active, err := st.Incidents.List(ctx, orgID, store.ListIncidentsOptions{Active: true})
	require.NoError(t, err)
	require.Len(t, active, 2)
	require.Equal(t, "current", active[0].Title)
	require.Equal(t, "earlier", active[1].Title)

	resolved, err := st.Incidents.List(ctx, orgID, store.ListIncidentsOptions{Status: models.IncidentResolved, Limit: 10})
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	require.Equal(t, "old", resolved[0].Title)

	forService, err := st.Incidents.List(ctx, orgID, store.ListIncidentsOptions{ServiceID: serviceID})
	require.NoError(t, err)
	require.Len(t, forService, 1)
	require.Equal(t, "current", forService[0].Title)
}

func TestMaintenanceStore_Upcoming(t *testing.T) {
	st := NewStores()
	ctx := context.Background()
	orgID := seedOrg(t, st, "alice")
	now := time.Now()

	windows := []*models.Maintenance{
		{MaintenanceID: uuid.Must(uuid.NewV7()), OrgID: orgID, Title: "later", Status: models.MaintenanceScheduled, ScheduledStart: now.Add(2 * time.Hour), ScheduledEnd: now.Add(3 * time.Hour)},
		{MaintenanceID: uuid.Must(uuid.NewV7()), OrgID: orgID, Title: "running", Status: models.MaintenanceInProgress, ScheduledStart: now.Add(-time.Hour), ScheduledEnd: now.Add(time.Hour)},
		{MaintenanceID: uuid.Must(uuid.NewV7()), OrgID: orgID, Title: "done", Status: models.MaintenanceCompleted, ScheduledStart: now.Add(-3 * time.Hour), ScheduledEnd: now.Add(-2 * time.Hour)},
	}
	for _, m := range windows {
		require.NoError(t, st.Maintenances.Create(ctx, m))
	}

	upcoming, err := st.Maintenances.List(ctx, orgID, store.ListMaintenancesOptions{UpcomingAt: &now})
	require.NoError(t, err)
	require.Len(t, upcoming, 2)
	require.Equal(t, "running", upcoming[0].Title)
	require.Equal(t, "later", upcoming[1].Title)

	t.Run("invalid window rejected", func(t *testing.T) {
		end := now.Add(-10 * time.Hour)
		_, err := st.Maintenances.Update(ctx, orgID, windows[0].MaintenanceID, models.MaintenancePatch{ScheduledEnd: &end})
		require.ErrorIs(t, err, models.ErrValidation)

		got, err := st.Maintenances.Get(ctx, orgID, windows[0].MaintenanceID)
		require.NoError(t, err)
		require.Equal(t, windows[0].ScheduledEnd.Unix(), got.ScheduledEnd.Unix())
	})
}
