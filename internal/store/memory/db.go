// Package memory provides in-memory implementations of the store interfaces.
// These implementations are for testing and local development only - data is lost on restart.
package memory

import (
	"sync"

	"github.com/google/uuid"
	"github.com/wolfeidau/statuspage/internal/models"
	"github.com/wolfeidau/statuspage/internal/store"
)

// db is the shared state behind every in-memory store. A single lock covers all
// tables so multi-table operations (create org + admin, cascade delete,
// count-then-demote) are atomic.
type db struct {
	mu sync.RWMutex

	organizations map[uuid.UUID]*models.Organization          // org_id -> Organization
	orgsBySlug    map[string]uuid.UUID                        // slug -> org_id
	memberships   map[uuid.UUID]map[string]*models.Membership // org_id -> user_id -> Membership
	users         map[string]*models.User                     // user_id -> User
	services      map[uuid.UUID]*models.Service               // service_id -> Service
	incidents     map[uuid.UUID]*models.Incident              // incident_id -> Incident
	maintenances  map[uuid.UUID]*models.Maintenance           // maintenance_id -> Maintenance
}

func newDB() *db {
	return &db{
		organizations: make(map[uuid.UUID]*models.Organization),
		orgsBySlug:    make(map[string]uuid.UUID),
		memberships:   make(map[uuid.UUID]map[string]*models.Membership),
		users:         make(map[string]*models.User),
		services:      make(map[uuid.UUID]*models.Service),
		incidents:     make(map[uuid.UUID]*models.Incident),
		maintenances:  make(map[uuid.UUID]*models.Maintenance),
	}
}

// NewStores creates a full set of in-memory stores sharing one backing state.
func NewStores() store.Stores {
	d := newDB()
	return store.Stores{
		Organizations: &OrganizationStore{db: d},
		Memberships:   &MembershipStore{db: d},
		Users:         &UserStore{db: d},
		Services:      &ServiceStore{db: d},
		Incidents:     &IncidentStore{db: d},
		Maintenances:  &MaintenanceStore{db: d},
	}
}

func cloneIDs(ids []uuid.UUID) []uuid.UUID {
	if ids == nil {
		return []uuid.UUID{}
	}
	out := make([]uuid.UUID, len(ids))
	copy(out, ids)
	return out
}
