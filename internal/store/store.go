package store

import (
	"errors"
)

// Sentinel errors shared by the tenant-scoped stores.
var (
	ErrServiceNotFound     = errors.New("service not found")
	ErrIncidentNotFound    = errors.New("incident not found")
	ErrMaintenanceNotFound = errors.New("maintenance not found")

	// ErrConflict is returned when a transaction could not be serialized after retrying.
	ErrConflict = errors.New("concurrent modification conflict")
)

// Stores bundles every store the API needs so a single backend can be swapped in.
type Stores struct {
	Organizations OrganizationStore
	Memberships   MembershipStore
	Users         UserStore
	Services      ServiceStore
	Incidents     IncidentStore
	Maintenances  MaintenanceStore
}
