package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ServiceStatus is the operator-reported state of a service.
type ServiceStatus string

const (
	ServiceStatusOperational ServiceStatus = "operational"
	ServiceStatusDegraded    ServiceStatus = "degraded_performance"
	ServiceStatusPartial     ServiceStatus = "partial_outage"
	ServiceStatusMajor       ServiceStatus = "major_outage"
	ServiceStatusMaintenance ServiceStatus = "maintenance"
)

// Valid returns true if s is a known service status.
func (s ServiceStatus) Valid() bool {
	switch s {
	case ServiceStatusOperational, ServiceStatusDegraded, ServiceStatusPartial,
		ServiceStatusMajor, ServiceStatusMaintenance:
		return true
	}
	return false
}

// Service is a monitored component shown on the status page.
type Service struct {
	ServiceID     uuid.UUID     `json:"id"`
	OrgID         uuid.UUID     `json:"organization_id"`
	Name          string        `json:"name"`
	Description   *string       `json:"description,omitempty"`
	TargetURL     *string       `json:"target_url,omitempty"` // probed by Prometheus when set
	DisplayOrder  int           `json:"display_order"`
	CurrentStatus ServiceStatus `json:"current_status"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// ServicePatch is a partial update. Nil fields are left untouched.
type ServicePatch struct {
	Name          *string        `json:"name,omitempty"`
	Description   *string        `json:"description,omitempty"`
	TargetURL     *string        `json:"target_url,omitempty"`
	DisplayOrder  *int           `json:"display_order,omitempty"`
	CurrentStatus *ServiceStatus `json:"current_status,omitempty"`
}

// Validate rejects unknown status values.
func (p ServicePatch) Validate() error {
	if p.CurrentStatus != nil && !p.CurrentStatus.Valid() {
		return fmt.Errorf("%w: invalid service status %q", ErrValidation, *p.CurrentStatus)
	}
	return nil
}

// Apply copies the fields present in the patch onto svc.
func (p ServicePatch) Apply(svc *Service) {
	if p.Name != nil && *p.Name != "" {
		svc.Name = *p.Name
	}
	if p.Description != nil {
		svc.Description = p.Description
	}
	if p.TargetURL != nil {
		svc.TargetURL = p.TargetURL
	}
	if p.DisplayOrder != nil {
		svc.DisplayOrder = *p.DisplayOrder
	}
	if p.CurrentStatus != nil {
		svc.CurrentStatus = *p.CurrentStatus
	}
}

// OverallStatus returns the worst status across services.
// Maintenance does not degrade the overall status.
func OverallStatus(services []*Service) ServiceStatus {
	overall := ServiceStatusOperational
	rank := map[ServiceStatus]int{
		ServiceStatusOperational: 0,
		ServiceStatusDegraded:    1,
		ServiceStatusPartial:     2,
		ServiceStatusMajor:       3,
	}
	for _, s := range services {
		if rank[s.CurrentStatus] > rank[overall] {
			overall = s.CurrentStatus
		}
	}
	return overall
}
