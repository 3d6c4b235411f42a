package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// IncidentStatus tracks an incident through its lifecycle.
type IncidentStatus string

const (
	IncidentInvestigating IncidentStatus = "investigating"
	IncidentIdentified    IncidentStatus = "identified"
	IncidentMonitoring    IncidentStatus = "monitoring"
	IncidentResolved      IncidentStatus = "resolved"
)

// Valid returns true if s is a known incident status.
func (s IncidentStatus) Valid() bool {
	switch s {
	case IncidentInvestigating, IncidentIdentified, IncidentMonitoring, IncidentResolved:
		return true
	}
	return false
}

// Impact is the customer-facing severity of an incident.
type Impact string

const (
	ImpactNone     Impact = "none"
	ImpactMinor    Impact = "minor"
	ImpactMajor    Impact = "major"
	ImpactCritical Impact = "critical"
)

// Valid returns true if i is a known impact.
func (i Impact) Valid() bool {
	switch i {
	case ImpactNone, ImpactMinor, ImpactMajor, ImpactCritical:
		return true
	}
	return false
}

// Incident is an unplanned disruption affecting one or more services.
type Incident struct {
	IncidentID  uuid.UUID      `json:"id"`
	OrgID       uuid.UUID      `json:"organization_id"`
	Title       string         `json:"title"`
	Description *string        `json:"description,omitempty"`
	Status      IncidentStatus `json:"status"`
	Impact      Impact         `json:"impact"`
	ServiceIDs  []uuid.UUID    `json:"affected_service_ids"`
	StartedAt   time.Time      `json:"started_at"`
	ResolvedAt  *time.Time     `json:"resolved_at,omitempty"`
	CreatedBy   string         `json:"created_by"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Affects returns true if the incident lists serviceID as affected.
func (i *Incident) Affects(serviceID uuid.UUID) bool {
	for _, id := range i.ServiceIDs {
		if id == serviceID {
			return true
		}
	}
	return false
}

// IncidentPatch is a partial update. Nil fields are left untouched.
type IncidentPatch struct {
	Title       *string         `json:"title,omitempty"`
	Description *string         `json:"description,omitempty"`
	Status      *IncidentStatus `json:"status,omitempty"`
	Impact      *Impact         `json:"impact,omitempty"`
	ServiceIDs  *[]uuid.UUID    `json:"affected_service_ids,omitempty"`
}

// Validate rejects unknown enum values.
func (p IncidentPatch) Validate() error {
	if p.Status != nil && !p.Status.Valid() {
		return fmt.Errorf("%w: invalid incident status %q", ErrValidation, *p.Status)
	}
	if p.Impact != nil && !p.Impact.Valid() {
		return fmt.Errorf("%w: invalid incident impact %q", ErrValidation, *p.Impact)
	}
	return nil
}

// Apply copies the fields present in the patch onto inc.
// Moving into resolved stamps ResolvedAt, moving out of it clears it.
func (p IncidentPatch) Apply(inc *Incident, now time.Time) {
	if p.Title != nil && *p.Title != "" {
		inc.Title = *p.Title
	}
	if p.Description != nil {
		inc.Description = p.Description
	}
	if p.Impact != nil {
		inc.Impact = *p.Impact
	}
	if p.ServiceIDs != nil {
		inc.ServiceIDs = *p.ServiceIDs
	}
	if p.Status != nil {
		if *p.Status == IncidentResolved && inc.Status != IncidentResolved {
			inc.ResolvedAt = &now
		}
		if *p.Status != IncidentResolved {
			inc.ResolvedAt = nil
		}
		inc.Status = *p.Status
	}
}
