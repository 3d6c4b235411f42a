package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MaintenanceStatus tracks a scheduled maintenance window.
type MaintenanceStatus string

const (
	MaintenanceScheduled  MaintenanceStatus = "scheduled"
	MaintenanceInProgress MaintenanceStatus = "in_progress"
	MaintenanceCompleted  MaintenanceStatus = "completed"
	MaintenanceCancelled  MaintenanceStatus = "cancelled"
)

// Valid returns true if s is a known maintenance status.
func (s MaintenanceStatus) Valid() bool {
	switch s {
	case MaintenanceScheduled, MaintenanceInProgress, MaintenanceCompleted, MaintenanceCancelled:
		return true
	}
	return false
}

// Maintenance is a planned window during which services may be unavailable.
type Maintenance struct {
	MaintenanceID  uuid.UUID         `json:"id"`
	OrgID          uuid.UUID         `json:"organization_id"`
	Title          string            `json:"title"`
	Description    *string           `json:"description,omitempty"`
	Status         MaintenanceStatus `json:"status"`
	ServiceIDs     []uuid.UUID       `json:"affected_service_ids"`
	ScheduledStart time.Time         `json:"scheduled_start"`
	ScheduledEnd   time.Time         `json:"scheduled_end"`
	CreatedBy      string            `json:"created_by"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// Upcoming returns true if the window is still pending or running and ends after now.
func (m *Maintenance) Upcoming(now time.Time) bool {
	return (m.Status == MaintenanceScheduled || m.Status == MaintenanceInProgress) &&
		!m.ScheduledEnd.Before(now)
}

// MaintenancePatch is a partial update. Nil fields are left untouched.
type MaintenancePatch struct {
	Title          *string            `json:"title,omitempty"`
	Description    *string            `json:"description,omitempty"`
	Status         *MaintenanceStatus `json:"status,omitempty"`
	ServiceIDs     *[]uuid.UUID       `json:"affected_service_ids,omitempty"`
	ScheduledStart *time.Time         `json:"scheduled_start,omitempty"`
	ScheduledEnd   *time.Time         `json:"scheduled_end,omitempty"`
}

// Apply copies the fields present in the patch onto m and validates the result.
func (p MaintenancePatch) Apply(m *Maintenance) error {
	if p.Status != nil && !p.Status.Valid() {
		return fmt.Errorf("%w: invalid maintenance status %q", ErrValidation, *p.Status)
	}
	if p.Title != nil && *p.Title != "" {
		m.Title = *p.Title
	}
	if p.Description != nil {
		m.Description = p.Description
	}
	if p.Status != nil {
		m.Status = *p.Status
	}
	if p.ServiceIDs != nil {
		m.ServiceIDs = *p.ServiceIDs
	}
	if p.ScheduledStart != nil {
		m.ScheduledStart = *p.ScheduledStart
	}
	if p.ScheduledEnd != nil {
		m.ScheduledEnd = *p.ScheduledEnd
	}
	return m.ValidateWindow()
}

// ValidateWindow ensures the window ends after it starts.
func (m *Maintenance) ValidateWindow() error {
	if !m.ScheduledEnd.After(m.ScheduledStart) {
		return fmt.Errorf("%w: scheduled_end must be after scheduled_start", ErrValidation)
	}
	return nil
}
