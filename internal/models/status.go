package models

import "time"

// PublicStatus is the unauthenticated status page for one organization.
type PublicStatus struct {
	Organization         *Organization  `json:"organization"`
	OverallStatus        ServiceStatus  `json:"overall_status"`
	Services             []*Service     `json:"services"`
	ActiveIncidents      []*Incident    `json:"active_incidents"`
	RecentIncidents      []*Incident    `json:"recent_incidents"` // last resolved, newest first
	UpcomingMaintenances []*Maintenance `json:"upcoming_maintenances"`
	GeneratedAt          time.Time      `json:"generated_at"`
}

// ServiceDetail is the public drill-down for a single service.
type ServiceDetail struct {
	Organization *Organization   `json:"organization"`
	Service      *Service        `json:"service"`
	Incidents    []*Incident     `json:"incidents"`
	Metrics      *ServiceMetrics `json:"metrics"`
}

// OrganizationServices groups an organization's services for internal listings.
type OrganizationServices struct {
	Organization *Organization `json:"organization"`
	Services     []*Service    `json:"services"`
}
