package models

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Organization represents an organization (tenant) in the system.
// Services, incidents, maintenances and memberships are all scoped to one organization.
type Organization struct {
	OrgID       uuid.UUID `json:"id"` // UUIDv7
	Name        string    `json:"name"`
	Slug        string    `json:"slug"` // URL-safe, globally unique
	Description *string   `json:"description,omitempty"`
	LogoURL     *string   `json:"logo_url,omitempty"`
	WebsiteURL  *string   `json:"website_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// OrganizationWithRole pairs an organization with the caller's role in it.
type OrganizationWithRole struct {
	Organization
	Role Role `json:"role"`
}

// OrganizationPatch is a partial update. Nil fields are left untouched.
type OrganizationPatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	LogoURL     *string `json:"logo_url,omitempty"`
	WebsiteURL  *string `json:"website_url,omitempty"`
}

// Apply copies the fields present in the patch onto org.
// A name change also regenerates the slug.
func (p OrganizationPatch) Apply(org *Organization) {
	if p.Name != nil && *p.Name != "" {
		org.Name = *p.Name
		org.Slug = GenerateSlug(*p.Name)
	}
	if p.Description != nil {
		org.Description = p.Description
	}
	if p.LogoURL != nil {
		org.LogoURL = p.LogoURL
	}
	if p.WebsiteURL != nil {
		org.WebsiteURL = p.WebsiteURL
	}
}

var (
	slugInvalid = regexp.MustCompile(`[^a-z0-9]+`)
	slugTrim    = regexp.MustCompile(`^-+|-+$`)
)

// GenerateSlug derives a URL-safe slug from a display name.
func GenerateSlug(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = slugInvalid.ReplaceAllString(slug, "-")
	return slugTrim.ReplaceAllString(slug, "")
}
