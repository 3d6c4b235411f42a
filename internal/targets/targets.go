// Package targets writes the Prometheus file_sd target file that tells the
// blackbox exporter which service URLs to probe.
package targets

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/wolfeidau/statuspage/internal/models"
	"gopkg.in/yaml.v3"
)

var whitespace = regexp.MustCompile(`\s+`)

// Group is one entry of a file_sd document.
type Group struct {
	Targets []string          `json:"targets" yaml:"targets"`
	Labels  map[string]string `json:"labels" yaml:"labels"`
}

// ServiceTarget is a probeable service together with the organization that owns it.
type ServiceTarget struct {
	OrgID       uuid.UUID `json:"org_id"`
	OrgName     string    `json:"org_name"`
	OrgSlug     string    `json:"org_slug"`
	ServiceID   uuid.UUID `json:"service_id"`
	ServiceName string    `json:"service_name"`
	TargetURL   string    `json:"target_url"`
}

// Source lists organizations and their services.
type Source interface {
	List(ctx context.Context) ([]*models.Organization, error)
	ListServices(ctx context.Context, orgID uuid.UUID) ([]*models.Service, error)
}

// Collect returns every service with a non-empty target URL.
func Collect(ctx context.Context, src Source) ([]ServiceTarget, error) {
	orgs, err := src.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}

	var result []ServiceTarget
	for _, org := range orgs {
		services, err := src.ListServices(ctx, org.OrgID)
		if err != nil {
			return nil, fmt.Errorf("failed to list services for %s: %w", org.OrgID, err)
		}
		for _, svc := range services {
			if svc.TargetURL == nil || strings.TrimSpace(*svc.TargetURL) == "" {
				continue
			}
			result = append(result, ServiceTarget{
				OrgID:       org.OrgID,
				OrgName:     org.Name,
				OrgSlug:     org.Slug,
				ServiceID:   svc.ServiceID,
				ServiceName: svc.Name,
				TargetURL:   strings.TrimSpace(*svc.TargetURL),
			})
		}
	}

	return result, nil
}

// Groups converts targets into file_sd groups, one per service.
func Groups(targets []ServiceTarget) []Group {
	groups := make([]Group, 0, len(targets))
	for _, t := range targets {
		groups = append(groups, Group{
			Targets: []string{t.TargetURL},
			Labels: map[string]string{
				"org_id":       t.OrgID.String(),
				"org_name":     t.OrgSlug,
				"service_id":   t.ServiceID.String(),
				"service_name": LabelValue(t.ServiceName),
			},
		})
	}
	return groups
}

// LabelValue lowercases name and replaces runs of whitespace with underscores.
func LabelValue(name string) string {
	return whitespace.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "_")
}

// Encode renders groups as YAML for .yml/.yaml paths and JSON otherwise.
func Encode(path string, groups []Group) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return yaml.Marshal(groups)
	default:
		return json.MarshalIndent(groups, "", "  ")
	}
}

// WriteFile replaces path atomically so Prometheus never reads a partial file.
func WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create target directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to rename target file: %w", err)
	}
	return nil
}
