package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/wolfeidau/statuspage/internal/models"
)

type StatusCmd struct {
	ServerFlags `embed:""`

	Org string `help:"Organization slug" required:""`
}

func (s *StatusCmd) Run(ctx context.Context, globals *Globals) error {
	status, err := s.client(globals, "").GetPublicStatus(ctx, s.Org)
	if err != nil {
		return fmt.Errorf("failed to fetch status: %w", err)
	}

	printStatus(os.Stdout, status)
	return nil
}

func printStatus(w io.Writer, status *models.PublicStatus) {
	fmt.Fprintf(w, "%s: %s\n", status.Organization.Name, status.OverallStatus)

	if len(status.Services) == 0 {
		fmt.Fprintln(w, "No services found.")
	} else {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%-36s %-30s %s\n", "Service ID", "Name", "Status")
		fmt.Fprintln(w, strings.Repeat("─", 90))
		for _, svc := range status.Services {
			name := svc.Name
			if len(name) > 30 {
				name = name[:27] + "..."
			}
			fmt.Fprintf(w, "%-36s %-30s %s\n", svc.ServiceID, name, svc.CurrentStatus)
		}
	}

	if len(status.ActiveIncidents) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Active incidents:")
		for _, inc := range status.ActiveIncidents {
			fmt.Fprintf(w, "  [%s/%s] %s\n", inc.Status, inc.Impact, inc.Title)
		}
	}

	if len(status.UpcomingMaintenances) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Scheduled maintenance:")
		for _, m := range status.UpcomingMaintenances {
			fmt.Fprintf(w, "  %s  %s\n", m.ScheduledStart.Format("2006-01-02 15:04"), m.Title)
		}
	}
}
