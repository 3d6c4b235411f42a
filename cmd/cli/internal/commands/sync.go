package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/wolfeidau/statuspage/internal/targets"
)

type SyncCmd struct {
	ServerFlags `embed:""`

	Token  string `help:"Internal API bearer token" env:"STATUSPAGE_INTERNAL_TOKEN"`
	Status bool   `help:"Show the sync status instead of triggering a sync" default:"false"`
}

func (s *SyncCmd) Run(ctx context.Context, globals *Globals) error {
	c := s.client(globals, s.Token)

	if s.Status {
		status, err := c.TargetStatus(ctx)
		if err != nil {
			return fmt.Errorf("failed to fetch sync status: %w", err)
		}
		printSyncStatus(os.Stdout, status)
		return nil
	}

	result, err := c.SyncTargets(ctx)
	if err != nil {
		return fmt.Errorf("failed to sync targets: %w", err)
	}

	fmt.Printf("Wrote %d targets to %s\n", result.TargetCount, result.File)
	return nil
}

func printSyncStatus(w io.Writer, status *targets.Status) {
	if !status.Enabled {
		fmt.Fprintln(w, "Prometheus target sync is disabled.")
		return
	}

	fmt.Fprintf(w, "File: %s\n", status.File)
	fmt.Fprintf(w, "Interval: %s\n", status.Interval)
	fmt.Fprintf(w, "Running: %t\n", status.Running)
	if status.LastSyncAt != nil {
		fmt.Fprintf(w, "Last sync: %s (%d targets)\n", status.LastSyncAt.Format("2006-01-02 15:04:05"), status.TargetCount)
	}
	if status.LastError != "" {
		fmt.Fprintf(w, "Last error: %s\n", status.LastError)
	}
}
