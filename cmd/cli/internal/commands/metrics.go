package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/wolfeidau/statuspage/internal/metrics"
	"github.com/wolfeidau/statuspage/internal/models"
)

type MetricsCmd struct {
	ServerFlags `embed:""`

	Org     string `help:"Organization slug" required:""`
	Service string `help:"Service ID" required:""`
	Range   string `help:"Time range (1h, 6h, 24h, 7d, 30d)" default:"24h" enum:"1h,6h,24h,7d,30d"`
}

func (m *MetricsCmd) Run(ctx context.Context, globals *Globals) error {
	detail, err := m.client(globals, "").GetServiceDetail(ctx, m.Org, m.Service, m.Range)
	if err != nil {
		return fmt.Errorf("failed to fetch service metrics: %w", err)
	}

	printMetrics(os.Stdout, detail)
	return nil
}

func printMetrics(w io.Writer, detail *models.ServiceDetail) {
	fmt.Fprintf(w, "%s / %s\n", detail.Organization.Name, detail.Service.Name)
	fmt.Fprintf(w, "Status: %s\n", detail.Service.CurrentStatus)

	m := detail.Metrics
	if m == nil {
		fmt.Fprintln(w, "No metrics available.")
		return
	}

	fmt.Fprintf(w, "Range: %s (step %s)\n", m.TimeRange, m.Step)
	if m.Error != "" {
		fmt.Fprintf(w, "Warning: %s\n", m.Error)
	}

	if m.Current != nil {
		state := "DOWN"
		if m.Current.Up {
			state = "UP"
		}
		fmt.Fprintf(w, "Current: %s at %s\n", state, time.UnixMilli(m.Current.Timestamp).UTC().Format(time.RFC3339))
	}

	if pct, ok := metrics.UptimePercent(m.Series[models.MetricUptime].Points); ok {
		fmt.Fprintf(w, "Uptime: %.2f%%\n", pct)
	} else {
		fmt.Fprintln(w, "Uptime: n/a")
	}

	if ms, ok := metrics.AverageResponseMs(m.Series[models.MetricResponseTime].Points); ok {
		fmt.Fprintf(w, "Avg response time: %dms\n", ms)
	} else {
		fmt.Fprintln(w, "Avg response time: n/a")
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-16s %-8s %s\n", "Series", "Status", "Points")
	fmt.Fprintln(w, strings.Repeat("─", 34))
	for _, kind := range models.MetricKinds {
		series := m.Series[kind]
		fmt.Fprintf(w, "%-16s %-8s %d\n", kind, series.Status, len(series.Points))
	}
}
