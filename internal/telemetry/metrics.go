package telemetry

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/wolfeidau/statuspage"
)

// Metrics holds all the OpenTelemetry metric instruments
type Metrics struct {
	// Access control metrics
	AccessDeniedTotal        metric.Int64Counter
	MembershipMutationsTotal metric.Int64Counter

	// Metrics bridge
	MetricsQueriesTotal     metric.Int64Counter
	MetricsQueryErrors      metric.Int64Counter
	MetricsQueryDuration    metric.Float64Histogram
	MetricsUnavailableTotal metric.Int64Counter

	// Prometheus target sync
	TargetSyncsTotal metric.Int64Counter
	TargetsWritten   metric.Int64Gauge

	// Public API
	RateLimitedTotal metric.Int64Counter
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the singleton Metrics instance, initializing it if necessary
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = initMetrics()
	})
	return metrics
}

// initMetrics creates and registers all metric instruments
func initMetrics() *Metrics {
	meter := otel.GetMeterProvider().Meter(meterName)

	m := &Metrics{}

	m.AccessDeniedTotal, _ = meter.Int64Counter(
		"statuspage.access.denied.total",
		metric.WithDescription("Requests rejected by the organization access gate"),
		metric.WithUnit("{request}"),
	)

	m.MembershipMutationsTotal, _ = meter.Int64Counter(
		"statuspage.memberships.mutations.total",
		metric.WithDescription("Membership role changes and removals by outcome"),
		metric.WithUnit("{mutation}"),
	)

	m.MetricsQueriesTotal, _ = meter.Int64Counter(
		"statuspage.metrics.queries.total",
		metric.WithDescription("Total number of queries sent to the metrics store"),
		metric.WithUnit("{query}"),
	)

	m.MetricsQueryErrors, _ = meter.Int64Counter(
		"statuspage.metrics.queries.errors.total",
		metric.WithDescription("Total number of failed metrics store queries"),
		metric.WithUnit("{error}"),
	)

	m.MetricsQueryDuration, _ = meter.Float64Histogram(
		"statuspage.metrics.queries.duration",
		metric.WithDescription("Duration of metrics store queries"),
		metric.WithUnit("ms"),
	)

	m.MetricsUnavailableTotal, _ = meter.Int64Counter(
		"statuspage.metrics.unavailable.total",
		metric.WithDescription("Service metric requests answered while the metrics store was unreachable"),
		metric.WithUnit("{request}"),
	)

	m.TargetSyncsTotal, _ = meter.Int64Counter(
		"statuspage.targets.syncs.total",
		metric.WithDescription("Prometheus target file syncs by result"),
		metric.WithUnit("{sync}"),
	)

	m.TargetsWritten, _ = meter.Int64Gauge(
		"statuspage.targets.count",
		metric.WithDescription("Number of targets in the last written Prometheus target file"),
		metric.WithUnit("{target}"),
	)

	m.RateLimitedTotal, _ = meter.Int64Counter(
		"statuspage.ratelimit.rejected.total",
		metric.WithDescription("Public requests rejected by the rate limiter"),
		metric.WithUnit("{request}"),
	)

	return m
}
