// Package metrics queries Prometheus for the probe series behind a service
// detail page and derives uptime and latency statistics from them.
package metrics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/statuspage/internal/models"
	"github.com/wolfeidau/statuspage/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"
)

// DefaultQueryTimeout bounds each individual metrics store query.
const DefaultQueryTimeout = 5 * time.Second

// UnavailableMessage is the marker reported when no query reached the metrics store.
const UnavailableMessage = "metrics store unavailable"

// kindMetrics maps each kind to the blackbox exporter metric that backs it.
var kindMetrics = map[models.MetricKind]string{
	models.MetricUptime:         "up",
	models.MetricResponseTime:   "probe_duration_seconds",
	models.MetricHTTPStatusCode: "probe_http_status_code",
	models.MetricSSLExpiry:      "probe_ssl_earliest_cert_expiry",
}

// Window is the span and resolution of a range query.
type Window struct {
	Start time.Time
	End   time.Time
	Step  time.Duration
}

// Querier runs PromQL against a metrics store.
type Querier interface {
	// QueryRange returns the samples of the first series matching query.
	QueryRange(ctx context.Context, query string, w Window) ([]models.MetricPoint, error)

	// Query returns the sample of the first series matching query at ts, or
	// nil when nothing matched.
	Query(ctx context.Context, query string, ts time.Time) (*models.MetricPoint, error)
}

// Bridge fans a service detail request out into one query per metric kind.
type Bridge struct {
	querier Querier
	timeout time.Duration
	now     func() time.Time
}

type BridgeOption func(*Bridge)

// WithQueryTimeout overrides DefaultQueryTimeout.
func WithQueryTimeout(d time.Duration) BridgeOption {
	return func(b *Bridge) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) BridgeOption {
	return func(b *Bridge) {
		b.now = now
	}
}

func NewBridge(querier Querier, opts ...BridgeOption) *Bridge {
	b := &Bridge{
		querier: querier,
		timeout: DefaultQueryTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// GetServiceMetrics never fails: each kind degrades to an empty series with
// status error, and only when every query failed is the top-level Error set.
func (b *Bridge) GetServiceMetrics(ctx context.Context, serviceID string, timeRange string) *models.ServiceMetrics {
	tr := ParseTimeRange(timeRange)
	end := b.now()
	window := Window{Start: end.Add(-tr.Duration()), End: end, Step: tr.Step()}

	result := &models.ServiceMetrics{
		TimeRange: string(tr),
		Step:      FormatStep(window.Step),
		Series:    make(map[models.MetricKind]models.MetricSeries, len(models.MetricKinds)),
		QueriedAt: end,
	}

	var (
		mu       sync.Mutex
		failures int
		g        errgroup.Group
	)

	for _, kind := range models.MetricKinds {
		g.Go(func() error {
			qctx, cancel := context.WithTimeout(ctx, b.timeout)
			defer cancel()

			start := time.Now()
			points, err := b.querier.QueryRange(qctx, selector(kind, serviceID), window)
			recordQuery(ctx, string(kind), start, err)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				log.Ctx(ctx).Warn().Err(err).
					Str("service_id", serviceID).
					Str("kind", string(kind)).
					Msg("Metrics range query failed")
				failures++
				result.Series[kind] = models.MetricSeries{Status: models.SeriesError, Points: []models.MetricPoint{}}
				return nil // don't fail the other kinds
			}

			result.Series[kind] = newSeries(points)
			return nil
		})
	}

	g.Go(func() error {
		qctx, cancel := context.WithTimeout(ctx, b.timeout)
		defer cancel()

		start := time.Now()
		point, err := b.querier.Query(qctx, selector(models.MetricUptime, serviceID), end)
		recordQuery(ctx, "current", start, err)

		mu.Lock()
		defer mu.Unlock()

		if err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("service_id", serviceID).Msg("Metrics instant query failed")
			failures++
			return nil
		}
		if point != nil {
			result.Current = &models.CurrentStatus{Up: point.Value == 1, Timestamp: point.Timestamp}
		}
		return nil
	})

	_ = g.Wait()

	if failures == len(models.MetricKinds)+1 {
		result.Error = UnavailableMessage
		telemetry.GetMetrics().MetricsUnavailableTotal.Add(ctx, 1)
	}

	result.Summary = Summarize(result)

	return result
}

func recordQuery(ctx context.Context, kind string, start time.Time, err error) {
	m := telemetry.GetMetrics()
	attrs := metric.WithAttributes(attribute.String("kind", kind))

	m.MetricsQueriesTotal.Add(ctx, 1, attrs)
	m.MetricsQueryDuration.Record(ctx, float64(time.Since(start).Milliseconds()), attrs)
	if err != nil {
		m.MetricsQueryErrors.Add(ctx, 1, attrs)
	}
}

func selector(kind models.MetricKind, serviceID string) string {
	return fmt.Sprintf(`%s{service_id=%q}`, kindMetrics[kind], serviceID)
}

func newSeries(points []models.MetricPoint) models.MetricSeries {
	if len(points) == 0 {
		return models.MetricSeries{Status: models.SeriesEmpty, Points: []models.MetricPoint{}}
	}
	return models.MetricSeries{Status: models.SeriesOK, Points: points}
}
