package models

import "time"

// MetricKind names one of the probe series shown on a service detail page.
type MetricKind string

const (
	MetricUptime         MetricKind = "uptime"
	MetricResponseTime   MetricKind = "responseTime"
	MetricHTTPStatusCode MetricKind = "httpStatusCode"
	MetricSSLExpiry      MetricKind = "sslExpiry"
)

// MetricKinds lists every kind in display order.
var MetricKinds = []MetricKind{MetricUptime, MetricResponseTime, MetricHTTPStatusCode, MetricSSLExpiry}

// SeriesStatus tells callers whether an empty series means no data or a failed query.
type SeriesStatus string

const (
	SeriesOK    SeriesStatus = "ok"
	SeriesEmpty SeriesStatus = "empty"
	SeriesError SeriesStatus = "error"
)

// MetricPoint is a single sample. Timestamp is milliseconds since the epoch.
type MetricPoint struct {
	Timestamp int64   `json:"timestamp"`
	Value     float64 `json:"value"`
}

type MetricSeries struct {
	Status SeriesStatus  `json:"status"`
	Points []MetricPoint `json:"points"`
}

// CurrentStatus is the most recent uptime sample.
type CurrentStatus struct {
	Up        bool  `json:"up"`
	Timestamp int64 `json:"timestamp"`
}

// ServiceMetrics is the result of querying the metrics store for one service.
type ServiceMetrics struct {
	TimeRange string                      `json:"time_range"`
	Step      string                      `json:"step"`
	Series    map[MetricKind]MetricSeries `json:"series"`
	Current   *CurrentStatus              `json:"current,omitempty"`
	Error     string                      `json:"error,omitempty"` // set only when the store was unreachable
	Summary   MetricsSummary              `json:"summary"`
	QueriedAt time.Time                   `json:"queried_at"`
}

// MetricsSummary carries derived statistics. Nil fields mean unavailable.
type MetricsSummary struct {
	UptimePercent     *float64 `json:"uptime_percent"`
	AvgResponseTimeMs *int64   `json:"avg_response_time_ms"`
}
