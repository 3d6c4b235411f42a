package metrics

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/statuspage/internal/models"
)

type rangeCall struct {
	query  string
	window Window
}

// fakeQuerier answers by metric name; a metric listed in failures returns an error.
type fakeQuerier struct {
	series   map[string][]models.MetricPoint
	current  *models.MetricPoint
	failures map[string]error
	block    map[string]bool

	mu    sync.Mutex
	calls []rangeCall
}

func metricName(query string) string {
	name, _, _ := strings.Cut(query, "{")
	return name
}

func (f *fakeQuerier) QueryRange(ctx context.Context, query string, w Window) ([]models.MetricPoint, error) {
	f.mu.Lock()
	f.calls = append(f.calls, rangeCall{query: query, window: w})
	f.mu.Unlock()

	name := metricName(query)
	if f.block[name] {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err := f.failures[name]; err != nil {
		return nil, err
	}
	return f.series[name], nil
}

func (f *fakeQuerier) Query(ctx context.Context, query string, ts time.Time) (*models.MetricPoint, error) {
	if err := f.failures["instant"]; err != nil {
		return nil, err
	}
	return f.current, nil
}

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestBridge(q Querier) *Bridge {
	return NewBridge(q, WithClock(func() time.Time { return fixedNow }), WithQueryTimeout(100*time.Millisecond))
}

func TestBridge_GetServiceMetrics(t *testing.T) {
	q := &fakeQuerier{
		series: map[string][]models.MetricPoint{
			"up":                     points(1, 1, 1, 1, 1, 1, 0, 0),
			"probe_duration_seconds": points(0.1, 0.2, 0.3),
			"probe_http_status_code": points(200, 200),
		},
		current: &models.MetricPoint{Timestamp: fixedNow.UnixMilli(), Value: 1},
	}

	m := newTestBridge(q).GetServiceMetrics(context.Background(), "svc-1", "24h")

	require.Equal(t, "24h", m.TimeRange)
	require.Equal(t, "15m", m.Step)
	require.Empty(t, m.Error)

	require.Equal(t, models.SeriesOK, m.Series[models.MetricUptime].Status)
	require.Len(t, m.Series[models.MetricUptime].Points, 8)
	require.Equal(t, models.SeriesEmpty, m.Series[models.MetricSSLExpiry].Status)
	require.NotNil(t, m.Series[models.MetricSSLExpiry].Points)

	require.NotNil(t, m.Current)
	require.True(t, m.Current.Up)
	require.Equal(t, fixedNow.UnixMilli(), m.Current.Timestamp)

	require.Equal(t, 75.00, *m.Summary.UptimePercent)
	require.Equal(t, int64(200), *m.Summary.AvgResponseTimeMs)

	require.Len(t, q.calls, 4)
	for _, call := range q.calls {
		require.Contains(t, call.query, `{service_id="svc-1"}`)
		require.Equal(t, fixedNow, call.window.End)
		require.Equal(t, fixedNow.Add(-24*time.Hour), call.window.Start)
		require.Equal(t, 15*time.Minute, call.window.Step)
	}
}

func TestBridge_UnknownRangeMatchesOneHour(t *testing.T) {
	newQuerier := func() *fakeQuerier {
		return &fakeQuerier{series: map[string][]models.MetricPoint{"up": points(1, 0)}}
	}

	garbageQ, hourQ := newQuerier(), newQuerier()
	garbage := newTestBridge(garbageQ).GetServiceMetrics(context.Background(), "svc-1", "garbage")
	hour := newTestBridge(hourQ).GetServiceMetrics(context.Background(), "svc-1", "1h")

	require.Equal(t, hour, garbage)
	require.Equal(t, "1h", garbage.TimeRange)
	require.Equal(t, "1m", garbage.Step)
	require.Equal(t, hourQ.calls[0].window, garbageQ.calls[0].window)
}

func TestBridge_FaultIsolation(t *testing.T) {
	t.Run("failed kind", func(t *testing.T) {
		q := &fakeQuerier{
			series:   map[string][]models.MetricPoint{"up": points(1, 1, 1, 1, 1, 1, 1, 1, 1, 1)},
			failures: map[string]error{"probe_duration_seconds": errors.New("bad gateway")},
		}

		m := newTestBridge(q).GetServiceMetrics(context.Background(), "svc-1", "1h")

		require.Empty(t, m.Error)
		require.Equal(t, models.SeriesOK, m.Series[models.MetricUptime].Status)
		require.Len(t, m.Series[models.MetricUptime].Points, 10)
		require.Equal(t, models.SeriesError, m.Series[models.MetricResponseTime].Status)
		require.Empty(t, m.Series[models.MetricResponseTime].Points)
		require.Nil(t, m.Summary.AvgResponseTimeMs)
	})

	t.Run("timed out kind", func(t *testing.T) {
		q := &fakeQuerier{
			series: map[string][]models.MetricPoint{"up": points(1, 1, 1, 1, 1, 1, 1, 1, 1, 1)},
			block:  map[string]bool{"probe_duration_seconds": true},
		}

		start := time.Now()
		m := newTestBridge(q).GetServiceMetrics(context.Background(), "svc-1", "1h")

		require.Less(t, time.Since(start), 2*time.Second)
		require.Len(t, m.Series[models.MetricUptime].Points, 10)
		require.Equal(t, models.SeriesError, m.Series[models.MetricResponseTime].Status)
	})

	t.Run("store unreachable", func(t *testing.T) {
		unreachable := errors.New("connection refused")
		q := &fakeQuerier{failures: map[string]error{
			"up":                             unreachable,
			"probe_duration_seconds":         unreachable,
			"probe_http_status_code":         unreachable,
			"probe_ssl_earliest_cert_expiry": unreachable,
			"instant":                        unreachable,
		}}

		m := newTestBridge(q).GetServiceMetrics(context.Background(), "svc-1", "7d")

		require.Equal(t, UnavailableMessage, m.Error)
		require.Nil(t, m.Current)
		for _, kind := range models.MetricKinds {
			require.Equal(t, models.SeriesError, m.Series[kind].Status, kind)
		}
	})

	t.Run("instant query failure only", func(t *testing.T) {
		q := &fakeQuerier{
			series:   map[string][]models.MetricPoint{"up": points(1)},
			failures: map[string]error{"instant": errors.New("timeout")},
		}

		m := newTestBridge(q).GetServiceMetrics(context.Background(), "svc-1", "1h")

		require.Empty(t, m.Error)
		require.Nil(t, m.Current)
		require.Equal(t, models.SeriesOK, m.Series[models.MetricUptime].Status)
	})
}

func TestBridge_CallerCancellation(t *testing.T) {
	q := &fakeQuerier{block: map[string]bool{
		"up": true, "probe_duration_seconds": true, "probe_http_status_code": true, "probe_ssl_earliest_cert_expiry": true,
	}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := NewBridge(q).GetServiceMetrics(ctx, "svc-1", "1h")
	require.Equal(t, models.SeriesError, m.Series[models.MetricUptime].Status)
}
