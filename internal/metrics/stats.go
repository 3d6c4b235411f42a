package metrics

import (
	"math"

	"github.com/wolfeidau/statuspage/internal/models"
)

// UptimePercent is the share of points equal to 1, as a percentage rounded
// to two decimals. ok is false when there are no points.
func UptimePercent(points []models.MetricPoint) (pct float64, ok bool) {
	if len(points) == 0 {
		return 0, false
	}

	up := 0
	for _, p := range points {
		if p.Value == 1 {
			up++
		}
	}

	return math.Round(float64(up)/float64(len(points))*100*100) / 100, true
}

// AverageResponseMs converts a series of probe durations in seconds to their
// mean in whole milliseconds. ok is false when there are no points.
func AverageResponseMs(points []models.MetricPoint) (ms int64, ok bool) {
	if len(points) == 0 {
		return 0, false
	}

	var sum float64
	for _, p := range points {
		sum += p.Value
	}

	return int64(math.Round(sum / float64(len(points)) * 1000)), true
}

// Summarize derives the summary statistics from m's series.
func Summarize(m *models.ServiceMetrics) models.MetricsSummary {
	var summary models.MetricsSummary

	if pct, ok := UptimePercent(m.Series[models.MetricUptime].Points); ok {
		summary.UptimePercent = &pct
	}
	if ms, ok := AverageResponseMs(m.Series[models.MetricResponseTime].Points); ok {
		summary.AvgResponseTimeMs = &ms
	}

	return summary
}
