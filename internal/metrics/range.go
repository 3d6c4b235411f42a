package metrics

import (
	"regexp"
	"strconv"
	"time"

	"github.com/prometheus/common/model"
)

// TimeRange is one of the windows offered on the service detail page.
type TimeRange string

const (
	Range1h  TimeRange = "1h"
	Range6h  TimeRange = "6h"
	Range24h TimeRange = "24h"
	Range7d  TimeRange = "7d"
	Range30d TimeRange = "30d"
)

// fallbackSeconds is used for durations that do not parse.
const fallbackSeconds = 3600

// steps keeps the point count per series roughly constant across ranges.
var steps = map[TimeRange]time.Duration{
	Range1h:  time.Minute,
	Range6h:  5 * time.Minute,
	Range24h: 15 * time.Minute,
	Range7d:  time.Hour,
	Range30d: 2 * time.Hour,
}

var durationPattern = regexp.MustCompile(`^(\d+)([mhd])$`)

// ParseTimeRange returns the matching range, or Range1h for anything unrecognised.
func ParseTimeRange(s string) TimeRange {
	r := TimeRange(s)
	if _, ok := steps[r]; !ok {
		return Range1h
	}
	return r
}

// Step is the query resolution for r.
func (r TimeRange) Step() time.Duration {
	if step, ok := steps[r]; ok {
		return step
	}
	return steps[Range1h]
}

// Duration is the length of the window r covers.
func (r TimeRange) Duration() time.Duration {
	return time.Duration(ParseDurationSeconds(string(r))) * time.Second
}

// ParseDurationSeconds converts strings such as "15m", "24h" or "7d" to
// seconds. Malformed input yields 3600.
func ParseDurationSeconds(s string) int64 {
	m := durationPattern.FindStringSubmatch(s)
	if m == nil {
		return fallbackSeconds
	}

	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return fallbackSeconds
	}

	switch m[2] {
	case "m":
		return n * 60
	case "h":
		return n * 3600
	default:
		return n * 86400
	}
}

// FormatStep renders d the way Prometheus writes durations, e.g. "15m" or "2h".
func FormatStep(d time.Duration) string {
	return model.Duration(d).String()
}
