package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseTimeRange(t *testing.T) {
	tests := []struct {
		input    string
		expected TimeRange
	}{
		{"1h", Range1h},
		{"6h", Range6h},
		{"24h", Range24h},
		{"7d", Range7d},
		{"30d", Range30d},
		{"", Range1h},
		{"garbage", Range1h},
		{"2h", Range1h},
		{"7D", Range1h},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			require.Equal(t, tt.expected, ParseTimeRange(tt.input))
		})
	}
}

func TestTimeRange_Step(t *testing.T) {
	require.Equal(t, time.Minute, Range1h.Step())
	require.Equal(t, 5*time.Minute, Range6h.Step())
	require.Equal(t, 15*time.Minute, Range24h.Step())
	require.Equal(t, time.Hour, Range7d.Step())
	require.Equal(t, 2*time.Hour, Range30d.Step())

	require.Equal(t, "15m", FormatStep(Range24h.Step()))
	require.Equal(t, "1h", FormatStep(Range7d.Step()))
	require.Equal(t, "2h", FormatStep(Range30d.Step()))
}

func TestTimeRange_Duration(t *testing.T) {
	require.Equal(t, time.Hour, Range1h.Duration())
	require.Equal(t, 24*time.Hour, Range24h.Duration())
	require.Equal(t, 30*24*time.Hour, Range30d.Duration())
}

func TestParseDurationSeconds(t *testing.T) {
	tests := []struct {
		input    string
		expected int64
	}{
		{"15m", 900},
		{"6h", 21600},
		{"7d", 604800},
		{"0m", 0},
		{"", 3600},
		{"h", 3600},
		{"10s", 3600},
		{"-5m", 3600},
		{" 5m", 3600},
		{"5m ", 3600},
		{"1.5h", 3600},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			require.Equal(t, tt.expected, ParseDurationSeconds(tt.input))
		})
	}
}
