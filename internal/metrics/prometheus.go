package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/api"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/statuspage/internal/models"
)

// PrometheusQuerier implements Querier against the Prometheus HTTP API.
type PrometheusQuerier struct {
	api v1.API
}

// NewPrometheusQuerier creates a querier for the Prometheus server at address.
// httpClient may be nil.
func NewPrometheusQuerier(address string, httpClient *http.Client) (*PrometheusQuerier, error) {
	client, err := api.NewClient(api.Config{Address: address, Client: httpClient})
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus client: %w", err)
	}
	return &PrometheusQuerier{api: v1.NewAPI(client)}, nil
}

func (q *PrometheusQuerier) QueryRange(ctx context.Context, query string, w Window) ([]models.MetricPoint, error) {
	value, warnings, err := q.api.QueryRange(ctx, query, v1.Range{Start: w.Start, End: w.End, Step: w.Step})
	if err != nil {
		return nil, err
	}
	logWarnings(ctx, query, warnings)

	matrix, ok := value.(model.Matrix)
	if !ok {
		return nil, fmt.Errorf("unexpected result type %s for range query", value.Type())
	}
	if len(matrix) == 0 {
		return nil, nil
	}

	values := matrix[0].Values
	points := make([]models.MetricPoint, 0, len(values))
	for _, pair := range values {
		points = append(points, models.MetricPoint{
			Timestamp: int64(pair.Timestamp), // model.Time is in milliseconds
			Value:     float64(pair.Value),
		})
	}

	return points, nil
}

func (q *PrometheusQuerier) Query(ctx context.Context, query string, ts time.Time) (*models.MetricPoint, error) {
	value, warnings, err := q.api.Query(ctx, query, ts)
	if err != nil {
		return nil, err
	}
	logWarnings(ctx, query, warnings)

	vector, ok := value.(model.Vector)
	if !ok {
		return nil, fmt.Errorf("unexpected result type %s for instant query", value.Type())
	}
	if len(vector) == 0 {
		return nil, nil
	}

	return &models.MetricPoint{
		Timestamp: int64(vector[0].Timestamp),
		Value:     float64(vector[0].Value),
	}, nil
}

func logWarnings(ctx context.Context, query string, warnings v1.Warnings) {
	if len(warnings) > 0 {
		log.Ctx(ctx).Debug().Str("query", query).Strs("warnings", warnings).Msg("Prometheus returned warnings")
	}
}
