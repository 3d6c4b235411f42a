package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/wolfeidau/statuspage/internal/models"
	"github.com/wolfeidau/statuspage/internal/targets"
)

// Config holds common client configuration
type Config struct {
	ServerURL string
	Timeout   time.Duration
	Token     string // optional bearer token, sent to /api/internal
	Debug     bool
}

// DefaultConfig returns a default client configuration
func DefaultConfig() Config {
	return Config{
		ServerURL: "http://localhost:5000",
		Timeout:   30 * time.Second,
		Debug:     false,
	}
}

// APIError is a non-2xx response from the status page API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("statuspage api: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("statuspage api: %d %s", e.StatusCode, e.Message)
}

type errorBody struct {
	Error string `json:"error"`
}

// Client calls the public and internal status page endpoints.
type Client struct {
	rest *resty.Client
}

// New creates a client for the server at config.ServerURL.
func New(config Config) *Client {
	rest := resty.New().
		SetBaseURL(config.ServerURL).
		SetTimeout(config.Timeout).
		SetHeader("Accept", "application/json").
		SetDebug(config.Debug)

	if config.Token != "" {
		rest.SetAuthToken(config.Token)
	}

	return &Client{rest: rest}
}

// GetPublicStatus fetches the status page for an organization slug.
func (c *Client) GetPublicStatus(ctx context.Context, orgSlug string) (*models.PublicStatus, error) {
	out := &models.PublicStatus{}
	resp, err := c.rest.R().
		SetContext(ctx).
		SetPathParam("orgSlug", orgSlug).
		SetResult(out).
		SetError(&errorBody{}).
		Get("/api/public/status/{orgSlug}")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return out, nil
}

// GetServiceDetail fetches a service and its metrics over timeRange.
func (c *Client) GetServiceDetail(ctx context.Context, orgSlug, serviceID, timeRange string) (*models.ServiceDetail, error) {
	out := &models.ServiceDetail{}
	req := c.rest.R().
		SetContext(ctx).
		SetPathParams(map[string]string{"orgSlug": orgSlug, "serviceId": serviceID}).
		SetResult(out).
		SetError(&errorBody{})
	if timeRange != "" {
		req.SetQueryParam("timeRange", timeRange)
	}

	resp, err := req.Get("/api/public/status/{orgSlug}/{serviceId}")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return out, nil
}

// SyncTargets asks the server to rewrite its Prometheus target file now.
func (c *Client) SyncTargets(ctx context.Context) (*targets.Result, error) {
	out := &targets.Result{}
	resp, err := c.rest.R().
		SetContext(ctx).
		SetResult(out).
		SetError(&errorBody{}).
		Post("/api/internal/prometheus/sync")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return out, nil
}

// TargetStatus reports the state of the server's target sync.
func (c *Client) TargetStatus(ctx context.Context) (*targets.Status, error) {
	out := &targets.Status{}
	resp, err := c.rest.R().
		SetContext(ctx).
		SetResult(out).
		SetError(&errorBody{}).
		Get("/api/internal/prometheus/status")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return out, nil
}

func check(resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	if !resp.IsError() {
		return nil
	}

	apiErr := &APIError{StatusCode: resp.StatusCode()}
	if body, ok := resp.Error().(*errorBody); ok && body != nil {
		apiErr.Message = body.Error
	}
	return apiErr
}
