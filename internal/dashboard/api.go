package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"store-traffic-service/internal/model"
)

const (
	defaultAPITimeout = 10 * time.Second
	defaultRetries    = 3
)

// ServiceStatus mirrors the /api/status payload.
type ServiceStatus struct {
	Database string `json:"database"`
	Server   struct {
		Uptime    float64 `json:"uptime"`
		Timestamp int64   `json:"timestamp"`
	} `json:"server"`
	LiveClients int `json:"live_clients"`
}

type listEnvelope[T any] struct {
	Success bool   `json:"success"`
	Count   int    `json:"count"`
	Data    []T    `json:"data"`
	Error   string `json:"error"`
}

// APIClient queries the traffic service. List calls never return a nil
// slice, so callers can render the result even when err is set.
type APIClient struct {
	baseURL    string
	httpClient *http.Client
	retries    int
	backoff    time.Duration
}

func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: defaultAPITimeout,
		},
		retries: defaultRetries,
		backoff: 500 * time.Millisecond,
	}
}

func (c *APIClient) Hourly(ctx context.Context) ([]model.HourlyBucket, error) {
	return fetchList[model.HourlyBucket](ctx, c, "/traffic/hourly", nil)
}

func (c *APIClient) Recent(ctx context.Context, limit int) ([]model.TrafficEvent, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	return fetchList[model.TrafficEvent](ctx, c, "/traffic/recent", query)
}

func (c *APIClient) Status(ctx context.Context) (*ServiceStatus, error) {
	body, err := c.get(ctx, "/status", nil)
	if err != nil {
		return nil, err
	}

	var status ServiceStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, fmt.Errorf("failed to parse status: %w", err)
	}
	return &status, nil
}

func fetchList[T any](ctx context.Context, c *APIClient, path string, query url.Values) ([]T, error) {
	empty := []T{}

	body, err := c.get(ctx, path, query)
	if err != nil {
		return empty, err
	}

	var response listEnvelope[T]
	if err := json.Unmarshal(body, &response); err != nil {
		return empty, fmt.Errorf("failed to parse response: %w", err)
	}
	if !response.Success {
		return empty, fmt.Errorf("traffic service reported failure: %s", response.Error)
	}
	if response.Data == nil {
		return empty, nil
	}
	return response.Data, nil
}

func (c *APIClient) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("traffic API URL is not configured")
	}

	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("invalid traffic API URL: %w", err)
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	// network errors are retried with a linear backoff, HTTP errors are not
	var resp *http.Response
	var lastErr error
	for attempt := 0; attempt < c.retries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		resp, lastErr = c.httpClient.Do(req)
		if lastErr == nil {
			break
		}
		if attempt == c.retries-1 {
			return nil, fmt.Errorf("failed to execute request after %d attempts: %w", c.retries, lastErr)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt+1) * c.backoff):
		}
	}
	if resp == nil {
		return nil, fmt.Errorf("failed to execute request: %w", lastErr)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var failure listEnvelope[json.RawMessage]
		if json.Unmarshal(body, &failure) == nil && failure.Error != "" {
			return nil, fmt.Errorf("traffic service returned status %d: %s", resp.StatusCode, failure.Error)
		}
		return nil, fmt.Errorf("traffic service returned status %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}
