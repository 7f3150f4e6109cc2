// Package nws implements domain.ForecastResolver against an NWS-compatible
// weather API: a points lookup resolves the forecast endpoint for a
// coordinate pair, and the endpoint serves the forecast document.
package nws

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/listing-weather-etl/internal/domain"
	"github.com/couchcryptid/listing-weather-etl/internal/observability"
)

const userAgent = "listing-weather-etl/1.0 (+https://github.com/couchcryptid/listing-weather-etl)"

// Client implements domain.ForecastResolver.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a forecast provider client.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		metrics:    metrics,
		logger:     logger,
	}
}

// ResolveEndpoint looks up the forecast endpoint for a coordinate pair.
// Coordinates are decimal strings from the geocoder, placed in the points
// path verbatim.
func (c *Client) ResolveEndpoint(ctx context.Context, coord domain.Coordinates) (string, error) {
	u := fmt.Sprintf("%s/points/%s,%s", c.baseURL, coord.Lat, coord.Lon)

	start := time.Now()
	body, err := c.get(ctx, u)
	c.metrics.ForecastDuration.WithLabelValues("points").Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.ForecastRequests.WithLabelValues("points", "error").Inc()
		return "", err
	}

	var resp pointsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		c.metrics.ForecastRequests.WithLabelValues("points", "error").Inc()
		return "", fmt.Errorf("decode points response: %w", err)
	}
	if resp.Properties.Forecast == "" {
		c.metrics.ForecastRequests.WithLabelValues("points", "error").Inc()
		return "", fmt.Errorf("points response for %s,%s has no forecast endpoint", coord.Lat, coord.Lon)
	}

	c.metrics.ForecastRequests.WithLabelValues("points", "success").Inc()
	return resp.Properties.Forecast, nil
}

// FetchForecast retrieves the forecast document from a previously resolved
// endpoint. The raw document is returned alongside the parsed period
// sequence so callers can persist the provider payload verbatim.
func (c *Client) FetchForecast(ctx context.Context, endpoint string) (domain.ForecastDocument, error) {
	start := time.Now()
	body, err := c.get(ctx, endpoint)
	c.metrics.ForecastDuration.WithLabelValues("forecast").Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.ForecastRequests.WithLabelValues("forecast", "error").Inc()
		return domain.ForecastDocument{}, err
	}

	var resp forecastResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		c.metrics.ForecastRequests.WithLabelValues("forecast", "error").Inc()
		return domain.ForecastDocument{}, fmt.Errorf("decode forecast response: %w", err)
	}

	c.metrics.ForecastRequests.WithLabelValues("forecast", "success").Inc()
	return domain.ForecastDocument{
		Raw:     json.RawMessage(body),
		Periods: resp.Properties.Periods,
	}, nil
}

func (c *Client) get(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("forecast request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read forecast response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("forecast API error: status %d: %s", resp.StatusCode, body)
	}
	return body, nil
}

// Provider response types.

type pointsResponse struct {
	Properties struct {
		Forecast string `json:"forecast"`
	} `json:"properties"`
}

type forecastResponse struct {
	Properties struct {
		Periods []domain.ForecastPeriod `json:"periods"`
	} `json:"properties"`
}
