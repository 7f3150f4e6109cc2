// Package nominatim implements domain.Geocoder against a Nominatim-compatible
// search endpoint.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/couchcryptid/listing-weather-etl/internal/domain"
	"github.com/couchcryptid/listing-weather-etl/internal/observability"
)

// The provider blocks default library user agents; identify the service.
const userAgent = "listing-weather-etl/1.0 (+https://github.com/couchcryptid/listing-weather-etl)"

// Client implements domain.Geocoder using the Nominatim search API. A
// transport-level failure (connection error, timeout) is retried once after a
// fixed delay before the call gives up; provider responses, including errors
// and empty result sets, are never retried.
type Client struct {
	httpClient *http.Client
	baseURL    string
	retryDelay time.Duration
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Nominatim geocoding client.
func NewClient(baseURL string, timeout, retryDelay time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		retryDelay: retryDelay,
		metrics:    metrics,
		logger:     logger,
	}
}

// Geocode resolves a normalized address to decimal-string coordinates.
// found is false when the provider returned no result or a result without
// both coordinate fields.
func (c *Client) Geocode(ctx context.Context, address string) (domain.Coordinates, bool, error) {
	params := url.Values{
		"q":      {address},
		"format": {"jsonv2"},
		"limit":  {"1"},
	}
	fullURL := c.baseURL + "/search?" + params.Encode()

	start := time.Now()
	results, err := c.search(ctx, fullURL)
	c.metrics.GeocodeDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return domain.Coordinates{}, false, err
	}

	if len(results) == 0 {
		c.logger.Debug("geocode returned no results", "address", address)
		c.metrics.GeocodeRequests.WithLabelValues("empty").Inc()
		return domain.Coordinates{}, false, nil
	}

	r := results[0]
	if r.Lat == "" || r.Lon == "" {
		c.logger.Debug("geocode result missing coordinates", "address", address)
		c.metrics.GeocodeRequests.WithLabelValues("empty").Inc()
		return domain.Coordinates{}, false, nil
	}

	c.metrics.GeocodeRequests.WithLabelValues("success").Inc()
	return domain.Coordinates{Lat: r.Lat, Lon: r.Lon}, true, nil
}

// search performs the HTTP round trip with the single fixed-delay retry for
// transport failures. Non-2xx provider responses are permanent.
func (c *Client) search(ctx context.Context, fullURL string) ([]result, error) {
	var results []result

	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("create request: %w", err))
		}
		req.Header.Set("User-Agent", userAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.Warn("geocode transport failure, will retry once", "error", err)
			return fmt.Errorf("geocode request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			return backoff.Permanent(fmt.Errorf("geocode API error: status %d: %s", resp.StatusCode, body))
		}

		if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
			return backoff.Permanent(fmt.Errorf("decode geocode response: %w", err))
		}
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.retryDelay), 1), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return nil, err
	}
	return results, nil
}

// Nominatim API response types. Coordinates arrive as decimal strings.

type result struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}
