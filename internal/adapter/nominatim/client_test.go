package nominatim

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/listing-weather-etl/internal/observability"
)

func testClient(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
		retryDelay: 10 * time.Millisecond,
		metrics:    observability.NewMetricsForTesting(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestGeocode_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "123+Main+St+Madison+WI", r.URL.Query().Get("q"))
		assert.Equal(t, "jsonv2", r.URL.Query().Get("format"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))

		resp := []result{{Lat: "43.0727274", Lon: "-89.3879292", DisplayName: "Madison, WI"}}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	coord, found, err := c.Geocode(context.Background(), "123+Main+St+Madison+WI")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "43.0727274", coord.Lat)
	assert.Equal(t, "-89.3879292", coord.Lon)
}

func TestGeocode_EmptyResultSet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode([]result{}))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, found, err := c.Geocode(context.Background(), "nowhere")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGeocode_MissingCoordinateFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode([]result{{DisplayName: "somewhere"}}))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, found, err := c.Geocode(context.Background(), "somewhere")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGeocode_ProviderErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, _, err := c.Geocode(context.Background(), "blocked")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.Equal(t, int32(1), calls.Load())
}

func TestGeocode_TransportFailureRetriedOnce(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			// Drop the connection mid-request to produce a transport error.
			hj, ok := w.(http.Hijacker)
			require.True(t, ok)
			conn, _, err := hj.Hijack()
			require.NoError(t, err)
			conn.Close()
			return
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode([]result{{Lat: "1.0", Lon: "2.0"}}))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	coord, found, err := c.Geocode(context.Background(), "flaky")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "1.0", coord.Lat)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGeocode_TransportFailureGivesUpAfterOneRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		hj, ok := w.(http.Hijacker)
		require.True(t, ok)
		conn, _, err := hj.Hijack()
		require.NoError(t, err)
		conn.Close()
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, _, err := c.Geocode(context.Background(), "down")
	require.Error(t, err)
	assert.Equal(t, int32(2), calls.Load())
}
