package nws

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/listing-weather-etl/internal/domain"
	"github.com/couchcryptid/listing-weather-etl/internal/observability"
)

func testClient(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
		metrics:    observability.NewMetricsForTesting(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestResolveEndpoint(t *testing.T) {
	var srvURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/points/43.0727274,-89.3879292", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"properties":{"forecast":"` + srvURL + `/gridpoints/MKX/38,64/forecast"}}`))
	}))
	defer srv.Close()
	srvURL = srv.URL

	c := testClient(srv.URL)
	endpoint, err := c.ResolveEndpoint(context.Background(), domain.Coordinates{Lat: "43.0727274", Lon: "-89.3879292"})
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/gridpoints/MKX/38,64/forecast", endpoint)
}

func TestResolveEndpoint_MissingForecastProperty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"properties":{}}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.ResolveEndpoint(context.Background(), domain.Coordinates{Lat: "1", Lon: "2"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no forecast endpoint")
}

func TestResolveEndpoint_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.ResolveEndpoint(context.Background(), domain.Coordinates{Lat: "1", Lon: "2"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestFetchForecast(t *testing.T) {
	const doc = `{"properties":{"periods":[
		{"number":1,"name":"Tonight","temperature":41,"temperatureUnit":"F",
		 "shortForecast":"Partly Cloudy","detailedForecast":"Partly cloudy, with a low around 41."},
		{"number":2,"name":"Saturday","temperature":56,"temperatureUnit":"F","shortForecast":"Sunny"}
	]}}`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/gridpoints/MKX/38,64/forecast", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(doc))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	got, err := c.FetchForecast(context.Background(), srv.URL+"/gridpoints/MKX/38,64/forecast")
	require.NoError(t, err)
	require.Len(t, got.Periods, 2)
	assert.Equal(t, "Tonight", got.Periods[0].Name)
	assert.Equal(t, 41, got.Periods[0].Temperature)
	assert.JSONEq(t, doc, string(got.Raw))
}

func TestFetchForecast_EmptyPeriodsStillParses(t *testing.T) {
	// The adapter does not enforce the period contract; extraction does.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"properties":{"periods":[]}}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	got, err := c.FetchForecast(context.Background(), srv.URL+"/forecast")
	require.NoError(t, err)
	assert.Empty(t, got.Periods)

	_, _, err = domain.NextPeriod(got)
	assert.ErrorIs(t, err, domain.ErrNoPeriods)
}

func TestFetchForecast_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.FetchForecast(context.Background(), srv.URL+"/forecast")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}
