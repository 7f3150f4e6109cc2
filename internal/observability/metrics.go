package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// enrichment pipeline and refresh sweep.
type Metrics struct {
	JobsPublished   prometheus.Counter
	EnrichmentJobs  *prometheus.CounterVec // labels: outcome={success,geocode_miss,forecast_failed,malformed_forecast}
	JobDuration     prometheus.Histogram
	PipelineRunning prometheus.Gauge

	// Provider call metrics.
	GeocodeRequests  *prometheus.CounterVec   // labels: outcome={success,empty,error}
	GeocodeDuration  prometheus.Histogram
	ForecastRequests *prometheus.CounterVec   // labels: stage={points,forecast}, outcome={success,error}
	ForecastDuration *prometheus.HistogramVec // labels: stage={points,forecast}

	// Refresh sweep metrics.
	RefreshSweeps   prometheus.Counter
	RefreshLinks    *prometheus.CounterVec // labels: outcome={refreshed,failed}
	RefreshDuration prometheus.Histogram

	// Best-effort statistics writes that were dropped.
	StatsStoreErrors prometheus.Counter
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		JobsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "listing_etl",
			Name:      "jobs_published_total",
			Help:      "Total enrichment jobs published by the ingestion driver.",
		}),
		EnrichmentJobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "listing_etl",
			Name:      "enrichment_jobs_total",
			Help:      "Completed enrichment jobs by outcome.",
		}, []string{"outcome"}),
		JobDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "listing_etl",
			Name:      "enrichment_job_duration_seconds",
			Help:      "End-to-end duration of one enrichment job.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "listing_etl",
			Name:      "pipeline_running",
			Help:      "1 when the worker pool is active, 0 when shut down.",
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "listing_etl",
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by outcome.",
		}, []string{"outcome"}),
		GeocodeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "listing_etl",
			Name:      "geocode_api_duration_seconds",
			Help:      "Geocoding API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		ForecastRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "listing_etl",
			Name:      "forecast_requests_total",
			Help:      "Forecast provider requests by stage and outcome.",
		}, []string{"stage", "outcome"}),
		ForecastDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "listing_etl",
			Name:      "forecast_api_duration_seconds",
			Help:      "Forecast provider request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"stage"}),
		RefreshSweeps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "listing_etl",
			Name:      "refresh_sweeps_total",
			Help:      "Completed forecast refresh sweep invocations.",
		}),
		RefreshLinks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "listing_etl",
			Name:      "refresh_links_total",
			Help:      "Forecast links processed by the refresh sweep, by outcome.",
		}, []string{"outcome"}),
		RefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "listing_etl",
			Name:      "refresh_sweep_duration_seconds",
			Help:      "Duration of a full refresh sweep over the link table.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		StatsStoreErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "listing_etl",
			Name:      "stats_store_errors_total",
			Help:      "Statistics store operations dropped after a store failure.",
		}),
	}

	prometheus.MustRegister(
		m.JobsPublished,
		m.EnrichmentJobs,
		m.JobDuration,
		m.PipelineRunning,
		m.GeocodeRequests,
		m.GeocodeDuration,
		m.ForecastRequests,
		m.ForecastDuration,
		m.RefreshSweeps,
		m.RefreshLinks,
		m.RefreshDuration,
		m.StatsStoreErrors,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		JobsPublished:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "listing_etl", Name: "jobs_published_total"}),
		EnrichmentJobs:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "listing_etl", Name: "enrichment_jobs_total"}, []string{"outcome"}),
		JobDuration:      prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "listing_etl", Name: "enrichment_job_duration_seconds"}),
		PipelineRunning:  prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "listing_etl", Name: "pipeline_running"}),
		GeocodeRequests:  prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "listing_etl", Name: "geocode_requests_total"}, []string{"outcome"}),
		GeocodeDuration:  prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "listing_etl", Name: "geocode_api_duration_seconds"}),
		ForecastRequests: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "listing_etl", Name: "forecast_requests_total"}, []string{"stage", "outcome"}),
		ForecastDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "listing_etl", Name: "forecast_api_duration_seconds"}, []string{"stage"}),
		RefreshSweeps:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "listing_etl", Name: "refresh_sweeps_total"}),
		RefreshLinks:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "listing_etl", Name: "refresh_links_total"}, []string{"outcome"}),
		RefreshDuration:  prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "listing_etl", Name: "refresh_sweep_duration_seconds"}),
		StatsStoreErrors: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "listing_etl", Name: "stats_store_errors_total"}),
	}
}
