// Package enrich executes enrichment jobs: geocode the listing address, fetch
// the weather forecast, persist the results, and report timings into the run
// statistics.
package enrich

import (
	"context"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/listing-weather-etl/internal/domain"
	"github.com/couchcryptid/listing-weather-etl/internal/stats"
)

// Enricher runs enrichment jobs against injected collaborators. Instances are
// safe for concurrent use; each Run owns only its local state, and all shared
// mutation goes through the stores' per-field atomic operations.
type Enricher struct {
	geocoder  domain.Geocoder
	forecasts domain.ForecastResolver
	records   domain.RecordStore
	links     domain.LinkStore
	stats     *stats.Aggregator
	clock     clockwork.Clock
	logger    *slog.Logger
}

// New creates an Enricher.
func New(
	geocoder domain.Geocoder,
	forecasts domain.ForecastResolver,
	records domain.RecordStore,
	links domain.LinkStore,
	agg *stats.Aggregator,
	clock clockwork.Clock,
	logger *slog.Logger,
) *Enricher {
	return &Enricher{
		geocoder:  geocoder,
		forecasts: forecasts,
		records:   records,
		links:     links,
		stats:     agg,
		clock:     clock,
		logger:    logger,
	}
}

// Run executes one enrichment job to completion. Every failure is absorbed:
// the returned outcome classifies what happened, and nothing propagates to
// the caller — a single record's failure must never block the run.
//
// Successful side effects are ordered: forecast write, link write, success
// counter, timing report, average recompute. There is no cross-step rollback;
// a crash between steps leaves a stale link that the next successful
// enrichment of the record corrects.
func (e *Enricher) Run(ctx context.Context, job domain.EnrichmentJob) domain.Outcome {
	start := e.clock.Now()

	geoStart := e.clock.Now()
	coord, found, err := e.geocoder.Geocode(ctx, job.Address)
	geocodeTime := e.clock.Since(geoStart)

	if err != nil || !found {
		if err != nil {
			e.logger.Warn("geocoding failed", "property_id", job.PropertyID, "address", job.Address, "error", err)
		} else {
			e.logger.Info("no coordinates for address", "property_id", job.PropertyID, "address", job.Address)
		}
		outcome := domain.Outcome{
			PropertyID:  job.PropertyID,
			Status:      domain.OutcomeGeocodeMiss,
			GeocodeTime: geocodeTime,
			TotalTime:   e.clock.Since(start),
		}
		e.report(ctx, job.RunID, outcome)
		return outcome
	}

	fcStart := e.clock.Now()
	endpoint, err := e.forecasts.ResolveEndpoint(ctx, coord)
	var doc domain.ForecastDocument
	if err == nil {
		doc, err = e.forecasts.FetchForecast(ctx, endpoint)
	}
	forecastTime := e.clock.Since(fcStart)

	if err != nil {
		e.logger.Warn("forecast fetch failed", "property_id", job.PropertyID,
			"lat", coord.Lat, "lon", coord.Lon, "error", err)
		outcome := domain.Outcome{
			PropertyID:   job.PropertyID,
			Status:       domain.OutcomeForecastFailed,
			GeocodeTime:  geocodeTime,
			ForecastTime: forecastTime,
			TotalTime:    e.clock.Since(start),
		}
		e.report(ctx, job.RunID, outcome)
		return outcome
	}

	summary, detail, err := domain.NextPeriod(doc)
	if err != nil {
		// Data-contract violation: a well-formed document with no periods.
		// Skipped, not retried.
		e.logger.Error("malformed forecast document", "property_id", job.PropertyID,
			"endpoint", endpoint, "error", err)
		outcome := domain.Outcome{
			PropertyID:   job.PropertyID,
			Status:       domain.OutcomeMalformedForecast,
			GeocodeTime:  geocodeTime,
			ForecastTime: forecastTime,
			TotalTime:    e.clock.Since(start),
		}
		e.report(ctx, job.RunID, outcome)
		return outcome
	}

	forecast := domain.RecordForecast{
		PropertyID:       job.PropertyID,
		Document:         doc.Raw,
		NextPeriod:       summary,
		NextPeriodDetail: detail,
		UpdatedAt:        e.clock.Now(),
	}
	if err := e.records.PutForecast(ctx, forecast); err != nil {
		e.logger.Warn("forecast write dropped", "property_id", job.PropertyID, "error", err)
	}
	if err := e.links.PutLink(ctx, domain.ForecastLink{PropertyID: job.PropertyID, ForecastURL: endpoint}); err != nil {
		e.logger.Warn("forecast link write dropped", "property_id", job.PropertyID, "error", err)
	}

	e.stats.IncrementCounter(ctx, job.RunID, domain.CounterSuccessfulAPICalls, 1)

	outcome := domain.Outcome{
		PropertyID:   job.PropertyID,
		Status:       domain.OutcomeSuccess,
		GeocodeTime:  geocodeTime,
		ForecastTime: forecastTime,
		APISumTime:   geocodeTime + forecastTime,
		TotalTime:    e.clock.Since(start),
	}
	e.report(ctx, job.RunID, outcome)

	e.logger.Info("property enriched", "property_id", job.PropertyID,
		"short_forecast", summary.ShortForecast, "api_time", outcome.APISumTime)
	return outcome
}

// report records the outcome's timings and refreshes the derived averages so
// the statistics stay queryable while the run is in flight.
func (e *Enricher) report(ctx context.Context, runID string, outcome domain.Outcome) {
	e.stats.RecordOutcome(ctx, runID, outcome)
	e.stats.RecomputeAverages(ctx, runID)
}
