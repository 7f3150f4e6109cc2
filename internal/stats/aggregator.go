// Package stats implements the per-run statistics aggregator. Many
// concurrently executing enrichment jobs report into one run record through
// the store's per-field atomic operations; the aggregator itself holds no
// state beyond its dependencies.
//
// Every store write here is best-effort: a failed operation is logged and
// counted, never raised. The run's final statistics may under-count if writes
// were dropped, which is an accepted trade for availability.
package stats

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/listing-weather-etl/internal/domain"
	"github.com/couchcryptid/listing-weather-etl/internal/observability"
)

// Aggregator accumulates run statistics on behalf of concurrent enrichment
// jobs and the ingestion driver.
type Aggregator struct {
	store   domain.StatsStore
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates an Aggregator over the given statistics store.
func New(store domain.StatsStore, logger *slog.Logger, metrics *observability.Metrics) *Aggregator {
	return &Aggregator{store: store, logger: logger, metrics: metrics}
}

// StartRun creates a zeroed statistics record for a fresh ingestion pass and
// returns its run ID. The ID is returned even if the create was dropped:
// every later per-field operation initializes missing fields on first touch,
// so the run self-heals.
func (a *Aggregator) StartRun(ctx context.Context, totalInFeed int) string {
	runID := uuid.NewString()
	if err := a.store.CreateRun(ctx, domain.NewRunStatistics(runID, totalInFeed)); err != nil {
		a.dropped("create_run", runID, err)
	}
	return runID
}

// IncrementCounter atomically adds delta to a single counter field.
func (a *Aggregator) IncrementCounter(ctx context.Context, runID string, field domain.CounterField, delta int) {
	if err := a.store.IncrementCounter(ctx, runID, field, delta); err != nil {
		a.dropped(string(field), runID, err)
	}
}

// AddDuration atomically adds delta to a single duration accumulator.
func (a *Aggregator) AddDuration(ctx context.Context, runID string, field domain.DurationField, delta time.Duration) {
	if err := a.store.AddDuration(ctx, runID, field, delta); err != nil {
		a.dropped(string(field), runID, err)
	}
}

// AppendPropertyRuntime appends one per-property parse timing record.
func (a *Aggregator) AppendPropertyRuntime(ctx context.Context, runID string, rt domain.PropertyRuntime) {
	if err := a.store.AppendPropertyRuntime(ctx, runID, rt); err != nil {
		a.dropped(string(domain.ListPropertyRuntimes), runID, err)
	}
}

// RecordOutcome folds one finished enrichment job into the run record. The
// geocode stage always ran, so its time is always accumulated; the weather
// time is added whenever the forecast stage was reached; the combined totals
// and the background call counter move only on full success, keeping the
// average denominators paired with their numerators.
func (a *Aggregator) RecordOutcome(ctx context.Context, runID string, o domain.Outcome) {
	a.AddDuration(ctx, runID, domain.DurationTotalGeocodingAPI, o.GeocodeTime)
	if o.Status != domain.OutcomeGeocodeMiss {
		a.AddDuration(ctx, runID, domain.DurationTotalWeatherAPI, o.ForecastTime)
	}
	if o.Success() {
		a.AddDuration(ctx, runID, domain.DurationTotalAPISum, o.APISumTime)
		a.AddDuration(ctx, runID, domain.DurationTotalBackground, o.TotalTime)
		a.IncrementCounter(ctx, runID, domain.CounterBackgroundAPICalls, 1)
	}

	detail := domain.JobDetail{
		PropertyID:   o.PropertyID,
		Status:       string(o.Status),
		GeocodeTime:  o.GeocodeTime,
		ForecastTime: o.ForecastTime,
		APISumTime:   o.APISumTime,
	}
	if err := a.store.AppendJobDetail(ctx, runID, detail); err != nil {
		a.dropped(string(domain.ListBackgroundJobDetails), runID, err)
	}
}

// RecomputeAverages reads the current totals and rewrites the three derived
// average fields. Division by zero yields zero. The read-then-write is not
// atomic with concurrent counter updates: an average computed while other
// jobs are still contributing may be based on a stale numerator/denominator
// pair. That is a documented property of the run record, not a defect —
// callers invoke this after their own increments have committed, and the last
// job to finish leaves the averages consistent.
func (a *Aggregator) RecomputeAverages(ctx context.Context, runID string) {
	run, err := a.store.GetRun(ctx, runID)
	if err != nil {
		a.dropped("recompute_averages", runID, err)
		return
	}

	avg := domain.Averages{
		TimePerPropertyBackground:  safeDiv(run.TotalBackgroundTime, run.BackgroundAPICallsCount),
		APICallTime:                safeDiv(run.TotalAPISumTime, run.BackgroundAPICallsCount),
		ParseTimePerTargetProperty: safeDiv(run.TotalTargetParsingTime, run.TargetPropertiesProcessed),
	}
	if err := a.store.SetAverages(ctx, runID, avg); err != nil {
		a.dropped("set_averages", runID, err)
	}
}

// FinalizeRun writes the driver's end-of-pass totals and recomputes averages
// one last time.
func (a *Aggregator) FinalizeRun(ctx context.Context, runID string, totals domain.RunTotals) {
	if err := a.store.SetRunTotals(ctx, runID, totals); err != nil {
		a.dropped("set_run_totals", runID, err)
	}
	a.RecomputeAverages(ctx, runID)
}

// Snapshot returns the current run record.
func (a *Aggregator) Snapshot(ctx context.Context, runID string) (domain.RunStatistics, error) {
	return a.store.GetRun(ctx, runID)
}

func (a *Aggregator) dropped(op, runID string, err error) {
	a.logger.Warn("statistics write dropped", "op", op, "run_id", runID, "error", err)
	a.metrics.StatsStoreErrors.Inc()
}

func safeDiv(total time.Duration, count int) time.Duration {
	if count <= 0 {
		return 0
	}
	return total / time.Duration(count)
}
