package stats_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/listing-weather-etl/internal/adapter/memstore"
	"github.com/couchcryptid/listing-weather-etl/internal/domain"
	"github.com/couchcryptid/listing-weather-etl/internal/observability"
	"github.com/couchcryptid/listing-weather-etl/internal/stats"
)

func newAggregator(store domain.StatsStore) *stats.Aggregator {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return stats.New(store, logger, observability.NewMetricsForTesting())
}

func TestStartRun_CreatesZeroedRecord(t *testing.T) {
	store := memstore.New()
	agg := newAggregator(store)
	ctx := context.Background()

	runID := agg.StartRun(ctx, 75)
	require.NotEmpty(t, runID)

	run, err := store.GetRun(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, 75, run.TotalPropertiesInFeed)
	assert.Zero(t, run.SuccessfulAPICalls)
	assert.Empty(t, run.BackgroundJobDetails)
	assert.Empty(t, run.PropertyRuntimes)
}

func TestIncrementCounter_ConcurrentSumsToN(t *testing.T) {
	store := memstore.New()
	agg := newAggregator(store)
	ctx := context.Background()
	runID := agg.StartRun(ctx, 0)

	const n = 150
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			agg.IncrementCounter(ctx, runID, domain.CounterSuccessfulAPICalls, 1)
		}()
	}
	wg.Wait()

	run, err := store.GetRun(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, n, run.SuccessfulAPICalls)
}

func TestRecordOutcome_ConcurrentSuccessesAccumulateExactly(t *testing.T) {
	store := memstore.New()
	agg := newAggregator(store)
	ctx := context.Background()
	runID := agg.StartRun(ctx, 0)

	// Two jobs for the same record finish concurrently with 1.2s and 0.8s.
	outcomes := []domain.Outcome{
		{PropertyID: "P1", Status: domain.OutcomeSuccess, GeocodeTime: 500 * time.Millisecond, ForecastTime: 700 * time.Millisecond, APISumTime: 1200 * time.Millisecond, TotalTime: 1200 * time.Millisecond},
		{PropertyID: "P1", Status: domain.OutcomeSuccess, GeocodeTime: 300 * time.Millisecond, ForecastTime: 500 * time.Millisecond, APISumTime: 800 * time.Millisecond, TotalTime: 800 * time.Millisecond},
	}

	var wg sync.WaitGroup
	for _, o := range outcomes {
		wg.Add(1)
		go func(o domain.Outcome) {
			defer wg.Done()
			agg.RecordOutcome(ctx, runID, o)
		}(o)
	}
	wg.Wait()

	run, err := store.GetRun(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, run.TotalBackgroundTime)
	assert.Equal(t, 2, run.BackgroundAPICallsCount)
	assert.Equal(t, 800*time.Millisecond, run.TotalGeocodingAPITime)
	assert.Equal(t, 1200*time.Millisecond, run.TotalWeatherAPITime)
	assert.Len(t, run.BackgroundJobDetails, 2)
}

func TestRecordOutcome_GeocodeMissReportsPartialTiming(t *testing.T) {
	store := memstore.New()
	agg := newAggregator(store)
	ctx := context.Background()
	runID := agg.StartRun(ctx, 0)

	agg.RecordOutcome(ctx, runID, domain.Outcome{
		PropertyID:  "P9",
		Status:      domain.OutcomeGeocodeMiss,
		GeocodeTime: 400 * time.Millisecond,
	})

	run, err := store.GetRun(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, 400*time.Millisecond, run.TotalGeocodingAPITime)
	assert.Zero(t, run.TotalWeatherAPITime)
	assert.Zero(t, run.TotalBackgroundTime)
	assert.Zero(t, run.BackgroundAPICallsCount)
	require.Len(t, run.BackgroundJobDetails, 1)
	assert.Equal(t, string(domain.OutcomeGeocodeMiss), run.BackgroundJobDetails[0].Status)
}

func TestRecomputeAverages(t *testing.T) {
	store := memstore.New()
	agg := newAggregator(store)
	ctx := context.Background()
	runID := agg.StartRun(ctx, 0)

	agg.RecordOutcome(ctx, runID, domain.Outcome{
		PropertyID: "P1", Status: domain.OutcomeSuccess,
		GeocodeTime: time.Second, ForecastTime: time.Second,
		APISumTime: 2 * time.Second, TotalTime: 3 * time.Second,
	})
	agg.RecordOutcome(ctx, runID, domain.Outcome{
		PropertyID: "P2", Status: domain.OutcomeSuccess,
		GeocodeTime: time.Second, ForecastTime: time.Second,
		APISumTime: 2 * time.Second, TotalTime: time.Second,
	})
	agg.RecomputeAverages(ctx, runID)

	run, err := store.GetRun(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, run.AverageTimePerPropertyBackground)
	assert.Equal(t, 2*time.Second, run.AverageAPICallTime)
}

func TestRecomputeAverages_ZeroCountYieldsZero(t *testing.T) {
	store := memstore.New()
	agg := newAggregator(store)
	ctx := context.Background()
	runID := agg.StartRun(ctx, 0)

	agg.RecomputeAverages(ctx, runID)

	run, err := store.GetRun(ctx, runID)
	require.NoError(t, err)
	assert.Zero(t, run.AverageTimePerPropertyBackground)
	assert.Zero(t, run.AverageAPICallTime)
	assert.Zero(t, run.AverageParseTimePerTargetProperty)
}

func TestFinalizeRun_WritesTotalsAndParseAverage(t *testing.T) {
	store := memstore.New()
	agg := newAggregator(store)
	ctx := context.Background()
	runID := agg.StartRun(ctx, 10)

	agg.FinalizeRun(ctx, runID, domain.RunTotals{
		TotalTargetParsingTime:    900 * time.Millisecond,
		TotalRunTime:              5 * time.Second,
		TargetPropertiesProcessed: 3,
	})

	run, err := store.GetRun(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, 900*time.Millisecond, run.TotalTargetParsingTime)
	assert.Equal(t, 5*time.Second, run.TotalRunTime)
	assert.Equal(t, 3, run.TargetPropertiesProcessed)
	assert.Equal(t, 300*time.Millisecond, run.AverageParseTimePerTargetProperty)
}

// failingStore errors on every operation to exercise best-effort handling.
type failingStore struct{ err error }

func (f *failingStore) CreateRun(context.Context, domain.RunStatistics) error { return f.err }
func (f *failingStore) GetRun(context.Context, string) (domain.RunStatistics, error) {
	return domain.RunStatistics{}, f.err
}
func (f *failingStore) IncrementCounter(context.Context, string, domain.CounterField, int) error {
	return f.err
}
func (f *failingStore) AddDuration(context.Context, string, domain.DurationField, time.Duration) error {
	return f.err
}
func (f *failingStore) AppendJobDetail(context.Context, string, domain.JobDetail) error {
	return f.err
}
func (f *failingStore) AppendPropertyRuntime(context.Context, string, domain.PropertyRuntime) error {
	return f.err
}
func (f *failingStore) SetAverages(context.Context, string, domain.Averages) error { return f.err }
func (f *failingStore) SetRunTotals(context.Context, string, domain.RunTotals) error {
	return f.err
}

func TestAggregator_StoreFailuresAreAbsorbed(t *testing.T) {
	agg := newAggregator(&failingStore{err: errors.New("throttled")})
	ctx := context.Background()

	// None of these may panic or propagate the store error.
	runID := agg.StartRun(ctx, 5)
	require.NotEmpty(t, runID)
	agg.IncrementCounter(ctx, runID, domain.CounterPropertiesAdded, 1)
	agg.AddDuration(ctx, runID, domain.DurationTotalRun, time.Second)
	agg.RecordOutcome(ctx, runID, domain.Outcome{PropertyID: "P1", Status: domain.OutcomeSuccess})
	agg.RecomputeAverages(ctx, runID)
	agg.FinalizeRun(ctx, runID, domain.RunTotals{})
}
