package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/listing-weather-etl/internal/domain"
	"github.com/couchcryptid/listing-weather-etl/internal/observability"
	"github.com/couchcryptid/listing-weather-etl/internal/stats"
)

// JobSink accepts enrichment jobs for asynchronous execution. Satisfied by
// both the in-process queue and the Kafka publisher.
type JobSink interface {
	Publish(ctx context.Context, job domain.EnrichmentJob) error
}

// Ingestor runs one ingestion pass over a listing feed.
type Ingestor struct {
	stats      *stats.Aggregator
	records    domain.RecordStore
	sink       JobSink
	targetCity string
	clock      clockwork.Clock
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewIngestor creates an Ingestor that filters the feed to targetCity.
func NewIngestor(
	agg *stats.Aggregator,
	records domain.RecordStore,
	sink JobSink,
	targetCity string,
	clock clockwork.Clock,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *Ingestor {
	return &Ingestor{
		stats:      agg,
		records:    records,
		sink:       sink,
		targetCity: targetCity,
		clock:      clock,
		logger:     logger,
		metrics:    metrics,
	}
}

// Run parses the feed, persists every target-city property, and publishes one
// enrichment job per property. It returns the run ID of the statistics record
// the pass accumulated into.
//
// Duplicate property IDs are counted and skipped before the city filter, so a
// duplicate of a non-target property still moves the duplicate counter. A
// publish failure fails the pass: a stored property without a job would never
// be enriched.
func (i *Ingestor) Run(ctx context.Context, r io.Reader) (string, error) {
	runStart := i.clock.Now()

	properties, err := Parse(r)
	if err != nil {
		return "", err
	}

	runID := i.stats.StartRun(ctx, len(properties))
	i.logger.Info("ingestion started", "run_id", runID,
		"total_in_feed", len(properties), "target_city", i.targetCity)

	seen := make(map[string]struct{}, len(properties))
	processed := 0
	var totalParsing time.Duration

	for _, p := range properties {
		if _, dup := seen[p.ID]; dup {
			i.logger.Debug("skipping duplicate property", "run_id", runID, "property_id", p.ID)
			i.stats.IncrementCounter(ctx, runID, domain.CounterDuplicateTargetsSkipped, 1)
			continue
		}
		seen[p.ID] = struct{}{}

		if p.City != i.targetCity {
			continue
		}
		processed++

		parseStart := i.clock.Now()
		if err := i.records.PutProperty(ctx, p); err != nil {
			return runID, fmt.Errorf("store property %s: %w", p.ID, err)
		}
		job := domain.EnrichmentJob{
			PropertyID: p.ID,
			Address:    domain.NormalizeAddress(p.UnparsedAddress),
			RunID:      runID,
		}
		parseTime := i.clock.Since(parseStart)
		totalParsing += parseTime

		i.stats.AppendPropertyRuntime(ctx, runID, domain.PropertyRuntime{
			PropertyID: p.ID,
			ParseTime:  parseTime,
		})

		if err := i.sink.Publish(ctx, job); err != nil {
			return runID, fmt.Errorf("publish job for property %s: %w", p.ID, err)
		}
		i.metrics.JobsPublished.Inc()
		i.stats.IncrementCounter(ctx, runID, domain.CounterPropertiesAdded, 1)
	}

	i.stats.FinalizeRun(ctx, runID, domain.RunTotals{
		TotalTargetParsingTime:    totalParsing,
		TotalRunTime:              i.clock.Since(runStart),
		TargetPropertiesProcessed: processed,
	})

	i.logger.Info("ingestion finished", "run_id", runID,
		"target_properties", processed, "duration", i.clock.Since(runStart))
	return runID, nil
}
