// Package refresh keeps stored forecasts current. A recurring sweep walks the
// forecast link table and refetches each linked endpoint, overwriting the
// stored forecast in place. Sweeps never touch run statistics; those belong to
// ingestion passes.
package refresh

import (
	"context"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/listing-weather-etl/internal/domain"
	"github.com/couchcryptid/listing-weather-etl/internal/observability"
)

// Sweeper performs one refresh pass over the forecast link table.
type Sweeper struct {
	links     domain.LinkStore
	records   domain.RecordStore
	forecasts domain.ForecastResolver
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewSweeper creates a Sweeper.
func NewSweeper(
	links domain.LinkStore,
	records domain.RecordStore,
	forecasts domain.ForecastResolver,
	clock clockwork.Clock,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *Sweeper {
	return &Sweeper{
		links:     links,
		records:   records,
		forecasts: forecasts,
		clock:     clock,
		logger:    logger,
		metrics:   metrics,
	}
}

// RunOnce refreshes every linked forecast. One link's failure is logged and
// skipped; the rest of the sweep proceeds. The stale forecast stays in place
// until a later sweep succeeds.
func (s *Sweeper) RunOnce(ctx context.Context) error {
	start := s.clock.Now()

	links, err := s.links.ListLinks(ctx)
	if err != nil {
		s.logger.Error("list forecast links failed", "error", err)
		return err
	}

	refreshed := 0
	for _, link := range links {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := s.refreshLink(ctx, link); err != nil {
			s.logger.Warn("refresh failed", "property_id", link.PropertyID,
				"endpoint", link.ForecastURL, "error", err)
			s.metrics.RefreshLinks.WithLabelValues("failed").Inc()
			continue
		}
		s.metrics.RefreshLinks.WithLabelValues("refreshed").Inc()
		refreshed++
	}

	s.metrics.RefreshSweeps.Inc()
	s.metrics.RefreshDuration.Observe(s.clock.Since(start).Seconds())
	s.logger.Info("refresh sweep finished",
		"links", len(links), "refreshed", refreshed, "duration", s.clock.Since(start))
	return nil
}

func (s *Sweeper) refreshLink(ctx context.Context, link domain.ForecastLink) error {
	doc, err := s.forecasts.FetchForecast(ctx, link.ForecastURL)
	if err != nil {
		return err
	}
	summary, detail, err := domain.NextPeriod(doc)
	if err != nil {
		return err
	}
	return s.records.PutForecast(ctx, domain.RecordForecast{
		PropertyID:       link.PropertyID,
		Document:         doc.Raw,
		NextPeriod:       summary,
		NextPeriodDetail: detail,
		UpdatedAt:        s.clock.Now(),
	})
}
