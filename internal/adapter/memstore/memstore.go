// Package memstore provides mutex-guarded in-memory implementations of the
// statistics, record, and link store ports. It backs local development and
// tests; production deployments use the dynamo adapter.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/couchcryptid/listing-weather-etl/internal/domain"
)

// Store implements domain.StatsStore, domain.RecordStore, and
// domain.LinkStore. All mutations are per-field read-modify-writes under a
// single mutex, which makes each field update linearizable under arbitrary
// interleaving of concurrent jobs.
type Store struct {
	mu         sync.Mutex
	runs       map[string]*domain.RunStatistics
	properties map[string]domain.Property
	forecasts  map[string]domain.RecordForecast
	links      map[string]domain.ForecastLink
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		runs:       make(map[string]*domain.RunStatistics),
		properties: make(map[string]domain.Property),
		forecasts:  make(map[string]domain.RecordForecast),
		links:      make(map[string]domain.ForecastLink),
	}
}

// run returns the record for runID, creating a zeroed one if absent. Callers
// must hold mu. Implicit creation mirrors the store contract: increments and
// appends never require a separate create step.
func (s *Store) run(runID string) *domain.RunStatistics {
	r, ok := s.runs[runID]
	if !ok {
		stats := domain.NewRunStatistics(runID, 0)
		r = &stats
		s.runs[runID] = r
	}
	return r
}

func (s *Store) CreateRun(_ context.Context, stats domain.RunStatistics) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[stats.RunID] = &stats
	return nil
}

func (s *Store) GetRun(_ context.Context, runID string) (domain.RunStatistics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.runs[runID]
	if !ok {
		return domain.RunStatistics{}, domain.ErrRunNotFound
	}

	out := *r
	out.BackgroundJobDetails = append([]domain.JobDetail(nil), r.BackgroundJobDetails...)
	out.PropertyRuntimes = append([]domain.PropertyRuntime(nil), r.PropertyRuntimes...)
	return out, nil
}

func (s *Store) IncrementCounter(_ context.Context, runID string, field domain.CounterField, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.run(runID)
	switch field {
	case domain.CounterSuccessfulAPICalls:
		r.SuccessfulAPICalls += delta
	case domain.CounterBackgroundAPICalls:
		r.BackgroundAPICallsCount += delta
	case domain.CounterPropertiesAdded:
		r.PropertiesAdded += delta
	case domain.CounterDuplicateTargetsSkipped:
		r.DuplicateTargetsSkipped += delta
	case domain.CounterTargetPropertiesProcessed:
		r.TargetPropertiesProcessed += delta
	}
	return nil
}

func (s *Store) AddDuration(_ context.Context, runID string, field domain.DurationField, delta time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.run(runID)
	switch field {
	case domain.DurationTotalBackground:
		r.TotalBackgroundTime += delta
	case domain.DurationTotalAPISum:
		r.TotalAPISumTime += delta
	case domain.DurationTotalGeocodingAPI:
		r.TotalGeocodingAPITime += delta
	case domain.DurationTotalWeatherAPI:
		r.TotalWeatherAPITime += delta
	case domain.DurationTotalTargetParsing:
		r.TotalTargetParsingTime += delta
	case domain.DurationTotalRun:
		r.TotalRunTime += delta
	}
	return nil
}

func (s *Store) AppendJobDetail(_ context.Context, runID string, detail domain.JobDetail) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.run(runID)
	r.BackgroundJobDetails = append(r.BackgroundJobDetails, detail)
	return nil
}

func (s *Store) AppendPropertyRuntime(_ context.Context, runID string, rt domain.PropertyRuntime) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.run(runID)
	r.PropertyRuntimes = append(r.PropertyRuntimes, rt)
	return nil
}

func (s *Store) SetAverages(_ context.Context, runID string, avg domain.Averages) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.run(runID)
	r.AverageTimePerPropertyBackground = avg.TimePerPropertyBackground
	r.AverageAPICallTime = avg.APICallTime
	r.AverageParseTimePerTargetProperty = avg.ParseTimePerTargetProperty
	return nil
}

func (s *Store) SetRunTotals(_ context.Context, runID string, totals domain.RunTotals) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.run(runID)
	r.TotalTargetParsingTime = totals.TotalTargetParsingTime
	r.TotalRunTime = totals.TotalRunTime
	r.TargetPropertiesProcessed = totals.TargetPropertiesProcessed
	return nil
}

func (s *Store) PutProperty(_ context.Context, p domain.Property) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.properties[p.ID] = p
	return nil
}

func (s *Store) PutForecast(_ context.Context, f domain.RecordForecast) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forecasts[f.PropertyID] = f
	return nil
}

func (s *Store) GetForecast(_ context.Context, propertyID string) (domain.RecordForecast, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.forecasts[propertyID]
	if !ok {
		return domain.RecordForecast{}, domain.ErrForecastNotFound
	}
	return f, nil
}

func (s *Store) PutLink(_ context.Context, link domain.ForecastLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.links[link.PropertyID] = link
	return nil
}

func (s *Store) ListLinks(_ context.Context) ([]domain.ForecastLink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	links := make([]domain.ForecastLink, 0, len(s.links))
	for _, l := range s.links {
		links = append(links, l)
	}
	sort.Slice(links, func(i, j int) bool { return links[i].PropertyID < links[j].PropertyID })
	return links, nil
}
