package domain

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrRunNotFound is returned by StatsStore.GetRun for an unknown run ID.
	ErrRunNotFound = errors.New("run not found")
	// ErrForecastNotFound is returned by RecordStore.GetForecast for a
	// property without stored forecast state.
	ErrForecastNotFound = errors.New("forecast not found")
)

// Geocoder resolves a normalized address to coordinates. found is false when
// the provider returned an empty result set or a result without coordinate
// fields; err reports transport or provider failures.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (coord Coordinates, found bool, err error)
}

// ForecastResolver is the two-hop forecast provider: a points lookup resolves
// the forecast endpoint for a coordinate pair, then a fetch of that endpoint
// returns the forecast document.
type ForecastResolver interface {
	ResolveEndpoint(ctx context.Context, coord Coordinates) (string, error)
	FetchForecast(ctx context.Context, endpoint string) (ForecastDocument, error)
}

// StatsStore is the run-statistics store contract. IncrementCounter,
// AddDuration, and the append methods are atomic read-modify-write operations
// scoped to a single field of a single run record: the first caller implicitly
// initializes the field (existing-or-zero plus delta), and concurrent callers
// each see their own delta reflected exactly once.
type StatsStore interface {
	CreateRun(ctx context.Context, stats RunStatistics) error
	GetRun(ctx context.Context, runID string) (RunStatistics, error)
	IncrementCounter(ctx context.Context, runID string, field CounterField, delta int) error
	AddDuration(ctx context.Context, runID string, field DurationField, delta time.Duration) error
	AppendJobDetail(ctx context.Context, runID string, detail JobDetail) error
	AppendPropertyRuntime(ctx context.Context, runID string, rt PropertyRuntime) error
	SetAverages(ctx context.Context, runID string, avg Averages) error
	SetRunTotals(ctx context.Context, runID string, totals RunTotals) error
}

// RecordStore persists property records and their forecast state, keyed by
// property ID. Puts overwrite.
type RecordStore interface {
	PutProperty(ctx context.Context, p Property) error
	PutForecast(ctx context.Context, f RecordForecast) error
	GetForecast(ctx context.Context, propertyID string) (RecordForecast, error)
}

// LinkStore persists property→forecast-endpoint links. List is a full scan;
// no cursor is kept between sweeps.
type LinkStore interface {
	PutLink(ctx context.Context, link ForecastLink) error
	ListLinks(ctx context.Context) ([]ForecastLink, error)
}
