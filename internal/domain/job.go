package domain

import "time"

// EnrichmentJob is the unit of work published by the ingestion driver and
// consumed by the worker pool. Address is already normalized. Delivery is
// at-least-once with no ordering guarantee.
type EnrichmentJob struct {
	PropertyID string `json:"property_id"`
	Address    string `json:"address"`
	RunID      string `json:"run_id"`
}

// OutcomeStatus classifies how an enrichment job ended.
type OutcomeStatus string

const (
	// OutcomeSuccess: coordinates resolved, forecast fetched and persisted.
	OutcomeSuccess OutcomeStatus = "success"
	// OutcomeGeocodeMiss: the geocoding provider returned no usable
	// coordinates; the forecast stage never ran.
	OutcomeGeocodeMiss OutcomeStatus = "geocode_miss"
	// OutcomeForecastFailed: endpoint resolution or forecast fetch failed.
	OutcomeForecastFailed OutcomeStatus = "forecast_failed"
	// OutcomeMalformedForecast: the provider document broke the contract
	// (empty period sequence). Not retried.
	OutcomeMalformedForecast OutcomeStatus = "malformed_forecast"
)

// Outcome is the result of one enrichment job execution, consumed only by the
// statistics aggregator. Immutable after creation.
type Outcome struct {
	PropertyID   string        `json:"property_id"`
	Status       OutcomeStatus `json:"status"`
	GeocodeTime  time.Duration `json:"geocode_time"`
	ForecastTime time.Duration `json:"forecast_time"`
	APISumTime   time.Duration `json:"api_sum_time"`
	TotalTime    time.Duration `json:"total_time"`
}

// Success reports whether the job completed the full pipeline.
func (o Outcome) Success() bool { return o.Status == OutcomeSuccess }
