package domain

import (
	"encoding/json"
	"time"
)

// Property is one enrichable listing extracted from the feed.
type Property struct {
	ID              string `json:"property_id"`
	Name            string `json:"name,omitempty"`
	Email           string `json:"email,omitempty"`
	City            string `json:"city,omitempty"`
	UnparsedAddress string `json:"unparsed_address,omitempty"`
	Bedrooms        int    `json:"bedrooms"`
}

// Coordinates is a latitude/longitude pair as returned by the geocoding
// provider. Values stay decimal strings end to end; the forecast provider
// accepts them verbatim.
type Coordinates struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// ForecastLink is the durable pointer from a property to the forecast endpoint
// last used to fetch its forecast. Property ID is the unique key; re-enriching
// a property overwrites its link.
type ForecastLink struct {
	PropertyID  string `json:"property_id"`
	ForecastURL string `json:"forecast_url"`
}

// RecordForecast is the weather state stored on a property record. It is
// overwritten in place on every successful enrichment or refresh sweep pass;
// no history is kept.
type RecordForecast struct {
	PropertyID       string          `json:"property_id"`
	Document         json.RawMessage `json:"weather_data"`
	NextPeriod       ForecastSummary `json:"next_period_weather_data"`
	NextPeriodDetail string          `json:"next_period_forecast"`
	UpdatedAt        time.Time       `json:"updated_at"`
}
