package domain

import (
	"encoding/json"
	"errors"
)

// ErrNoPeriods reports a forecast document whose period sequence is empty.
// The provider contract promises at least one period, so this is a
// data-contract violation, not a transient condition.
var ErrNoPeriods = errors.New("forecast document has no periods")

// ForecastPeriod is one entry of a forecast document's period sequence.
type ForecastPeriod struct {
	Number           int    `json:"number"`
	Name             string `json:"name"`
	StartTime        string `json:"startTime"`
	EndTime          string `json:"endTime"`
	IsDaytime        bool   `json:"isDaytime"`
	Temperature      int    `json:"temperature"`
	TemperatureUnit  string `json:"temperatureUnit"`
	WindSpeed        string `json:"windSpeed"`
	WindDirection    string `json:"windDirection"`
	ShortForecast    string `json:"shortForecast"`
	DetailedForecast string `json:"detailedForecast"`
}

// ForecastDocument pairs the raw provider document with its parsed period
// sequence. Raw is persisted verbatim so downstream readers see the full
// provider payload, not just the fields this service understands.
type ForecastDocument struct {
	Raw     json.RawMessage
	Periods []ForecastPeriod
}

// ForecastSummary is the condensed next-period forecast stored on a property.
type ForecastSummary struct {
	Temperature     int    `json:"temperature"`
	TemperatureUnit string `json:"temperature_unit"`
	ShortForecast   string `json:"short_forecast"`
}

// NextPeriod extracts the head-of-sequence summary and detail text from a
// forecast document. Returns ErrNoPeriods when the period sequence is empty.
func NextPeriod(doc ForecastDocument) (ForecastSummary, string, error) {
	if len(doc.Periods) == 0 {
		return ForecastSummary{}, "", ErrNoPeriods
	}
	head := doc.Periods[0]
	summary := ForecastSummary{
		Temperature:     head.Temperature,
		TemperatureUnit: head.TemperatureUnit,
		ShortForecast:   head.ShortForecast,
	}
	return summary, head.DetailedForecast, nil
}
