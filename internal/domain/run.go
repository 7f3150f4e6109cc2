package domain

import "time"

// CounterField names an integer counter on a RunStatistics record. The string
// value doubles as the store attribute name.
type CounterField string

const (
	CounterSuccessfulAPICalls        CounterField = "successful_api_calls"
	CounterBackgroundAPICalls        CounterField = "background_api_calls_count"
	CounterPropertiesAdded           CounterField = "properties_added"
	CounterDuplicateTargetsSkipped   CounterField = "duplicate_targets_skipped"
	CounterTargetPropertiesProcessed CounterField = "target_properties_processed"
)

// DurationField names a duration accumulator on a RunStatistics record.
type DurationField string

const (
	DurationTotalBackground    DurationField = "total_background_time"
	DurationTotalAPISum        DurationField = "total_api_sum_time"
	DurationTotalGeocodingAPI  DurationField = "total_geocoding_api_time"
	DurationTotalWeatherAPI    DurationField = "total_weather_api_time"
	DurationTotalTargetParsing DurationField = "total_target_parsing_time"
	DurationTotalRun           DurationField = "total_run_time"
)

// ListField names an append-only list on a RunStatistics record.
type ListField string

const (
	ListBackgroundJobDetails ListField = "background_job_details"
	ListPropertyRuntimes     ListField = "property_runtimes"
)

// JobDetail is one entry of the background_job_details list: the timing record
// an enrichment job reports when it finishes. Never mutated after creation.
type JobDetail struct {
	PropertyID   string        `json:"property_id" dynamodbav:"property_id"`
	Status       string        `json:"status" dynamodbav:"status"`
	GeocodeTime  time.Duration `json:"geocoding_api_time" dynamodbav:"geocoding_api_time"`
	ForecastTime time.Duration `json:"weather_api_time" dynamodbav:"weather_api_time"`
	APISumTime   time.Duration `json:"api_sum_time" dynamodbav:"api_sum_time"`
}

// PropertyRuntime is one entry of the property_runtimes list: how long the
// ingestion driver spent parsing and storing a single target property.
type PropertyRuntime struct {
	PropertyID string        `json:"property_id" dynamodbav:"property_id"`
	ParseTime  time.Duration `json:"parser_runtime" dynamodbav:"parser_runtime"`
}

// Averages holds the derived fields recomputed from the current totals.
// The recompute is a read-then-write that is deliberately not atomic with
// concurrent counter updates; a snapshot taken mid-run may lag the totals.
type Averages struct {
	TimePerPropertyBackground  time.Duration `json:"average_time_per_property_background"`
	APICallTime                time.Duration `json:"average_api_call_time"`
	ParseTimePerTargetProperty time.Duration `json:"average_parse_time_per_target_property"`
}

// RunTotals carries the final figures the ingestion driver writes once a pass
// finishes enumerating the feed.
type RunTotals struct {
	TotalTargetParsingTime    time.Duration
	TotalRunTime              time.Duration
	TargetPropertiesProcessed int
}

// RunStatistics is the per-run accumulator record. Counters and totals are
// monotonically non-decreasing for the life of the run; lists are append-only
// in append order. Many enrichment jobs mutate the record concurrently through
// the per-field atomic store operations.
type RunStatistics struct {
	RunID string `json:"run_id" dynamodbav:"run_id"`

	TotalPropertiesInFeed     int `json:"total_properties_in_feed" dynamodbav:"total_properties_in_feed"`
	TargetPropertiesProcessed int `json:"target_properties_processed" dynamodbav:"target_properties_processed"`
	DuplicateTargetsSkipped   int `json:"duplicate_targets_skipped" dynamodbav:"duplicate_targets_skipped"`
	PropertiesAdded           int `json:"properties_added" dynamodbav:"properties_added"`
	SuccessfulAPICalls        int `json:"successful_api_calls" dynamodbav:"successful_api_calls"`
	BackgroundAPICallsCount   int `json:"background_api_calls_count" dynamodbav:"background_api_calls_count"`

	TotalTargetParsingTime time.Duration `json:"total_target_parsing_time" dynamodbav:"total_target_parsing_time"`
	TotalBackgroundTime    time.Duration `json:"total_background_time" dynamodbav:"total_background_time"`
	TotalAPISumTime        time.Duration `json:"total_api_sum_time" dynamodbav:"total_api_sum_time"`
	TotalGeocodingAPITime  time.Duration `json:"total_geocoding_api_time" dynamodbav:"total_geocoding_api_time"`
	TotalWeatherAPITime    time.Duration `json:"total_weather_api_time" dynamodbav:"total_weather_api_time"`
	TotalRunTime           time.Duration `json:"total_run_time" dynamodbav:"total_run_time"`

	AverageTimePerPropertyBackground  time.Duration `json:"average_time_per_property_background" dynamodbav:"average_time_per_property_background"`
	AverageAPICallTime                time.Duration `json:"average_api_call_time" dynamodbav:"average_api_call_time"`
	AverageParseTimePerTargetProperty time.Duration `json:"average_parse_time_per_target_property" dynamodbav:"average_parse_time_per_target_property"`

	BackgroundJobDetails []JobDetail       `json:"background_job_details" dynamodbav:"background_job_details"`
	PropertyRuntimes     []PropertyRuntime `json:"property_runtimes" dynamodbav:"property_runtimes"`
}

// NewRunStatistics returns a zeroed record for a fresh ingestion pass.
func NewRunStatistics(runID string, totalInFeed int) RunStatistics {
	return RunStatistics{
		RunID:                 runID,
		TotalPropertiesInFeed: totalInFeed,
		BackgroundJobDetails:  []JobDetail{},
		PropertyRuntimes:      []PropertyRuntime{},
	}
}
