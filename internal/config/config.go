package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Feed ingestion.
	FeedPath   string // path to a feed XML file ingested once at startup; empty disables
	TargetCity string

	// Worker pool.
	Workers   int
	QueueSize int

	// Geocoding provider.
	GeocodeBaseURL    string
	GeocodeTimeout    time.Duration
	GeocodeRetryDelay time.Duration

	// Forecast provider.
	ForecastBaseURL string
	ForecastTimeout time.Duration

	// Forecast refresh sweep.
	RefreshInterval time.Duration
	RefreshTimeout  time.Duration

	// Kafka job queue (in-process channel queue when disabled).
	KafkaEnabled  bool
	KafkaBrokers  []string
	KafkaJobTopic string
	KafkaGroupID  string

	// DynamoDB stores (in-memory stores when disabled).
	DynamoEnabled   bool
	DynamoEndpoint  string // local endpoint override, e.g. http://localhost:8000
	AWSRegion       string
	StatsTable      string
	PropertiesTable string
	LinksTable      string
}

// Load reads configuration from environment variables, applying defaults where
// unset. A .env file in the working directory is honored when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := envDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	geocodeTimeout, err := envDuration("GEOCODE_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	geocodeRetryDelay, err := envDuration("GEOCODE_RETRY_DELAY", time.Second)
	if err != nil {
		return nil, err
	}
	forecastTimeout, err := envDuration("FORECAST_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	refreshInterval, err := envDuration("REFRESH_INTERVAL", 30*time.Second)
	if err != nil {
		return nil, err
	}
	refreshTimeout, err := envDuration("REFRESH_TIMEOUT", 25*time.Second)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		FeedPath:   os.Getenv("FEED_PATH"),
		TargetCity: envOrDefault("TARGET_CITY", "Madison"),

		Workers:   envInt("WORKERS", 4),
		QueueSize: envInt("QUEUE_SIZE", 256),

		GeocodeBaseURL:    envOrDefault("GEOCODE_BASE_URL", "https://nominatim.openstreetmap.org"),
		GeocodeTimeout:    geocodeTimeout,
		GeocodeRetryDelay: geocodeRetryDelay,

		ForecastBaseURL: envOrDefault("FORECAST_BASE_URL", "https://api.weather.gov"),
		ForecastTimeout: forecastTimeout,

		RefreshInterval: refreshInterval,
		RefreshTimeout:  refreshTimeout,

		KafkaEnabled:  envBool("KAFKA_ENABLED", false),
		KafkaBrokers:  parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaJobTopic: envOrDefault("KAFKA_JOB_TOPIC", "enrichment-jobs"),
		KafkaGroupID:  envOrDefault("KAFKA_GROUP_ID", "listing-weather-etl"),

		DynamoEnabled:   envBool("DYNAMO_ENABLED", false),
		DynamoEndpoint:  os.Getenv("DYNAMO_ENDPOINT"),
		AWSRegion:       envOrDefault("AWS_REGION", "us-east-1"),
		StatsTable:      envOrDefault("STATS_TABLE", "RunStatistics"),
		PropertiesTable: envOrDefault("PROPERTIES_TABLE", "Properties"),
		LinksTable:      envOrDefault("LINKS_TABLE", "WeatherLink"),
	}

	if cfg.Workers <= 0 {
		return nil, errors.New("WORKERS must be positive")
	}
	if cfg.QueueSize <= 0 {
		return nil, errors.New("QUEUE_SIZE must be positive")
	}
	if cfg.TargetCity == "" {
		return nil, errors.New("TARGET_CITY is required")
	}
	if cfg.RefreshInterval <= 0 {
		return nil, errors.New("REFRESH_INTERVAL must be positive")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

func envInt(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "true"
	}
	return def
}

func parseBrokers(s string) []string {
	parts := strings.Split(s, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}
