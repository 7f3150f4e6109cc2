package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/listing-weather-etl/internal/adapter/dynamo"
	httpadapter "github.com/couchcryptid/listing-weather-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/listing-weather-etl/internal/adapter/kafka"
	"github.com/couchcryptid/listing-weather-etl/internal/adapter/memstore"
	"github.com/couchcryptid/listing-weather-etl/internal/adapter/nominatim"
	"github.com/couchcryptid/listing-weather-etl/internal/adapter/nws"
	"github.com/couchcryptid/listing-weather-etl/internal/config"
	"github.com/couchcryptid/listing-weather-etl/internal/domain"
	"github.com/couchcryptid/listing-weather-etl/internal/enrich"
	"github.com/couchcryptid/listing-weather-etl/internal/feed"
	"github.com/couchcryptid/listing-weather-etl/internal/observability"
	"github.com/couchcryptid/listing-weather-etl/internal/pipeline"
	"github.com/couchcryptid/listing-weather-etl/internal/refresh"
	"github.com/couchcryptid/listing-weather-etl/internal/stats"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Stores (feature-flagged via DYNAMO_ENABLED).
	var (
		statsStore  domain.StatsStore
		recordStore domain.RecordStore
		linkStore   domain.LinkStore
	)
	if cfg.DynamoEnabled {
		store, err := dynamo.New(ctx, cfg)
		if err != nil {
			logger.Error("dynamodb init failed", "error", err)
			os.Exit(1)
		}
		statsStore, recordStore, linkStore = store, store, store
		logger.Info("dynamodb stores enabled", "endpoint", cfg.DynamoEndpoint, "region", cfg.AWSRegion)
	} else {
		store := memstore.New()
		statsStore, recordStore, linkStore = store, store, store
		logger.Info("in-memory stores enabled")
	}

	aggregator := stats.New(statsStore, logger, metrics)

	geocoder := nominatim.NewClient(cfg.GeocodeBaseURL, cfg.GeocodeTimeout, cfg.GeocodeRetryDelay, metrics, logger)
	forecasts := nws.NewClient(cfg.ForecastBaseURL, cfg.ForecastTimeout, metrics, logger)

	enricher := enrich.New(geocoder, forecasts, recordStore, linkStore, aggregator, clock, logger)

	// Job transport (feature-flagged via KAFKA_ENABLED).
	var (
		source pipeline.JobSource
		sink   feed.JobSink
		closer func()
	)
	if cfg.KafkaEnabled {
		consumer := kafkaadapter.NewConsumer(cfg, logger)
		publisher := kafkaadapter.NewPublisher(cfg, logger)
		source, sink = consumer, publisher
		closer = func() {
			if err := consumer.Close(); err != nil {
				logger.Error("kafka consumer close error", "error", err)
			}
			if err := publisher.Close(); err != nil {
				logger.Error("kafka publisher close error", "error", err)
			}
		}
		logger.Info("kafka job transport enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaJobTopic)
	} else {
		queue := pipeline.NewQueue(cfg.QueueSize)
		source, sink = queue, queue
		closer = func() {}
		logger.Info("in-process job queue enabled", "size", cfg.QueueSize)
	}

	p := pipeline.New(source, enricher, cfg.Workers, logger, metrics)

	sweeper := refresh.NewSweeper(linkStore, recordStore, forecasts, clock, logger, metrics)
	scheduler := refresh.NewScheduler(sweeper, cfg.RefreshInterval, cfg.RefreshTimeout, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error("refresh scheduler start failed", "error", err)
		os.Exit(1)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, aggregator, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	// One ingestion pass at startup when a feed file is configured.
	if cfg.FeedPath != "" {
		go func() {
			f, err := os.Open(cfg.FeedPath)
			if err != nil {
				logger.Error("open feed failed", "path", cfg.FeedPath, "error", err)
				return
			}
			defer f.Close()

			ingestor := feed.NewIngestor(aggregator, recordStore, sink, cfg.TargetCity, clock, logger, metrics)
			runID, err := ingestor.Run(ctx, f)
			if err != nil {
				logger.Error("feed ingestion failed", "run_id", runID, "error", err)
				return
			}
			logger.Info("feed ingestion complete", "run_id", runID)
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	closer()

	logger.Info("shutdown complete")
}
