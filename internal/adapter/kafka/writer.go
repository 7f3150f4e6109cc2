// Package kafka carries enrichment jobs over a Kafka topic. It is the
// broker-backed alternative to the in-process queue, enabled with
// KAFKA_ENABLED, and lets the ingestion driver and the worker pool run in
// separate processes.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/listing-weather-etl/internal/config"
	"github.com/couchcryptid/listing-weather-etl/internal/domain"
)

// Publisher produces enrichment jobs to the job topic.
// It implements feed.JobSink.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured job topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaJobTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// Publish serializes one enrichment job and writes it to the job topic.
func (p *Publisher) Publish(ctx context.Context, job domain.EnrichmentJob) error {
	msg, err := serializeJob(job)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeJob marshals an EnrichmentJob into a Kafka message. The property ID
// keys the message so retries for one record stay on one partition.
func serializeJob(job domain.EnrichmentJob) (kafkago.Message, error) {
	data, err := json.Marshal(job)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize enrichment job: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(job.PropertyID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "run_id", Value: []byte(job.RunID)},
		},
	}, nil
}
