package kafka

import (
	"context"
	"encoding/json"
	"log/slog"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/listing-weather-etl/internal/config"
	"github.com/couchcryptid/listing-weather-etl/internal/domain"
)

// Consumer receives enrichment jobs from the job topic as part of a consumer
// group. It implements pipeline.JobSource.
type Consumer struct {
	reader *kafkago.Reader
	logger *slog.Logger
}

// NewConsumer creates a Kafka consumer for the configured job topic.
func NewConsumer(cfg *config.Config, logger *slog.Logger) *Consumer {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers: cfg.KafkaBrokers,
		Topic:   cfg.KafkaJobTopic,
		GroupID: cfg.KafkaGroupID,
	})
	return &Consumer{reader: r, logger: logger}
}

// NextJob blocks for the next job message. Messages that do not deserialize
// are logged and skipped; a poison message must not wedge the partition.
func (c *Consumer) NextJob(ctx context.Context) (domain.EnrichmentJob, error) {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			return domain.EnrichmentJob{}, err
		}

		job, err := deserializeJob(msg)
		if err != nil {
			c.logger.Warn("skipping malformed job message",
				"error", err,
				"topic", msg.Topic,
				"partition", msg.Partition,
				"offset", msg.Offset,
			)
			continue
		}
		return job, nil
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}

// deserializeJob unmarshals a Kafka message into an EnrichmentJob.
func deserializeJob(msg kafkago.Message) (domain.EnrichmentJob, error) {
	var job domain.EnrichmentJob
	if err := json.Unmarshal(msg.Value, &job); err != nil {
		return domain.EnrichmentJob{}, err
	}
	return job, nil
}
