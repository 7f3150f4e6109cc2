package pipeline

import (
	"context"

	"github.com/couchcryptid/listing-weather-etl/internal/domain"
)

// Queue is an in-process job queue backed by a buffered channel. It is the
// default transport between the ingestion driver and the worker pool when no
// external broker is configured.
type Queue struct {
	jobs chan domain.EnrichmentJob
}

// NewQueue creates a Queue with the given buffer size.
func NewQueue(size int) *Queue {
	return &Queue{jobs: make(chan domain.EnrichmentJob, size)}
}

// Publish enqueues a job, blocking while the buffer is full.
func (q *Queue) Publish(ctx context.Context, job domain.EnrichmentJob) error {
	select {
	case q.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NextJob dequeues the next job. Returns ErrQueueClosed after Close once the
// buffer is drained.
func (q *Queue) NextJob(ctx context.Context) (domain.EnrichmentJob, error) {
	select {
	case job, ok := <-q.jobs:
		if !ok {
			return domain.EnrichmentJob{}, ErrQueueClosed
		}
		return job, nil
	case <-ctx.Done():
		return domain.EnrichmentJob{}, ctx.Err()
	}
}

// Close stops accepting jobs. Buffered jobs remain receivable.
func (q *Queue) Close() {
	close(q.jobs)
}
