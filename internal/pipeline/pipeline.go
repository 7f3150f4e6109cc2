// Package pipeline runs the enrichment worker pool: a fixed number of workers
// pull jobs from a source and execute them, feeding outcome metrics.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/listing-weather-etl/internal/domain"
	"github.com/couchcryptid/listing-weather-etl/internal/observability"
)

// ErrQueueClosed reports a receive from a source whose producer side has been
// closed and drained.
var ErrQueueClosed = errors.New("job queue closed")

// JobSource yields enrichment jobs. NextJob blocks until a job is available,
// the context is cancelled, or the source is exhausted (ErrQueueClosed).
type JobSource interface {
	NextJob(ctx context.Context) (domain.EnrichmentJob, error)
}

// JobRunner executes one enrichment job. Run never returns an error; the
// outcome classifies any failure.
type JobRunner interface {
	Run(ctx context.Context, job domain.EnrichmentJob) domain.Outcome
}

// Pipeline fans jobs out from a source to a pool of workers.
type Pipeline struct {
	source  JobSource
	runner  JobRunner
	workers int
	logger  *slog.Logger
	metrics *observability.Metrics
	ready   atomic.Bool
}

// New creates a Pipeline with the given worker count.
func New(source JobSource, runner JobRunner, workers int, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		source:  source,
		runner:  runner,
		workers: workers,
		logger:  logger,
		metrics: metrics,
	}
}

// CheckReadiness returns nil once the pool has executed at least one job,
// or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not processed any jobs yet")
	}
	return nil
}

// Run starts the worker pool and blocks until the context is cancelled or the
// source is exhausted.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "workers", p.workers)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			p.work(ctx, id)
		}(i)
	}
	wg.Wait()

	p.logger.Info("pipeline stopped")
	return nil
}

// work is one worker's receive-execute loop. Source errors other than
// cancellation and closure back off exponentially so a broker outage does not
// turn into a tight poll loop.
func (p *Pipeline) work(ctx context.Context, id int) {
	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		job, err := p.source.NextJob(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, ErrQueueClosed) {
				return
			}
			p.logger.Error("receive job failed", "worker", id, "error", err)
			if !sleepWithContext(ctx, backoff) {
				return
			}
			backoff = nextBackoff(backoff, maxBackoff)
			continue
		}
		backoff = 200 * time.Millisecond

		start := time.Now()
		outcome := p.runner.Run(ctx, job)
		p.metrics.EnrichmentJobs.WithLabelValues(string(outcome.Status)).Inc()
		p.metrics.JobDuration.Observe(time.Since(start).Seconds())
		p.ready.Store(true)
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
