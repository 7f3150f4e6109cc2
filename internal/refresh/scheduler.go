package refresh

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// Scheduler runs the sweep on a fixed interval. Singleton mode guarantees a
// slow sweep is never overlapped by the next tick; a tick that fires while a
// sweep is still running is skipped.
type Scheduler struct {
	scheduler *gocron.Scheduler
	sweeper   *Sweeper
	interval  time.Duration
	timeout   time.Duration
	logger    *slog.Logger
}

// NewScheduler creates a Scheduler that runs sweeper every interval, bounding
// each sweep by timeout.
func NewScheduler(sweeper *Sweeper, interval, timeout time.Duration, logger *slog.Logger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		sweeper:   sweeper,
		interval:  interval,
		timeout:   timeout,
		logger:    logger,
	}
}

// Start schedules the recurring sweep and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	_, err := s.scheduler.Every(s.interval).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		if err := s.sweeper.RunOnce(ctx); err != nil {
			s.logger.Error("refresh sweep failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and waits for a running sweep to return.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
