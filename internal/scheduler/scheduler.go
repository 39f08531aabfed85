// Package scheduler runs periodic background jobs using gocron.
package scheduler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// JobFunc is a schedulable unit of work.
type JobFunc func(ctx context.Context) error

// Scheduler wraps gocron with logging and lifecycle management.
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger
	mu        sync.Mutex
	running   bool
}

// New creates a stopped scheduler.
func New(logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	return &Scheduler{
		scheduler: s,
		logger:    logger.With("component", "scheduler"),
	}, nil
}

// AddCron registers a named job on a cron schedule (six-field, with
// seconds). The job runs wrapped with start/finish logging; its error is
// logged, never fatal.
func (s *Scheduler) AddCron(name, schedule string, job JobFunc) error {
	_, err := s.scheduler.NewJob(
		gocron.CronJob(schedule, true),
		gocron.NewTask(func(ctx context.Context) {
			s.logger.Info("running scheduled job", "job", name)
			start := time.Now()
			if err := job(ctx); err != nil {
				s.logger.Error("scheduled job failed", "job", name, "error", err, "duration", time.Since(start))
				return
			}
			s.logger.Info("scheduled job finished", "job", name, "duration", time.Since(start))
		}, context.Background()),
		gocron.WithName(name),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule job %q: %w", name, err)
	}

	s.logger.Info("job scheduled", "job", name, "schedule", schedule)
	return nil
}

// Start begins executing registered jobs.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler is already running")
	}

	s.scheduler.Start()
	s.running = true
	return nil
}

// Stop shuts the scheduler down, waiting for running jobs to complete.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	err := s.scheduler.Shutdown()
	s.running = false
	if err != nil {
		return fmt.Errorf("error during scheduler shutdown: %w", err)
	}
	return nil
}
