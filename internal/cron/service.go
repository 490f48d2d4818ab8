package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/stockroom-backend/pkg/logger"
	"github.com/angelmondragon/stockroom-backend/pkg/metrics"
)

const defaultInterval = 24 * time.Hour

type jobOutcome int

const (
	jobSucceeded jobOutcome = iota
	jobFailed
	jobSkipped
)

// ServiceParams configure the cron service.
type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Locker   Locker
	Metrics  *metrics.CronJobMetrics
	Interval time.Duration
}

// Service runs every registered job each interval. Each job takes its own
// lock, so two workers can split a cycle between them.
type Service struct {
	logg     *logger.Logger
	registry *Registry
	locker   Locker
	metrics  *metrics.CronJobMetrics
	interval time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Locker == nil {
		return nil, fmt.Errorf("locker required")
	}
	registry := params.Registry
	if registry == nil {
		registry = NewRegistry()
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Service{
		logg:     params.Logger,
		registry: registry,
		locker:   params.Locker,
		metrics:  params.Metrics,
		interval: interval,
	}, nil
}

// RunOnce executes a single cycle; used by the worker's -once mode. It fails
// when any job failed so the exit code reflects the run.
func (s *Service) RunOnce(ctx context.Context) error {
	if failed := s.runCycle(ctx); failed > 0 {
		return fmt.Errorf("%d cron job(s) failed", failed)
	}
	return nil
}

// Run cycles until ctx is canceled, starting immediately.
func (s *Service) Run(ctx context.Context) error {
	s.runCycle(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "cron service context canceled")
			return ctx.Err()
		case <-ticker.C:
			s.runCycle(ctx)
		}
	}
}

func (s *Service) runCycle(ctx context.Context) int {
	jobs := s.registry.Jobs()
	cycleCtx := s.logg.WithField(ctx, "jobs", len(jobs))
	s.logg.Info(cycleCtx, "scheduled run starting")

	var failed, skipped int
	for _, job := range jobs {
		switch s.runLocked(ctx, job) {
		case jobFailed:
			failed++
		case jobSkipped:
			skipped++
		}
	}

	s.logg.Info(s.logg.WithFields(cycleCtx, map[string]any{
		"failed":  failed,
		"skipped": skipped,
	}), "scheduled run complete")
	return failed
}

func (s *Service) runLocked(ctx context.Context, job Job) jobOutcome {
	jobCtx := s.logg.WithFields(ctx, map[string]any{
		"job":   job.Name(),
		"event": "cron.job",
	})

	lock := s.locker.Lock(job.Name())
	held, err := lock.Acquire(jobCtx)
	if err != nil {
		s.logg.Error(jobCtx, "job lock unavailable", err)
		s.recordFailure(job.Name())
		return jobFailed
	}
	if !held {
		s.logg.Info(jobCtx, "job running elsewhere; skipping")
		return jobSkipped
	}
	defer func() {
		if err := lock.Release(jobCtx); err != nil {
			s.logg.Error(jobCtx, "failed to release job lock", err)
		}
	}()

	s.logg.Info(jobCtx, "job start")
	start := time.Now()
	err = job.Run(jobCtx)
	duration := time.Since(start)
	s.observeDuration(job.Name(), duration)
	jobCtx = s.logg.WithField(jobCtx, "duration_ms", duration.Milliseconds())
	if err != nil {
		s.logg.Error(jobCtx, "job failed", err)
		s.recordFailure(job.Name())
		return jobFailed
	}
	s.logg.Info(jobCtx, "job completed")
	s.recordSuccess(job.Name())
	return jobSucceeded
}

func (s *Service) observeDuration(job string, duration time.Duration) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveDuration(job, duration)
}

func (s *Service) recordSuccess(job string) {
	if s.metrics == nil {
		return
	}
	s.metrics.IncSuccess(job)
}

func (s *Service) recordFailure(job string) {
	if s.metrics == nil {
		return
	}
	s.metrics.IncFailure(job)
}
