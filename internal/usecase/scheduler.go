package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"VaultXIngest/internal/domain"
	"VaultXIngest/internal/ports"
)

// Scheduler wires the cron driver with the combined run.
type Scheduler struct {
	driver       ports.Scheduler
	orchestrator *Orchestrator
	logger       *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring runs.
func NewScheduler(driver ports.Scheduler, orchestrator *Orchestrator, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{driver: driver, orchestrator: orchestrator, logger: log}
}

// Start registers RunAll with the driver.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.orchestrator == nil {
		return nil
	}

	job := func(trigger time.Time) {
		s.logger.Info("scheduled run triggered", "at", trigger)
		_, err := s.orchestrator.RunAll(ctx)
		switch {
		case errors.Is(err, ErrRunInProgress):
			s.logger.Warn("scheduled run skipped", "reason", err)
		case err != nil:
			s.logger.Error("scheduled run failed", "error", err)
		}
		s.logger.Info("next run", "at", s.driver.NextRun())
	}

	if err := s.driver.Start(ctx, job); err != nil {
		return err
	}
	s.logger.Info("scheduler started", "next_run", s.driver.NextRun())
	return nil
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}
	return s.driver.Stop(ctx)
}

// NextRun reports the next trigger time.
func (s *Scheduler) NextRun() time.Time {
	if s.driver == nil {
		return time.Time{}
	}
	return s.driver.NextRun()
}

// LastReport exposes the latest run outcome.
func (s *Scheduler) LastReport() (domain.RunReport, bool) {
	if s.orchestrator == nil {
		return domain.RunReport{}, false
	}
	return s.orchestrator.LastReport()
}
