package usecase

import (
	"context"
	"log/slog"
	"time"

	"ArxivReader/internal/ports"
)

// Refresher is anything that can run one aggregation cycle.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Scheduler wires the interval driver with the session refresh.
type Scheduler struct {
	driver ports.Scheduler
	target Refresher
	onTick func(time.Time, error)
	logger *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring refreshes. onTick is
// called after every cycle and may be nil.
func NewScheduler(driver ports.Scheduler, target Refresher, onTick func(time.Time, error), log *slog.Logger) *Scheduler {
	return &Scheduler{driver: driver, target: target, onTick: onTick, logger: log}
}

// Start registers the refresh with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.target == nil {
		return nil
	}

	job := func(trigger time.Time) {
		err := s.target.Refresh(ctx)
		if err != nil && s.logger != nil {
			s.logger.Warn("scheduled refresh failed", "trigger", trigger, "error", err)
		}
		if s.onTick != nil {
			s.onTick(trigger, err)
		}
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
