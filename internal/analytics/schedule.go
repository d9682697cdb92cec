package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Refresher is the part of Aggregator the scheduler drives.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Scheduler refreshes a Refresher on a cron schedule. Standard 5-field
// expressions and descriptors such as "@every 5m" are accepted.
type Scheduler struct {
	target   Refresher
	schedule cron.Schedule
	spec     string
	logger   *slog.Logger
}

// NewScheduler parses spec and returns a Scheduler for target.
func NewScheduler(target Refresher, spec string, logger *slog.Logger) (*Scheduler, error) {
	if target == nil {
		return nil, fmt.Errorf("analytics: scheduler target is required")
	}
	if spec == "" {
		return nil, fmt.Errorf("analytics: schedule is required")
	}
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("analytics: parse schedule %q: %w", spec, err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{target: target, schedule: sched, spec: spec, logger: logger}, nil
}

// Next returns the next fire time after t.
func (s *Scheduler) Next(t time.Time) time.Time {
	return s.schedule.Next(t)
}

// Run starts the schedule and blocks until ctx is cancelled. A running
// refresh is allowed to finish before Run returns.
func (s *Scheduler) Run(ctx context.Context) error {
	c := cron.New()
	c.Schedule(s.schedule, cron.FuncJob(func() {
		if err := s.target.Refresh(ctx); err != nil {
			s.logger.Warn("analytics: scheduled refresh failed", "schedule", s.spec, "error", err)
		}
	}))
	c.Start()
	s.logger.Info("analytics: refresh scheduled", "schedule", s.spec, "next", s.Next(time.Now()))

	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}
