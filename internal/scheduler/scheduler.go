// Package scheduler runs the periodic expiry of stale pending bookings.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultSpec runs expiry once a minute.
const DefaultSpec = "@every 1m"

type bookingExpirer interface {
	CancelExpired(ctx context.Context, now time.Time) (int, error)
}

// Scheduler calls CancelExpired on a cron schedule.
type Scheduler struct {
	bookings bookingExpirer
	spec     string
	schedule cron.Schedule
	logger   *slog.Logger
	now      func() time.Time
}

// New parses spec (standard five-field cron or a descriptor such as "@every 5m").
func New(bookings bookingExpirer, spec string, logger *slog.Logger) (*Scheduler, error) {
	if spec == "" {
		spec = DefaultSpec
	}
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parse expire schedule %q: %w", spec, err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		bookings: bookings,
		spec:     spec,
		schedule: schedule,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Start blocks until ctx is done, then waits for a running job to finish.
func (s *Scheduler) Start(ctx context.Context) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	c.Schedule(s.schedule, cron.FuncJob(func() { s.tick(ctx) }))
	c.Start()
	s.logger.Info("scheduler started", "schedule", s.spec)

	<-ctx.Done()
	<-c.Stop().Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) tick(ctx context.Context) {
	n, err := s.bookings.CancelExpired(ctx, s.now())
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to cancel expired bookings", "cancelled", n, "error", err)
		return
	}
	if n > 0 {
		s.logger.InfoContext(ctx, "expired bookings cancelled", "cancelled", n)
	}
}
