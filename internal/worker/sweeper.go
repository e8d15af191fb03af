package worker

import (
	"context"
	"log/slog"
	"time"

	"labbook/internal/infra/metrics"
	"labbook/internal/pkg/config"
	"labbook/internal/pkg/errs"
	"labbook/internal/usecase/commands"

	"github.com/robfig/cron/v3"
)

// Sweeper periodically serves the waiting list and expires overdue entries.
// Each run is independent; a failed run logs and waits for the next tick.
type Sweeper struct {
	waitlist commands.WaitlistCommands
	metrics  *metrics.Metrics
	cfg      config.SweepConfig
	cron     *cron.Cron
}

func NewSweeper(waitlist commands.WaitlistCommands, m *metrics.Metrics, cfg config.SweepConfig) *Sweeper {
	return &Sweeper{
		waitlist: waitlist,
		metrics:  m,
		cfg:      cfg,
		cron:     cron.New(),
	}
}

func (s *Sweeper) Start() error {
	if s.cfg.Disabled {
		slog.Info("waitlist sweeper disabled")
		return nil
	}

	if _, err := s.cron.AddFunc(s.cfg.CronSpec, s.runOnce); err != nil {
		return errs.Wrap(err, "invalid sweep cron spec")
	}
	s.cron.Start()
	slog.Info("waitlist sweeper started", "spec", s.cfg.CronSpec)
	return nil
}

func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	// Wait for an in-flight sweep to finish before shutdown proceeds.
	<-ctx.Done()
}

func (s *Sweeper) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	start := time.Now()

	expired, err := s.waitlist.ExpireStale(ctx)
	if err != nil {
		slog.Error("failed to expire stale waitlist entries", "error", err)
	}

	report, err := s.waitlist.ProcessAll(ctx)
	if err != nil {
		slog.Error("waitlist sweep failed", "error", err)
		return
	}

	s.metrics.SweepDuration.Observe(time.Since(start).Seconds())
	slog.Info("waitlist sweep completed",
		"notified", report.Notified,
		"auto_booked", report.AutoBooked,
		"expired_in_pass", report.Expired,
		"expired_bulk", expired,
		"duration", time.Since(start))
}
