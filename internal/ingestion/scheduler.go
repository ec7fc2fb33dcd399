package ingestion

import (
	"context"
	"log/slog"
	"time"

	"github.com/Lixing-Zhang/medicine-catalog/internal/models"
)

// Refresher is implemented by *Coordinator.
type Refresher interface {
	Refresh(ctx context.Context, landingPageURL string) (models.RunSummary, error)
}

// Scheduler triggers refreshes on startup and/or on a fixed interval.
// A failed refresh is logged and retried on the next tick.
type Scheduler struct {
	refresher      Refresher
	landingPageURL string
	interval       time.Duration
	onStartup      bool
	timeout        time.Duration
	log            *slog.Logger
}

// SchedulerOptions configures a Scheduler.
type SchedulerOptions struct {
	LandingPageURL string
	Interval       time.Duration // zero disables periodic refreshes
	OnStartup      bool
	Timeout        time.Duration // per refresh
}

func NewScheduler(refresher Refresher, opts SchedulerOptions, log *slog.Logger) *Scheduler {
	return &Scheduler{
		refresher:      refresher,
		landingPageURL: opts.LandingPageURL,
		interval:       opts.Interval,
		onStartup:      opts.OnStartup,
		timeout:        opts.Timeout,
		log:            log.With("component", "scheduler"),
	}
}

// Run blocks until ctx is done. With no interval it returns right after the
// optional startup refresh.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.onStartup {
		s.refresh(ctx, "startup")
	}

	if s.interval <= 0 {
		return nil
	}

	s.log.Info("refresh scheduler started", "interval", s.interval.String())
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("refresh scheduler stopped")
			return nil
		case <-ticker.C:
			s.refresh(ctx, "interval")
		}
	}
}

func (s *Scheduler) refresh(ctx context.Context, trigger string) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	summary, err := s.refresher.Refresh(ctx, s.landingPageURL)
	if err != nil {
		s.log.Error("scheduled refresh failed",
			"trigger", trigger,
			"records_written", summary.RecordsWritten,
			"error", err,
		)
		return
	}
	s.log.Info("scheduled refresh completed",
		"trigger", trigger,
		"records_written", summary.RecordsWritten,
		"records_skipped", summary.RecordsSkipped,
	)
}
