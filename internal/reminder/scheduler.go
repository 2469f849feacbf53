package reminder

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler drives the recurring jobs: the weekly reminder check, the
// monthly expired-event cleanup, and the periodic calendar sync. The
// reminder check also runs once at startup so a restart never skips a
// pending reminder.
type Scheduler struct {
	Trigger *Trigger
	Cleanup func(ctx context.Context) error
	Sync    func(ctx context.Context) error

	ReminderSpec string
	CleanupSpec  string
	SyncSpec     string

	cron *cron.Cron
}

// Start registers the jobs and launches the cron loop. It returns after
// the boot-time reminder check has been kicked off.
func (s *Scheduler) Start(ctx context.Context) error {
	c := cron.New()

	if _, err := c.AddFunc(s.ReminderSpec, func() {
		if err := s.Trigger.Run(ctx, time.Now()); err != nil {
			slog.Error("reminder check failed", "err", err)
		}
	}); err != nil {
		return err
	}

	if s.Cleanup != nil {
		if _, err := c.AddFunc(s.CleanupSpec, func() {
			if err := s.Cleanup(ctx); err != nil {
				slog.Error("event cleanup failed", "err", err)
			}
		}); err != nil {
			return err
		}
	}

	if s.Sync != nil {
		if _, err := c.AddFunc(s.SyncSpec, func() {
			if err := s.Sync(ctx); err != nil {
				slog.Error("calendar sync failed", "err", err)
			}
		}); err != nil {
			return err
		}
	}

	// Startup check covers reminders that would have fired while the
	// process was down.
	go func() {
		if err := s.Trigger.Run(ctx, time.Now()); err != nil {
			slog.Error("startup reminder check failed", "err", err)
		}
	}()

	c.Start()
	s.cron = c
	return nil
}

// Stop halts scheduling and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}
