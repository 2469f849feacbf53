// Package reminder implements the periodic nudge: when upcoming events
// still await their notification SMS, a reminder is raised so an operator
// can enqueue and dispatch the batch.
package reminder

import (
	"context"
	"log/slog"
	"time"

	"meetremind/internal/observability"
)

// EventCounter counts events inside a window that have not been
// notified yet.
type EventCounter interface {
	CountUpcomingUnnotified(ctx context.Context, from, to time.Time) (int, error)
}

// Notifier delivers the reminder itself.
type Notifier interface {
	Notify(ctx context.Context, count int) error
}

// Trigger evaluates the reminder condition at a single point in time.
// The scheduler fires it weekly and once at process start.
type Trigger struct {
	Events     EventCounter
	Notifier   Notifier
	WindowDays int
}

// Run counts unnotified events in [now, now+WindowDays) and raises a
// reminder when any exist. A zero count is silent.
func (t *Trigger) Run(ctx context.Context, now time.Time) error {
	from := now
	to := now.AddDate(0, 0, t.WindowDays)

	count, err := t.Events.CountUpcomingUnnotified(ctx, from, to)
	if err != nil {
		return err
	}
	if count == 0 {
		slog.Debug("no unnotified events in window", "window_days", t.WindowDays)
		return nil
	}

	observability.Reminders.Inc()
	slog.Info("reminder raised", "unnotified_events", count, "window_days", t.WindowDays)
	return t.Notifier.Notify(ctx, count)
}
