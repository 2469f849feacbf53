package reminder

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeCounter struct {
	count   int
	err     error
	gotFrom time.Time
	gotTo   time.Time
}

func (f *fakeCounter) CountUpcomingUnnotified(ctx context.Context, from, to time.Time) (int, error) {
	f.gotFrom, f.gotTo = from, to
	return f.count, f.err
}

type fakeNotifier struct {
	calls []int
	err   error
}

func (f *fakeNotifier) Notify(ctx context.Context, count int) error {
	f.calls = append(f.calls, count)
	return f.err
}

func TestTriggerNotifiesWhenEventsPending(t *testing.T) {
	counter := &fakeCounter{count: 3}
	notifier := &fakeNotifier{}
	trig := &Trigger{Events: counter, Notifier: notifier, WindowDays: 7}

	now := time.Date(2026, 3, 5, 12, 0, 0, 0, time.Local)
	if err := trig.Run(context.Background(), now); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(notifier.calls) != 1 || notifier.calls[0] != 3 {
		t.Fatalf("notify calls = %v, want [3]", notifier.calls)
	}
	if !counter.gotFrom.Equal(now) {
		t.Errorf("from = %v, want %v", counter.gotFrom, now)
	}
	if want := now.AddDate(0, 0, 7); !counter.gotTo.Equal(want) {
		t.Errorf("to = %v, want %v", counter.gotTo, want)
	}
}

func TestTriggerSilentWhenNonePending(t *testing.T) {
	notifier := &fakeNotifier{}
	trig := &Trigger{Events: &fakeCounter{count: 0}, Notifier: notifier, WindowDays: 7}

	if err := trig.Run(context.Background(), time.Now()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(notifier.calls) != 0 {
		t.Fatalf("notify calls = %v, want none", notifier.calls)
	}
}

func TestTriggerPropagatesCountError(t *testing.T) {
	want := errors.New("db closed")
	trig := &Trigger{Events: &fakeCounter{err: want}, Notifier: &fakeNotifier{}, WindowDays: 7}

	if err := trig.Run(context.Background(), time.Now()); !errors.Is(err, want) {
		t.Fatalf("err = %v, want %v", err, want)
	}
}
