package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"
)

type flakyPinger struct {
	failures int
	calls    int
}

func (p *flakyPinger) Ping(ctx context.Context) error {
	p.calls++
	if p.calls <= p.failures {
		return errors.New("connection refused")
	}
	return nil
}

type instantTimer struct{ waits int }

func (t *instantTimer) Wait(ctx context.Context, d time.Duration) error {
	t.waits++
	return ctx.Err()
}

func TestProbeReadyAfterRetries(t *testing.T) {
	pinger := &flakyPinger{failures: 2}
	timer := &instantTimer{}
	p := NewProbe(pinger, 5, time.Second)
	p.Timer = timer

	if got := p.Run(context.Background()); got != ProbeReady {
		t.Fatalf("Run = %v, want ready", got)
	}
	if pinger.calls != 3 {
		t.Fatalf("calls = %d, want 3", pinger.calls)
	}
	if timer.waits != 2 {
		t.Fatalf("waits = %d, want 2", timer.waits)
	}
}

func TestProbeFailsAfterMaxAttempts(t *testing.T) {
	pinger := &flakyPinger{failures: 10}
	p := NewProbe(pinger, 3, time.Second)
	p.Timer = &instantTimer{}

	if got := p.Run(context.Background()); got != ProbeFailed {
		t.Fatalf("Run = %v, want failed", got)
	}
	if pinger.calls != 3 {
		t.Fatalf("calls = %d, want 3", pinger.calls)
	}
	if p.State() != ProbeFailed {
		t.Fatalf("State = %v, want failed", p.State())
	}
}

func TestProbeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	pinger := &flakyPinger{failures: 10}
	p := NewProbe(pinger, 5, time.Second)
	p.Timer = sleepTimer{}

	if got := p.Run(ctx); got != ProbeFailed {
		t.Fatalf("Run = %v, want failed", got)
	}
	if pinger.calls != 1 {
		t.Fatalf("calls = %d, want 1", pinger.calls)
	}
}
