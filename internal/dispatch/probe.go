package dispatch

import (
	"context"
	"log/slog"
	"time"
)

// ProbeState tracks the gateway readiness check through its lifecycle.
type ProbeState int

const (
	ProbeUnstarted ProbeState = iota
	ProbeRetrying
	ProbeReady
	ProbeFailed
)

func (s ProbeState) String() string {
	switch s {
	case ProbeUnstarted:
		return "unstarted"
	case ProbeRetrying:
		return "retrying"
	case ProbeReady:
		return "ready"
	case ProbeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Pinger checks that the SMS gateway is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Timer waits between probe attempts. Tests substitute an instant timer.
type Timer interface {
	Wait(ctx context.Context, d time.Duration) error
}

type sleepTimer struct{}

func (sleepTimer) Wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Probe pings the gateway a bounded number of times before giving up.
// It replaces an unbounded connect-retry loop: startup either reaches
// ProbeReady or terminates in ProbeFailed with a clear attempt count.
type Probe struct {
	Pinger      Pinger
	Timer       Timer
	MaxAttempts int
	Delay       time.Duration

	state ProbeState
}

func NewProbe(p Pinger, attempts int, delay time.Duration) *Probe {
	return &Probe{
		Pinger:      p,
		Timer:       sleepTimer{},
		MaxAttempts: attempts,
		Delay:       delay,
	}
}

func (p *Probe) State() ProbeState { return p.state }

// Run drives the probe to a terminal state and returns it.
func (p *Probe) Run(ctx context.Context) ProbeState {
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		err := p.Pinger.Ping(ctx)
		if err == nil {
			p.state = ProbeReady
			return p.state
		}
		slog.Warn("gateway probe failed",
			"attempt", attempt,
			"max_attempts", p.MaxAttempts,
			"err", err,
		)
		if attempt == p.MaxAttempts {
			break
		}
		p.state = ProbeRetrying
		if err := p.Timer.Wait(ctx, p.Delay); err != nil {
			break
		}
	}
	p.state = ProbeFailed
	return p.state
}
