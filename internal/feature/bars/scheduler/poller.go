// Package scheduler runs the periodic live-data poll.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

var (
	// ErrInvalidInterval is returned by New for a non-positive interval.
	ErrInvalidInterval = errors.New("poll interval must be positive")
	// ErrAlreadyStarted is returned by Run on a poller that has already run.
	ErrAlreadyStarted = errors.New("poller already started")
)

// State is the lifecycle state of a Poller.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// TickFunc is one unit of periodic work.
type TickFunc func(ctx context.Context) error

// Poller calls a TickFunc immediately and then every interval until its
// context is cancelled. A Poller runs at most once.
type Poller struct {
	interval time.Duration
	tick     TickFunc
	state    atomic.Int32
}

// New creates an idle Poller.
func New(interval time.Duration, tick TickFunc) (*Poller, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInterval, interval)
	}
	if tick == nil {
		return nil, errors.New("tick func is nil")
	}
	return &Poller{interval: interval, tick: tick}, nil
}

// State returns the current lifecycle state.
func (p *Poller) State() State { return State(p.state.Load()) }

// Interval returns the wait between two ticks.
func (p *Poller) Interval() time.Duration { return p.interval }

// Run blocks until ctx is cancelled. Tick errors and panics are logged and do
// not stop the loop. Run returns nil on cancellation.
func (p *Poller) Run(ctx context.Context) error {
	if !p.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return ErrAlreadyStarted
	}
	defer p.state.Store(int32(StateStopped))

	slog.Info("started periodic updates", "interval", p.interval)

	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("stopped periodic updates")
			return nil
		case <-timer.C:
		}

		p.runTick(ctx)
		// 前回の処理時間に関係なく、処理終了から interval だけ待つ
		timer.Reset(p.interval)
	}
}

func (p *Poller) runTick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic in periodic update", "panic", r)
		}
	}()

	start := time.Now()
	if err := p.tick(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		slog.Error("periodic update failed", "error", err)
		return
	}
	slog.Debug("periodic update done", "elapsed", time.Since(start))
}
