// Package connectivity tracks whether the attendance backend is reachable.
//
// A watcher polls a cheap health probe on a fixed interval and publishes
// edge transitions on a channel. Consumers select on Transitions and never
// miss an offline-to-online edge: a transition is dropped only if a newer
// one replaces it before the consumer reads, which leaves the consumer with
// the most recent state anyway.
package connectivity

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"tapline/internal/logging"
)

// Prober reports whether the backend currently answers.
type Prober interface {
	Probe(ctx context.Context) bool
}

// Transition is one observed edge of the connectivity state.
type Transition struct {
	Online bool
	At     time.Time
}

// Watcher polls a Prober and publishes state transitions.
type Watcher struct {
	prober   Prober
	interval time.Duration
	logger   *slog.Logger

	online      atomic.Bool
	probed      atomic.Bool
	transitions chan Transition

	startOnce sync.Once
	stopOnce  sync.Once
	started   atomic.Bool
	done      chan struct{}
	stopped   chan struct{}
}

// NewWatcher builds a watcher polling prober every interval.
func NewWatcher(prober Prober, interval time.Duration, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Watcher{
		prober:      prober,
		interval:    interval,
		logger:      logging.WithComponent(logger, "connectivity"),
		transitions: make(chan Transition, 1),
		done:        make(chan struct{}),
		stopped:     make(chan struct{}),
	}
}

// Online reports the last observed state. Before the first probe completes
// the device is considered offline.
func (w *Watcher) Online() bool {
	return w.online.Load()
}

// Transitions is the channel edge transitions are published on.
func (w *Watcher) Transitions() <-chan Transition {
	return w.transitions
}

// Start launches the polling loop. It probes once immediately so consumers
// learn the initial state without waiting a full interval.
func (w *Watcher) Start(ctx context.Context) {
	w.startOnce.Do(func() {
		w.started.Store(true)
		go w.run(ctx)
	})
}

// Stop terminates the polling loop and waits for it to exit. Stopping a
// watcher that was never started returns immediately.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
	})
	if !w.started.Load() {
		return
	}
	<-w.stopped
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.stopped)

	w.check(ctx)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case <-ticker.C:
			w.check(ctx)
		}
	}
}

func (w *Watcher) check(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, w.interval)
	online := w.prober.Probe(probeCtx)
	cancel()

	previous := w.online.Swap(online)
	first := !w.probed.Swap(true)
	if !first && previous == online {
		return
	}

	if online {
		w.logger.Info("backend reachable")
	} else {
		w.logger.Warn("backend unreachable")
	}
	w.publish(Transition{Online: online, At: time.Now()})
}

func (w *Watcher) publish(t Transition) {
	for {
		select {
		case w.transitions <- t:
			return
		default:
			// Replace a stale unread transition with the newest state.
			select {
			case <-w.transitions:
			default:
			}
		}
	}
}
