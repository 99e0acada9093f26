// Copyright 2026 The Panescope Authors
// SPDX-License-Identifier: Apache-2.0

package screensync

import (
	"sync"
	"time"

	"github.com/panescope/panescope/lib/clock"
)

// PauseReason explains why polling is currently suspended. The UI
// surfaces it in the status line.
type PauseReason string

const (
	// PauseNone means polling is active.
	PauseNone PauseReason = ""
	// PauseDisconnected means the backend connection is down.
	PauseDisconnected PauseReason = "disconnected"
	// PauseUnauthorized means the connection issue is the unauthorized
	// sentinel; polling cannot resume until re-authentication.
	PauseUnauthorized PauseReason = "unauthorized"
	// PauseOffline means the host reported no network connectivity.
	PauseOffline PauseReason = "offline"
	// PauseHidden means the dashboard is not visible.
	PauseHidden PauseReason = "hidden"
)

// Default poll intervals per mode. Text is cheap to capture and diff,
// so it polls fast; image capture is heavier on the backend and the
// wire, so it runs at a longer cadence.
const (
	DefaultTextInterval  = 1 * time.Second
	DefaultImageInterval = 3 * time.Second
)

// Scheduler decides when the fetch function runs: on a mode-specific
// interval, gated by visibility, network connectivity, backend
// connection, and the unauthorized sentinel. The gate is a single
// predicate (pauseReasonLocked), not conditionals scattered across
// event handlers.
//
// Suspension tears the timer down rather than skipping ticks, so
// visibility flaps cannot accumulate timers. Resume fires one
// immediate catch-up fetch and then restarts the interval. A stale
// timer that fires after teardown is discarded by the generation
// counter.
type Scheduler struct {
	mu    sync.Mutex
	clock clock.Clock
	fetch func()

	textInterval  time.Duration
	imageInterval time.Duration
	mode          Mode

	visible         bool
	online          bool
	connected       bool
	connectionIssue string

	running    bool
	generation uint64
	timer      *clock.Timer
	stopped    bool
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithClock sets the clock used for interval timers. The default is
// clock.Real(); tests inject clock.Fake() and drive Advance.
func WithClock(c clock.Clock) SchedulerOption {
	return func(scheduler *Scheduler) {
		scheduler.clock = c
	}
}

// WithIntervals overrides the per-mode poll intervals.
func WithIntervals(text, image time.Duration) SchedulerOption {
	return func(scheduler *Scheduler) {
		scheduler.textInterval = text
		scheduler.imageInterval = image
	}
}

// NewScheduler creates a scheduler that invokes fetch on each due tick.
// It starts paused (disconnected) and dormant; feeding SetConnected(true)
// performs the first fetch and arms the interval.
func NewScheduler(fetch func(), options ...SchedulerOption) *Scheduler {
	scheduler := &Scheduler{
		clock:         clock.Real(),
		fetch:         fetch,
		textInterval:  DefaultTextInterval,
		imageInterval: DefaultImageInterval,
		mode:          ModeText,
		visible:       true,
		online:        true,
	}
	for _, option := range options {
		option(scheduler)
	}
	return scheduler
}

// Stop tears down the timer permanently. Safe to call multiple times.
func (scheduler *Scheduler) Stop() {
	scheduler.mu.Lock()
	defer scheduler.mu.Unlock()
	scheduler.stopped = true
	scheduler.suspendLocked()
}

// PauseReason returns why polling is suspended, or PauseNone while the
// interval is live. Priority: disconnected, unauthorized, offline,
// hidden.
func (scheduler *Scheduler) PauseReason() PauseReason {
	scheduler.mu.Lock()
	defer scheduler.mu.Unlock()
	return scheduler.pauseReasonLocked()
}

// SetVisible feeds the page-visibility signal. Becoming visible again
// fetches immediately and restarts the interval.
func (scheduler *Scheduler) SetVisible(visible bool) {
	scheduler.applySignal(func() (changed bool) {
		changed = scheduler.visible != visible
		scheduler.visible = visible
		return changed
	})
}

// SetOnline feeds the network-connectivity signal.
func (scheduler *Scheduler) SetOnline(online bool) {
	scheduler.applySignal(func() (changed bool) {
		changed = scheduler.online != online
		scheduler.online = online
		return changed
	})
}

// SetConnected feeds the backend connection signal.
func (scheduler *Scheduler) SetConnected(connected bool) {
	scheduler.applySignal(func() (changed bool) {
		changed = scheduler.connected != connected
		scheduler.connected = connected
		return changed
	})
}

// SetConnectionIssue records the current connection issue. Setting the
// unauthorized sentinel suspends polling; clearing it resumes.
func (scheduler *Scheduler) SetConnectionIssue(issue string) {
	scheduler.applySignal(func() (changed bool) {
		changed = scheduler.connectionIssue != issue
		scheduler.connectionIssue = issue
		return changed
	})
}

// SetMode switches the poll cadence to the given mode's interval. The
// running timer restarts so the new interval takes effect now rather
// than after one more old-interval tick.
func (scheduler *Scheduler) SetMode(mode Mode) {
	scheduler.mu.Lock()
	defer scheduler.mu.Unlock()
	if scheduler.mode == mode {
		return
	}
	scheduler.mode = mode
	if scheduler.running {
		scheduler.armLocked()
	}
}

// FocusGained handles window focus return: one immediate catch-up
// fetch and a fresh interval, provided polling is not suspended. Focus
// loss is not a suspend condition, so there is no FocusLost.
func (scheduler *Scheduler) FocusGained() {
	scheduler.mu.Lock()
	if scheduler.stopped || scheduler.pauseReasonLocked() != PauseNone {
		scheduler.mu.Unlock()
		return
	}
	scheduler.armLocked()
	scheduler.running = true
	scheduler.mu.Unlock()
	scheduler.fetch()
}

// Reconnected handles the explicit reconnection trigger: one immediate
// fetch outside the normal interval, skipped only when the current
// connection issue is the unauthorized sentinel.
func (scheduler *Scheduler) Reconnected() {
	scheduler.mu.Lock()
	if scheduler.stopped || scheduler.connectionIssue == IssueUnauthorized {
		scheduler.mu.Unlock()
		return
	}
	scheduler.mu.Unlock()
	scheduler.fetch()
}

// applySignal runs a state mutation under the lock, then re-evaluates
// the single gate predicate. A change that lifts the suspension earns
// an immediate catch-up fetch before the interval restarts.
func (scheduler *Scheduler) applySignal(mutate func() bool) {
	scheduler.mu.Lock()
	changed := mutate()
	if !changed || scheduler.stopped {
		scheduler.mu.Unlock()
		return
	}

	if scheduler.pauseReasonLocked() != PauseNone {
		scheduler.suspendLocked()
		scheduler.mu.Unlock()
		return
	}

	resumed := !scheduler.running
	scheduler.armLocked()
	scheduler.running = true
	scheduler.mu.Unlock()

	if resumed {
		scheduler.fetch()
	}
}

func (scheduler *Scheduler) pauseReasonLocked() PauseReason {
	switch {
	case !scheduler.connected:
		return PauseDisconnected
	case scheduler.connectionIssue == IssueUnauthorized:
		return PauseUnauthorized
	case !scheduler.online:
		return PauseOffline
	case !scheduler.visible:
		return PauseHidden
	}
	return PauseNone
}

// suspendLocked tears down the timer. The generation bump invalidates
// any tick already in flight.
func (scheduler *Scheduler) suspendLocked() {
	scheduler.generation++
	if scheduler.timer != nil {
		scheduler.timer.Stop()
		scheduler.timer = nil
	}
	scheduler.running = false
}

// armLocked (re)starts the one-shot timer chain for the current mode's
// interval.
func (scheduler *Scheduler) armLocked() {
	scheduler.generation++
	tickGeneration := scheduler.generation
	if scheduler.timer != nil {
		scheduler.timer.Stop()
	}
	scheduler.timer = scheduler.clock.AfterFunc(scheduler.intervalLocked(), func() {
		scheduler.tick(tickGeneration)
	})
}

func (scheduler *Scheduler) intervalLocked() time.Duration {
	if scheduler.mode == ModeImage {
		return scheduler.imageInterval
	}
	return scheduler.textInterval
}

// tick fires one poll and re-arms. A tick from a superseded generation
// (suspended, restarted, or stopped since it was armed) is discarded.
func (scheduler *Scheduler) tick(tickGeneration uint64) {
	scheduler.mu.Lock()
	if scheduler.stopped || tickGeneration != scheduler.generation || scheduler.pauseReasonLocked() != PauseNone {
		scheduler.mu.Unlock()
		return
	}
	scheduler.armLocked()
	scheduler.mu.Unlock()

	scheduler.fetch()
}
