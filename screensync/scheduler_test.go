// Copyright 2026 The Panescope Authors
// SPDX-License-Identifier: Apache-2.0

package screensync

import (
	"testing"
	"time"

	"github.com/panescope/panescope/lib/clock"
)

// newTestScheduler returns a scheduler on a fake clock and a counter of
// fetch invocations. Fake-clock callbacks run synchronously inside
// Advance, so the counter needs no locking as long as the test drives
// everything from one goroutine.
func newTestScheduler(t *testing.T, options ...SchedulerOption) (*Scheduler, *clock.FakeClock, *int) {
	t.Helper()
	fake := clock.Fake(time.Unix(1_700_000_000, 0))
	fetches := 0
	options = append([]SchedulerOption{WithClock(fake)}, options...)
	scheduler := NewScheduler(func() { fetches++ }, options...)
	t.Cleanup(scheduler.Stop)
	return scheduler, fake, &fetches
}

func TestSchedulerStartsPaused(t *testing.T) {
	t.Parallel()
	scheduler, fake, fetches := newTestScheduler(t)

	if got := scheduler.PauseReason(); got != PauseDisconnected {
		t.Errorf("PauseReason() = %q, want disconnected before first connect", got)
	}
	fake.Advance(10 * DefaultTextInterval)
	if *fetches != 0 {
		t.Errorf("fetches = %d while paused, want 0", *fetches)
	}
}

func TestSchedulerResumeFetchesImmediatelyThenOnInterval(t *testing.T) {
	t.Parallel()
	scheduler, fake, fetches := newTestScheduler(t)

	scheduler.SetConnected(true)
	if *fetches != 1 {
		t.Fatalf("fetches = %d after resume, want 1 immediate catch-up", *fetches)
	}
	if got := scheduler.PauseReason(); got != PauseNone {
		t.Errorf("PauseReason() = %q, want none", got)
	}

	fake.Advance(DefaultTextInterval)
	if *fetches != 2 {
		t.Errorf("fetches = %d after one interval, want 2", *fetches)
	}
	fake.Advance(DefaultTextInterval)
	fake.Advance(DefaultTextInterval)
	if *fetches != 4 {
		t.Errorf("fetches = %d after three intervals, want 4", *fetches)
	}
}

func TestSchedulerUnchangedSignalDoesNothing(t *testing.T) {
	t.Parallel()
	scheduler, fake, fetches := newTestScheduler(t)

	scheduler.SetConnected(true)
	scheduler.SetConnected(true)
	scheduler.SetVisible(true)
	scheduler.SetOnline(true)
	if *fetches != 1 {
		t.Errorf("fetches = %d after repeated identical signals, want 1", *fetches)
	}

	// The repeated signals must not have reset the interval either.
	fake.Advance(DefaultTextInterval)
	if *fetches != 2 {
		t.Errorf("fetches = %d after interval, want 2", *fetches)
	}
}

func TestSchedulerHiddenSuspendsUntilVisible(t *testing.T) {
	t.Parallel()
	scheduler, fake, fetches := newTestScheduler(t)
	scheduler.SetConnected(true)
	before := *fetches

	scheduler.SetVisible(false)
	if got := scheduler.PauseReason(); got != PauseHidden {
		t.Errorf("PauseReason() = %q, want hidden", got)
	}
	fake.Advance(10 * DefaultTextInterval)
	if *fetches != before {
		t.Errorf("fetches = %d while hidden, want %d (no polling)", *fetches, before)
	}

	scheduler.SetVisible(true)
	if *fetches != before+1 {
		t.Errorf("fetches = %d after unhide, want %d (one catch-up)", *fetches, before+1)
	}
	fake.Advance(DefaultTextInterval)
	if *fetches != before+2 {
		t.Errorf("fetches = %d after interval, want %d", *fetches, before+2)
	}
}

func TestSchedulerPauseReasonPriority(t *testing.T) {
	t.Parallel()
	scheduler, _, _ := newTestScheduler(t)

	// Everything wrong at once: disconnected wins.
	scheduler.SetConnectionIssue(IssueUnauthorized)
	scheduler.SetOnline(false)
	scheduler.SetVisible(false)
	if got := scheduler.PauseReason(); got != PauseDisconnected {
		t.Errorf("PauseReason() = %q, want disconnected", got)
	}

	scheduler.SetConnected(true)
	if got := scheduler.PauseReason(); got != PauseUnauthorized {
		t.Errorf("PauseReason() = %q, want unauthorized", got)
	}

	scheduler.SetConnectionIssue("")
	if got := scheduler.PauseReason(); got != PauseOffline {
		t.Errorf("PauseReason() = %q, want offline", got)
	}

	scheduler.SetOnline(true)
	if got := scheduler.PauseReason(); got != PauseHidden {
		t.Errorf("PauseReason() = %q, want hidden", got)
	}

	scheduler.SetVisible(true)
	if got := scheduler.PauseReason(); got != PauseNone {
		t.Errorf("PauseReason() = %q, want none", got)
	}
}

func TestSchedulerUnauthorizedSuspendsPolling(t *testing.T) {
	t.Parallel()
	scheduler, fake, fetches := newTestScheduler(t)
	scheduler.SetConnected(true)
	before := *fetches

	scheduler.SetConnectionIssue(IssueUnauthorized)
	fake.Advance(10 * DefaultTextInterval)
	if *fetches != before {
		t.Errorf("fetches = %d while unauthorized, want %d", *fetches, before)
	}

	scheduler.SetConnectionIssue("")
	if *fetches != before+1 {
		t.Errorf("fetches = %d after issue cleared, want %d", *fetches, before+1)
	}
}

func TestSchedulerModeSwitchesInterval(t *testing.T) {
	t.Parallel()
	scheduler, fake, fetches := newTestScheduler(t,
		WithIntervals(time.Second, 3*time.Second))
	scheduler.SetConnected(true)
	before := *fetches

	scheduler.SetMode(ModeImage)

	// The old text interval elapses without a tick: the timer restarted
	// on the image cadence.
	fake.Advance(time.Second)
	if *fetches != before {
		t.Errorf("fetches = %d one second into image mode, want %d", *fetches, before)
	}
	fake.Advance(2 * time.Second)
	if *fetches != before+1 {
		t.Errorf("fetches = %d at image interval, want %d", *fetches, before+1)
	}

	scheduler.SetMode(ModeText)
	fake.Advance(time.Second)
	if *fetches != before+2 {
		t.Errorf("fetches = %d back on text interval, want %d", *fetches, before+2)
	}
}

func TestSchedulerFocusGained(t *testing.T) {
	t.Parallel()
	scheduler, fake, fetches := newTestScheduler(t)

	// Paused: focus return does nothing.
	scheduler.FocusGained()
	if *fetches != 0 {
		t.Errorf("fetches = %d after focus while paused, want 0", *fetches)
	}

	scheduler.SetConnected(true)
	before := *fetches
	scheduler.FocusGained()
	if *fetches != before+1 {
		t.Errorf("fetches = %d after focus, want %d (one catch-up)", *fetches, before+1)
	}

	// Focus also restarted the interval from now.
	fake.Advance(DefaultTextInterval)
	if *fetches != before+2 {
		t.Errorf("fetches = %d after interval, want %d", *fetches, before+2)
	}
}

func TestSchedulerReconnected(t *testing.T) {
	t.Parallel()
	scheduler, _, fetches := newTestScheduler(t)
	scheduler.SetConnected(true)
	before := *fetches

	scheduler.Reconnected()
	if *fetches != before+1 {
		t.Errorf("fetches = %d after Reconnected, want %d", *fetches, before+1)
	}

	// The unauthorized sentinel is the one issue where retrying cannot
	// help, so the reconnect fetch is skipped.
	scheduler.SetConnectionIssue(IssueUnauthorized)
	after := *fetches
	scheduler.Reconnected()
	if *fetches != after {
		t.Errorf("fetches = %d after Reconnected while unauthorized, want %d", *fetches, after)
	}
}

func TestSchedulerStop(t *testing.T) {
	t.Parallel()
	scheduler, fake, fetches := newTestScheduler(t)
	scheduler.SetConnected(true)
	before := *fetches

	scheduler.Stop()
	fake.Advance(10 * DefaultTextInterval)
	scheduler.SetVisible(false)
	scheduler.SetVisible(true)
	scheduler.FocusGained()
	scheduler.Reconnected()
	if *fetches != before {
		t.Errorf("fetches = %d after Stop, want %d (no further polling)", *fetches, before)
	}
}

func TestSchedulerVisibilityFlapDoesNotStackTimers(t *testing.T) {
	t.Parallel()
	scheduler, fake, fetches := newTestScheduler(t)
	scheduler.SetConnected(true)

	for i := 0; i < 5; i++ {
		scheduler.SetVisible(false)
		scheduler.SetVisible(true)
	}
	if got := fake.PendingCount(); got != 1 {
		t.Errorf("PendingCount() = %d after visibility flaps, want 1", got)
	}

	before := *fetches
	fake.Advance(DefaultTextInterval)
	if *fetches != before+1 {
		t.Errorf("fetches = %d after interval, want exactly %d", *fetches, before+1)
	}
}
