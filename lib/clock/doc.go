// Copyright 2026 The Panescope Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time abstraction so the poll
// scheduler and viewport grace timers can be tested without real
// waiting.
//
// Production wiring:
//
//	scheduler := screensync.NewScheduler(fetch) // defaults to clock.Real()
//
// Test wiring:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	scheduler := screensync.NewScheduler(fetch, screensync.WithClock(c))
//	c.WaitForTimers(1)        // timer registered
//	c.Advance(time.Second)    // fires deterministically
//
// WaitForTimers removes the race between a goroutine registering a
// timer and the test advancing the clock; tests never sleep.
package clock
