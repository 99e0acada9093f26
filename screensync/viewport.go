// Copyright 2026 The Panescope Authors
// SPDX-License-Identifier: Apache-2.0

package screensync

import (
	"sync"
	"time"

	"github.com/panescope/panescope/lib/clock"
)

// ViewportState is the stability controller's mode.
type ViewportState int

const (
	// StateFollowing pins the viewport to the bottom; new content
	// auto-scrolls into view.
	StateFollowing ViewportState = iota
	// StateAnchored means the user has scrolled up; the viewport must
	// not visually jump when content mutates underneath it.
	StateAnchored
)

// UserScrollWindow is how long after the last user scroll input the
// "user is scrolling" suppression stays engaged. Long enough to bridge
// wheel-event bursts, short enough that content resumes promptly.
const UserScrollWindow = 250 * time.Millisecond

// ForceFollowGrace is the window after an explicit scroll-to-bottom
// during which the viewport keeps following even though the true
// bottom has not been confirmed yet. Content arriving right after the
// explicit scroll must not fight the user's intent.
const ForceFollowGrace = 600 * time.Millisecond

// Adjustment is the corrective action the UI applies after a content
// change. ScrollDelta is added to the scroll position directly, with
// no animation — the correction must be imperceptible. SnapToBottom
// pins the viewport to the last line instead.
type Adjustment struct {
	SnapToBottom bool
	ScrollDelta  float64
}

// Viewport is the viewport stability controller. It owns the scroll
// anchor, distinguishes user-initiated from programmatic movement, and
// computes the correction that keeps an anchored view visually still
// while the line buffer mutates.
//
// The UI reports scroll input, bottom arrival, and content changes;
// the controller answers with Adjustments. It never touches the scroll
// position itself.
//
// All methods are safe for concurrent use.
type Viewport struct {
	mu    sync.Mutex
	clock clock.Clock

	state ViewportState
	lines []string

	anchorIndex     int
	anchorOffsetTop float64
	hasAnchorOffset bool
	lineHeight      float64

	// measureOffset optionally returns the measured pixel offset of a
	// line in the current buffer. When absent, corrections fall back
	// to Δindex × lineHeight.
	measureOffset func(lineIndex int) (offset float64, ok bool)

	userScrolling    bool
	scrollTimer      *clock.Timer
	scrollGeneration uint64

	atBottom          bool
	snapPending       bool
	forceFollow       bool
	forceFollowTimer  *clock.Timer
	followGeneration  uint64
	mode              Mode

	// scrollingChanged fires (outside the lock) when the suppression
	// window opens or closes. The engine wires it to the Syncer's
	// ReportUserScrolling so suppressed content flushes when the
	// window expires.
	scrollingChanged func(bool)
}

// ViewportOption configures a Viewport.
type ViewportOption func(*Viewport)

// WithViewportClock sets the clock for the suppression and force-follow
// timers. The default is clock.Real().
func WithViewportClock(c clock.Clock) ViewportOption {
	return func(viewport *Viewport) {
		viewport.clock = c
	}
}

// WithLineHeight sets the fallback per-line height used for scroll
// corrections. Row-based UIs leave the default of 1; pixel-based hosts
// pass their measured line height.
func WithLineHeight(height float64) ViewportOption {
	return func(viewport *Viewport) {
		viewport.lineHeight = height
	}
}

// WithMeasuredOffsets provides per-line measured offsets for sub-line
// accurate corrections when line heights vary.
func WithMeasuredOffsets(measure func(lineIndex int) (float64, bool)) ViewportOption {
	return func(viewport *Viewport) {
		viewport.measureOffset = measure
	}
}

// NewViewport creates a stability controller in the following state,
// at the bottom, in text mode.
func NewViewport(options ...ViewportOption) *Viewport {
	viewport := &Viewport{
		clock:      clock.Real(),
		state:      StateFollowing,
		lineHeight: 1,
		atBottom:   true,
		mode:       ModeText,
	}
	for _, option := range options {
		option(viewport)
	}
	return viewport
}

// SetScrollingChanged registers the suppression-window callback. Must
// be set before scroll events arrive; the engine does this at wiring
// time.
func (viewport *Viewport) SetScrollingChanged(callback func(bool)) {
	viewport.mu.Lock()
	defer viewport.mu.Unlock()
	viewport.scrollingChanged = callback
}

// State returns the current stability state.
func (viewport *Viewport) State() ViewportState {
	viewport.mu.Lock()
	defer viewport.mu.Unlock()
	return viewport.state
}

// AtBottom reports whether the viewport was last confirmed at the true
// bottom.
func (viewport *Viewport) AtBottom() bool {
	viewport.mu.Lock()
	defer viewport.mu.Unlock()
	return viewport.atBottom
}

// Scrolling reports whether the user-scroll suppression window is open.
func (viewport *Viewport) Scrolling() bool {
	viewport.mu.Lock()
	defer viewport.mu.Unlock()
	return viewport.userScrolling
}

// HandleUserScroll records a user-initiated scroll: the viewport
// becomes anchored to the given top-visible line, measurements are
// retained for sub-line restoration, and the suppression window opens
// (or extends). Programmatic movement — including corrections returned
// by ContentChanged — must not be reported here.
func (viewport *Viewport) HandleUserScroll(topVisibleIndex int, offsetFromViewportTop float64, lineHeight float64) {
	viewport.mu.Lock()
	if viewport.mode != ModeText {
		viewport.mu.Unlock()
		return
	}
	viewport.state = StateAnchored
	viewport.atBottom = false
	viewport.anchorIndex = clampIndex(topVisibleIndex, maxInt(len(viewport.lines), 1))
	viewport.anchorOffsetTop = offsetFromViewportTop
	viewport.hasAnchorOffset = true
	if lineHeight > 0 {
		viewport.lineHeight = lineHeight
	}
	// A genuine scroll overrides any pending force-follow grace: the
	// user moved away on purpose.
	viewport.cancelForceFollowLocked()

	opened := !viewport.userScrolling
	viewport.userScrolling = true
	viewport.armScrollWindowLocked()
	callback := viewport.scrollingChanged
	viewport.mu.Unlock()

	if opened && callback != nil {
		callback(true)
	}
}

// HandleAtBottom records whether the viewport reached the true bottom.
// Arriving at the bottom transitions to following, cancels the
// force-follow grace (the user really is at the bottom now), and closes
// the suppression window so withheld content flushes.
func (viewport *Viewport) HandleAtBottom(atBottom bool) {
	viewport.mu.Lock()
	if viewport.atBottom == atBottom {
		viewport.mu.Unlock()
		return
	}
	viewport.atBottom = atBottom

	var closedWindow bool
	if atBottom {
		viewport.state = StateFollowing
		viewport.hasAnchorOffset = false
		viewport.cancelForceFollowLocked()
		if viewport.userScrolling {
			viewport.userScrolling = false
			viewport.scrollGeneration++
			closedWindow = true
		}
	} else if viewport.state == StateFollowing && !viewport.forceFollow && !viewport.snapPending {
		viewport.state = StateAnchored
		viewport.anchorIndex = clampIndex(len(viewport.lines)-1, maxInt(len(viewport.lines), 1))
	}
	callback := viewport.scrollingChanged
	viewport.mu.Unlock()

	if closedWindow && callback != nil {
		callback(false)
	}
}

// SetUserScrolling sets the suppression window directly, for hosts that
// track scroll activity themselves instead of per-event reporting.
func (viewport *Viewport) SetUserScrolling(scrolling bool) {
	viewport.mu.Lock()
	if viewport.userScrolling == scrolling {
		viewport.mu.Unlock()
		return
	}
	viewport.userScrolling = scrolling
	viewport.scrollGeneration++
	if scrolling {
		viewport.armScrollWindowLocked()
	}
	callback := viewport.scrollingChanged
	viewport.mu.Unlock()

	if callback != nil {
		callback(scrolling)
	}
}

// SetMode handles render-mode switches. Leaving text forces following
// and clears anchor state (image mode has no line scrollback);
// returning to text arms a one-shot snap-to-bottom that fires with the
// next non-empty buffer.
func (viewport *Viewport) SetMode(mode Mode) {
	viewport.mu.Lock()
	defer viewport.mu.Unlock()
	if mode == viewport.mode {
		return
	}
	previous := viewport.mode
	viewport.mode = mode
	if mode != ModeText {
		viewport.state = StateFollowing
		viewport.hasAnchorOffset = false
		viewport.snapPending = false
		viewport.cancelForceFollowLocked()
		return
	}
	if previous != ModeText {
		viewport.snapPending = true
	}
}

// PaneChanged arms the one-shot snap-to-bottom for a session switch:
// the next non-empty buffer lands pinned to the tail.
func (viewport *Viewport) PaneChanged() {
	viewport.mu.Lock()
	defer viewport.mu.Unlock()
	viewport.snapPending = true
	viewport.state = StateFollowing
	viewport.hasAnchorOffset = false
	viewport.lines = nil
	viewport.cancelForceFollowLocked()
}

// ScrollToBottom handles the explicit scroll-to-bottom request. The UI
// scrolls the list to the last line; if the viewport was not already at
// the bottom, the force-follow grace engages so content arriving right
// after the jump keeps the viewport pinned. The grace ends at the
// earlier of the timer and confirmed bottom arrival.
func (viewport *Viewport) ScrollToBottom() Adjustment {
	viewport.mu.Lock()
	defer viewport.mu.Unlock()

	viewport.state = StateFollowing
	viewport.hasAnchorOffset = false
	if !viewport.atBottom {
		viewport.forceFollow = true
		viewport.followGeneration++
		fireGeneration := viewport.followGeneration
		if viewport.forceFollowTimer != nil {
			viewport.forceFollowTimer.Stop()
		}
		viewport.forceFollowTimer = viewport.clock.AfterFunc(ForceFollowGrace, func() {
			viewport.expireForceFollow(fireGeneration)
		})
	}
	return Adjustment{SnapToBottom: true}
}

// ContentChanged observes the new line buffer and returns the
// correction to apply. Following (or force-following) viewports snap to
// the bottom. Anchored viewports get a direct scroll delta computed by
// remapping the anchor into the new buffer — measured offsets when the
// host provides them, Δindex × lineHeight otherwise.
func (viewport *Viewport) ContentChanged(next []string) Adjustment {
	viewport.mu.Lock()
	defer viewport.mu.Unlock()

	previous := viewport.lines
	viewport.lines = next

	if viewport.snapPending {
		if !bufferHasContent(next) {
			return Adjustment{}
		}
		viewport.snapPending = false
		viewport.state = StateFollowing
		viewport.atBottom = true
		return Adjustment{SnapToBottom: true}
	}

	if viewport.state == StateFollowing || viewport.forceFollow {
		return Adjustment{SnapToBottom: true}
	}

	// A scrollback roll keeps the length constant while still shifting
	// every line, so no length-based shortcut is safe here; the remap
	// itself has a cheap same-index path for the unchanged case.
	newIndex := MapAnchorIndex(previous, next, viewport.anchorIndex)
	deltaIndex := newIndex - viewport.anchorIndex
	viewport.anchorIndex = newIndex
	if deltaIndex == 0 {
		return Adjustment{}
	}

	delta := float64(deltaIndex) * viewport.lineHeight
	if viewport.measureOffset != nil {
		oldOffset, okOld := viewport.measureOffset(newIndex - deltaIndex)
		newOffset, okNew := viewport.measureOffset(newIndex)
		if okOld && okNew {
			delta = newOffset - oldOffset
		}
	}
	return Adjustment{ScrollDelta: delta}
}

// armScrollWindowLocked (re)starts the suppression expiry timer. Each
// arm bumps the generation so an earlier timer firing late is inert.
func (viewport *Viewport) armScrollWindowLocked() {
	viewport.scrollGeneration++
	fireGeneration := viewport.scrollGeneration
	if viewport.scrollTimer != nil {
		viewport.scrollTimer.Stop()
	}
	viewport.scrollTimer = viewport.clock.AfterFunc(UserScrollWindow, func() {
		viewport.expireScrollWindow(fireGeneration)
	})
}

func (viewport *Viewport) expireScrollWindow(fireGeneration uint64) {
	viewport.mu.Lock()
	if fireGeneration != viewport.scrollGeneration || !viewport.userScrolling {
		viewport.mu.Unlock()
		return
	}
	viewport.userScrolling = false
	callback := viewport.scrollingChanged
	viewport.mu.Unlock()

	if callback != nil {
		callback(false)
	}
}

func (viewport *Viewport) expireForceFollow(fireGeneration uint64) {
	viewport.mu.Lock()
	defer viewport.mu.Unlock()
	if fireGeneration != viewport.followGeneration {
		return
	}
	viewport.forceFollow = false
}

func (viewport *Viewport) cancelForceFollowLocked() {
	viewport.forceFollow = false
	viewport.followGeneration++
	if viewport.forceFollowTimer != nil {
		viewport.forceFollowTimer.Stop()
		viewport.forceFollowTimer = nil
	}
}

// bufferHasContent reports whether the buffer holds any non-empty line.
// A cleared screen decodes as a single empty line; snap-to-bottom waits
// for real content.
func bufferHasContent(lines []string) bool {
	for _, line := range lines {
		if line != "" {
			return true
		}
	}
	return false
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
