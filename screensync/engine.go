// Copyright 2026 The Panescope Authors
// SPDX-License-Identifier: Apache-2.0

package screensync

import (
	"log/slog"
	"time"

	"github.com/panescope/panescope/lib/clock"
)

// Engine composes the fetch lifecycle controller, the poll scheduler,
// and the viewport stability controller into the surface the dashboard
// consumes. Each unit owns its own state; the engine only routes
// operations and signals between them.
type Engine struct {
	syncer    *Syncer
	scheduler *Scheduler
	viewport  *Viewport
}

// engineConfig collects option values before construction.
type engineConfig struct {
	clock         clock.Clock
	logger        *slog.Logger
	textInterval  time.Duration
	imageInterval time.Duration
	lineHeight    float64
	measureOffset func(int) (float64, bool)
}

// EngineOption configures an Engine.
type EngineOption func(*engineConfig)

// WithEngineClock injects the clock used by the scheduler and viewport
// timers. Tests pass clock.Fake().
func WithEngineClock(c clock.Clock) EngineOption {
	return func(config *engineConfig) {
		config.clock = c
	}
}

// WithEngineLogger sets the logger for background diagnostics.
func WithEngineLogger(logger *slog.Logger) EngineOption {
	return func(config *engineConfig) {
		config.logger = logger
	}
}

// WithPollIntervals overrides the per-mode poll cadence.
func WithPollIntervals(text, image time.Duration) EngineOption {
	return func(config *engineConfig) {
		config.textInterval = text
		config.imageInterval = image
	}
}

// WithViewportMetrics configures the viewport's line height and
// optional measured line offsets for pixel-based hosts. Row-based
// hosts (the TUI) skip this and get unit line height.
func WithViewportMetrics(lineHeight float64, measureOffset func(int) (float64, bool)) EngineOption {
	return func(config *engineConfig) {
		config.lineHeight = lineHeight
		config.measureOffset = measureOffset
	}
}

// NewEngine wires a synchronization engine for one pane. The engine
// starts paused (disconnected); feed SetConnected(true) to begin
// polling — the first fetch fires immediately as the resume catch-up.
func NewEngine(client SnapshotClient, paneID string, options ...EngineOption) *Engine {
	config := engineConfig{
		clock:         clock.Real(),
		logger:        slog.Default(),
		textInterval:  DefaultTextInterval,
		imageInterval: DefaultImageInterval,
		lineHeight:    1,
	}
	for _, option := range options {
		option(&config)
	}

	syncer := NewSyncer(client, paneID, WithLogger(config.logger))
	scheduler := NewScheduler(syncer.Refresh,
		WithClock(config.clock),
		WithIntervals(config.textInterval, config.imageInterval),
	)
	viewportOptions := []ViewportOption{
		WithViewportClock(config.clock),
		WithLineHeight(config.lineHeight),
	}
	if config.measureOffset != nil {
		viewportOptions = append(viewportOptions, WithMeasuredOffsets(config.measureOffset))
	}
	viewport := NewViewport(viewportOptions...)

	// The suppression window gates rendering, not scrolling: when it
	// closes, withheld content flushes through the syncer.
	viewport.SetScrollingChanged(syncer.ReportUserScrolling)

	return &Engine{
		syncer:    syncer,
		scheduler: scheduler,
		viewport:  viewport,
	}
}

// Close stops polling and discards in-flight work.
func (engine *Engine) Close() {
	engine.scheduler.Stop()
	engine.syncer.Close()
}

// Updates returns the coalescing change-notification channel.
func (engine *Engine) Updates() <-chan struct{} { return engine.syncer.Updates() }

// Lines returns the visible line buffer.
func (engine *Engine) Lines() []string { return engine.syncer.Lines() }

// Image returns the latest image payload and capture timestamp.
func (engine *Engine) Image() ([]byte, int64) { return engine.syncer.Image() }

// Err returns the exposed error message, empty when healthy.
func (engine *Engine) Err() string { return engine.syncer.Err() }

// Loading reports whether a first-load or mode-switch fetch is running.
func (engine *Engine) Loading() bool { return engine.syncer.Loading() }

// FallbackReason returns the backend's delta-decline explanation.
func (engine *Engine) FallbackReason() string { return engine.syncer.FallbackReason() }

// PauseReason returns why polling is suspended, or PauseNone.
func (engine *Engine) PauseReason() PauseReason { return engine.scheduler.PauseReason() }

// AtBottom reports whether the viewport is at the true bottom.
func (engine *Engine) AtBottom() bool { return engine.viewport.AtBottom() }

// ActiveMode returns the representation currently synchronized.
func (engine *Engine) ActiveMode() Mode { return engine.syncer.ActiveMode() }

// RefreshNow fetches the active mode immediately, outside the interval.
func (engine *Engine) RefreshNow() { engine.syncer.Refresh() }

// ChangeMode switches the representation: the syncer discards the
// text buffer and continuation cursor and fetches the new mode
// (superseding any in-flight poll), the scheduler adopts the new
// cadence, and the viewport adjusts its anchor policy.
func (engine *Engine) ChangeMode(mode Mode) {
	engine.viewport.SetMode(mode)
	engine.scheduler.SetMode(mode)
	engine.syncer.ChangeMode(mode)
}

// SetPane switches the observed session pane: buffers clear, the
// snap-to-bottom one-shot arms, and the first fetch for the new pane
// dispatches immediately.
func (engine *Engine) SetPane(paneID string) {
	engine.syncer.SetPane(paneID)
	engine.viewport.PaneChanged()
	engine.syncer.Refresh()
}

// ScrollToBottom requests an explicit jump to the tail. The returned
// adjustment tells the UI to pin the last line; force-follow engages if
// the viewport was not already at the bottom.
func (engine *Engine) ScrollToBottom() Adjustment {
	return engine.viewport.ScrollToBottom()
}

// ReportUserScrolling feeds the host's own scroll-activity tracking.
func (engine *Engine) ReportUserScrolling(scrolling bool) {
	engine.viewport.SetUserScrolling(scrolling)
}

// ReportUserScroll feeds one user-initiated scroll event with the
// top-visible line and measurements; opens the suppression window.
func (engine *Engine) ReportUserScroll(topVisibleIndex int, offsetFromViewportTop, lineHeight float64) {
	engine.viewport.HandleUserScroll(topVisibleIndex, offsetFromViewportTop, lineHeight)
}

// ReportAtBottom feeds the host's bottom-arrival signal. Reaching the
// bottom flushes suppressed content and returns to following.
func (engine *Engine) ReportAtBottom(atBottom bool) {
	engine.syncer.ReportAtBottom(atBottom)
	engine.viewport.HandleAtBottom(atBottom)
}

// ContentChanged observes the buffer the UI is about to render and
// returns the stability correction to apply.
func (engine *Engine) ContentChanged(lines []string) Adjustment {
	return engine.viewport.ContentChanged(lines)
}

// SetConnected feeds the backend connection signal to both the fetch
// lifecycle (error surfacing) and the scheduler (polling gate).
func (engine *Engine) SetConnected(connected bool) {
	engine.syncer.SetConnected(connected)
	engine.scheduler.SetConnected(connected)
}

// SetConnectionIssue records a specific connection problem, such as
// IssueUnauthorized.
func (engine *Engine) SetConnectionIssue(issue string) {
	engine.syncer.SetConnectionIssue(issue)
	engine.scheduler.SetConnectionIssue(issue)
}

// SetVisible feeds the visibility signal to the scheduler.
func (engine *Engine) SetVisible(visible bool) { engine.scheduler.SetVisible(visible) }

// SetOnline feeds the network-connectivity signal to the scheduler.
func (engine *Engine) SetOnline(online bool) { engine.scheduler.SetOnline(online) }

// FocusGained triggers the focus-return catch-up fetch.
func (engine *Engine) FocusGained() { engine.scheduler.FocusGained() }

// Reconnected triggers the explicit reconnection catch-up fetch.
func (engine *Engine) Reconnected() { engine.scheduler.Reconnected() }
