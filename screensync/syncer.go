// Copyright 2026 The Panescope Authors
// SPDX-License-Identifier: Apache-2.0

package screensync

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// DisconnectedError is the sentinel surfaced while the backend
// connection is down. It auto-clears on reconnect and is never allowed
// to overwrite a more specific connection-issue message.
const DisconnectedError = "disconnected from backend, reconnecting"

// IssueUnauthorized is the reserved connection-issue value meaning the
// operator's credentials were rejected. Polling halts entirely while it
// is active; retrying cannot help until the operator re-authenticates.
const IssueUnauthorized = "unauthorized"

// genericFetchError is surfaced when a failure carries no message of
// its own.
const genericFetchError = "snapshot request failed"

// Syncer is the fetch lifecycle controller. It owns the screen buffers
// for one pane, issues snapshot requests, enforces the at-most-one-
// tracked-attempt rule, discards stale responses, and converts every
// failure mode into the single exposed error string.
//
// All methods are safe for concurrent use. Fetch completions re-enter
// through handleResult, which applies the attempt-id staleness guard
// before touching any state: only the attempt whose id is currently
// tracked may commit, regardless of arrival order.
type Syncer struct {
	mu     sync.Mutex
	client SnapshotClient
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	paneID          string
	activeMode      Mode
	connected       bool
	connectionIssue string

	// nextAttemptID stamps dispatched attempts; trackedAttempt is the
	// only id allowed to commit results (0 = slot idle). Dispatching
	// while an attempt is in flight supersedes it: the slot moves to
	// the new attempt and trackedCancel tears down the old attempt's
	// transport so a hung request cannot accumulate connections.
	nextAttemptID  uint64
	trackedAttempt uint64
	trackedCancel  context.CancelFunc

	loadedOnce map[Mode]bool
	loading    bool

	// text is the authoritative text buffer, always advanced by
	// successful responses. visibleLines lags behind it while render
	// suppression is active; pendingDirty marks that lag. Only the
	// latest suppressed content survives — flushing copies text.Lines,
	// never a queue of intermediates.
	text         ScreenBuffer
	visibleLines []string
	pendingDirty bool

	image           []byte
	imageCapturedAt int64

	userScrolling bool
	atBottom      bool

	errorMessage   string
	fallbackReason string

	// updates coalesces change notifications for the UI: capacity 1,
	// non-blocking send.
	updates chan struct{}
}

// SyncerOption configures a Syncer.
type SyncerOption func(*Syncer)

// WithLogger sets the logger for background fetch diagnostics. The
// default discards nothing useful: slog.Default().
func WithLogger(logger *slog.Logger) SyncerOption {
	return func(syncer *Syncer) {
		syncer.logger = logger
	}
}

// NewSyncer creates a fetch lifecycle controller for the given pane.
// The syncer starts idle and connected-pessimistic; callers feed
// connectivity via SetConnected and trigger fetches via Refresh (the
// poll scheduler) or the mode/pane operations.
func NewSyncer(client SnapshotClient, paneID string, options ...SyncerOption) *Syncer {
	ctx, cancel := context.WithCancel(context.Background())
	syncer := &Syncer{
		client:     client,
		logger:     slog.Default(),
		ctx:        ctx,
		cancel:     cancel,
		paneID:     paneID,
		activeMode: ModeText,
		loadedOnce: make(map[Mode]bool),
		atBottom:   true,
		updates:    make(chan struct{}, 1),
	}
	for _, option := range options {
		option(syncer)
	}
	return syncer
}

// Close discards all in-flight work. Results arriving afterwards are
// dropped by the staleness guard; the context cancellation additionally
// tears down any open transport connections.
func (syncer *Syncer) Close() {
	syncer.cancel()
}

// Updates returns the coalescing notification channel. The UI drains it
// and re-reads Lines/Err/Loading; multiple changes may collapse into a
// single notification.
func (syncer *Syncer) Updates() <-chan struct{} {
	return syncer.updates
}

// Refresh dispatches a fetch for the active mode. Called by the poll
// scheduler on each tick and by the UI's explicit refresh operation.
func (syncer *Syncer) Refresh() {
	syncer.mu.Lock()
	defer syncer.mu.Unlock()
	syncer.dispatchLocked(syncer.activeMode, false)
}

// ChangeMode switches the active representation and fetches it
// immediately. The text buffer and its continuation cursor are
// discarded on every switch, so the first text fetch after a switch is
// a full snapshot; a fetch in flight for the previous mode is
// superseded and its result dropped.
func (syncer *Syncer) ChangeMode(mode Mode) {
	syncer.mu.Lock()
	defer syncer.mu.Unlock()
	if mode == syncer.activeMode {
		return
	}
	syncer.activeMode = mode
	syncer.fallbackReason = ""
	syncer.text.Clear()
	syncer.visibleLines = nil
	syncer.pendingDirty = false
	syncer.dispatchLocked(mode, true)
	syncer.notifyLocked()
}

// SetPane switches the observed pane. All per-pane state — buffers,
// cursors, loadedOnce, pending content, errors — is discarded; the
// caller (engine) triggers the first fetch and arms snap-to-bottom.
func (syncer *Syncer) SetPane(paneID string) {
	syncer.mu.Lock()
	defer syncer.mu.Unlock()
	if paneID == syncer.paneID {
		return
	}
	syncer.paneID = paneID
	syncer.cancelTrackedLocked()
	syncer.loading = false
	syncer.loadedOnce = make(map[Mode]bool)
	syncer.text.Clear()
	syncer.visibleLines = nil
	syncer.pendingDirty = false
	syncer.image = nil
	syncer.imageCapturedAt = 0
	syncer.errorMessage = ""
	syncer.fallbackReason = ""
	syncer.notifyLocked()
}

// SetConnected feeds the connectivity signal. Disconnection clears
// in-flight tracking and loading state and surfaces the disconnected
// sentinel — unless a more specific connection issue is active, in
// which case that message wins. Reconnection clears the sentinel even
// before any content arrives.
func (syncer *Syncer) SetConnected(connected bool) {
	syncer.mu.Lock()
	defer syncer.mu.Unlock()
	if connected == syncer.connected {
		return
	}
	syncer.connected = connected
	if !connected {
		syncer.cancelTrackedLocked()
		syncer.loading = false
		if syncer.connectionIssue != "" {
			syncer.errorMessage = syncer.connectionIssue
		} else {
			syncer.errorMessage = DisconnectedError
		}
	} else if syncer.errorMessage == DisconnectedError {
		syncer.errorMessage = ""
	}
	syncer.notifyLocked()
}

// SetConnectionIssue records a specific connection problem (for
// example IssueUnauthorized). While disconnected, the issue replaces
// the generic sentinel in the exposed error.
func (syncer *Syncer) SetConnectionIssue(issue string) {
	syncer.mu.Lock()
	defer syncer.mu.Unlock()
	syncer.connectionIssue = issue
	if !syncer.connected && issue != "" {
		syncer.errorMessage = issue
		syncer.notifyLocked()
	}
}

// ReportUserScrolling feeds the UI's "user is actively scrolling"
// signal. When scrolling stops, suppressed content flushes.
func (syncer *Syncer) ReportUserScrolling(scrolling bool) {
	syncer.mu.Lock()
	defer syncer.mu.Unlock()
	syncer.userScrolling = scrolling
	if !scrolling {
		syncer.flushPendingLocked()
	}
}

// ReportAtBottom feeds the UI's "viewport is at the true bottom"
// signal. Reaching the bottom flushes suppressed content immediately.
func (syncer *Syncer) ReportAtBottom(atBottom bool) {
	syncer.mu.Lock()
	defer syncer.mu.Unlock()
	syncer.atBottom = atBottom
	if atBottom {
		syncer.flushPendingLocked()
	}
}

// Lines returns the visible line buffer. The slice is shared; callers
// must not mutate it.
func (syncer *Syncer) Lines() []string {
	syncer.mu.Lock()
	defer syncer.mu.Unlock()
	return syncer.visibleLines
}

// Image returns the latest image payload and its capture timestamp.
func (syncer *Syncer) Image() ([]byte, int64) {
	syncer.mu.Lock()
	defer syncer.mu.Unlock()
	return syncer.image, syncer.imageCapturedAt
}

// Err returns the current exposed error message, empty when healthy.
func (syncer *Syncer) Err() string {
	syncer.mu.Lock()
	defer syncer.mu.Unlock()
	return syncer.errorMessage
}

// Loading reports whether a first-load or mode-switch fetch is in
// flight. Background refreshes of an already-loaded mode never raise
// it, so the indicator cannot flicker during steady-state polling.
func (syncer *Syncer) Loading() bool {
	syncer.mu.Lock()
	defer syncer.mu.Unlock()
	return syncer.loading
}

// FallbackReason returns the backend's explanation for declining delta
// mode on the most recent response, empty when delta mode held.
func (syncer *Syncer) FallbackReason() string {
	syncer.mu.Lock()
	defer syncer.mu.Unlock()
	return syncer.fallbackReason
}

// ActiveMode returns the representation currently being synchronized.
func (syncer *Syncer) ActiveMode() Mode {
	syncer.mu.Lock()
	defer syncer.mu.Unlock()
	return syncer.activeMode
}

// dispatchLocked issues a fetch for mode if a pane is selected and the
// connection is usable. An attempt already in flight is superseded:
// the new attempt takes the tracked slot and the old attempt's context
// is cancelled, so a hung request never stalls polling — the next tick
// replaces it and the staleness guard drops whatever the old attempt
// eventually returns.
func (syncer *Syncer) dispatchLocked(mode Mode, modeSwitch bool) {
	if syncer.paneID == "" || !syncer.connected {
		return
	}
	syncer.cancelTrackedLocked()

	syncer.nextAttemptID++
	attemptID := syncer.nextAttemptID
	syncer.trackedAttempt = attemptID
	attemptCtx, cancel := context.WithCancel(syncer.ctx)
	syncer.trackedCancel = cancel

	if modeSwitch || !syncer.loadedOnce[mode] {
		syncer.loading = true
	}

	request := SnapshotRequest{
		PaneID: syncer.paneID,
		Mode:   mode,
	}
	if mode == ModeText {
		request.Cursor = syncer.text.Cursor
	}

	go syncer.runAttempt(attemptCtx, attemptID, request)
}

// cancelTrackedLocked frees the tracked slot and cancels the in-flight
// attempt's context so its transport connection closes promptly.
func (syncer *Syncer) cancelTrackedLocked() {
	syncer.trackedAttempt = 0
	if syncer.trackedCancel != nil {
		syncer.trackedCancel()
		syncer.trackedCancel = nil
	}
}

// runAttempt performs the network call outside the lock and funnels
// the outcome through handleResult.
func (syncer *Syncer) runAttempt(ctx context.Context, attemptID uint64, request SnapshotRequest) {
	response, err := syncer.client.FetchSnapshot(ctx, request)
	syncer.handleResult(attemptID, request.Mode, response, err)
}

// handleResult applies a completed attempt. The staleness guard comes
// first: an attempt whose id no longer matches the tracked slot is
// dropped unconditionally, whatever it carries and in whatever order
// it arrived.
func (syncer *Syncer) handleResult(attemptID uint64, mode Mode, response *SnapshotResponse, err error) {
	syncer.mu.Lock()
	defer syncer.mu.Unlock()

	if attemptID != syncer.trackedAttempt {
		return
	}
	syncer.cancelTrackedLocked()
	syncer.loading = false
	defer syncer.notifyLocked()

	if err != nil {
		if syncer.ctx.Err() != nil {
			return
		}
		message := err.Error()
		if message == "" {
			message = genericFetchError
		}
		syncer.errorMessage = message
		return
	}

	if !response.OK {
		if response.Error != "" {
			syncer.errorMessage = response.Error
		} else {
			syncer.errorMessage = genericFetchError
		}
		return
	}

	syncer.errorMessage = ""
	syncer.loadedOnce[mode] = true
	syncer.fallbackReason = response.FallbackReason

	if mode == ModeImage {
		syncer.image = response.Image
		syncer.imageCapturedAt = response.CapturedAt
		return
	}

	syncer.applyTextResponseLocked(response)
}

// applyTextResponseLocked advances the authoritative text buffer from
// a successful text-mode response and commits or suppresses the result.
func (syncer *Syncer) applyTextResponseLocked(response *SnapshotResponse) {
	if response.IsFull() {
		screen, err := response.ScreenText()
		if err != nil {
			syncer.errorMessage = err.Error()
			return
		}
		if !syncer.text.ReplaceFull(screen, response.Cursor) {
			// Identical snapshot: nothing changed, nothing to commit.
			return
		}
	} else {
		if err := syncer.text.ApplyPatches(*response.Deltas, response.Cursor); err != nil {
			// Expected resync path, not a failure: the cursor is gone,
			// the next request fetches a full snapshot, and the last
			// good buffer stays on screen. Never show a half-patched
			// result and never surface an error for this alone.
			if !errors.Is(err, ErrPatchRange) {
				syncer.logger.Warn("delta apply failed", "pane", syncer.paneID, "error", err)
			}
			syncer.logger.Debug("delta batch rejected, falling back to full snapshot",
				"pane", syncer.paneID, "error", err)
			return
		}
	}

	if syncer.suppressRenderLocked() {
		syncer.pendingDirty = true
		return
	}
	syncer.commitLocked()
}

// suppressRenderLocked reports whether newly synchronized text content
// must be held back from the visible buffer: the user is scrolled away
// from the bottom and actively scrolling, in text mode.
func (syncer *Syncer) suppressRenderLocked() bool {
	return syncer.activeMode == ModeText && !syncer.atBottom && syncer.userScrolling
}

// flushPendingLocked commits suppressed content. Only the latest
// synchronized state flushes — intermediate buffers that arrived during
// suppression were already overwritten in the authoritative buffer.
func (syncer *Syncer) flushPendingLocked() {
	if !syncer.pendingDirty {
		return
	}
	syncer.commitLocked()
	syncer.notifyLocked()
}

func (syncer *Syncer) commitLocked() {
	syncer.visibleLines = syncer.text.Lines
	syncer.pendingDirty = false
}

func (syncer *Syncer) notifyLocked() {
	select {
	case syncer.updates <- struct{}{}:
	default:
	}
}
