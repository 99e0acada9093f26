// Copyright 2026 The Panescope Authors
// SPDX-License-Identifier: Apache-2.0

package screensync

import (
	"strings"

	"github.com/zeebo/blake3"
)

// ScreenBuffer is the owned screen state for one (pane, mode) pair: the
// newline-normalized text, its line decomposition, and the continuation
// cursor that opts the next request into delta mode.
//
// Invariant: strings.Join(Lines, "\n") == Text after every successful
// apply. The zero value is a valid empty buffer.
//
// ScreenBuffer is not safe for concurrent use; the Syncer owns it and
// serializes access.
type ScreenBuffer struct {
	// Text is the full current screen content with \r\n collapsed to \n.
	Text string

	// Lines is Text split on \n. This is the unit the reconciler and
	// the viewport controller operate on.
	Lines []string

	// Cursor is the opaque continuation token from the last response.
	// Empty means the next request asks for a full snapshot. Reset to
	// empty whenever a delta fails to apply or the pane/mode changes.
	Cursor string

	// fingerprint is a blake3 hash of Text, used to detect that a full
	// snapshot is byte-identical to the current content so the commit
	// (and the resulting viewport churn) can be skipped.
	fingerprint [32]byte
	hasContent  bool
}

// NormalizeScreen collapses Windows line endings so that line indices
// agree between the backend's splice coordinates and the local buffer.
func NormalizeScreen(screen string) string {
	return strings.ReplaceAll(screen, "\r\n", "\n")
}

// ReplaceFull replaces the buffer wholesale with a full snapshot.
// Returns true if the content actually changed; an identical snapshot
// leaves the buffer (and its line slice identity) untouched so
// downstream observers see no mutation.
func (buffer *ScreenBuffer) ReplaceFull(screen string, cursor string) bool {
	normalized := NormalizeScreen(screen)
	sum := blake3.Sum256([]byte(normalized))
	if buffer.hasContent && sum == buffer.fingerprint {
		buffer.Cursor = cursor
		return false
	}
	buffer.Text = normalized
	buffer.Lines = strings.Split(normalized, "\n")
	buffer.Cursor = cursor
	buffer.fingerprint = sum
	buffer.hasContent = true
	return true
}

// ApplyPatches applies a delta batch to the buffer. On success the
// buffer's text, lines, and cursor advance together. On failure the
// buffer keeps its last good content but drops the cursor, forcing the
// next request into full-snapshot mode.
func (buffer *ScreenBuffer) ApplyPatches(patches []DeltaPatch, cursor string) error {
	next, err := ApplyDeltas(buffer.Lines, patches)
	if err != nil {
		buffer.Cursor = ""
		return err
	}
	buffer.Lines = next
	buffer.Text = strings.Join(next, "\n")
	buffer.Cursor = cursor
	buffer.fingerprint = blake3.Sum256([]byte(buffer.Text))
	buffer.hasContent = true
	return nil
}

// Clear resets the buffer to its initial empty state. Used on pane or
// mode switches, where stale content from the previous target must not
// bleed into the new one.
func (buffer *ScreenBuffer) Clear() {
	*buffer = ScreenBuffer{}
}
