// Copyright 2026 The Panescope Authors
// SPDX-License-Identifier: Apache-2.0

package screensync

import (
	"errors"
	"fmt"
)

// ErrPatchRange is returned by ApplyDeltas when a patch's splice range
// falls outside the working buffer at the time the patch is applied.
// The whole batch is rejected; callers must discard the continuation
// cursor and fall back to a full snapshot on the next request.
var ErrPatchRange = errors.New("delta patch out of range")

// DeltaPatch is a single line-splice instruction: remove DeleteCount
// lines starting at Start, then insert InsertLines at that position.
// A response carries an ordered batch of patches applied left to right,
// each against the buffer produced by the previous patch.
type DeltaPatch struct {
	// Start is the line index the splice begins at.
	Start int `cbor:"start"`

	// DeleteCount is the number of lines removed at Start.
	DeleteCount int `cbor:"delete_count"`

	// InsertLines are inserted at Start after the deletion.
	InsertLines []string `cbor:"insert_lines,omitempty"`
}

// ApplyDeltas applies an ordered batch of patches to a line buffer and
// returns the resulting lines. The input slice is never mutated; the
// result is always a fresh slice (even for an empty batch, so callers
// may retain it independently of the input).
//
// Each patch is validated against the working buffer's length at the
// moment it is applied — earlier patches in the batch may have grown or
// shrunk the buffer. The first invalid patch aborts the whole batch
// with ErrPatchRange and no partial result is exposed.
func ApplyDeltas(lines []string, patches []DeltaPatch) ([]string, error) {
	working := make([]string, len(lines))
	copy(working, lines)

	for index, patch := range patches {
		if patch.Start < 0 || patch.DeleteCount < 0 {
			return nil, fmt.Errorf("patch %d: negative start or delete count: %w", index, ErrPatchRange)
		}
		if patch.Start+patch.DeleteCount > len(working) {
			return nil, fmt.Errorf("patch %d: splice [%d,%d) exceeds %d lines: %w",
				index, patch.Start, patch.Start+patch.DeleteCount, len(working), ErrPatchRange)
		}

		next := make([]string, 0, len(working)-patch.DeleteCount+len(patch.InsertLines))
		next = append(next, working[:patch.Start]...)
		next = append(next, patch.InsertLines...)
		next = append(next, working[patch.Start+patch.DeleteCount:]...)
		working = next
	}

	return working, nil
}
