// Copyright 2026 The Panescope Authors
// SPDX-License-Identifier: Apache-2.0

package screensync

// anchorSearchWindow bounds the suffix/prefix overlap search in
// MapAnchorIndex. Terminal scrollback eviction trims a handful of lines
// per poll interval; searching a few hundred covers every realistic
// trim without degrading to quadratic work on large buffers.
const anchorSearchWindow = 256

// MapAnchorIndex finds the index in next whose content most plausibly
// corresponds to previous[anchorIndex]. It is tuned for the terminal
// scrollback pattern — lines appended at the bottom, optionally evicted
// from the top — and is deliberately heuristic: a bounded overlap
// search, not a full diff, so its cost stays flat as buffers grow.
//
// When the content at the remapped position still does not match
// (a genuine mid-buffer edit), the original index is returned clamped
// into range. That positional fallback can anchor to the wrong visual
// line after arbitrary mutations; it is an accepted approximation.
func MapAnchorIndex(previous, next []string, anchorIndex int) int {
	if len(next) == 0 {
		return 0
	}
	if anchorIndex < 0 {
		anchorIndex = 0
	}
	if anchorIndex >= len(previous) {
		anchorIndex = len(previous) - 1
	}
	if anchorIndex < 0 {
		// previous was empty; nothing to map from.
		return clampIndex(0, len(next))
	}

	// Cheap path: same line at the same index covers pure append.
	if anchorIndex < len(next) && next[anchorIndex] == previous[anchorIndex] {
		return anchorIndex
	}

	dropTop := topEvictionCount(previous, next)
	if dropTop > 0 {
		candidate := clampIndex(anchorIndex-dropTop, len(next))
		if candidate < len(next) && next[candidate] == previous[anchorIndex] {
			return candidate
		}
	}

	return clampIndex(anchorIndex, len(next))
}

// topEvictionCount detects how many lines were dropped from the top of
// previous: the largest k (within the search window) such that
// previous[k:] is a prefix of next, compared over a bounded span.
func topEvictionCount(previous, next []string) int {
	limit := len(previous)
	if limit > anchorSearchWindow {
		limit = anchorSearchWindow
	}

	for k := 1; k <= limit; k++ {
		if suffixMatchesPrefix(previous, next, k) {
			return k
		}
	}
	return 0
}

// suffixMatchesPrefix reports whether previous[k:] lines up with the
// start of next. The comparison span is bounded by the search window;
// matching a window's worth of consecutive lines is decisive for
// terminal content.
func suffixMatchesPrefix(previous, next []string, k int) bool {
	span := len(previous) - k
	if span > len(next) {
		span = len(next)
	}
	if span > anchorSearchWindow {
		span = anchorSearchWindow
	}
	if span <= 0 {
		return false
	}
	for i := 0; i < span; i++ {
		if previous[k+i] != next[i] {
			return false
		}
	}
	return true
}

func clampIndex(index, length int) int {
	if index < 0 {
		return 0
	}
	if index >= length {
		return length - 1
	}
	return index
}
