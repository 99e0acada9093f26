// Copyright 2026 The Panescope Authors
// SPDX-License-Identifier: Apache-2.0

package screensync

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestNormalizeScreen(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		screen string
		want   string
	}{
		{name: "unix passthrough", screen: "a\nb", want: "a\nb"},
		{name: "crlf collapsed", screen: "a\r\nb\r\nc", want: "a\nb\nc"},
		{name: "mixed endings", screen: "a\r\nb\nc\r\n", want: "a\nb\nc\n"},
		{name: "bare carriage return kept", screen: "a\rb", want: "a\rb"},
		{name: "empty", screen: "", want: ""},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			if got := NormalizeScreen(test.screen); got != test.want {
				t.Errorf("NormalizeScreen(%q) = %q, want %q", test.screen, got, test.want)
			}
		})
	}
}

func TestReplaceFullMaintainsLineInvariant(t *testing.T) {
	t.Parallel()

	var buffer ScreenBuffer
	if changed := buffer.ReplaceFull("one\r\ntwo\r\nthree", "cur-1"); !changed {
		t.Error("ReplaceFull() = false, want true for new content")
	}

	if got, want := buffer.Text, "one\ntwo\nthree"; got != want {
		t.Errorf("Text = %q, want %q", got, want)
	}
	if got, want := buffer.Lines, []string{"one", "two", "three"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Lines = %v, want %v", got, want)
	}
	if got := strings.Join(buffer.Lines, "\n"); got != buffer.Text {
		t.Errorf("join(Lines) = %q, want Text %q", got, buffer.Text)
	}
	if got, want := buffer.Cursor, "cur-1"; got != want {
		t.Errorf("Cursor = %q, want %q", got, want)
	}
}

func TestReplaceFullSkipsIdenticalContent(t *testing.T) {
	t.Parallel()

	var buffer ScreenBuffer
	buffer.ReplaceFull("same\ncontent", "cur-1")
	firstLines := buffer.Lines

	if changed := buffer.ReplaceFull("same\ncontent", "cur-2"); changed {
		t.Error("ReplaceFull() = true for identical content, want false")
	}
	if &buffer.Lines[0] != &firstLines[0] {
		t.Error("identical snapshot replaced the line slice, want untouched")
	}
	// The cursor still advances so delta mode keeps its continuation.
	if got, want := buffer.Cursor, "cur-2"; got != want {
		t.Errorf("Cursor = %q, want %q", got, want)
	}

	if changed := buffer.ReplaceFull("different", "cur-3"); !changed {
		t.Error("ReplaceFull() = false for changed content, want true")
	}
}

func TestApplyPatchesAdvancesBuffer(t *testing.T) {
	t.Parallel()

	var buffer ScreenBuffer
	buffer.ReplaceFull("a\nb\nc", "cur-1")

	err := buffer.ApplyPatches([]DeltaPatch{
		{Start: 0, DeleteCount: 1},
		{Start: 2, DeleteCount: 0, InsertLines: []string{"d"}},
	}, "cur-2")
	if err != nil {
		t.Fatalf("ApplyPatches() error = %v, want nil", err)
	}

	if got, want := buffer.Lines, []string{"b", "c", "d"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Lines = %v, want %v", got, want)
	}
	if got, want := buffer.Text, "b\nc\nd"; got != want {
		t.Errorf("Text = %q, want %q", got, want)
	}
	if got, want := buffer.Cursor, "cur-2"; got != want {
		t.Errorf("Cursor = %q, want %q", got, want)
	}
}

func TestApplyPatchesFailureKeepsContentDropsCursor(t *testing.T) {
	t.Parallel()

	var buffer ScreenBuffer
	buffer.ReplaceFull("a\nb", "cur-1")

	err := buffer.ApplyPatches([]DeltaPatch{
		{Start: 5, DeleteCount: 1},
	}, "cur-2")
	if !errors.Is(err, ErrPatchRange) {
		t.Fatalf("ApplyPatches() error = %v, want ErrPatchRange", err)
	}

	if got, want := buffer.Lines, []string{"a", "b"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Lines = %v, want last good content %v", got, want)
	}
	if got := buffer.Cursor; got != "" {
		t.Errorf("Cursor = %q, want empty after failed delta", got)
	}
}

func TestClearResetsEverything(t *testing.T) {
	t.Parallel()

	var buffer ScreenBuffer
	buffer.ReplaceFull("content", "cur-1")
	buffer.Clear()

	if buffer.Text != "" || buffer.Lines != nil || buffer.Cursor != "" {
		t.Errorf("Clear() left state: Text=%q Lines=%v Cursor=%q", buffer.Text, buffer.Lines, buffer.Cursor)
	}

	// After Clear, re-applying the previously identical content must
	// commit again rather than hit the fingerprint skip.
	if changed := buffer.ReplaceFull("content", "cur-2"); !changed {
		t.Error("ReplaceFull() after Clear = false, want true")
	}
}
