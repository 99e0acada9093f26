// Copyright 2026 The Panescope Authors
// SPDX-License-Identifier: Apache-2.0

package screensync

import (
	"strings"
	"testing"
)

func stringPointer(s string) *string { return &s }

func TestSnapshotResponseIsFull(t *testing.T) {
	t.Parallel()

	deltas := []DeltaPatch{{Start: 0, DeleteCount: 0, InsertLines: []string{"x"}}}
	emptyDeltas := []DeltaPatch{}

	tests := []struct {
		name     string
		response SnapshotResponse
		want     bool
	}{
		{
			name:     "screen present",
			response: SnapshotResponse{OK: true, Screen: stringPointer("content")},
			want:     true,
		},
		{
			name:     "screen present but empty string",
			response: SnapshotResponse{OK: true, Screen: stringPointer("")},
			want:     true,
		},
		{
			name:     "compressed screen present",
			response: SnapshotResponse{OK: true, ScreenZstd: CompressScreen("content")},
			want:     true,
		},
		{
			name:     "deltas only",
			response: SnapshotResponse{OK: true, Deltas: &deltas},
			want:     false,
		},
		{
			name:     "empty delta batch is still delta mode",
			response: SnapshotResponse{OK: true, Deltas: &emptyDeltas},
			want:     false,
		},
		{
			name:     "full flag overrides deltas",
			response: SnapshotResponse{OK: true, Full: true, Deltas: &deltas},
			want:     true,
		},
		{
			name:     "screen and deltas both present",
			response: SnapshotResponse{OK: true, Screen: stringPointer("s"), Deltas: &deltas},
			want:     true,
		},
		{
			name:     "nothing present means full empty screen",
			response: SnapshotResponse{OK: true},
			want:     true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			if got := test.response.IsFull(); got != test.want {
				t.Errorf("IsFull() = %v, want %v", got, test.want)
			}
		})
	}
}

func TestScreenTextPrefersUncompressed(t *testing.T) {
	t.Parallel()

	response := SnapshotResponse{
		OK:         true,
		Screen:     stringPointer("plain"),
		ScreenZstd: CompressScreen("compressed"),
	}
	got, err := response.ScreenText()
	if err != nil {
		t.Fatalf("ScreenText() error = %v, want nil", err)
	}
	if got != "plain" {
		t.Errorf("ScreenText() = %q, want %q", got, "plain")
	}
}

func TestScreenTextDecompresses(t *testing.T) {
	t.Parallel()

	screen := strings.Repeat("the same scrollback line\n", 4096)
	compressed := CompressScreen(screen)
	if len(compressed) >= len(screen) {
		t.Errorf("CompressScreen() produced %d bytes for %d input bytes, want smaller", len(compressed), len(screen))
	}

	response := SnapshotResponse{OK: true, ScreenZstd: compressed}
	got, err := response.ScreenText()
	if err != nil {
		t.Fatalf("ScreenText() error = %v, want nil", err)
	}
	if got != screen {
		t.Errorf("ScreenText() round trip mismatch: got %d bytes, want %d", len(got), len(screen))
	}
}

func TestScreenTextCorruptCompressed(t *testing.T) {
	t.Parallel()

	response := SnapshotResponse{OK: true, ScreenZstd: []byte("not zstd at all")}
	if _, err := response.ScreenText(); err == nil {
		t.Error("ScreenText() error = nil for corrupt payload, want error")
	}
}

func TestScreenTextAbsent(t *testing.T) {
	t.Parallel()

	response := SnapshotResponse{OK: true}
	got, err := response.ScreenText()
	if err != nil {
		t.Fatalf("ScreenText() error = %v, want nil", err)
	}
	if got != "" {
		t.Errorf("ScreenText() = %q, want empty for absent screen", got)
	}
}
