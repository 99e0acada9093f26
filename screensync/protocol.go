// Copyright 2026 The Panescope Authors
// SPDX-License-Identifier: Apache-2.0

package screensync

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Mode selects the screen representation being fetched. Text and image
// are mutually exclusive and tracked independently by the Syncer.
type Mode string

const (
	// ModeText fetches the pane content as newline-separated text,
	// eligible for delta responses.
	ModeText Mode = "text"

	// ModeImage fetches a rendered image of the pane. Always a full
	// payload; there is no delta form for images.
	ModeImage Mode = "image"
)

// SnapshotRequest is the client half of the backend snapshot contract.
// Sent as a single CBOR value on a fresh socket connection.
type SnapshotRequest struct {
	// PaneID identifies the remote session pane to capture.
	PaneID string `cbor:"pane_id"`

	// Mode is the requested representation.
	Mode Mode `cbor:"mode"`

	// Cursor is the continuation token from the previous response.
	// Empty requests a full snapshot; non-empty opts into delta mode,
	// which the backend may decline on any response.
	Cursor string `cbor:"cursor,omitempty"`
}

// SnapshotResponse is the backend's reply. Exactly one of the content
// forms is meaningful per response:
//
//   - full text: Screen (or ScreenZstd) set
//   - delta text: Deltas set, Screen absent, Full false
//   - image: Image set
//   - neither: treated as a full, empty screen
//
// A response is treated as full when Full is true, a screen field is
// present, or Deltas is absent — delta mode is an optimization the
// backend may silently decline.
type SnapshotResponse struct {
	// OK is false when the backend could not capture; Error carries
	// the reason.
	OK bool `cbor:"ok"`

	// Mode echoes the representation actually captured.
	Mode Mode `cbor:"mode,omitempty"`

	// CapturedAt is the backend capture timestamp in Unix milliseconds.
	CapturedAt int64 `cbor:"captured_at,omitempty"`

	// Screen is the full screen text. A pointer so "present but empty"
	// is distinguishable from "absent".
	Screen *string `cbor:"screen,omitempty"`

	// ScreenZstd is a zstd-compressed alternative to Screen, used by
	// backends that capture large scrollback. Counts as a present
	// screen field for the full-response rule.
	ScreenZstd []byte `cbor:"screen_zstd,omitempty"`

	// Deltas is the ordered patch batch against the buffer identified
	// by the request cursor. Nil when absent.
	Deltas *[]DeltaPatch `cbor:"deltas,omitempty"`

	// Cursor is the continuation token for the next request.
	Cursor string `cbor:"cursor,omitempty"`

	// Full explicitly marks a full replace even when Deltas is set.
	Full bool `cbor:"full,omitempty"`

	// FallbackReason explains why the backend declined delta mode
	// (e.g., "cursor expired"). Informational; surfaced to the UI.
	FallbackReason string `cbor:"fallback_reason,omitempty"`

	// Image is the rendered pane image for ModeImage requests.
	Image []byte `cbor:"image,omitempty"`

	// Error describes the failure when OK is false.
	Error string `cbor:"error,omitempty"`
}

// IsFull reports whether the response must be applied as a wholesale
// replace rather than a delta batch.
func (response *SnapshotResponse) IsFull() bool {
	return response.Full || response.Screen != nil || response.ScreenZstd != nil || response.Deltas == nil
}

// ScreenText returns the full screen content, decompressing ScreenZstd
// when the backend sent the compressed form. Returns the empty string
// for responses with no screen field (the full-empty case).
func (response *SnapshotResponse) ScreenText() (string, error) {
	if response.Screen != nil {
		return *response.Screen, nil
	}
	if response.ScreenZstd != nil {
		decoded, err := decompressScreen(response.ScreenZstd)
		if err != nil {
			return "", fmt.Errorf("decompress screen: %w", err)
		}
		return decoded, nil
	}
	return "", nil
}

// zstd encoder/decoder are stateless across calls (concurrency 1 per
// operation via EncodeAll/DecodeAll) and reused process-wide.
var (
	screenEncoder *zstd.Encoder
	screenDecoder *zstd.Decoder
)

func init() {
	var err error
	screenEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1))
	if err != nil {
		panic("screensync: zstd encoder initialization failed: " + err.Error())
	}
	screenDecoder, err = zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		panic("screensync: zstd decoder initialization failed: " + err.Error())
	}
}

// CompressScreen compresses full screen text for the ScreenZstd field.
// Used by backends (and the mock agent); the engine only decompresses.
func CompressScreen(screen string) []byte {
	return screenEncoder.EncodeAll([]byte(screen), nil)
}

// maxScreenBytes caps decompressed screen size. 64 MB is far beyond any
// real scrollback; the cap exists so a corrupt length header cannot
// balloon memory.
const maxScreenBytes = 64 * 1024 * 1024

func decompressScreen(compressed []byte) (string, error) {
	decoded, err := screenDecoder.DecodeAll(compressed, nil)
	if err != nil {
		return "", err
	}
	if len(decoded) > maxScreenBytes {
		return "", fmt.Errorf("decompressed screen %d bytes exceeds maximum %d", len(decoded), maxScreenBytes)
	}
	return string(decoded), nil
}
