// Copyright 2026 The Panescope Authors
// SPDX-License-Identifier: Apache-2.0

// Package screensync implements the live screen synchronization engine:
// it turns a stream of full-or-partial pane snapshots from a backend
// into a stable in-memory line buffer, decides when to fetch, suppress,
// or discard snapshot requests, and keeps a scrolled-up viewport
// visually pinned while the buffer mutates underneath it.
//
// The package is organized around the synchronization data flow:
//
//   - delta.go: pure line-splice reconciliation of delta batches
//   - anchor.go: content-aware remapping of a scroll anchor between buffers
//   - buffer.go: the owned screen state (text, lines, cursor, fingerprint)
//   - protocol.go: the consumed backend snapshot contract (CBOR)
//   - client.go: one-shot snapshot client over a Unix socket
//   - syncer.go: fetch lifecycle (attempt ids, staleness guard, suppression)
//   - scheduler.go: poll timing gated by visibility, connectivity, and auth
//   - viewport.go: following/anchored scroll stability state machine
//   - engine.go: composition and the surface consumed by the dashboard
//
// The engine owns no rendering. The dashboard (lib/screenui) reads the
// line buffer, reports scroll state back in, and applies the pixel (or
// row) corrections the viewport controller computes.
//
// Concurrency: each stateful unit guards its own state with a mutex and
// is safe for concurrent use. Snapshot fetches are the only asynchronous
// boundary; completions re-enter the Syncer through a single handler
// that applies the attempt-id staleness guard before touching shared
// state. Fetches are never cancelled at the transport level — a
// superseded attempt's result is simply discarded on arrival.
package screensync
