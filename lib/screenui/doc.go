// Copyright 2026 The Panescope Authors
// SPDX-License-Identifier: Apache-2.0

// Package screenui is the terminal dashboard for watching live session
// panes. It renders the synchronization engine's line buffer in a
// scrollable viewport, routes scroll and focus events back into the
// engine, and surfaces engine status (errors, loading, pause reason,
// delta fallback) in a status bar.
//
// The model consumes the engine through the [Engine] interface so tests
// can substitute a scripted fake; the production implementation is
// *screensync.Engine.
package screenui
