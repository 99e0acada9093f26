// Copyright 2026 The Panescope Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared channel assertion helpers.
//
// [RequireReceive], [RequireNoReceive], and [RequireClosed] wrap the
// select-with-timeout pattern so tests never hang on a channel and
// never hold ad hoc time.After calls. These are the only wall-clock
// timeouts in the test suite; everything timer-driven goes through
// lib/clock's fake.
//
// All helpers call t.Fatalf on failure — setup failures in tests are
// not recoverable.
package testutil
