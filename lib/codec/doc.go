// Copyright 2026 The Panescope Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec centralizes the CBOR configuration shared by the
// snapshot client and the mock agent: deterministic encoding, string
// map keys, unknown fields ignored. Importers never touch
// fxamacker/cbor directly, so the wire configuration cannot drift
// between the two sides.
package codec
