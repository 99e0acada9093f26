// Copyright 2026 The Panescope Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/panescope/panescope/screensync"
)

func TestComputeDeltasRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		old     []string
		current []string
	}{
		{
			name:    "pure append",
			old:     []string{"a", "b"},
			current: []string{"a", "b", "c", "d"},
		},
		{
			name:    "top eviction with append",
			old:     []string{"a", "b", "c"},
			current: []string{"b", "c", "d"},
		},
		{
			name:    "middle rewrite",
			old:     []string{"a", "b", "c", "d"},
			current: []string{"a", "X", "Y", "d"},
		},
		{
			name:    "no change",
			old:     []string{"a", "b"},
			current: []string{"a", "b"},
		},
		{
			name:    "total replacement",
			old:     []string{"a", "b"},
			current: []string{"x"},
		},
		{
			name:    "from empty",
			old:     nil,
			current: []string{"first"},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			patches := computeDeltas(test.old, test.current)
			got, err := screensync.ApplyDeltas(test.old, patches)
			if err != nil {
				t.Fatalf("ApplyDeltas() error = %v, want nil", err)
			}
			if !reflect.DeepEqual(got, test.current) {
				t.Errorf("round trip = %v, want %v", got, test.current)
			}
		})
	}
}

func TestComputeDeltasScrollbackEvolution(t *testing.T) {
	t.Parallel()

	// Simulate the ticker: append with a 5-line cap, verifying each
	// step's patch applies cleanly to the previous revision.
	lines := []string{"start"}
	for i := 0; i < 20; i++ {
		next := append(append([]string{}, lines...), fmt.Sprintf("tick %d", i))
		if len(next) > 5 {
			next = next[len(next)-5:]
		}

		patches := computeDeltas(lines, next)
		got, err := screensync.ApplyDeltas(lines, patches)
		if err != nil {
			t.Fatalf("step %d: ApplyDeltas() error = %v", i, err)
		}
		if !reflect.DeepEqual(got, next) {
			t.Fatalf("step %d: round trip = %v, want %v", i, got, next)
		}
		lines = next
	}
}
