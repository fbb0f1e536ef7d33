// Mediagraph - Media Catalog Hypergraph Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediagraph

package transform

import "testing"

func TestStableID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want string
	}{
		{"Action", "1422950858"},
		{"action", "1422950858"},
		{"ACTION", "1422950858"},
		{"Adventure", "694094064"},
		{"Science Fiction", "1301049688"},
		{"Drama", "95844967"},
		{"x", "120"},
		{"", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := StableID(tt.name); got != tt.want {
				t.Errorf("StableID(%q) = %s, want %s", tt.name, got, tt.want)
			}
		})
	}
}

func TestStableID_Deterministic(t *testing.T) {
	t.Parallel()

	first := StableID("Action")
	for i := 0; i < 100; i++ {
		if got := StableID("Action"); got != first {
			t.Fatalf("iteration %d: StableID changed from %s to %s", i, first, got)
		}
	}
}

func TestStableID_NonNegative(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"a very long keyword that overflows many times", "日本語", "Ünïcødé", "😀 emoji"} {
		id := StableID(name)
		if id == "" || id[0] == '-' {
			t.Errorf("StableID(%q) = %q, want non-negative decimal", name, id)
		}
	}
}
