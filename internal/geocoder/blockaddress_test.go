// Cartographus Ingest - Local-Intelligence Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus-ingest

package geocoder

import "testing"

func TestParseBlockAddress(t *testing.T) {
	cases := []struct {
		name       string
		address    string
		wantNumber int
		wantStreet string
		wantOK     bool
	}{
		{"plain address", "412 Main St", 412, "main", true},
		{"blotter block phrasing", "1200 block of Main Street", 1200, "main", true},
		{"city tail dropped", "88 Lake Ave, Woodstock, IL", 88, "lake", true},
		{"no leading digits", "Main St near the courthouse", 0, "", false},
		{"mixed-case suffix", "7 Elm DR", 7, "elm", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			n, street, ok := ParseBlockAddress(tc.address)
			if ok != tc.wantOK {
				t.Fatalf("ParseBlockAddress(%q) ok = %v, want %v", tc.address, ok, tc.wantOK)
			}
			if !ok {
				return
			}
			if n != tc.wantNumber {
				t.Errorf("ParseBlockAddress(%q) number = %d, want %d", tc.address, n, tc.wantNumber)
			}
			if street != tc.wantStreet {
				t.Errorf("ParseBlockAddress(%q) street = %q, want %q", tc.address, street, tc.wantStreet)
			}
		})
	}
}
