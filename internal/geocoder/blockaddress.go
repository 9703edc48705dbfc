// Cartographus Ingest - Local-Intelligence Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus-ingest/internal/geocoder

package geocoder

import (
	"regexp"
	"strconv"
	"strings"
)

// blockAddressPattern matches an ordinary US street address, capturing
// the leading house number and the street name. It also matches the
// "1200 block of Main St" phrasing common in police blotters, where the
// house number is only known to the nearest hundred — the leading digits
// are taken as-is and CoversBlock's range check handles the imprecision.
var blockAddressPattern = regexp.MustCompile(`(?i)^\s*(\d{1,6})\s*(?:block of\s+)?(.+?)\s*$`)

// streetSuffixes is stripped from the end of a normalized street name so
// "Main Street" and "Main St" key the same centerline row.
var streetSuffixes = map[string]string{
	"street": "", "st": "", "avenue": "", "ave": "", "road": "", "rd": "",
	"drive": "", "dr": "", "lane": "", "ln": "", "boulevard": "", "blvd": "",
	"court": "", "ct": "", "place": "", "pl": "", "way": "", "terrace": "", "ter": "",
}

// ParseBlockAddress extracts a house number and a normalized street name
// from a free-text address string, returning ok=false when it doesn't
// look like a street address at all (no leading digits).
func ParseBlockAddress(address string) (houseNumber int, streetNameNormalized string, ok bool) {
	matches := blockAddressPattern.FindStringSubmatch(address)
	if matches == nil {
		return 0, "", false
	}

	n, err := strconv.Atoi(matches[1])
	if err != nil {
		return 0, "", false
	}

	return n, normalizeStreetName(matches[2]), true
}

func normalizeStreetName(raw string) string {
	// Drop anything after a comma (city/state/zip tail).
	if idx := strings.Index(raw, ","); idx >= 0 {
		raw = raw[:idx]
	}

	fields := strings.Fields(strings.ToLower(raw))
	if len(fields) == 0 {
		return ""
	}

	last := strings.Trim(fields[len(fields)-1], ".")
	if _, isSuffix := streetSuffixes[last]; isSuffix {
		fields = fields[:len(fields)-1]
	}

	return strings.Join(fields, " ")
}
