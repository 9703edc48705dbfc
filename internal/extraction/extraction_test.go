// Cartographus Ingest - Local-Intelligence Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus-ingest

package extraction

import (
	"testing"
)

func TestParseExtractedValidResponse(t *testing.T) {
	raw := `{
		"incident_type": "structure fire",
		"category": "fire",
		"address": "412 Main St",
		"city": "Woodstock",
		"occurred_at": "2026-07-30T02:31:00Z",
		"urgency_score": 8,
		"title": "Structure fire reported on Main St",
		"description": "Crews responding to a reported structure fire.",
		"extraction_confidence": 0.82
	}`

	extracted, err := parseExtracted(raw)
	if err != nil {
		t.Fatalf("parseExtracted returned error: %v", err)
	}
	if extracted.IncidentType != "structure fire" || extracted.UrgencyScore != 8 {
		t.Errorf("got %+v, unexpected fields", extracted)
	}
}

func TestParseExtractedNoIncidentFound(t *testing.T) {
	_, err := parseExtracted(`{"incident_type": null}`)
	if !NoIncidentFound(err) {
		t.Fatalf("got err %v, want NoIncidentFound", err)
	}
}

func TestParseExtractedRejectsInvalidCategory(t *testing.T) {
	raw := `{"incident_type":"x","category":"not_a_category","urgency_score":5,"title":"t","extraction_confidence":0.5}`
	if _, err := parseExtracted(raw); err == nil {
		t.Fatal("expected error for category outside the closed set")
	}
}

func TestParseExtractedRejectsOutOfRangeUrgency(t *testing.T) {
	raw := `{"incident_type":"x","category":"fire","urgency_score":11,"title":"t","extraction_confidence":0.5}`
	if _, err := parseExtracted(raw); err == nil {
		t.Fatal("expected error for urgency_score outside [1,10]")
	}
}

func TestParseExtractedRejectsOutOfRangeConfidence(t *testing.T) {
	raw := `{"incident_type":"x","category":"fire","urgency_score":5,"title":"t","extraction_confidence":1.5}`
	if _, err := parseExtracted(raw); err == nil {
		t.Fatal("expected error for extraction_confidence outside [0,1]")
	}
}

func TestParseExtractedRejectsNonJSON(t *testing.T) {
	if _, err := parseExtracted("not json at all"); err == nil {
		t.Fatal("expected error for non-JSON response")
	}
}

func TestParseExtractedRejectsEmptyTitle(t *testing.T) {
	raw := `{"incident_type":"x","category":"fire","urgency_score":5,"title":"","extraction_confidence":0.5}`
	if _, err := parseExtracted(raw); err == nil {
		t.Fatal("expected error for empty title")
	}
}
