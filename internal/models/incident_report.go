// Cartographus Ingest - Local-Intelligence Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus-ingest

package models

import "time"

// IncidentReport is a single raw observation produced by the extraction
// engine from one source fetch. Reports are never merged or destroyed —
// provenance is permanent — and are mutated only by the deduplicator,
// which sets IncidentID/DedupStatus exactly once.
type IncidentReport struct {
	ID       string `json:"id" db:"id"`
	SourceID string `json:"source_id" db:"source_id"`

	// ExternalID is the source-local dedup key: an RSS/API guid or link,
	// or a stable hash of (url, entry text) for HTML sources; no headline
	// or date is extracted for the hash.
	// (source_id, external_id) is unique.
	ExternalID string `json:"external_id" db:"external_id"`
	SourceURL  string `json:"source_url" db:"source_url"`

	RawText          string          `json:"raw_text" db:"raw_text"`
	ExtractedPayload string          `json:"extracted_payload" db:"extracted_payload"` // raw JSON from the extraction engine
	IncidentType     string          `json:"incident_type" db:"incident_type"`
	Address          string          `json:"address,omitempty" db:"address"`
	City             string          `json:"city,omitempty" db:"city"`
	Location         *Point          `json:"location,omitempty" db:"location"`

	OccurredAt *time.Time `json:"occurred_at,omitempty" db:"occurred_at"`
	IngestedAt time.Time  `json:"ingested_at" db:"ingested_at"`

	ExtractionModel      string  `json:"extraction_model" db:"extraction_model"`
	ExtractionConfidence float64 `json:"extraction_confidence" db:"extraction_confidence"` // [0,1]

	DedupStatus      DedupStatus `json:"dedup_status" db:"dedup_status"`
	DedupProcessedAt *time.Time  `json:"dedup_processed_at,omitempty" db:"dedup_processed_at"`
	IncidentID       *string     `json:"incident_id,omitempty" db:"incident_id"`
}

// DedupWindowTime returns the timestamp the deduplicator uses for its
// time-window comparison: OccurredAt when known, falling back to
// IngestedAt. Only the comparison uses the substitute — OccurredAt on the
// stored row stays nil.
func (r *IncidentReport) DedupWindowTime() time.Time {
	if r.OccurredAt != nil {
		return *r.OccurredAt
	}
	return r.IngestedAt
}

// ValidForLinking reports whether the report's dedup_status/incident_id
// pair satisfies the invariant that matched/new_incident reports always
// carry an incident reference.
func (r *IncidentReport) ValidForLinking() bool {
	if r.DedupStatus == DedupStatusMatched || r.DedupStatus == DedupStatusNewIncident {
		return r.IncidentID != nil
	}
	return true
}
