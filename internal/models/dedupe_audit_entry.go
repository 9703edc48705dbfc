// Cartographus Ingest - Local-Intelligence Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus-ingest

package models

import "time"

// DedupeAuditEntry records one deduplicator decision — link, new
// incident, or reject — for operator visibility into why a report ended
// up where it did.
type DedupeAuditEntry struct {
	ID                string    `json:"id" db:"id"`
	IncidentReportID  string    `json:"incident_report_id" db:"incident_report_id"`
	MatchedIncidentID *string   `json:"matched_incident_id,omitempty" db:"matched_incident_id"`
	Decision          string    `json:"decision" db:"decision"` // matched, new_incident, rejected
	Score             float64   `json:"score" db:"score"`
	DistanceMeters    *float64  `json:"distance_meters,omitempty" db:"distance_meters"`
	TimeDeltaSeconds  *float64  `json:"time_delta_seconds,omitempty" db:"time_delta_seconds"`
	TypeMatch         *bool     `json:"type_match,omitempty" db:"type_match"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
}
