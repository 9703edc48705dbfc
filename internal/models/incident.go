// Cartographus Ingest - Local-Intelligence Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus-ingest

package models

import "time"

// Incident is a canonical, deduplicated occurrence linking one or more
// IncidentReports. ReportCount, SourceTypes, and ConfidenceScore are
// derived fields: a pure function of the set of linked reports, recomputed
// by internal/workflow whenever that set changes. Once ReviewStatus
// reaches approved or rejected, recompute must never overwrite it.
type Incident struct {
	ID               string           `json:"id" db:"id"`
	IncidentType     string           `json:"incident_type" db:"incident_type"`
	Category         IncidentCategory `json:"category" db:"category"`
	UrgencyScore     int              `json:"urgency_score" db:"urgency_score"` // [1,10]

	Location           Point              `json:"location" db:"location"`
	LocationResolution LocationResolution `json:"location_resolution" db:"location_resolution"`
	LocationConfidence float64            `json:"location_confidence" db:"location_confidence"` // [0,1]

	Address string `json:"address,omitempty" db:"address"`
	City    string `json:"city,omitempty" db:"city"`
	Region  string `json:"region" db:"region"`

	OccurredAt *time.Time `json:"occurred_at,omitempty" db:"occurred_at"`
	ReportedAt time.Time  `json:"reported_at" db:"reported_at"`

	Title       string `json:"title" db:"title"`
	Description string `json:"description,omitempty" db:"description"`

	// Derived — recomputed by internal/workflow from linked reports.
	ReportCount     int      `json:"report_count" db:"report_count"`
	SourceTypes     []string `json:"source_types" db:"-"`
	ConfidenceScore float64  `json:"confidence_score" db:"confidence_score"`

	ReviewStatus ReviewStatus `json:"review_status" db:"review_status"`
	ReviewedAt   *time.Time   `json:"reviewed_at,omitempty" db:"reviewed_at"`
	ReviewedBy   string       `json:"reviewed_by,omitempty" db:"reviewed_by"`

	Status IncidentStatus `json:"status" db:"status"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CanRecompute reports whether a confidence recompute is permitted to
// change ReviewStatus — false once an operator has approved or rejected
// the incident.
func (inc *Incident) CanRecompute() bool {
	return !inc.ReviewStatus.Overridden()
}
