// Cartographus Ingest - Local-Intelligence Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus-ingest

package models

import "time"

// Source is a configured data origin the scheduler polls on its own
// cadence. Sources are declared in a source-configuration document and
// upserted on startup; (url) must be unique while active within a region.
type Source struct {
	ID         string         `json:"id" db:"id"`
	Name       string         `json:"name" db:"name"`
	SourceType SourceType     `json:"source_type" db:"source_type"`
	URL        string         `json:"url" db:"url"`
	Region     string         `json:"region" db:"region"` // opaque area tag, e.g. "mchenry_county"
	Category   SourceCategory `json:"category" db:"category"`

	// Config holds opaque per-adapter settings (selectors, poll interval
	// override, audio stream parameters) as a flat key/value map so new
	// adapter types never require a schema migration.
	Config map[string]string `json:"config" db:"-"`

	IsActive         bool       `json:"is_active" db:"is_active"`
	ReliabilityScore float64    `json:"reliability_score" db:"reliability_score"` // [0,1]
	LastFetchedAt    *time.Time `json:"last_fetched_at,omitempty" db:"last_fetched_at"`

	// SourceConfigVersion is bumped whenever the hot-reloaded source
	// configuration document changes this row, so in-flight scheduler
	// cycles can detect a stale snapshot without re-reading the file.
	SourceConfigVersion int `json:"source_config_version" db:"source_config_version"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// PollInterval returns the per-source polling cadence from Config,
// falling back to def when the source doesn't override it or the value
// doesn't parse as a duration.
func (s *Source) PollInterval(def time.Duration) time.Duration {
	raw, ok := s.Config["poll_interval"]
	if !ok {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// FailureLogEntry backs the scheduler's operator-visible error log: one
// row per failed fetch attempt, independent of the backoff/deactivation
// counters tracked in scheduler state.
type FailureLogEntry struct {
	SourceID      string    `json:"source_id" db:"source_id"`
	OccurredAt    time.Time `json:"occurred_at" db:"occurred_at"`
	ErrorCategory string    `json:"error_category" db:"error_category"` // fetch, parse, extraction, geocode, dedup
	Message       string    `json:"message" db:"message"`
}
