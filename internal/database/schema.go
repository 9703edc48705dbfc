// Cartographus Ingest - Local-Intelligence Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus-ingest

package database

// schemaStatements creates the five durable entity tables plus the
// failure log and dedupe audit trail. Geographic columns carry both a
// plain DOUBLE lat/lng pair and a spatial GEOMETRY column populated via
// ST_Point, so callers that don't need ST_Distance/ST_DWithin can read
// lat/lng directly without round-tripping through WKT.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS sources (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		source_type TEXT NOT NULL,
		url TEXT NOT NULL,
		region TEXT NOT NULL,
		category TEXT NOT NULL,
		config JSON,
		is_active BOOLEAN NOT NULL DEFAULT true,
		reliability_score DOUBLE NOT NULL DEFAULT 0.5,
		last_fetched_at TIMESTAMP,
		source_config_version INTEGER NOT NULL DEFAULT 1,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS incident_reports (
		id TEXT PRIMARY KEY,
		source_id TEXT NOT NULL,
		external_id TEXT NOT NULL,
		source_url TEXT,
		raw_text TEXT,
		extracted_payload TEXT,
		incident_type TEXT,
		address TEXT,
		city TEXT,
		latitude DOUBLE,
		longitude DOUBLE,
		geom GEOMETRY,
		occurred_at TIMESTAMP,
		ingested_at TIMESTAMP NOT NULL,
		extraction_model TEXT,
		extraction_confidence DOUBLE,
		dedup_status TEXT NOT NULL DEFAULT 'pending',
		dedup_processed_at TIMESTAMP,
		incident_id TEXT,
		UNIQUE (source_id, external_id)
	)`,
	`CREATE TABLE IF NOT EXISTS incidents (
		id TEXT PRIMARY KEY,
		incident_type TEXT,
		category TEXT NOT NULL,
		urgency_score INTEGER NOT NULL DEFAULT 1,
		latitude DOUBLE,
		longitude DOUBLE,
		geom GEOMETRY,
		location_resolution TEXT NOT NULL DEFAULT 'unknown',
		location_confidence DOUBLE NOT NULL DEFAULT 0,
		address TEXT,
		city TEXT,
		region TEXT NOT NULL,
		occurred_at TIMESTAMP,
		reported_at TIMESTAMP NOT NULL,
		title TEXT,
		description TEXT,
		report_count INTEGER NOT NULL DEFAULT 0,
		source_types JSON,
		confidence_score DOUBLE NOT NULL DEFAULT 0,
		review_status TEXT NOT NULL DEFAULT 'unverified',
		reviewed_at TIMESTAMP,
		reviewed_by TEXT,
		status TEXT NOT NULL DEFAULT 'active',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS street_centerlines (
		id TEXT PRIMARY KEY,
		region TEXT NOT NULL,
		street_name TEXT NOT NULL,
		street_name_normalized TEXT NOT NULL,
		from_address INTEGER NOT NULL,
		to_address INTEGER NOT NULL,
		city TEXT,
		geometry GEOMETRY
	)`,
	`CREATE TABLE IF NOT EXISTS weekly_rollups (
		id TEXT PRIMARY KEY,
		week_start DATE NOT NULL,
		municipality TEXT,
		incident_counts JSON,
		news_counts JSON,
		incident_trend INTEGER NOT NULL DEFAULT 0,
		summary_text TEXT,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (week_start, municipality)
	)`,
	`CREATE TABLE IF NOT EXISTS failure_log (
		source_id TEXT NOT NULL,
		occurred_at TIMESTAMP NOT NULL,
		error_category TEXT NOT NULL,
		message TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS dedupe_audit_log (
		id TEXT PRIMARY KEY,
		incident_report_id TEXT NOT NULL,
		matched_incident_id TEXT,
		decision TEXT NOT NULL,
		score DOUBLE NOT NULL,
		distance_meters DOUBLE,
		time_delta_seconds DOUBLE,
		type_match BOOLEAN,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
}

var indexStatements = []string{
	`CREATE INDEX IF NOT EXISTS idx_incident_reports_source ON incident_reports(source_id)`,
	`CREATE INDEX IF NOT EXISTS idx_incident_reports_dedup_status ON incident_reports(dedup_status)`,
	`CREATE INDEX IF NOT EXISTS idx_incident_reports_incident ON incident_reports(incident_id)`,
	`CREATE INDEX IF NOT EXISTS idx_incidents_region ON incidents(region)`,
	`CREATE INDEX IF NOT EXISTS idx_incidents_review_status ON incidents(review_status)`,
	`CREATE INDEX IF NOT EXISTS idx_centerlines_region_street ON street_centerlines(region, street_name_normalized)`,
	`CREATE INDEX IF NOT EXISTS idx_failure_log_source ON failure_log(source_id)`,
	// needs_review_queue stands in for a partial index on
	// incidents WHERE review_status = 'needs_review': DuckDB's CREATE
	// INDEX has no WHERE clause, so the API's review-queue handler reads
	// this view instead of filtering the full table.
	`CREATE OR REPLACE VIEW needs_review_queue AS
		SELECT * FROM incidents WHERE review_status = 'needs_review'`,
}
