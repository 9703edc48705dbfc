// Cartographus Ingest - Local-Intelligence Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus-ingest

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/cartographus-ingest/internal/models"
)

// InsertReport persists a freshly extracted observation. Reports are
// never merged or destroyed afterward — only UpdateReportDedup mutates
// the row.
func (db *DB) InsertReport(ctx context.Context, r *models.IncidentReport) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.IngestedAt.IsZero() {
		r.IngestedAt = time.Now()
	}
	if r.DedupStatus == "" {
		r.DedupStatus = models.DedupStatusPending
	}

	var lat, lng *float64
	if r.Location != nil {
		lat, lng = &r.Location.Lat, &r.Location.Lng
	}

	var query string
	var args []interface{}
	if db.spatialAvailable && r.Location != nil {
		query = `INSERT INTO incident_reports (
			id, source_id, external_id, source_url, raw_text, extracted_payload,
			incident_type, address, city, latitude, longitude, geom,
			occurred_at, ingested_at, extraction_model, extraction_confidence,
			dedup_status, dedup_processed_at, incident_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ST_Point(?, ?), ?, ?, ?, ?, ?, ?, ?)`
		args = []interface{}{
			r.ID, r.SourceID, r.ExternalID, r.SourceURL, r.RawText, r.ExtractedPayload,
			r.IncidentType, r.Address, r.City, lat, lng, lng, lat,
			r.OccurredAt, r.IngestedAt, r.ExtractionModel, r.ExtractionConfidence,
			string(r.DedupStatus), r.DedupProcessedAt, r.IncidentID,
		}
	} else {
		query = `INSERT INTO incident_reports (
			id, source_id, external_id, source_url, raw_text, extracted_payload,
			incident_type, address, city, latitude, longitude,
			occurred_at, ingested_at, extraction_model, extraction_confidence,
			dedup_status, dedup_processed_at, incident_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
		args = []interface{}{
			r.ID, r.SourceID, r.ExternalID, r.SourceURL, r.RawText, r.ExtractedPayload,
			r.IncidentType, r.Address, r.City, lat, lng,
			r.OccurredAt, r.IngestedAt, r.ExtractionModel, r.ExtractionConfidence,
			string(r.DedupStatus), r.DedupProcessedAt, r.IncidentID,
		}
	}

	if _, err := db.conn.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert incident report (source=%s external_id=%s): %w", r.SourceID, r.ExternalID, err)
	}
	return nil
}

// ExternalIDExists reports whether (source_id, external_id) has already
// been ingested, the check backing each adapter's per-fetch dedup key.
func (db *DB) ExternalIDExists(ctx context.Context, sourceID, externalID string) (bool, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM incident_reports WHERE source_id = ? AND external_id = ?`,
		sourceID, externalID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check external_id existence: %w", err)
	}
	return count > 0, nil
}

// ListPendingReports returns reports the deduplicator has not yet
// processed, oldest first so linking decisions stay FIFO per source.
func (db *DB) ListPendingReports(ctx context.Context, limit int) ([]*models.IncidentReport, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `SELECT
		id, source_id, external_id, source_url, raw_text, extracted_payload,
		incident_type, address, city, latitude, longitude,
		occurred_at, ingested_at, extraction_model, extraction_confidence,
		dedup_status, dedup_processed_at, incident_id
	FROM incident_reports WHERE dedup_status = 'pending' ORDER BY ingested_at ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending reports: %w", err)
	}
	defer closeQuietly(rows)

	var out []*models.IncidentReport
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanReport(row interface{ Scan(...interface{}) error }) (*models.IncidentReport, error) {
	var r models.IncidentReport
	var dedupStatus string
	var lat, lng *float64
	if err := row.Scan(
		&r.ID, &r.SourceID, &r.ExternalID, &r.SourceURL, &r.RawText, &r.ExtractedPayload,
		&r.IncidentType, &r.Address, &r.City, &lat, &lng,
		&r.OccurredAt, &r.IngestedAt, &r.ExtractionModel, &r.ExtractionConfidence,
		&dedupStatus, &r.DedupProcessedAt, &r.IncidentID,
	); err != nil {
		return nil, fmt.Errorf("failed to scan incident report: %w", err)
	}
	r.DedupStatus = models.DedupStatus(dedupStatus)
	if lat != nil && lng != nil {
		r.Location = &models.Point{Lat: *lat, Lng: *lng}
	}
	return &r, nil
}

// UpdateReportDedup applies the deduplicator's verdict to a report: the
// only mutation a report ever undergoes after insertion. status must be
// matched, new_incident, or rejected — never reverted to pending.
func (db *DB) UpdateReportDedup(ctx context.Context, reportID string, status models.DedupStatus, incidentID *string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if status == models.DedupStatusPending {
		return fmt.Errorf("refusing to revert report %s dedup_status to pending", reportID)
	}

	_, err := db.conn.ExecContext(ctx,
		`UPDATE incident_reports SET dedup_status = ?, dedup_processed_at = ?, incident_id = ? WHERE id = ?`,
		string(status), time.Now(), incidentID, reportID,
	)
	if err != nil {
		return fmt.Errorf("failed to update dedup status for report %s: %w", reportID, err)
	}
	return nil
}

// ListReportsByIncident returns every report linked to an incident, used
// by the confidence recompute to derive report_count/source_types and by
// reject-cascade to flip every linked report's dedup_status.
func (db *DB) ListReportsByIncident(ctx context.Context, incidentID string) ([]*models.IncidentReport, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `SELECT
		id, source_id, external_id, source_url, raw_text, extracted_payload,
		incident_type, address, city, latitude, longitude,
		occurred_at, ingested_at, extraction_model, extraction_confidence,
		dedup_status, dedup_processed_at, incident_id
	FROM incident_reports WHERE incident_id = ? ORDER BY ingested_at ASC`, incidentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports for incident %s: %w", incidentID, err)
	}
	defer closeQuietly(rows)

	var out []*models.IncidentReport
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
