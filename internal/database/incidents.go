// Cartographus Ingest - Local-Intelligence Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus-ingest

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/cartographus-ingest/internal/models"
)

// CreateIncident persists a new canonical incident, created by the
// deduplicator when a report matches no existing incident.
func (db *DB) CreateIncident(ctx context.Context, inc *models.Incident) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if inc.ID == "" {
		inc.ID = uuid.NewString()
	}
	now := time.Now()
	if inc.CreatedAt.IsZero() {
		inc.CreatedAt = now
	}
	inc.UpdatedAt = now

	sourceTypes, err := json.Marshal(inc.SourceTypes)
	if err != nil {
		return fmt.Errorf("failed to marshal source types: %w", err)
	}

	const query = `INSERT INTO incidents (
		id, incident_type, category, urgency_score, latitude, longitude, geom,
		location_resolution, location_confidence, address, city, region,
		occurred_at, reported_at, title, description,
		report_count, source_types, confidence_score,
		review_status, reviewed_at, reviewed_by, status, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ST_Point(?, ?), ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = db.conn.ExecContext(ctx, query,
		inc.ID, inc.IncidentType, string(inc.Category), inc.UrgencyScore,
		inc.Location.Lat, inc.Location.Lng, inc.Location.Lng, inc.Location.Lat,
		string(inc.LocationResolution), inc.LocationConfidence, inc.Address, inc.City, inc.Region,
		inc.OccurredAt, inc.ReportedAt, inc.Title, inc.Description,
		inc.ReportCount, string(sourceTypes), inc.ConfidenceScore,
		string(inc.ReviewStatus), inc.ReviewedAt, inc.ReviewedBy, string(inc.Status), inc.CreatedAt, inc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create incident: %w", err)
	}
	return nil
}

// GetIncident fetches a single incident by id.
func (db *DB) GetIncident(ctx context.Context, id string) (*models.Incident, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(ctx, incidentSelectColumns+` FROM incidents WHERE id = ?`, id)
	return scanIncident(row)
}

const incidentSelectColumns = `SELECT
	id, incident_type, category, urgency_score, latitude, longitude,
	location_resolution, location_confidence, address, city, region,
	occurred_at, reported_at, title, description,
	report_count, source_types, confidence_score,
	review_status, reviewed_at, reviewed_by, status, created_at, updated_at`

func scanIncident(row interface{ Scan(...interface{}) error }) (*models.Incident, error) {
	var inc models.Incident
	var category, resolution, reviewStatus, status string
	var lat, lng float64
	var sourceTypes string
	if err := row.Scan(
		&inc.ID, &inc.IncidentType, &category, &inc.UrgencyScore, &lat, &lng,
		&resolution, &inc.LocationConfidence, &inc.Address, &inc.City, &inc.Region,
		&inc.OccurredAt, &inc.ReportedAt, &inc.Title, &inc.Description,
		&inc.ReportCount, &sourceTypes, &inc.ConfidenceScore,
		&reviewStatus, &inc.ReviewedAt, &inc.ReviewedBy, &status, &inc.CreatedAt, &inc.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("failed to scan incident: %w", err)
	}
	inc.Category = models.IncidentCategory(category)
	inc.LocationResolution = models.LocationResolution(resolution)
	inc.ReviewStatus = models.ReviewStatus(reviewStatus)
	inc.Status = models.IncidentStatus(status)
	inc.Location = models.Point{Lat: lat, Lng: lng}
	if sourceTypes != "" {
		_ = json.Unmarshal([]byte(sourceTypes), &inc.SourceTypes)
	}
	return &inc, nil
}

// UpdateIncidentDerived writes back the confidence recompute's derived
// fields and proposed review status. It silently refuses to touch
// review_status when the current row is already approved/rejected —
// the override-preservation invariant — but still updates the other
// derived fields.
func (db *DB) UpdateIncidentDerived(ctx context.Context, incidentID string, reportCount int, sourceTypes []string, confidenceScore float64, proposedStatus models.ReviewStatus) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	st, err := json.Marshal(sourceTypes)
	if err != nil {
		return fmt.Errorf("failed to marshal source types: %w", err)
	}

	const query = `UPDATE incidents SET
		report_count = ?, source_types = ?, confidence_score = ?, updated_at = ?,
		review_status = CASE WHEN review_status IN ('approved', 'rejected') THEN review_status ELSE ? END
	WHERE id = ?`

	_, err = db.conn.ExecContext(ctx, query, reportCount, string(st), confidenceScore, time.Now(), string(proposedStatus), incidentID)
	if err != nil {
		return fmt.Errorf("failed to update derived fields for incident %s: %w", incidentID, err)
	}
	return nil
}

// ApproveIncident records an operator approval. Once set, recompute must
// never overwrite it (enforced in UpdateIncidentDerived's CASE clause).
func (db *DB) ApproveIncident(ctx context.Context, incidentID, reviewedBy string) error {
	return db.setReviewDecision(ctx, incidentID, models.ReviewStatusApproved, reviewedBy)
}

// RejectIncident records an operator rejection and cascades
// dedup_status = rejected to every report linked to this incident, so
// they are no longer counted in future confidence recomputes.
func (db *DB) RejectIncident(ctx context.Context, incidentID, reviewedBy string) error {
	if err := db.setReviewDecision(ctx, incidentID, models.ReviewStatusRejected, reviewedBy); err != nil {
		return err
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	_, err := db.conn.ExecContext(ctx,
		`UPDATE incident_reports SET dedup_status = 'rejected', dedup_processed_at = ? WHERE incident_id = ?`,
		time.Now(), incidentID,
	)
	if err != nil {
		return fmt.Errorf("failed to cascade rejection to reports of incident %s: %w", incidentID, err)
	}
	return nil
}

func (db *DB) setReviewDecision(ctx context.Context, incidentID string, status models.ReviewStatus, reviewedBy string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	_, err := db.conn.ExecContext(ctx,
		`UPDATE incidents SET review_status = ?, reviewed_at = ?, reviewed_by = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now(), reviewedBy, time.Now(), incidentID,
	)
	if err != nil {
		return fmt.Errorf("failed to set review decision for incident %s: %w", incidentID, err)
	}
	return nil
}

// ListNeedsReview reads the needs_review_queue view (the partial-index
// stand-in) with pagination.
func (db *DB) ListNeedsReview(ctx context.Context, limit, offset int) ([]*models.Incident, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		incidentSelectColumns+` FROM needs_review_queue ORDER BY reported_at DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list needs-review queue: %w", err)
	}
	defer closeQuietly(rows)

	var out []*models.Incident
	for rows.Next() {
		inc, err := scanIncident(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inc)
	}
	return out, rows.Err()
}

// IncidentFilter narrows ListIncidents's result set. Zero-valued fields
// are not applied, matching the optional-query-param contract of
// GET /incidents (spec §6).
type IncidentFilter struct {
	Region     string
	Category   models.IncidentCategory
	City       string
	MinUrgency int
	Since      *time.Time
	Until      *time.Time
	Limit      int
	Offset     int
}

// publiclyVisibleReviewStatuses restricts GET /incidents to the three
// statuses an outside caller should ever see (spec §6): an incident
// still needs_review never appears here.
var publiclyVisibleReviewStatuses = []string{
	string(models.ReviewStatusAutoPublished),
	string(models.ReviewStatusUnverified),
	string(models.ReviewStatusApproved),
}

// ListIncidents supports the read API's /incidents endpoint: filters by
// region/category/city/min_urgency/since/until when set, restricted to
// the publicly visible review statuses, newest first, paginated.
func (db *DB) ListIncidents(ctx context.Context, f IncidentFilter) ([]*models.Incident, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := incidentSelectColumns + ` FROM incidents WHERE status = 'active' AND review_status IN (?, ?, ?)`
	args := []interface{}{publiclyVisibleReviewStatuses[0], publiclyVisibleReviewStatuses[1], publiclyVisibleReviewStatuses[2]}

	if f.Region != "" {
		query += ` AND region = ?`
		args = append(args, f.Region)
	}
	if f.Category != "" {
		query += ` AND category = ?`
		args = append(args, string(f.Category))
	}
	if f.City != "" {
		query += ` AND city = ?`
		args = append(args, f.City)
	}
	if f.MinUrgency > 0 {
		query += ` AND urgency_score >= ?`
		args = append(args, f.MinUrgency)
	}
	if f.Since != nil {
		query += ` AND reported_at >= ?`
		args = append(args, *f.Since)
	}
	if f.Until != nil {
		query += ` AND reported_at <= ?`
		args = append(args, *f.Until)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	query += ` ORDER BY reported_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, f.Offset)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list incidents: %w", err)
	}
	defer closeQuietly(rows)

	var out []*models.Incident
	for rows.Next() {
		inc, err := scanIncident(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inc)
	}
	return out, rows.Err()
}
