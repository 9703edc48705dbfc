// Cartographus Ingest - Local-Intelligence Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus-ingest

package database

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/cartographus-ingest/internal/models"
)

// metersPerDegreeLat approximates degrees-to-meters for the bounding-box
// prefilter used when the spatial extension isn't loaded; it doesn't need
// to be exact since the Go-side haversine check does the real radius
// check afterward.
const metersPerDegreeLat = 111_320.0

// FindDedupCandidates returns active incidents within radiusMeters of
// center whose occurred_at/reported_at falls in [windowStart, windowEnd],
// the deduplicator's candidate search per the space-time-type scoring
// contract. Uses ST_DWithin as a coarse prefilter when the spatial
// extension loaded at startup, otherwise a bounding-box prefilter; both
// paths then keep only incidents whose in-process haversine distance is
// within radiusMeters.
func (db *DB) FindDedupCandidates(ctx context.Context, center models.Point, windowStart, windowEnd time.Time, radiusMeters float64) ([]*models.Incident, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if db.spatialAvailable {
		return db.findDedupCandidatesSpatial(ctx, center, windowStart, windowEnd, radiusMeters)
	}
	return db.findDedupCandidatesFallback(ctx, center, windowStart, windowEnd, radiusMeters)
}

func (db *DB) findDedupCandidatesSpatial(ctx context.Context, center models.Point, windowStart, windowEnd time.Time, radiusMeters float64) ([]*models.Incident, error) {
	query := incidentSelectColumns + `
		FROM incidents
		WHERE status = 'active'
		AND COALESCE(occurred_at, reported_at) BETWEEN ? AND ?
		AND ST_DWithin(geom, ST_Point(?, ?), ?)`

	rows, err := db.conn.QueryContext(ctx, query, windowStart, windowEnd, center.Lng, center.Lat, radiusMeters)
	if err != nil {
		return nil, fmt.Errorf("failed to find dedup candidates: %w", err)
	}
	defer closeQuietly(rows)

	var out []*models.Incident
	for rows.Next() {
		inc, err := scanIncident(rows)
		if err != nil {
			return nil, err
		}
		if HaversineMeters(center, inc.Location) <= radiusMeters {
			out = append(out, inc)
		}
	}
	return out, rows.Err()
}

func (db *DB) findDedupCandidatesFallback(ctx context.Context, center models.Point, windowStart, windowEnd time.Time, radiusMeters float64) ([]*models.Incident, error) {
	latDelta := radiusMeters / metersPerDegreeLat
	lngDelta := radiusMeters / (metersPerDegreeLat * math.Cos(center.Lat*math.Pi/180))

	query := incidentSelectColumns + `
		FROM incidents
		WHERE status = 'active'
		AND COALESCE(occurred_at, reported_at) BETWEEN ? AND ?
		AND latitude BETWEEN ? AND ?
		AND longitude BETWEEN ? AND ?`

	rows, err := db.conn.QueryContext(ctx, query,
		windowStart, windowEnd,
		center.Lat-latDelta, center.Lat+latDelta,
		center.Lng-lngDelta, center.Lng+lngDelta,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find dedup candidates (fallback): %w", err)
	}
	defer closeQuietly(rows)

	var out []*models.Incident
	for rows.Next() {
		inc, err := scanIncident(rows)
		if err != nil {
			return nil, err
		}
		if HaversineMeters(center, inc.Location) <= radiusMeters {
			out = append(out, inc)
		}
	}
	return out, rows.Err()
}

// HaversineMeters returns the great-circle distance between two points in
// meters. Exported so internal/dedup can compute the distance term of the
// weighted match score without a second round trip to the database.
func HaversineMeters(a, b models.Point) float64 {
	const earthRadiusMeters = 6_371_000.0
	lat1, lat2 := a.Lat*math.Pi/180, b.Lat*math.Pi/180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusMeters * c
}

// InsertDedupeAuditEntry records one link/new-incident/reject decision
// for operator visibility, mirroring the teacher's dedupe_audit_log
// pattern.
func (db *DB) InsertDedupeAuditEntry(ctx context.Context, entry *models.DedupeAuditEntry) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	const query = `INSERT INTO dedupe_audit_log (
		id, incident_report_id, matched_incident_id, decision, score,
		distance_meters, time_delta_seconds, type_match, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := db.conn.ExecContext(ctx, query,
		entry.ID, entry.IncidentReportID, entry.MatchedIncidentID, entry.Decision, entry.Score,
		entry.DistanceMeters, entry.TimeDeltaSeconds, entry.TypeMatch, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert dedupe audit entry for report %s: %w", entry.IncidentReportID, err)
	}
	return nil
}
