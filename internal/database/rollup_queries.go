// Cartographus Ingest - Local-Intelligence Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus-ingest

package database

import (
	"context"
	"fmt"
	"time"
)

// CountIncidentsByCategory returns, for every incident category, the
// number of incidents reported in [weekStart, weekEnd) for the given
// region — the incident_counts half of a WeeklyRollup.
func (db *DB) CountIncidentsByCategory(ctx context.Context, region string, weekStart, weekEnd time.Time) (map[string]int, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	const query = `SELECT category, COUNT(*) FROM incidents
		WHERE region = ? AND reported_at >= ? AND reported_at < ?
		GROUP BY category`

	rows, err := db.conn.QueryContext(ctx, query, region, weekStart, weekEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to count incidents by category for region %s: %w", region, err)
	}
	defer closeQuietly(rows)

	counts := make(map[string]int)
	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, fmt.Errorf("failed to scan incident category count: %w", err)
		}
		counts[category] = count
	}
	return counts, rows.Err()
}

// CountNewsReportsByCategory returns, for every incident category, the
// number of linked reports in [weekStart, weekEnd) whose originating
// source is categorized "news" — the news_counts half of a WeeklyRollup,
// giving operators a sense of press corroboration separate from the
// raw incident_counts tally.
func (db *DB) CountNewsReportsByCategory(ctx context.Context, region string, weekStart, weekEnd time.Time) (map[string]int, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	const query = `SELECT i.category, COUNT(*) FROM incident_reports r
		JOIN sources s ON s.id = r.source_id
		JOIN incidents i ON i.id = r.incident_id
		WHERE s.category = 'news' AND i.region = ?
		AND r.ingested_at >= ? AND r.ingested_at < ?
		AND r.dedup_status IN ('matched', 'new_incident')
		GROUP BY i.category`

	rows, err := db.conn.QueryContext(ctx, query, region, weekStart, weekEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to count news reports by category for region %s: %w", region, err)
	}
	defer closeQuietly(rows)

	counts := make(map[string]int)
	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, fmt.Errorf("failed to scan news category count: %w", err)
		}
		counts[category] = count
	}
	return counts, rows.Err()
}

// ListDistinctRegions returns every region tag that has at least one
// configured source, so the rollup job's cron trigger knows which
// regions to compute a week for without a separate region registry.
func (db *DB) ListDistinctRegions(ctx context.Context) ([]string, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `SELECT DISTINCT region FROM sources ORDER BY region`)
	if err != nil {
		return nil, fmt.Errorf("failed to list distinct regions: %w", err)
	}
	defer closeQuietly(rows)

	var regions []string
	for rows.Next() {
		var region string
		if err := rows.Scan(&region); err != nil {
			return nil, fmt.Errorf("failed to scan region: %w", err)
		}
		regions = append(regions, region)
	}
	return regions, rows.Err()
}
