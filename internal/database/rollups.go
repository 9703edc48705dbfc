// Cartographus Ingest - Local-Intelligence Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus-ingest

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/cartographus-ingest/internal/models"
)

// UpsertRollup idempotently writes a weekly aggregate snapshot keyed by
// (week_start, municipality). Re-running the rollup job for the same
// week against unchanged underlying data must produce a byte-identical
// row, so this always overwrites rather than merging counts.
func (db *DB) UpsertRollup(ctx context.Context, w *models.WeeklyRollup) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	if w.CreatedAt.IsZero() {
		w.CreatedAt = time.Now()
	}

	incidentCounts, err := json.Marshal(w.IncidentCounts)
	if err != nil {
		return fmt.Errorf("failed to marshal incident counts: %w", err)
	}
	newsCounts, err := json.Marshal(w.NewsCounts)
	if err != nil {
		return fmt.Errorf("failed to marshal news counts: %w", err)
	}

	const query = `INSERT INTO weekly_rollups (
		id, week_start, municipality, incident_counts, news_counts, incident_trend, summary_text, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (week_start, municipality) DO UPDATE SET
		incident_counts = EXCLUDED.incident_counts,
		news_counts = EXCLUDED.news_counts,
		incident_trend = EXCLUDED.incident_trend,
		summary_text = EXCLUDED.summary_text`

	_, err = db.conn.ExecContext(ctx, query,
		w.ID, w.WeekStart, w.Municipality, string(incidentCounts), string(newsCounts), w.IncidentTrend, w.SummaryText, w.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert weekly rollup for week %s: %w", w.WeekStart.Format("2006-01-02"), err)
	}
	return nil
}

// GetRollup fetches the rollup for a given week and municipality (nil
// municipality means region-wide).
func (db *DB) GetRollup(ctx context.Context, weekStart time.Time, municipality *string) (*models.WeeklyRollup, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var row *sql.Row
	if municipality == nil {
		row = db.conn.QueryRowContext(ctx, rollupSelectColumns+` FROM weekly_rollups WHERE week_start = ? AND municipality IS NULL`, weekStart)
	} else {
		row = db.conn.QueryRowContext(ctx, rollupSelectColumns+` FROM weekly_rollups WHERE week_start = ? AND municipality = ?`, weekStart, *municipality)
	}
	return scanRollup(row)
}

// ListRollups returns up to weeks most recent rollups for a municipality
// (nil means region-wide), newest week first, for the GET /rollup
// endpoint's weeks<=12 history window (spec §6).
func (db *DB) ListRollups(ctx context.Context, municipality *string, weeks int) ([]*models.WeeklyRollup, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := rollupSelectColumns + ` FROM weekly_rollups WHERE `
	var args []interface{}
	if municipality == nil {
		query += `municipality IS NULL`
	} else {
		query += `municipality = ?`
		args = append(args, *municipality)
	}
	query += ` ORDER BY week_start DESC LIMIT ?`
	args = append(args, weeks)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list rollups: %w", err)
	}
	defer closeQuietly(rows)

	var out []*models.WeeklyRollup
	for rows.Next() {
		var w models.WeeklyRollup
		var incidentCounts, newsCounts sql.NullString
		if err := rows.Scan(&w.ID, &w.WeekStart, &w.Municipality, &incidentCounts, &newsCounts, &w.IncidentTrend, &w.SummaryText, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan weekly rollup row: %w", err)
		}
		if incidentCounts.Valid {
			_ = json.Unmarshal([]byte(incidentCounts.String), &w.IncidentCounts)
		}
		if newsCounts.Valid {
			_ = json.Unmarshal([]byte(newsCounts.String), &w.NewsCounts)
		}
		out = append(out, &w)
	}
	return out, rows.Err()
}

// CountIncidentsSince returns the number of active incidents reported
// since cutoff, for a region (and, when municipality is non-nil, also
// restricted to that city) — the live "last-24h"/"last-7d" counters
// GET /rollup reports alongside the persisted weekly snapshots.
func (db *DB) CountIncidentsSince(ctx context.Context, region string, municipality *string, cutoff time.Time) (int, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT COUNT(*) FROM incidents WHERE status = 'active' AND reported_at >= ?`
	args := []interface{}{cutoff}
	if region != "" {
		query += ` AND region = ?`
		args = append(args, region)
	}
	if municipality != nil {
		query += ` AND city = ?`
		args = append(args, *municipality)
	}

	var count int
	if err := db.conn.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count incidents since %s: %w", cutoff.Format(time.RFC3339), err)
	}
	return count, nil
}

const rollupSelectColumns = `SELECT id, week_start, municipality, incident_counts, news_counts, incident_trend, summary_text, created_at`

func scanRollup(row *sql.Row) (*models.WeeklyRollup, error) {
	var w models.WeeklyRollup
	var incidentCounts, newsCounts sql.NullString
	if err := row.Scan(&w.ID, &w.WeekStart, &w.Municipality, &incidentCounts, &newsCounts, &w.IncidentTrend, &w.SummaryText, &w.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan weekly rollup: %w", err)
	}
	if incidentCounts.Valid {
		_ = json.Unmarshal([]byte(incidentCounts.String), &w.IncidentCounts)
	}
	if newsCounts.Valid {
		_ = json.Unmarshal([]byte(newsCounts.String), &w.NewsCounts)
	}
	return &w, nil
}
