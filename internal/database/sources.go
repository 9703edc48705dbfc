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

// UpsertSource inserts a source or updates it in place by id, matching the
// scheduler's "upserted on startup" lifecycle from the source-configuration
// document. A non-empty id is preserved; a blank one is assigned.
func (db *DB) UpsertSource(ctx context.Context, s *models.Source) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}

	cfg, err := json.Marshal(s.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal source config: %w", err)
	}

	const query = `INSERT INTO sources (
		id, name, source_type, url, region, category, config,
		is_active, reliability_score, last_fetched_at, source_config_version, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		name = EXCLUDED.name,
		source_type = EXCLUDED.source_type,
		url = EXCLUDED.url,
		region = EXCLUDED.region,
		category = EXCLUDED.category,
		config = EXCLUDED.config,
		is_active = EXCLUDED.is_active,
		source_config_version = sources.source_config_version + 1`

	_, err = db.conn.ExecContext(ctx, query,
		s.ID, s.Name, string(s.SourceType), s.URL, s.Region, string(s.Category), string(cfg),
		s.IsActive, s.ReliabilityScore, s.LastFetchedAt, s.SourceConfigVersion, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert source %s: %w", s.URL, err)
	}
	return nil
}

// ListActiveSources returns every source the scheduler should poll.
func (db *DB) ListActiveSources(ctx context.Context) ([]*models.Source, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	const query = `SELECT
		id, name, source_type, url, region, category, config,
		is_active, reliability_score, last_fetched_at, source_config_version, created_at
	FROM sources WHERE is_active = true ORDER BY name`

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list active sources: %w", err)
	}
	defer closeQuietly(rows)

	var out []*models.Source
	for rows.Next() {
		s, err := scanSource(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanSource(row interface{ Scan(...interface{}) error }) (*models.Source, error) {
	var s models.Source
	var cfg sql.NullString
	var sourceType, category string
	if err := row.Scan(
		&s.ID, &s.Name, &sourceType, &s.URL, &s.Region, &category, &cfg,
		&s.IsActive, &s.ReliabilityScore, &s.LastFetchedAt, &s.SourceConfigVersion, &s.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("failed to scan source: %w", err)
	}
	s.SourceType = models.SourceType(sourceType)
	s.Category = models.SourceCategory(category)
	if cfg.Valid && cfg.String != "" {
		if err := json.Unmarshal([]byte(cfg.String), &s.Config); err != nil {
			return nil, fmt.Errorf("failed to unmarshal source config: %w", err)
		}
	}
	return &s, nil
}

// SourceType returns the source_type of a single source, used by
// internal/workflow to compute an incident's linked source-type
// diversity without pulling the whole Source row.
func (db *DB) SourceType(ctx context.Context, sourceID string) (models.SourceType, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var sourceType string
	err := db.conn.QueryRowContext(ctx, `SELECT source_type FROM sources WHERE id = ?`, sourceID).Scan(&sourceType)
	if err != nil {
		return "", fmt.Errorf("failed to look up source type for %s: %w", sourceID, err)
	}
	return models.SourceType(sourceType), nil
}

// RecordFetchSuccess stamps last_fetched_at after a successful scheduler
// cycle for the source.
func (db *DB) RecordFetchSuccess(ctx context.Context, sourceID string, at time.Time) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	_, err := db.conn.ExecContext(ctx, `UPDATE sources SET last_fetched_at = ? WHERE id = ?`, at, sourceID)
	if err != nil {
		return fmt.Errorf("failed to record fetch success for source %s: %w", sourceID, err)
	}
	return nil
}

// DeactivateSource flips is_active false, used by the scheduler after the
// configured number of consecutive failures.
func (db *DB) DeactivateSource(ctx context.Context, sourceID string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	_, err := db.conn.ExecContext(ctx, `UPDATE sources SET is_active = false WHERE id = ?`, sourceID)
	if err != nil {
		return fmt.Errorf("failed to deactivate source %s: %w", sourceID, err)
	}
	return nil
}

// InsertFailureLog records one failed fetch attempt for the
// operator-visible error log.
func (db *DB) InsertFailureLog(ctx context.Context, entry *models.FailureLogEntry) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = time.Now()
	}

	const query = `INSERT INTO failure_log (source_id, occurred_at, error_category, message) VALUES (?, ?, ?, ?)`
	_, err := db.conn.ExecContext(ctx, query, entry.SourceID, entry.OccurredAt, entry.ErrorCategory, entry.Message)
	if err != nil {
		return fmt.Errorf("failed to insert failure log entry for source %s: %w", entry.SourceID, err)
	}
	return nil
}
