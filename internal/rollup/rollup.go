// Cartographus Ingest - Local-Intelligence Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus-ingest

// Package rollup computes and upserts the weekly per-region aggregate
// snapshots consumed by the read API's GET /rollup.
package rollup

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/cartographus-ingest/internal/logging"
	"github.com/tomtom215/cartographus-ingest/internal/metrics"
	"github.com/tomtom215/cartographus-ingest/internal/models"
)

// Store is the subset of internal/database.DB the rollup job needs.
type Store interface {
	CountIncidentsByCategory(ctx context.Context, region string, weekStart, weekEnd time.Time) (map[string]int, error)
	CountNewsReportsByCategory(ctx context.Context, region string, weekStart, weekEnd time.Time) (map[string]int, error)
	GetRollup(ctx context.Context, weekStart time.Time, municipality *string) (*models.WeeklyRollup, error)
	UpsertRollup(ctx context.Context, w *models.WeeklyRollup) error
}

// EventPublisher announces a freshly upserted rollup to the event bus.
// Optional: a nil EventPublisher just skips the announcement.
type EventPublisher interface {
	PublishRollup(ctx context.Context, region string, weekStart time.Time) error
}

// Job computes and persists weekly rollups. It is safe to run
// concurrently for different regions but serially for the same one, the
// same constraint the teacher's sync manager places on its own
// scheduled jobs.
type Job struct {
	store     Store
	publisher EventPublisher
}

// NewJob constructs a rollup Job.
func NewJob(store Store) *Job {
	return &Job{store: store}
}

// SetEventPublisher wires the event bus Run announces through after
// every successful upsert.
func (j *Job) SetEventPublisher(publisher EventPublisher) {
	j.publisher = publisher
}

// WeekStart truncates t to the Monday 00:00:00 UTC that begins its week,
// per spec §3.5's "week begins Monday" convention.
func WeekStart(t time.Time) time.Time {
	t = t.UTC()
	offset := (int(t.Weekday()) + 6) % 7 // Monday=0 ... Sunday=6
	day := t.AddDate(0, 0, -offset)
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
}

// Run computes the rollup for region's current week (and, if it hasn't
// been computed yet, reuses the prior week's total for the trend
// delta) and upserts it. Region-wide rollups pass a nil municipality;
// per-municipality rollups are out of scope for this job until
// per-municipality incident tagging exists upstream (see DESIGN.md).
func (j *Job) Run(ctx context.Context, region string, now time.Time) error {
	start := time.Now()
	defer func() { metrics.RollupJobDuration.Observe(time.Since(start).Seconds()) }()

	weekStart := WeekStart(now)
	weekEnd := weekStart.AddDate(0, 0, 7)
	prevWeekStart := weekStart.AddDate(0, 0, -7)

	incidentCounts, err := j.store.CountIncidentsByCategory(ctx, region, weekStart, weekEnd)
	if err != nil {
		metrics.RollupJobErrors.Inc()
		return fmt.Errorf("failed to count incidents for region %s week %s: %w", region, weekStart.Format("2006-01-02"), err)
	}
	newsCounts, err := j.store.CountNewsReportsByCategory(ctx, region, weekStart, weekEnd)
	if err != nil {
		metrics.RollupJobErrors.Inc()
		return fmt.Errorf("failed to count news reports for region %s week %s: %w", region, weekStart.Format("2006-01-02"), err)
	}

	currentTotal := sumCounts(incidentCounts)
	previousTotal, err := j.previousWeekTotal(ctx, region, prevWeekStart)
	if err != nil {
		metrics.RollupJobErrors.Inc()
		return err
	}

	trend := models.ComputeTrend(currentTotal, previousTotal)

	w := &models.WeeklyRollup{
		WeekStart:      weekStart,
		IncidentCounts: incidentCounts,
		NewsCounts:     newsCounts,
		IncidentTrend:  trend,
		SummaryText:    summarize(region, currentTotal, trend),
	}
	if err := j.store.UpsertRollup(ctx, w); err != nil {
		metrics.RollupJobErrors.Inc()
		return fmt.Errorf("failed to upsert rollup for region %s week %s: %w", region, weekStart.Format("2006-01-02"), err)
	}

	if j.publisher != nil {
		if err := j.publisher.PublishRollup(ctx, region, weekStart); err != nil {
			logging.Warn().Err(err).Str("region", region).Msg("failed to publish rollup event")
		}
	}
	return nil
}

func (j *Job) previousWeekTotal(ctx context.Context, region string, prevWeekStart time.Time) (int, error) {
	prev, err := j.store.GetRollup(ctx, prevWeekStart, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to read previous week's rollup for region %s: %w", region, err)
	}
	if prev == nil {
		return 0, nil
	}
	return sumCounts(prev.IncidentCounts), nil
}

func sumCounts(counts map[string]int) int {
	total := 0
	for _, v := range counts {
		total += v
	}
	return total
}

// summarize generates a short, deterministic human-readable sentence.
// Exact wording is non-normative per spec §4.7; only the counts and
// trend are.
func summarize(region string, total, trend int) string {
	direction := "steady vs"
	switch {
	case trend > 0:
		direction = fmt.Sprintf("up %d%% from", trend)
	case trend < 0:
		direction = fmt.Sprintf("down %d%% from", -trend)
	}
	return fmt.Sprintf("%s: %d incidents this week, %s last week", region, total, direction)
}
