// Cartographus Ingest - Local-Intelligence Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus-ingest

package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tomtom215/cartographus-ingest/internal/config"
	"github.com/tomtom215/cartographus-ingest/internal/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	cfg := &config.DatabaseConfig{
		Path:                   ":memory:",
		MaxMemory:              "512MB",
		PreserveInsertionOrder: true,
	}
	db, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSourceUpsertAndList(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	src := &models.Source{
		Name:             "McHenry County Blotter",
		SourceType:       models.SourceTypeHTML,
		URL:              "https://example.gov/blotter",
		Region:           "mchenry_county",
		Category:         models.SourceCategoryCrime,
		Config:           map[string]string{"poll_interval": "10m"},
		IsActive:         true,
		ReliabilityScore: 0.8,
	}
	require.NoError(t, db.UpsertSource(ctx, src))
	require.NotEmpty(t, src.ID)

	sources, err := db.ListActiveSources(ctx)
	require.NoError(t, err)
	require.Len(t, sources, 1)
	require.Equal(t, "10m", sources[0].Config["poll_interval"])

	require.NoError(t, db.DeactivateSource(ctx, src.ID))
	sources, err = db.ListActiveSources(ctx)
	require.NoError(t, err)
	require.Empty(t, sources)
}

func TestReportLifecycleIsMonotonic(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	report := &models.IncidentReport{
		SourceID:     "src-1",
		ExternalID:   "ext-1",
		IncidentType: "structure fire",
		DedupStatus:  models.DedupStatusPending,
	}
	require.NoError(t, db.InsertReport(ctx, report))

	exists, err := db.ExternalIDExists(ctx, "src-1", "ext-1")
	require.NoError(t, err)
	require.True(t, exists)

	incidentID := "incident-1"
	require.NoError(t, db.UpdateReportDedup(ctx, report.ID, models.DedupStatusNewIncident, &incidentID))

	require.Error(t, db.UpdateReportDedup(ctx, report.ID, models.DedupStatusPending, nil),
		"reverting dedup_status to pending must be rejected")
}

func TestIncidentRecomputeRespectsOverride(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	inc := &models.Incident{
		Category:     models.CategoryFire,
		UrgencyScore: 7,
		Location:     models.Point{Lat: 42.3, Lng: -88.3},
		Region:       "mchenry_county",
		ReportedAt:   time.Now(),
		ReviewStatus: models.ReviewStatusNeedsReview,
		Status:       models.IncidentStatusActive,
	}
	require.NoError(t, db.CreateIncident(ctx, inc))

	require.NoError(t, db.ApproveIncident(ctx, inc.ID, "operator@example.gov"))

	// A recompute proposing needs_review must not overwrite the approval.
	require.NoError(t, db.UpdateIncidentDerived(ctx, inc.ID, 3, []string{"html", "rss"}, 0.4, models.ReviewStatusNeedsReview))

	got, err := db.GetIncident(ctx, inc.ID)
	require.NoError(t, err)
	require.Equal(t, models.ReviewStatusApproved, got.ReviewStatus)
	require.Equal(t, 3, got.ReportCount)
}

func TestRejectCascadesToLinkedReports(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	inc := &models.Incident{
		Category:     models.CategoryTraffic,
		UrgencyScore: 3,
		Location:     models.Point{Lat: 42.3, Lng: -88.3},
		Region:       "mchenry_county",
		ReportedAt:   time.Now(),
		ReviewStatus: models.ReviewStatusUnverified,
		Status:       models.IncidentStatusActive,
	}
	require.NoError(t, db.CreateIncident(ctx, inc))

	r := &models.IncidentReport{SourceID: "src-1", ExternalID: "ext-2", DedupStatus: models.DedupStatusMatched, IncidentID: &inc.ID}
	require.NoError(t, db.InsertReport(ctx, r))

	require.NoError(t, db.RejectIncident(ctx, inc.ID, "operator@example.gov"))

	linked, err := db.ListReportsByIncident(ctx, inc.ID)
	require.NoError(t, err)
	require.Len(t, linked, 1)
	require.Equal(t, models.DedupStatusRejected, linked[0].DedupStatus)
}

func TestNeedsReviewQueueView(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for _, status := range []models.ReviewStatus{models.ReviewStatusNeedsReview, models.ReviewStatusAutoPublished} {
		inc := &models.Incident{
			Category:     models.CategoryOther,
			UrgencyScore: 1,
			Location:     models.Point{Lat: 42.0, Lng: -88.0},
			Region:       "mchenry_county",
			ReportedAt:   time.Now(),
			ReviewStatus: status,
			Status:       models.IncidentStatusActive,
		}
		require.NoError(t, db.CreateIncident(ctx, inc))
	}

	queue, err := db.ListNeedsReview(ctx, 50, 0)
	require.NoError(t, err)
	require.Len(t, queue, 1)
	require.Equal(t, models.ReviewStatusNeedsReview, queue[0].ReviewStatus)
}

func TestRollupUpsertIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	weekStart := time.Date(2026, 7, 27, 0, 0, 0, 0, time.UTC)
	rollup := &models.WeeklyRollup{
		WeekStart:      weekStart,
		IncidentCounts: map[string]int{"fire": 2, "traffic": 5},
		NewsCounts:     map[string]int{"news": 3},
		IncidentTrend:  models.ComputeTrend(7, 10),
		SummaryText:    "7 incidents this week, down from 10",
	}
	require.NoError(t, db.UpsertRollup(ctx, rollup))
	require.NoError(t, db.UpsertRollup(ctx, rollup))

	got, err := db.GetRollup(ctx, weekStart, nil)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, 2, got.IncidentCounts["fire"])
	require.Equal(t, -30, got.IncidentTrend)
}
