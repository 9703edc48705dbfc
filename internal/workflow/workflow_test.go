// Cartographus Ingest - Local-Intelligence Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus-ingest

package workflow

import (
	"context"
	"testing"

	"github.com/tomtom215/cartographus-ingest/internal/models"
)

type fakeStore struct {
	reports []*models.IncidentReport
	updated struct {
		incidentID      string
		reportCount     int
		sourceTypes     []string
		confidenceScore float64
		proposedStatus  models.ReviewStatus
	}
}

func (f *fakeStore) ListReportsByIncident(ctx context.Context, incidentID string) ([]*models.IncidentReport, error) {
	return f.reports, nil
}

func (f *fakeStore) UpdateIncidentDerived(ctx context.Context, incidentID string, reportCount int, sourceTypes []string, confidenceScore float64, proposedStatus models.ReviewStatus) error {
	f.updated.incidentID = incidentID
	f.updated.reportCount = reportCount
	f.updated.sourceTypes = sourceTypes
	f.updated.confidenceScore = confidenceScore
	f.updated.proposedStatus = proposedStatus
	return nil
}

type fakeLookup struct {
	kinds map[string]models.SourceType
}

func (f *fakeLookup) SourceType(ctx context.Context, sourceID string) (models.SourceType, error) {
	return f.kinds[sourceID], nil
}

func TestRecomputeScenarioALinkAcrossSources(t *testing.T) {
	// Mirrors spec scenario A: an audio report (0.80) plus an html report
	// (0.85) on the same incident should land at confidence 0.975 and
	// auto_published.
	store := &fakeStore{reports: []*models.IncidentReport{
		{SourceID: "src-audio", DedupStatus: models.DedupStatusNewIncident, ExtractionConfidence: 0.80},
		{SourceID: "src-html", DedupStatus: models.DedupStatusMatched, ExtractionConfidence: 0.85},
	}}
	lookup := &fakeLookup{kinds: map[string]models.SourceType{
		"src-audio": models.SourceTypeAudio,
		"src-html":  models.SourceTypeHTML,
	}}
	e := NewEngine(store, lookup)

	if err := e.Recompute(context.Background(), "incident-1"); err != nil {
		t.Fatalf("Recompute returned error: %v", err)
	}

	const wantConfidence = 0.975
	if diff := store.updated.confidenceScore - wantConfidence; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("confidence = %v, want %v", store.updated.confidenceScore, wantConfidence)
	}
	if store.updated.proposedStatus != models.ReviewStatusAutoPublished {
		t.Errorf("proposedStatus = %v, want auto_published", store.updated.proposedStatus)
	}
	if store.updated.reportCount != 2 {
		t.Errorf("reportCount = %d, want 2", store.updated.reportCount)
	}
}

func TestRecomputeScenarioCLowConfidenceQueue(t *testing.T) {
	store := &fakeStore{reports: []*models.IncidentReport{
		{SourceID: "src-html", DedupStatus: models.DedupStatusNewIncident, ExtractionConfidence: 0.50},
	}}
	lookup := &fakeLookup{kinds: map[string]models.SourceType{"src-html": models.SourceTypeHTML}}
	e := NewEngine(store, lookup)

	if err := e.Recompute(context.Background(), "incident-2"); err != nil {
		t.Fatalf("Recompute returned error: %v", err)
	}
	if store.updated.confidenceScore != 0.50 {
		t.Errorf("confidence = %v, want 0.50", store.updated.confidenceScore)
	}
	if store.updated.proposedStatus != models.ReviewStatusNeedsReview {
		t.Errorf("proposedStatus = %v, want needs_review", store.updated.proposedStatus)
	}
}

func TestRecomputeIgnoresUnlinkedReports(t *testing.T) {
	store := &fakeStore{reports: []*models.IncidentReport{
		{SourceID: "src-html", DedupStatus: models.DedupStatusMatched, ExtractionConfidence: 0.90},
		{SourceID: "src-rss", DedupStatus: models.DedupStatusRejected, ExtractionConfidence: 0.99},
		{SourceID: "src-api", DedupStatus: models.DedupStatusPending, ExtractionConfidence: 0.99},
	}}
	lookup := &fakeLookup{kinds: map[string]models.SourceType{"src-html": models.SourceTypeHTML}}
	e := NewEngine(store, lookup)

	if err := e.Recompute(context.Background(), "incident-3"); err != nil {
		t.Fatalf("Recompute returned error: %v", err)
	}
	if store.updated.reportCount != 1 {
		t.Errorf("reportCount = %d, want 1 (rejected/pending reports must not count)", store.updated.reportCount)
	}
}

func TestProposedReviewStatusThresholds(t *testing.T) {
	cases := []struct {
		confidence float64
		want       models.ReviewStatus
	}{
		{0.95, models.ReviewStatusAutoPublished},
		{0.9, models.ReviewStatusAutoPublished},
		{0.89, models.ReviewStatusUnverified},
		{0.6, models.ReviewStatusUnverified},
		{0.59, models.ReviewStatusNeedsReview},
		{0.0, models.ReviewStatusNeedsReview},
	}
	for _, tc := range cases {
		if got := ProposedReviewStatus(tc.confidence); got != tc.want {
			t.Errorf("ProposedReviewStatus(%v) = %v, want %v", tc.confidence, got, tc.want)
		}
	}
}

func TestConfidenceScoreCapsAtPoint99(t *testing.T) {
	reports := []*models.IncidentReport{
		{ExtractionConfidence: 0.95}, {ExtractionConfidence: 0.95},
		{ExtractionConfidence: 0.95}, {ExtractionConfidence: 0.95},
		{ExtractionConfidence: 0.95},
	}
	got := ConfidenceScore(reports, 3)
	if got != 0.99 {
		t.Errorf("ConfidenceScore(...) = %v, want capped at 0.99", got)
	}
}
