// Cartographus Ingest - Local-Intelligence Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus-ingest

// Package workflow recomputes an Incident's derived fields whenever its
// set of linked reports changes, and drives the confidence/review-status
// state machine from the result.
package workflow

import (
	"context"
	"fmt"
	"math"

	"github.com/tomtom215/cartographus-ingest/internal/logging"
	"github.com/tomtom215/cartographus-ingest/internal/metrics"
	"github.com/tomtom215/cartographus-ingest/internal/models"
)

// Review-status routing thresholds (spec §4.6): confidence >= 0.9
// auto-publishes, [0.6, 0.9) goes to unverified, below 0.6 needs a human.
const (
	AutoPublishThreshold = 0.9
	UnverifiedThreshold  = 0.6
)

// Store is the subset of internal/database.DB the workflow engine needs.
type Store interface {
	ListReportsByIncident(ctx context.Context, incidentID string) ([]*models.IncidentReport, error)
	UpdateIncidentDerived(ctx context.Context, incidentID string, reportCount int, sourceTypes []string, confidenceScore float64, proposedStatus models.ReviewStatus) error
}

// SourceTypeLookup resolves a report's source kind (html/rss/api/audio)
// from its source_id, since IncidentReport itself only stores the FK.
type SourceTypeLookup interface {
	SourceType(ctx context.Context, sourceID string) (models.SourceType, error)
}

// EventPublisher announces a recomputed incident's new derived state to
// the event bus. Optional: a nil EventPublisher just skips the
// announcement, keeping the bus an optional dependency per
// config.NATSConfig.Enabled.
type EventPublisher interface {
	PublishIncidentUpdated(ctx context.Context, incidentID string, confidence float64, status models.ReviewStatus) error
}

// Engine drives confidence recompute and review-status transitions.
type Engine struct {
	store     Store
	lookup    SourceTypeLookup
	publisher EventPublisher
}

// NewEngine constructs a workflow Engine.
func NewEngine(store Store, lookup SourceTypeLookup) *Engine {
	return &Engine{store: store, lookup: lookup}
}

// SetEventPublisher wires the event bus Recompute announces through
// after every successful state update.
func (e *Engine) SetEventPublisher(publisher EventPublisher) {
	e.publisher = publisher
}

// Recompute pulls every report linked to incidentID, recalculates
// report_count/source_types/confidence_score per spec §4.6, derives the
// proposed review_status from the confidence thresholds, and persists
// the result. UpdateIncidentDerived's own CASE-clause guard keeps an
// approved/rejected incident's review_status untouched even though this
// function always proposes one; see internal/database/incidents.go.
func (e *Engine) Recompute(ctx context.Context, incidentID string) error {
	reports, err := e.store.ListReportsByIncident(ctx, incidentID)
	if err != nil {
		return fmt.Errorf("failed to list reports for incident %s: %w", incidentID, err)
	}

	linked := make([]*models.IncidentReport, 0, len(reports))
	for _, r := range reports {
		if r.DedupStatus == models.DedupStatusMatched || r.DedupStatus == models.DedupStatusNewIncident {
			linked = append(linked, r)
		}
	}

	sourceKinds, err := e.sourceKinds(ctx, linked)
	if err != nil {
		return err
	}

	confidence := ConfidenceScore(linked, len(sourceKinds))
	status := ProposedReviewStatus(confidence)

	if err := e.store.UpdateIncidentDerived(ctx, incidentID, len(linked), sourceTypeNames(sourceKinds), confidence, status); err != nil {
		return err
	}
	metrics.WorkflowRecomputes.WithLabelValues(string(status)).Inc()
	metrics.WorkflowConfidenceScore.Observe(confidence)

	if e.publisher != nil {
		if err := e.publisher.PublishIncidentUpdated(ctx, incidentID, confidence, status); err != nil {
			logging.Warn().Err(err).Str("incident_id", incidentID).Msg("failed to publish incident update event")
		}
	}
	return nil
}

func (e *Engine) sourceKinds(ctx context.Context, reports []*models.IncidentReport) (map[models.SourceType]struct{}, error) {
	kinds := make(map[models.SourceType]struct{})
	if e.lookup == nil {
		return kinds, nil
	}
	for _, r := range reports {
		kind, err := e.lookup.SourceType(ctx, r.SourceID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve source type for source %s: %w", r.SourceID, err)
		}
		kinds[kind] = struct{}{}
	}
	return kinds, nil
}

func sourceTypeNames(kinds map[models.SourceType]struct{}) []string {
	names := make([]string, 0, len(kinds))
	for k := range kinds {
		names = append(names, string(k))
	}
	return names
}

// ConfidenceScore computes min(0.99, avg_extraction_confidence +
// 0.05*min(n_reports-1,3) + 0.10*min(n_source_kinds-1,2)), the
// report-count and source-diversity bonus formula from spec §4.6.
// Returns 0 for an incident with no linked reports (it should be
// unreachable in practice, since CreateIncident always seeds one).
func ConfidenceScore(reports []*models.IncidentReport, sourceKindCount int) float64 {
	if len(reports) == 0 {
		return 0
	}

	var sum float64
	for _, r := range reports {
		sum += r.ExtractionConfidence
	}
	avg := sum / float64(len(reports))

	reportBonus := 0.05 * math.Min(float64(len(reports)-1), 3)
	diversityBonus := 0.10 * math.Min(float64(sourceKindCount-1), 2)

	return math.Min(0.99, avg+reportBonus+diversityBonus)
}

// ProposedReviewStatus maps a confidence score to the review_status the
// state machine would assign absent a human override.
func ProposedReviewStatus(confidence float64) models.ReviewStatus {
	switch {
	case confidence >= AutoPublishThreshold:
		return models.ReviewStatusAutoPublished
	case confidence >= UnverifiedThreshold:
		return models.ReviewStatusUnverified
	default:
		return models.ReviewStatusNeedsReview
	}
}
