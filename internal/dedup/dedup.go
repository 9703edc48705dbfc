// Cartographus Ingest - Local-Intelligence Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus-ingest

// Package dedup implements the spatiotemporal deduplicator: given a new
// incident report, decide whether it describes an already-known
// incident, a new one, or should be discarded as unlinkable.
package dedup

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/tomtom215/cartographus-ingest/internal/config"
	"github.com/tomtom215/cartographus-ingest/internal/database"
	"github.com/tomtom215/cartographus-ingest/internal/logging"
	"github.com/tomtom215/cartographus-ingest/internal/metrics"
	"github.com/tomtom215/cartographus-ingest/internal/models"
)

// Score weights for the three match terms, fixed by contract.
const (
	weightDistance = 0.5
	weightTime     = 0.3
	weightType     = 0.2

	// timeDeltaNormalizationMinutes caps the time term's falloff: a
	// zero delta scores 1.0 on this term, a 180-minute delta scores 0.
	timeDeltaNormalizationMinutes = 180.0
)

// Store is the subset of internal/database.DB the deduplicator needs,
// kept as an interface for testability without a real DuckDB connection.
type Store interface {
	FindDedupCandidates(ctx context.Context, center models.Point, windowStart, windowEnd time.Time, radiusMeters float64) ([]*models.Incident, error)
	CreateIncident(ctx context.Context, inc *models.Incident) error
	UpdateReportDedup(ctx context.Context, reportID string, status models.DedupStatus, incidentID *string) error
	InsertDedupeAuditEntry(ctx context.Context, entry *models.DedupeAuditEntry) error
}

// EventPublisher announces a freshly minted incident to the event bus.
// Optional: a nil EventPublisher just skips the announcement.
type EventPublisher interface {
	PublishIncidentCreated(ctx context.Context, incidentID, region string, category models.IncidentCategory) error
}

// Deduplicator links incident reports to canonical incidents, or mints a
// new incident when no existing one matches closely enough.
type Deduplicator struct {
	store     Store
	cfg       config.DedupConfig
	publisher EventPublisher
}

// NewDeduplicator constructs a Deduplicator against cfg's radius/window/
// threshold tuning (SPEC_FULL.md §6.5; default radius 300m, window 3h,
// threshold 0.55, per internal/config's defaults).
func NewDeduplicator(store Store, cfg config.DedupConfig) *Deduplicator {
	return &Deduplicator{store: store, cfg: cfg}
}

// SetEventPublisher wires the event bus Process announces newly created
// incidents through.
func (d *Deduplicator) SetEventPublisher(publisher EventPublisher) {
	d.publisher = publisher
}

// Decision records what Process did with a report, for callers (the
// workflow stage) that need to react to a freshly created incident.
type Decision struct {
	Status     models.DedupStatus
	IncidentID string
	Score      float64
}

// Process evaluates report against existing incidents within the
// configured space/time window and either links it to the best match
// above the threshold, creates a new incident, or, if the report
// carries no usable location, marks it rejected, per spec.md §4.5's
// edge-case contract for unlocatable reports.
func (d *Deduplicator) Process(ctx context.Context, report *models.IncidentReport, location models.Point, incidentType string, category models.IncidentCategory, urgency int, locationResolution models.LocationResolution, locationConfidence float64, region string) (Decision, error) {
	if !location.Valid() {
		if err := d.store.UpdateReportDedup(ctx, report.ID, models.DedupStatusRejected, nil); err != nil {
			return Decision{}, fmt.Errorf("failed to reject unlocatable report %s: %w", report.ID, err)
		}
		if err := d.store.InsertDedupeAuditEntry(ctx, &models.DedupeAuditEntry{IncidentReportID: report.ID, Decision: "rejected"}); err != nil {
			logging.Warn().Err(err).Str("report_id", report.ID).Msg("failed to write dedupe audit entry")
		}
		metrics.DedupDecisions.WithLabelValues("rejected").Inc()
		return Decision{Status: models.DedupStatusRejected}, nil
	}

	windowCenter := report.DedupWindowTime()
	windowStart := windowCenter.Add(-d.cfg.TimeWindow)
	windowEnd := windowCenter.Add(d.cfg.TimeWindow)

	candidates, err := d.store.FindDedupCandidates(ctx, location, windowStart, windowEnd, d.cfg.RadiusMeters)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to find dedup candidates for report %s: %w", report.ID, err)
	}

	best, bestScore, distanceMeters, timeDeltaSeconds, typeMatch := d.bestMatch(candidates, location, windowCenter, incidentType)

	if best != nil && bestScore >= d.cfg.MatchThreshold {
		if err := d.store.UpdateReportDedup(ctx, report.ID, models.DedupStatusMatched, &best.ID); err != nil {
			return Decision{}, fmt.Errorf("failed to link report %s to incident %s: %w", report.ID, best.ID, err)
		}
		d.audit(ctx, report.ID, &best.ID, "matched", bestScore, distanceMeters, timeDeltaSeconds, typeMatch)
		metrics.DedupDecisions.WithLabelValues("matched").Inc()
		metrics.DedupMatchScore.Observe(bestScore)
		return Decision{Status: models.DedupStatusMatched, IncidentID: best.ID, Score: bestScore}, nil
	}

	inc := &models.Incident{
		IncidentType:       incidentType,
		Category:           category,
		UrgencyScore:       urgency,
		Location:           location,
		LocationResolution: locationResolution,
		LocationConfidence: locationConfidence,
		Region:             region,
		OccurredAt:         report.OccurredAt,
		ReportedAt:         report.IngestedAt,
		Title:              incidentType,
		ReportCount:        1,
		SourceTypes:        []string{},
		ConfidenceScore:    report.ExtractionConfidence,
		ReviewStatus:       models.ReviewStatusUnverified,
		Status:             models.IncidentStatusActive,
	}
	if err := d.store.CreateIncident(ctx, inc); err != nil {
		return Decision{}, fmt.Errorf("failed to create incident for report %s: %w", report.ID, err)
	}
	if err := d.store.UpdateReportDedup(ctx, report.ID, models.DedupStatusNewIncident, &inc.ID); err != nil {
		return Decision{}, fmt.Errorf("failed to link report %s to new incident %s: %w", report.ID, inc.ID, err)
	}
	d.audit(ctx, report.ID, &inc.ID, "new_incident", bestScore, distanceMeters, timeDeltaSeconds, typeMatch)
	metrics.DedupDecisions.WithLabelValues("new_incident").Inc()
	metrics.DedupMatchScore.Observe(bestScore)

	if d.publisher != nil {
		if err := d.publisher.PublishIncidentCreated(ctx, inc.ID, region, category); err != nil {
			logging.Warn().Err(err).Str("incident_id", inc.ID).Msg("failed to publish incident created event")
		}
	}
	return Decision{Status: models.DedupStatusNewIncident, IncidentID: inc.ID, Score: bestScore}, nil
}

// bestMatch scores every candidate and returns the highest-scoring one.
// Ties are broken deterministically by incident ID (lexically smallest
// wins) so repeated runs over the same data are reproducible.
func (d *Deduplicator) bestMatch(candidates []*models.Incident, location models.Point, occurredAt time.Time, incidentType string) (best *models.Incident, bestScore, distanceMeters, timeDeltaSeconds float64, typeMatch bool) {
	type scored struct {
		incident   *models.Incident
		score      float64
		distance   float64
		timeDelta  float64
		typesMatch bool
	}

	var results []scored
	for _, c := range candidates {
		distance := database.HaversineMeters(location, c.Location)
		candidateTime := c.ReportedAt
		if c.OccurredAt != nil {
			candidateTime = *c.OccurredAt
		}
		delta := math.Abs(occurredAt.Sub(candidateTime).Minutes())
		typesMatch := sameIncidentType(c.IncidentType, incidentType)

		score := MatchScore(distance, delta, typesMatch, d.cfg.RadiusMeters)
		results = append(results, scored{incident: c, score: score, distance: distance, timeDelta: delta, typesMatch: typesMatch})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].score != results[j].score {
			return results[i].score > results[j].score
		}
		return results[i].incident.ID < results[j].incident.ID
	})

	if len(results) == 0 {
		return nil, 0, 0, 0, false
	}
	top := results[0]
	return top.incident, top.score, top.distance, top.timeDelta * 60, top.typesMatch
}

// MatchScore computes the weighted match score for one candidate:
// 0.5*(1 - distance/radius) + 0.3*(1 - |delta_minutes|/180) + 0.2*[type match],
// clamped to [0,1] per term before weighting.
func MatchScore(distanceMeters, timeDeltaMinutes float64, typeMatch bool, radiusMeters float64) float64 {
	distanceTerm := clamp01(1 - distanceMeters/radiusMeters)
	timeTerm := clamp01(1 - timeDeltaMinutes/timeDeltaNormalizationMinutes)
	typeTerm := 0.0
	if typeMatch {
		typeTerm = 1.0
	}
	return weightDistance*distanceTerm + weightTime*timeTerm + weightType*typeTerm
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func sameIncidentType(a, b string) bool {
	return a == b
}

func (d *Deduplicator) audit(ctx context.Context, reportID string, incidentID *string, decision string, score, distance, timeDeltaSeconds float64, typeMatch bool) {
	entry := &models.DedupeAuditEntry{
		IncidentReportID:  reportID,
		MatchedIncidentID: incidentID,
		Decision:          decision,
		Score:             score,
		DistanceMeters:    &distance,
		TimeDeltaSeconds:  &timeDeltaSeconds,
		TypeMatch:         &typeMatch,
	}
	if err := d.store.InsertDedupeAuditEntry(ctx, entry); err != nil {
		logging.Warn().Err(err).Str("report_id", reportID).Msg("failed to write dedupe audit entry")
	}
}
