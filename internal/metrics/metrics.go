// Cartographus Ingest - Local-Intelligence Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus-ingest

// Package metrics exposes Prometheus instrumentation for every pipeline
// stage, grounded on the teacher's internal/metrics package.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Scheduler metrics
	SchedulerCycles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduler_fetch_cycles_total",
			Help: "Total number of source fetch cycles run, by source type and outcome",
		},
		[]string{"source_type", "outcome"}, // outcome: "success", "failure"
	)

	SchedulerCycleDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scheduler_fetch_cycle_duration_seconds",
			Help:    "Duration of one source fetch cycle",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"source_type"},
	)

	SchedulerSourcesDeactivated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduler_sources_deactivated_total",
			Help: "Total number of sources auto-deactivated after consecutive failures",
		},
		[]string{"source_type"},
	)

	SchedulerActiveSources = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scheduler_active_sources",
			Help: "Current number of active sources the scheduler is polling",
		},
	)

	// Extraction metrics
	ExtractionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "extraction_duration_seconds",
			Help:    "Duration of LLM extraction calls",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 15, 30},
		},
		[]string{"source_type"},
	)

	ExtractionErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "extraction_errors_total",
			Help: "Total number of extraction failures, by cause",
		},
		[]string{"cause"}, // "api_error", "malformed_output", "rate_limited"
	)

	ExtractionNoIncidentFound = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "extraction_no_incident_total",
			Help: "Total number of observations that described no extractable incident",
		},
	)

	// Geocoder metrics
	GeocodeResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geocode_resolutions_total",
			Help: "Total number of geocode attempts, by resolution tier reached",
		},
		[]string{"tier"}, // "parcel", "block", "centroid", "unknown"
	)

	GeocodeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "geocode_duration_seconds",
			Help:    "Duration of a geocode resolution across all attempted tiers",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"tier"},
	)

	// Dedup metrics
	DedupDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dedup_decisions_total",
			Help: "Total number of dedup decisions, by outcome",
		},
		[]string{"decision"}, // "matched", "new_incident", "rejected"
	)

	DedupMatchScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dedup_match_score",
			Help:    "Distribution of the winning candidate's match score",
			Buckets: []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.55, 0.6, 0.7, 0.8, 0.9, 1.0},
		},
	)

	// Workflow metrics
	WorkflowRecomputes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workflow_recomputes_total",
			Help: "Total number of incident confidence recomputes, by resulting review status",
		},
		[]string{"review_status"},
	)

	WorkflowConfidenceScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "workflow_confidence_score",
			Help:    "Distribution of recomputed confidence scores",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 0.99},
		},
	)

	// Rollup metrics
	RollupJobDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rollup_job_duration_seconds",
			Help:    "Duration of one weekly rollup computation",
			Buckets: prometheus.DefBuckets,
		},
	)

	RollupJobErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rollup_job_errors_total",
			Help: "Total number of rollup job failures",
		},
	)

	// Circuit breaker metrics, shared by internal/adapters and
	// internal/eventprocessor's gobreaker-wrapped calls.
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures recorded by a circuit breaker",
		},
		[]string{"name"},
	)

	// Read API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of read-API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Read-API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint"},
	)

	// Event bus metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Total number of events published onto the event bus, by type",
		},
		[]string{"event_type"},
	)

	EventPublishErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "event_publish_errors_total",
			Help: "Total number of event publish failures, by type",
		},
		[]string{"event_type"},
	)
)

// GaugeStateFromString maps a gobreaker state string ("closed",
// "half-open", "open") to the numeric value CircuitBreakerState expects,
// matching the teacher's circuit_breaker_state gauge convention.
func GaugeStateFromString(state string) float64 {
	switch state {
	case "closed":
		return 0
	case "half-open":
		return 1
	case "open":
		return 2
	default:
		return -1
	}
}
