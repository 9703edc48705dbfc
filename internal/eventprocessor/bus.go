// Cartographus Ingest - Local-Intelligence Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus-ingest

package eventprocessor

import (
	"context"
	"time"

	"github.com/tomtom215/cartographus-ingest/internal/config"
	"github.com/tomtom215/cartographus-ingest/internal/metrics"
	"github.com/tomtom215/cartographus-ingest/internal/models"
)

// Bus is the facade the rest of the pipeline depends on: workflow and
// rollup publish through it without caring whether the binary was built
// with -tags=nats or is running the in-process stub.
type Bus struct {
	publisher *Publisher
}

// NewBus wires a Publisher against the application's NATS config,
// wrapped in a circuit breaker so a stalled broker degrades publish
// calls to fast failures instead of blocking the caller.
func NewBus(cfg config.NATSConfig) (*Bus, error) {
	pub, err := NewPublisher(NewPublisherConfig(cfg), nil)
	if err != nil {
		return nil, err
	}
	pub.SetCircuitBreaker(NewCircuitBreaker(DefaultCircuitBreakerConfig("eventprocessor-publish")))
	return &Bus{publisher: pub}, nil
}

// PublishIncidentCreated announces a freshly minted incident.
func (b *Bus) PublishIncidentCreated(ctx context.Context, incidentID, region string, category models.IncidentCategory) error {
	event := NewIncidentEvent(EventIncidentCreated, incidentID)
	event.Region = region
	event.Category = category
	return b.publish(ctx, event)
}

// PublishIncidentUpdated announces a workflow recompute's new derived state.
func (b *Bus) PublishIncidentUpdated(ctx context.Context, incidentID string, confidence float64, status models.ReviewStatus) error {
	event := NewIncidentEvent(EventIncidentUpdated, incidentID)
	event.ConfidenceScore = confidence
	event.ReviewStatus = status
	return b.publish(ctx, event)
}

// PublishRollup announces a newly upserted weekly rollup.
func (b *Bus) PublishRollup(ctx context.Context, region string, weekStart time.Time) error {
	event := NewIncidentEvent(EventRollupPublished, "")
	event.Region = region
	event.RollupWeekStart = &weekStart
	return b.publish(ctx, event)
}

func (b *Bus) publish(ctx context.Context, event *IncidentEvent) error {
	if err := b.publisher.PublishEvent(ctx, event); err != nil {
		metrics.EventPublishErrors.WithLabelValues(string(event.Type)).Inc()
		return err
	}
	metrics.EventsPublished.WithLabelValues(string(event.Type)).Inc()
	return nil
}

// Close shuts down the underlying publisher.
func (b *Bus) Close() error {
	return b.publisher.Close()
}
