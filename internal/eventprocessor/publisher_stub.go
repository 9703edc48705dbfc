// Cartographus Ingest - Local-Intelligence Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus-ingest

//go:build !nats

package eventprocessor

import (
	"context"

	gobreaker "github.com/sony/gobreaker/v2"
)

// Publisher is a stub used when the binary is built without -tags=nats.
// internal/scheduler and internal/workflow still call PublishEvent
// unconditionally; this no-ops rather than erroring so the event bus
// stays optional infrastructure, matching config.NATSConfig.Enabled's
// documented in-process fallback.
type Publisher struct {
	circuitBreaker *gobreaker.CircuitBreaker[interface{}]
}

// NewPublisher returns a Publisher stub.
func NewPublisher(cfg PublisherConfig, logger interface{}) (*Publisher, error) {
	return &Publisher{}, nil
}

// SetCircuitBreaker is a no-op on the stub.
func (p *Publisher) SetCircuitBreaker(cb *gobreaker.CircuitBreaker[interface{}]) {
	p.circuitBreaker = cb
}

// PublishEvent is a no-op on the stub: events are dropped, not queued.
func (p *Publisher) PublishEvent(ctx context.Context, event *IncidentEvent) error {
	return nil
}

// Close is a no-op on the stub.
func (p *Publisher) Close() error {
	return nil
}
