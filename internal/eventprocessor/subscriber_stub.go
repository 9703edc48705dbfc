// Cartographus Ingest - Local-Intelligence Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus-ingest

//go:build !nats

package eventprocessor

import "context"

// Handler processes one incoming incident event.
type Handler func(ctx context.Context, event *IncidentEvent) error

// Subscriber is a stub used when the binary is built without -tags=nats.
type Subscriber struct{}

// NewSubscriber returns ErrNATSNotEnabled; the event bus is optional
// infrastructure and callers are expected to check config.NATS.Enabled
// before wiring a real subscriber.
func NewSubscriber(cfg SubscriberConfig, logger interface{}) (*Subscriber, error) {
	return nil, ErrNATSNotEnabled
}

// Consume is unreachable on the stub; NewSubscriber always errors.
func (s *Subscriber) Consume(ctx context.Context, subject string, handler Handler) error {
	return ErrNATSNotEnabled
}

// Close is a no-op stub.
func (s *Subscriber) Close() error {
	return nil
}
