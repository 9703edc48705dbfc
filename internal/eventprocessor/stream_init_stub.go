// Cartographus Ingest - Local-Intelligence Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus-ingest

//go:build !nats

package eventprocessor

import "context"

// StreamInitializer is a stub used when the binary is built without -tags=nats.
type StreamInitializer struct{}

// NewStreamInitializer returns ErrNATSNotEnabled.
func NewStreamInitializer(js interface{}, cfg StreamConfig) (*StreamInitializer, error) {
	return nil, ErrNATSNotEnabled
}

// EnsureStream is unreachable on the stub.
func (s *StreamInitializer) EnsureStream(ctx context.Context) (interface{}, error) {
	return nil, ErrNATSNotEnabled
}
