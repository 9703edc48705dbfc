// Cartographus Ingest - Local-Intelligence Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus-ingest

//go:build !nats

package eventprocessor

import (
	"context"

	"github.com/tomtom215/cartographus-ingest/internal/config"
)

// EmbeddedServer is a stub used when the binary is built without -tags=nats.
type EmbeddedServer struct{}

// NewEmbeddedServer returns ErrNATSNotEnabled: the binary was built
// without NATS support, so config.NATSConfig.EmbeddedServer can't be
// honored.
func NewEmbeddedServer(cfg config.NATSConfig) (*EmbeddedServer, error) {
	return nil, ErrNATSNotEnabled
}

// ClientURL is unreachable on the stub.
func (s *EmbeddedServer) ClientURL() string {
	return ""
}

// Shutdown is unreachable on the stub.
func (s *EmbeddedServer) Shutdown(ctx context.Context) error {
	return nil
}
