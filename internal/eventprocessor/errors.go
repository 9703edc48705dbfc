// Cartographus Ingest - Local-Intelligence Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus-ingest

// Package eventprocessor publishes incident lifecycle events onto a NATS
// JetStream stream so downstream consumers (read-API cache invalidation,
// rollup triggers, external integrations) react without polling the
// database directly.
package eventprocessor

import "errors"

// ErrNATSNotEnabled is returned when NATS features are used without the nats build tag.
var ErrNATSNotEnabled = errors.New("eventprocessor: NATS support not enabled (build with -tags nats)")

// ErrInvalidConfig is returned when a config value can't back a real stream/publisher/subscriber.
var ErrInvalidConfig = errors.New("eventprocessor: invalid configuration")
