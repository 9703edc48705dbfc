// Cartographus Ingest - Local-Intelligence Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus-ingest

// Package ingestpipeline defines the typed error taxonomy shared across the
// pipeline stages (scheduler, adapters, extraction, geocoder, dedup,
// workflow). Callers branch on it with errors.Is instead of string
// matching, the same convention internal/database uses for its own
// wrapped errors.
package ingestpipeline

import "errors"

var (
	// ErrTransientSource indicates a source fetch failed in a way that is
	// expected to clear on retry (timeout, 5xx, connection reset). The
	// scheduler counts these toward backoff but not permanent deactivation
	// logic beyond the configured consecutive-failure threshold.
	ErrTransientSource = errors.New("ingestpipeline: transient source error")

	// ErrFatalSource indicates a source fetch failed in a way retrying
	// will not fix (404, malformed URL, revoked credentials). The
	// scheduler still applies backoff, but the operator-visible error log
	// entry is tagged so a human knows not to wait it out.
	ErrFatalSource = errors.New("ingestpipeline: fatal source error")

	// ErrExtractionMalformed indicates the extraction engine's output
	// failed schema validation or used a category outside the closed set.
	// The raw LLM response is persisted alongside this error for offline
	// inspection rather than discarded.
	ErrExtractionMalformed = errors.New("ingestpipeline: malformed extraction output")

	// ErrGeocodeMiss indicates none of the geocoder's three tiers could
	// resolve a location; callers should fall through to the unknown
	// resolution tier rather than fail the pipeline.
	ErrGeocodeMiss = errors.New("ingestpipeline: geocode miss across all tiers")

	// ErrDatastoreConflict indicates a write lost a race against a
	// concurrent recompute (e.g. two reports linking to the same
	// incident at once). No stage in this module returns it or retries
	// on it; it is declared for errors.Is checks.
	ErrDatastoreConflict = errors.New("ingestpipeline: datastore conflict, retry")
)
