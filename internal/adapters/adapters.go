// Cartographus Ingest - Local-Intelligence Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus-ingest

// Package adapters defines the four source-type fetchers (html, rss,
// api, audio) the scheduler drives once per configured poll interval.
package adapters

import (
	"context"

	"github.com/tomtom215/cartographus-ingest/internal/extraction"
	"github.com/tomtom215/cartographus-ingest/internal/models"
)

// Adapter fetches whatever is new from one source and returns it as raw
// observations for the extraction engine. Each adapter derives
// ExternalID by its own source-type-specific rule (spec §4.2):
// RSS/API use the feed's own guid/id; HTML hashes (url, entry text). The
// html adapter does not pick out a headline or date, so any change to an
// entry's text yields a new ExternalID.
type Adapter interface {
	Fetch(ctx context.Context, source *models.Source) ([]extraction.RawObservation, error)
}

// Registry resolves the right Adapter for a source's configured type.
type Registry struct {
	byType map[models.SourceType]Adapter
}

// NewRegistry builds a Registry from the adapter set.
func NewRegistry(adapters map[models.SourceType]Adapter) *Registry {
	return &Registry{byType: adapters}
}

// For returns the adapter registered for a source's type, or false if
// none is configured — the scheduler records this as a failed fetch
// cycle, with the same backoff and deactivation accounting as any other
// fetch error.
func (r *Registry) For(sourceType models.SourceType) (Adapter, bool) {
	a, ok := r.byType[sourceType]
	return a, ok
}
