// Cartographus Ingest - Local-Intelligence Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus-ingest

// Package api adapts structured agency JSON APIs (e.g. a county CAD
// feed) that already expose discrete records with their own identifiers.
package api

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/tomtom215/cartographus-ingest/internal/extraction"
	"github.com/tomtom215/cartographus-ingest/internal/models"
)

// Fetcher is the HTTP dependency api.Adapter needs.
type Fetcher interface {
	Get(ctx context.Context, url string, headers map[string]string) ([]byte, error)
}

// Adapter implements adapters.Adapter for source_type = "api". It
// expects the endpoint to return a JSON array of records, each carrying
// an "id" (or "incident_id") field used as ExternalID per spec §4.2's
// "feed's own identifier" rule for structured sources, and flattens the
// rest of the record to text for the extraction engine.
type Adapter struct {
	fetcher Fetcher
}

// NewAdapter constructs an api.Adapter.
func NewAdapter(fetcher Fetcher) *Adapter {
	return &Adapter{fetcher: fetcher}
}

func (a *Adapter) Fetch(ctx context.Context, source *models.Source) ([]extraction.RawObservation, error) {
	body, err := a.fetcher.Get(ctx, source.URL, map[string]string{"Accept": "application/json"})
	if err != nil {
		return nil, fmt.Errorf("api adapter: fetch %s: %w", source.URL, err)
	}

	var records []map[string]interface{}
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("api adapter: %s did not return a JSON array: %w", source.URL, err)
	}

	observations := make([]extraction.RawObservation, 0, len(records))
	for _, record := range records {
		externalID := recordID(record)
		if externalID == "" {
			continue
		}
		text, err := json.Marshal(record)
		if err != nil {
			continue
		}
		observations = append(observations, extraction.RawObservation{
			SourceID:   source.ID,
			ExternalID: externalID,
			SourceURL:  source.URL,
			Text:       string(text),
		})
	}
	return observations, nil
}

func recordID(record map[string]interface{}) string {
	for _, key := range []string{"id", "incident_id", "call_id", "guid"} {
		if v, ok := record[key]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
			if f, ok := v.(float64); ok {
				return fmt.Sprintf("%.0f", f)
			}
		}
	}
	return ""
}
