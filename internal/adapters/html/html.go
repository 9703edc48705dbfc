// Cartographus Ingest - Local-Intelligence Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus-ingest

// Package html adapts police-blotter-style web pages: the whole page
// body is handed to the extraction engine as raw text, since no DOM
// selector library exists anywhere in this project's dependency stack —
// the LLM extractor does the structural parsing that a scraper normally
// would. See DESIGN.md for why this is stdlib-only (net/html is not
// pulled in directly; only the raw bytes are read).
package html

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"

	"github.com/tomtom215/cartographus-ingest/internal/extraction"
	"github.com/tomtom215/cartographus-ingest/internal/models"
)

// Fetcher is the HTTP dependency html.Adapter needs; satisfied by
// internal/adapters.HTTPFetcher.
type Fetcher interface {
	Get(ctx context.Context, url string, headers map[string]string) ([]byte, error)
}

// Adapter implements adapters.Adapter for source_type = "html". It
// splits the fetched page into entry-sized chunks on the fixed
// entrySeparator pattern (a page with no separator yields one entry) so a
// single blotter page yields one RawObservation per incident rather
// than one giant blob for the extractor to disentangle.
type Adapter struct {
	fetcher Fetcher
}

// NewAdapter constructs an html.Adapter.
func NewAdapter(fetcher Fetcher) *Adapter {
	return &Adapter{fetcher: fetcher}
}

// entrySeparator splits a blotter page into per-incident chunks on
// horizontal rules or repeated blank lines, the layout most municipal
// police-blotter pages use between entries.
var entrySeparator = regexp.MustCompile(`(?i)<hr[^>]*>|\n\s*\n\s*\n+`)

// Fetch downloads source.URL and splits it into entries. ExternalID for
// each entry is sha256(url + entry text) truncated to 32 hex chars —
// HTML pages carry no native identifier, so content hashing is the only
// stable dedup key across re-fetches of a page that grows over time.
func (a *Adapter) Fetch(ctx context.Context, source *models.Source) ([]extraction.RawObservation, error) {
	body, err := a.fetcher.Get(ctx, source.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("html adapter: fetch %s: %w", source.URL, err)
	}

	stripped := stripTags(entrySeparator.ReplaceAllString(string(body), "\n\n\n"))
	entries := entrySeparator.Split(stripped, -1)

	observations := make([]extraction.RawObservation, 0, len(entries))
	for _, entry := range entries {
		text := collapseWhitespace(entry)
		if len(text) < 20 {
			continue // too short to be a real blotter entry
		}
		observations = append(observations, extraction.RawObservation{
			SourceID:   source.ID,
			ExternalID: externalID(source.URL, text),
			SourceURL:  source.URL,
			Text:       text,
		})
	}
	return observations, nil
}

var tagPattern = regexp.MustCompile(`(?s)<script.*?</script>|<style.*?</style>|<[^>]+>`)
var whitespacePattern = regexp.MustCompile(`\s+`)

func stripTags(body string) string {
	return tagPattern.ReplaceAllString(body, "\n")
}

func collapseWhitespace(s string) string {
	return whitespacePattern.ReplaceAllString(s, " ")
}

func externalID(url, text string) string {
	h := sha256.Sum256([]byte(url + "|" + text))
	return hex.EncodeToString(h[:])[:32]
}
