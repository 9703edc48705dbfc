// Cartographus Ingest - Local-Intelligence Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus-ingest

// Package rss adapts RSS/Atom news feeds. No feed-parsing library
// appears anywhere in this project's dependency pack, so parsing uses
// encoding/xml directly against a permissive struct covering both RSS
// 2.0 <item> and Atom <entry> — see DESIGN.md for this stdlib exception.
package rss

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/tomtom215/cartographus-ingest/internal/extraction"
	"github.com/tomtom215/cartographus-ingest/internal/models"
)

// Fetcher is the HTTP dependency rss.Adapter needs.
type Fetcher interface {
	Get(ctx context.Context, url string, headers map[string]string) ([]byte, error)
}

// Adapter implements adapters.Adapter for source_type = "rss".
type Adapter struct {
	fetcher Fetcher
}

// NewAdapter constructs an rss.Adapter.
func NewAdapter(fetcher Fetcher) *Adapter {
	return &Adapter{fetcher: fetcher}
}

type rssFeed struct {
	XMLName xml.Name   `xml:"rss"`
	Items   []rssItem  `xml:"channel>item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	GUID        string `xml:"guid"`
	Description string `xml:"description"`
}

type atomFeed struct {
	XMLName xml.Name    `xml:"feed"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	Title   string `xml:"title"`
	ID      string `xml:"id"`
	Content string `xml:"content"`
	Summary string `xml:"summary"`
	Link    struct {
		Href string `xml:"href,attr"`
	} `xml:"link"`
}

// Fetch downloads and parses the feed, returning one RawObservation per
// item/entry. ExternalID is the feed's own guid/id when present
// (spec §4.2: RSS/API adapters use the feed's native identifier),
// falling back to the item's link.
func (a *Adapter) Fetch(ctx context.Context, source *models.Source) ([]extraction.RawObservation, error) {
	body, err := a.fetcher.Get(ctx, source.URL, map[string]string{"Accept": "application/rss+xml, application/atom+xml, application/xml, text/xml"})
	if err != nil {
		return nil, fmt.Errorf("rss adapter: fetch %s: %w", source.URL, err)
	}

	if observations, ok := parseRSS(body, source); ok {
		return observations, nil
	}
	if observations, ok := parseAtom(body, source); ok {
		return observations, nil
	}
	return nil, fmt.Errorf("rss adapter: %s did not parse as RSS or Atom", source.URL)
}

func parseRSS(body []byte, source *models.Source) ([]extraction.RawObservation, bool) {
	var feed rssFeed
	if err := xml.Unmarshal(body, &feed); err != nil || feed.XMLName.Local != "rss" {
		return nil, false
	}

	observations := make([]extraction.RawObservation, 0, len(feed.Items))
	for _, item := range feed.Items {
		externalID := item.GUID
		if externalID == "" {
			externalID = item.Link
		}
		if externalID == "" {
			continue
		}
		observations = append(observations, extraction.RawObservation{
			SourceID:   source.ID,
			ExternalID: externalID,
			SourceURL:  item.Link,
			Text:       strings.TrimSpace(item.Title + "\n\n" + item.Description),
		})
	}
	return observations, true
}

func parseAtom(body []byte, source *models.Source) ([]extraction.RawObservation, bool) {
	var feed atomFeed
	if err := xml.Unmarshal(body, &feed); err != nil || feed.XMLName.Local != "feed" {
		return nil, false
	}

	observations := make([]extraction.RawObservation, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		externalID := entry.ID
		if externalID == "" {
			externalID = entry.Link.Href
		}
		if externalID == "" {
			continue
		}
		body := entry.Content
		if body == "" {
			body = entry.Summary
		}
		observations = append(observations, extraction.RawObservation{
			SourceID:   source.ID,
			ExternalID: externalID,
			SourceURL:  entry.Link.Href,
			Text:       strings.TrimSpace(entry.Title + "\n\n" + body),
		})
	}
	return observations, true
}
