// Cartographus Ingest - Local-Intelligence Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus-ingest

package rss

import (
	"context"
	"testing"

	"github.com/tomtom215/cartographus-ingest/internal/models"
)

type fakeFetcher struct{ body []byte }

func (f *fakeFetcher) Get(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	return f.body, nil
}

func TestFetchParsesRSS2Feed(t *testing.T) {
	feed := `<?xml version="1.0"?>
<rss version="2.0"><channel>
<item><title>Structure fire on Main St</title><link>https://news.example/a</link><guid>guid-1</guid><description>Crews responded.</description></item>
</channel></rss>`

	a := NewAdapter(&fakeFetcher{body: []byte(feed)})
	observations, err := a.Fetch(context.Background(), &models.Source{ID: "src-1", URL: "https://news.example/rss"})
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if len(observations) != 1 || observations[0].ExternalID != "guid-1" {
		t.Fatalf("got %+v, want one observation with ExternalID guid-1", observations)
	}
}

func TestFetchParsesAtomFeed(t *testing.T) {
	feed := `<?xml version="1.0"?>
<feed xmlns="http://www.w3.org/2005/Atom">
<entry><title>Traffic accident</title><id>urn:uuid:abc123</id><link href="https://news.example/b"/><summary>Two cars collided.</summary></entry>
</feed>`

	a := NewAdapter(&fakeFetcher{body: []byte(feed)})
	observations, err := a.Fetch(context.Background(), &models.Source{ID: "src-1", URL: "https://news.example/atom"})
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if len(observations) != 1 || observations[0].ExternalID != "urn:uuid:abc123" {
		t.Fatalf("got %+v, want one observation with the Atom entry id", observations)
	}
}

func TestFetchRejectsUnrecognizedXML(t *testing.T) {
	a := NewAdapter(&fakeFetcher{body: []byte(`<?xml version="1.0"?><notafeed/>`)})
	if _, err := a.Fetch(context.Background(), &models.Source{ID: "src-1", URL: "https://example/x"}); err == nil {
		t.Fatal("expected error for unrecognized XML shape")
	}
}
