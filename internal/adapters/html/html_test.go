// Cartographus Ingest - Local-Intelligence Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus-ingest

package html

import (
	"context"
	"testing"

	"github.com/tomtom215/cartographus-ingest/internal/models"
)

type fakeFetcher struct {
	body []byte
	err  error
}

func (f *fakeFetcher) Get(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	return f.body, f.err
}

func TestFetchSplitsEntriesAndDerivesStableExternalID(t *testing.T) {
	page := `<html><body>
<p>Entry one: a structure fire was reported at 412 Main St around 2am Tuesday, crews responded quickly.</p>
<hr>
<p>Entry two: a two-vehicle collision occurred at the intersection of Route 14 and Dean St on Wednesday afternoon.</p>
</body></html>`

	fetcher := &fakeFetcher{body: []byte(page)}
	a := NewAdapter(fetcher)
	source := &models.Source{ID: "src-1", URL: "https://example.gov/blotter"}

	observations, err := a.Fetch(context.Background(), source)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if len(observations) != 2 {
		t.Fatalf("got %d observations, want 2", len(observations))
	}

	observations2, err := a.Fetch(context.Background(), source)
	if err != nil {
		t.Fatalf("second Fetch returned error: %v", err)
	}
	if observations[0].ExternalID != observations2[0].ExternalID {
		t.Error("ExternalID must be stable across re-fetches of the same content")
	}
}

func TestFetchDropsTooShortEntries(t *testing.T) {
	page := `<html><body><p>hi</p><hr><p>This entry is definitely long enough to count as a real blotter item.</p></body></html>`
	a := NewAdapter(&fakeFetcher{body: []byte(page)})
	source := &models.Source{ID: "src-1", URL: "https://example.gov/blotter"}

	observations, err := a.Fetch(context.Background(), source)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if len(observations) != 1 {
		t.Fatalf("got %d observations, want 1 (short entry should be dropped)", len(observations))
	}
}
