// Cartographus Ingest - Local-Intelligence Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus-ingest

package geocoder

import (
	"context"
	"errors"
	"testing"
)

type fakeFetcher struct {
	body []byte
	err  error
}

func (f *fakeFetcher) Get(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	return f.body, f.err
}

func TestHTTPParcelProviderName(t *testing.T) {
	p := NewHTTPParcelProvider(&fakeFetcher{}, "https://parcels.example.test", "")
	if p.Name() != "http-parcel-provider" {
		t.Fatalf("unexpected name: %s", p.Name())
	}
}

func TestHTTPParcelProviderIsAvailable(t *testing.T) {
	if (&HTTPParcelProvider{}).IsAvailable() {
		t.Fatal("expected unavailable with no base URL")
	}
	p := NewHTTPParcelProvider(&fakeFetcher{}, "https://parcels.example.test", "key")
	if !p.IsAvailable() {
		t.Fatal("expected available with base URL set")
	}
}

func TestHTTPParcelProviderLookupMatch(t *testing.T) {
	fetcher := &fakeFetcher{body: []byte(`{"matches":[{"latitude":38.9,"longitude":-77.0}]}`)}
	p := NewHTTPParcelProvider(fetcher, "https://parcels.example.test", "key")

	point, err := p.Lookup(context.Background(), "123 Main St", "Springfield", "metro")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if point.Lat != 38.9 || point.Lng != -77.0 {
		t.Fatalf("unexpected point: %+v", point)
	}
}

func TestHTTPParcelProviderLookupNoMatch(t *testing.T) {
	fetcher := &fakeFetcher{body: []byte(`{"matches":[]}`)}
	p := NewHTTPParcelProvider(fetcher, "https://parcels.example.test", "")

	if _, err := p.Lookup(context.Background(), "123 Main St", "Springfield", "metro"); err == nil {
		t.Fatal("expected error on empty matches")
	}
}

func TestHTTPParcelProviderLookupFetchError(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("boom")}
	p := NewHTTPParcelProvider(fetcher, "https://parcels.example.test", "")

	if _, err := p.Lookup(context.Background(), "123 Main St", "Springfield", "metro"); err == nil {
		t.Fatal("expected error propagated from fetcher")
	}
}

func TestHTTPParcelProviderLookupNotConfigured(t *testing.T) {
	p := NewHTTPParcelProvider(&fakeFetcher{}, "", "")
	if _, err := p.Lookup(context.Background(), "123 Main St", "Springfield", "metro"); err == nil {
		t.Fatal("expected error when no base URL configured")
	}
}
