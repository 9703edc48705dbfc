// Cartographus Ingest - Local-Intelligence Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus-ingest

package sourceconfig

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/tomtom215/cartographus-ingest/internal/models"
)

type fakeStore struct {
	upserted []*models.Source
}

func (f *fakeStore) UpsertSource(ctx context.Context, s *models.Source) error {
	f.upserted = append(f.upserted, s)
	return nil
}

func writeSourcesFile(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "sources.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("failed to write sources file: %v", err)
	}
	return path
}

func TestLoadUpsertsValidSources(t *testing.T) {
	path := writeSourcesFile(t, `
sources:
  - id: blotter-1
    name: County Blotter
    type: html
    url: https://example.test/blotter
    region: metro
    category: crime
  - id: feed-1
    name: Wire Feed
    type: rss
    url: https://example.test/feed.xml
    region: metro
    category: news
    active: false
`)

	store := &fakeStore{}
	n, err := Load(context.Background(), store, path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 sources loaded, got %d", n)
	}
	if store.upserted[0].IsActive != true {
		t.Fatalf("expected first source to default active=true")
	}
	if store.upserted[1].IsActive != false {
		t.Fatalf("expected second source to honor active=false")
	}
}

func TestLoadSkipsInvalidType(t *testing.T) {
	path := writeSourcesFile(t, `
sources:
  - id: bad-1
    name: Bad Source
    type: carrier-pigeon
    url: https://example.test
    region: metro
    category: crime
  - id: good-1
    name: Good Source
    type: api
    url: https://example.test/api
    region: metro
    category: news
`)

	store := &fakeStore{}
	n, err := Load(context.Background(), store, path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 source loaded after skipping invalid type, got %d", n)
	}
}

func TestLoadMissingFileErrors(t *testing.T) {
	store := &fakeStore{}
	if _, err := Load(context.Background(), store, "/nonexistent/sources.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}
