// Cartographus Ingest - Local-Intelligence Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus-ingest

package geocoder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/cartographus-ingest/internal/ingestpipeline"
	"github.com/tomtom215/cartographus-ingest/internal/models"
)

type fakeParcelProvider struct {
	point     models.Point
	err       error
	available bool
}

func (f *fakeParcelProvider) Lookup(ctx context.Context, address, city, region string) (models.Point, error) {
	if f.err != nil {
		return models.Point{}, f.err
	}
	return f.point, nil
}
func (f *fakeParcelProvider) Name() string      { return "fake-parcel" }
func (f *fakeParcelProvider) IsAvailable() bool { return f.available }

type fakeCenterlineStore struct {
	centerlines []*models.StreetCenterline
}

func (f *fakeCenterlineStore) FindCenterlinesCoveringBlock(ctx context.Context, region, streetNameNormalized string, houseNumber int) ([]*models.StreetCenterline, error) {
	return f.centerlines, nil
}

func TestResolverPrefersParcelTier(t *testing.T) {
	parcel := &fakeParcelProvider{point: models.Point{Lat: 42.1, Lng: -88.1}, available: true}
	r := NewResolver(parcel, nil, nil, time.Minute)

	point, resolution, confidence, err := r.Resolve(context.Background(), "412 Main St", "Woodstock", "mchenry_county")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if resolution != models.ResolutionParcel || confidence != ConfidenceParcel {
		t.Errorf("got resolution=%v confidence=%v, want parcel/%v", resolution, confidence, ConfidenceParcel)
	}
	if point != parcel.point {
		t.Errorf("got point %v, want %v", point, parcel.point)
	}
}

func TestResolverFallsBackToBlockTier(t *testing.T) {
	centerline := &models.StreetCenterline{
		StreetNameNormalized: "main",
		FromAddress:          400,
		ToAddress:             499,
		Geometry:             models.Line{{Lat: 42.0, Lng: -88.0}, {Lat: 42.1, Lng: -88.1}},
	}
	store := &fakeCenterlineStore{centerlines: []*models.StreetCenterline{centerline}}
	r := NewResolver(&fakeParcelProvider{available: false}, store, nil, time.Minute)

	_, resolution, confidence, err := r.Resolve(context.Background(), "412 Main St", "Woodstock", "mchenry_county")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if resolution != models.ResolutionBlock || confidence != ConfidenceBlock {
		t.Errorf("got resolution=%v confidence=%v, want block/%v", resolution, confidence, ConfidenceBlock)
	}
}

func TestResolverFallsBackToCentroidTier(t *testing.T) {
	centroids := map[string]models.Point{"mchenry_county": {Lat: 42.33, Lng: -88.45}}
	r := NewResolver(nil, &fakeCenterlineStore{}, centroids, time.Minute)

	point, resolution, confidence, err := r.Resolve(context.Background(), "unparseable location", "Woodstock", "mchenry_county")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if resolution != models.ResolutionCentroid || confidence != ConfidenceCentroid {
		t.Errorf("got resolution=%v confidence=%v, want centroid/%v", resolution, confidence, ConfidenceCentroid)
	}
	if point != centroids["mchenry_county"] {
		t.Errorf("got point %v, want region centroid %v", point, centroids["mchenry_county"])
	}
}

func TestResolverReturnsGeocodeMissWhenAllTiersMiss(t *testing.T) {
	r := NewResolver(nil, nil, nil, time.Minute)

	_, resolution, confidence, err := r.Resolve(context.Background(), "unknown place", "Nowhere", "unmapped_region")
	if !errors.Is(err, ingestpipeline.ErrGeocodeMiss) {
		t.Fatalf("got err %v, want ErrGeocodeMiss", err)
	}
	if resolution != models.ResolutionUnknown || confidence != ConfidenceUnknown {
		t.Errorf("got resolution=%v confidence=%v, want unknown/0", resolution, confidence)
	}
}

func TestResolverCachesResolution(t *testing.T) {
	calls := 0
	parcel := &fakeParcelProviderCounting{point: models.Point{Lat: 1, Lng: 2}, calls: &calls}
	r := NewResolver(parcel, nil, nil, time.Minute)

	for i := 0; i < 3; i++ {
		if _, _, _, err := r.Resolve(context.Background(), "412 Main St", "Woodstock", "mchenry_county"); err != nil {
			t.Fatalf("Resolve returned error: %v", err)
		}
	}
	if calls != 1 {
		t.Errorf("parcel provider called %d times, want 1 (cache should short-circuit)", calls)
	}
}

type fakeParcelProviderCounting struct {
	point models.Point
	calls *int
}

func (f *fakeParcelProviderCounting) Lookup(ctx context.Context, address, city, region string) (models.Point, error) {
	*f.calls++
	return f.point, nil
}
func (f *fakeParcelProviderCounting) Name() string      { return "fake-parcel-counting" }
func (f *fakeParcelProviderCounting) IsAvailable() bool { return true }
