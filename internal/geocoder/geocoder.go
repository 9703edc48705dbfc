// Cartographus Ingest - Local-Intelligence Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus-ingest

// Package geocoder resolves a text address to a point through three
// tiers, in descending order of precision: parcel lookup, block
// interpolation against cached street centerlines, and region centroid.
package geocoder

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/cartographus-ingest/internal/ingestpipeline"
	"github.com/tomtom215/cartographus-ingest/internal/logging"
	"github.com/tomtom215/cartographus-ingest/internal/models"
)

// Confidence values for each resolution tier, fixed by contract rather
// than computed, so the tier ordering/monotonicity test has a stable
// target.
const (
	ConfidenceParcel   = 0.95
	ConfidenceBlock    = 0.70
	ConfidenceCentroid = 0.30
	ConfidenceUnknown  = 0.0
)

// ParcelProvider looks up a precise point for an address against an
// external parcel/assessor API. Modeled on the teacher's GeoIPProvider
// interface: Lookup, Name, IsAvailable.
type ParcelProvider interface {
	Lookup(ctx context.Context, address, city, region string) (models.Point, error)
	Name() string
	IsAvailable() bool
}

// CenterlineStore is the subset of internal/database.DB the block tier
// needs, kept as an interface so geocoder tests don't require a real
// DuckDB connection.
type CenterlineStore interface {
	FindCenterlinesCoveringBlock(ctx context.Context, region, streetNameNormalized string, houseNumber int) ([]*models.StreetCenterline, error)
}

// Resolver implements the three-tier geocoder, grounded on the teacher's
// GeoIPResolver: try-cache (here, an in-process TTL cache keyed by the
// input address string), try-providers-in-order, cache-on-success.
type Resolver struct {
	parcel      ParcelProvider
	centerlines CenterlineStore
	centroids   map[string]models.Point // region -> municipality centroid, seeded once at startup
	cacheTTL    time.Duration

	mu    sync.Mutex
	cache map[string]cacheEntry
}

type cacheEntry struct {
	point      models.Point
	resolution models.LocationResolution
	confidence float64
	expiresAt  time.Time
}

// NewResolver constructs a Resolver. parcel may be nil when no parcel
// provider endpoint is configured, in which case resolution starts at
// the block tier.
func NewResolver(parcel ParcelProvider, centerlines CenterlineStore, centroids map[string]models.Point, cacheTTL time.Duration) *Resolver {
	return &Resolver{
		parcel:      parcel,
		centerlines: centerlines,
		centroids:   centroids,
		cacheTTL:    cacheTTL,
		cache:       make(map[string]cacheEntry),
	}
}

// Resolve returns a point, the tier that produced it, and that tier's
// fixed confidence. When every tier misses it returns the zero point,
// the unknown tier and ErrGeocodeMiss. Provider call failures
// (network/auth) are not returned: they are logged and treated as a miss
// for that tier.
func (r *Resolver) Resolve(ctx context.Context, address, city, region string) (models.Point, models.LocationResolution, float64, error) {
	cacheKey := region + "|" + city + "|" + address
	if p, res, conf, ok := r.tryCache(cacheKey); ok {
		return p, res, conf, nil
	}

	if point, ok := r.tryParcel(ctx, address, city, region); ok {
		r.store(cacheKey, point, models.ResolutionParcel, ConfidenceParcel)
		return point, models.ResolutionParcel, ConfidenceParcel, nil
	}

	if point, ok := r.tryBlock(ctx, address, region); ok {
		r.store(cacheKey, point, models.ResolutionBlock, ConfidenceBlock)
		return point, models.ResolutionBlock, ConfidenceBlock, nil
	}

	if point, ok := r.centroids[region]; ok {
		r.store(cacheKey, point, models.ResolutionCentroid, ConfidenceCentroid)
		return point, models.ResolutionCentroid, ConfidenceCentroid, nil
	}

	logging.Debug().Str("address", address).Str("region", region).Msg("geocoder: all tiers missed")
	return models.Point{}, models.ResolutionUnknown, ConfidenceUnknown, ingestpipeline.ErrGeocodeMiss
}

func (r *Resolver) tryCache(key string) (models.Point, models.LocationResolution, float64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.cache[key]
	if !ok || time.Now().After(entry.expiresAt) {
		return models.Point{}, "", 0, false
	}
	return entry.point, entry.resolution, entry.confidence, true
}

func (r *Resolver) store(key string, point models.Point, resolution models.LocationResolution, confidence float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache[key] = cacheEntry{point: point, resolution: resolution, confidence: confidence, expiresAt: time.Now().Add(r.cacheTTL)}
}

func (r *Resolver) tryParcel(ctx context.Context, address, city, region string) (models.Point, bool) {
	if r.parcel == nil || !r.parcel.IsAvailable() {
		return models.Point{}, false
	}
	point, err := r.parcel.Lookup(ctx, address, city, region)
	if err != nil {
		logging.Debug().Err(err).Str("provider", r.parcel.Name()).Str("address", address).Msg("parcel lookup failed")
		return models.Point{}, false
	}
	return point, true
}

func (r *Resolver) tryBlock(ctx context.Context, address, region string) (models.Point, bool) {
	if r.centerlines == nil {
		return models.Point{}, false
	}

	houseNumber, streetNormalized, ok := ParseBlockAddress(address)
	if !ok {
		return models.Point{}, false
	}

	centerlines, err := r.centerlines.FindCenterlinesCoveringBlock(ctx, region, streetNormalized, houseNumber)
	if err != nil || len(centerlines) == 0 {
		return models.Point{}, false
	}

	return centerlines[0].InterpolatedPoint(houseNumber), true
}
