// Cartographus Ingest - Local-Intelligence Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus-ingest

package geocoder

import (
	"context"
	"fmt"
	"net/url"

	"github.com/goccy/go-json"

	"github.com/tomtom215/cartographus-ingest/internal/models"
)

// Fetcher is the subset of internal/adapters.HTTPFetcher the parcel
// provider needs, kept as an interface so tests don't require the real
// rate-limited/circuit-breaker-wrapped client.
type Fetcher interface {
	Get(ctx context.Context, url string, headers map[string]string) ([]byte, error)
}

// parcelLookupResponse is the JSON shape returned by the configured
// parcel/assessor endpoint: a single best match with a point and the
// normalized address it matched, or an empty Matches slice on a miss.
type parcelLookupResponse struct {
	Matches []struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"matches"`
}

// HTTPParcelProvider implements ParcelProvider against a configurable
// parcel/assessor lookup API, grounded on the teacher's MaxMindProvider
// (internal/sync/geoip_provider.go): a base URL plus an optional API key
// sent as a bearer token, one GET per lookup, goccy/go-json decoding.
type HTTPParcelProvider struct {
	fetcher Fetcher
	baseURL string
	apiKey  string
}

// NewHTTPParcelProvider constructs a provider against baseURL. apiKey may
// be empty if the endpoint doesn't require authentication.
func NewHTTPParcelProvider(fetcher Fetcher, baseURL, apiKey string) *HTTPParcelProvider {
	return &HTTPParcelProvider{fetcher: fetcher, baseURL: baseURL, apiKey: apiKey}
}

// Name returns the provider name for logging and metrics.
func (p *HTTPParcelProvider) Name() string {
	return "http-parcel-provider"
}

// IsAvailable reports whether a base URL is configured. Per spec, the
// resolver falls through to the block tier when it isn't.
func (p *HTTPParcelProvider) IsAvailable() bool {
	return p.baseURL != ""
}

// Lookup queries the parcel endpoint for address/city/region and returns
// its first match. A response with no matches is reported as
// models.Point zero value plus an error, which the resolver treats as a
// miss for this tier.
func (p *HTTPParcelProvider) Lookup(ctx context.Context, address, city, region string) (models.Point, error) {
	if !p.IsAvailable() {
		return models.Point{}, fmt.Errorf("parcel provider not configured")
	}

	q := url.Values{}
	q.Set("address", address)
	q.Set("city", city)
	q.Set("region", region)
	requestURL := p.baseURL + "?" + q.Encode()

	headers := map[string]string{"Accept": "application/json"}
	if p.apiKey != "" {
		headers["Authorization"] = "Bearer " + p.apiKey
	}

	body, err := p.fetcher.Get(ctx, requestURL, headers)
	if err != nil {
		return models.Point{}, fmt.Errorf("parcel lookup: %w", err)
	}

	var resp parcelLookupResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return models.Point{}, fmt.Errorf("parcel lookup: decode response: %w", err)
	}
	if len(resp.Matches) == 0 {
		return models.Point{}, fmt.Errorf("parcel lookup: no match for %q", address)
	}

	match := resp.Matches[0]
	point := models.Point{Lat: match.Latitude, Lng: match.Longitude}
	if !point.Valid() {
		return models.Point{}, fmt.Errorf("parcel lookup: implausible point for %q", address)
	}
	return point, nil
}
