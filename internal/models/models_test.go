// Cartographus Ingest - Local-Intelligence Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus-ingest

package models

import (
	"testing"
	"time"
)

func TestSourcePollInterval(t *testing.T) {
	cases := []struct {
		name string
		cfg  map[string]string
		def  time.Duration
		want time.Duration
	}{
		{"no override", map[string]string{}, 15 * time.Minute, 15 * time.Minute},
		{"valid override", map[string]string{"poll_interval": "5m"}, 15 * time.Minute, 5 * time.Minute},
		{"garbage override falls back", map[string]string{"poll_interval": "not-a-duration"}, 15 * time.Minute, 15 * time.Minute},
		{"zero override falls back", map[string]string{"poll_interval": "0s"}, 15 * time.Minute, 15 * time.Minute},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := &Source{Config: tc.cfg}
			if got := s.PollInterval(tc.def); got != tc.want {
				t.Errorf("PollInterval() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestIncidentReportDedupWindowTime(t *testing.T) {
	ingested := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	occurred := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)

	r := &IncidentReport{IngestedAt: ingested}
	if got := r.DedupWindowTime(); !got.Equal(ingested) {
		t.Errorf("with nil OccurredAt, DedupWindowTime() = %v, want %v (ingested_at)", got, ingested)
	}

	r.OccurredAt = &occurred
	if got := r.DedupWindowTime(); !got.Equal(occurred) {
		t.Errorf("with OccurredAt set, DedupWindowTime() = %v, want %v", got, occurred)
	}
}

func TestIncidentReportValidForLinking(t *testing.T) {
	id := "incident-1"
	cases := []struct {
		name   string
		status DedupStatus
		incID  *string
		want   bool
	}{
		{"pending without incident is valid", DedupStatusPending, nil, true},
		{"rejected without incident is valid", DedupStatusRejected, nil, true},
		{"matched without incident is invalid", DedupStatusMatched, nil, false},
		{"matched with incident is valid", DedupStatusMatched, &id, true},
		{"new_incident without incident is invalid", DedupStatusNewIncident, nil, false},
		{"new_incident with incident is valid", DedupStatusNewIncident, &id, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := &IncidentReport{DedupStatus: tc.status, IncidentID: tc.incID}
			if got := r.ValidForLinking(); got != tc.want {
				t.Errorf("ValidForLinking() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestIncidentCanRecompute(t *testing.T) {
	cases := []struct {
		status ReviewStatus
		want   bool
	}{
		{ReviewStatusAutoPublished, true},
		{ReviewStatusUnverified, true},
		{ReviewStatusNeedsReview, true},
		{ReviewStatusApproved, false},
		{ReviewStatusRejected, false},
	}
	for _, tc := range cases {
		inc := &Incident{ReviewStatus: tc.status}
		if got := inc.CanRecompute(); got != tc.want {
			t.Errorf("status %s: CanRecompute() = %v, want %v", tc.status, got, tc.want)
		}
	}
}

func TestComputeTrend(t *testing.T) {
	cases := []struct {
		name               string
		current, previous int
		want               int
	}{
		{"increase", 15, 10, 50},
		{"decrease", 5, 10, -50},
		{"unchanged", 10, 10, 0},
		{"zero previous, positive current", 3, 0, 100},
		{"zero previous, zero current", 0, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ComputeTrend(tc.current, tc.previous); got != tc.want {
				t.Errorf("ComputeTrend(%d, %d) = %d, want %d", tc.current, tc.previous, got, tc.want)
			}
		})
	}
}

func TestStreetCenterlineCoversBlock(t *testing.T) {
	c := &StreetCenterline{FromAddress: 100, ToAddress: 199}
	if !c.CoversBlock(150) {
		t.Error("expected 150 to be covered by [100,199]")
	}
	if c.CoversBlock(200) {
		t.Error("expected 200 to be outside [100,199]")
	}

	// Reversed range (to < from) must still cover correctly.
	rev := &StreetCenterline{FromAddress: 199, ToAddress: 100}
	if !rev.CoversBlock(150) {
		t.Error("expected 150 to be covered by reversed range [199,100]")
	}
}

func TestStreetCenterlineInterpolatedPoint(t *testing.T) {
	c := &StreetCenterline{
		FromAddress: 100,
		ToAddress:   200,
		Geometry: Line{
			{Lat: 42.0, Lng: -88.0},
			{Lat: 42.1, Lng: -88.1},
		},
	}

	start := c.InterpolatedPoint(100)
	if start.Lat != 42.0 || start.Lng != -88.0 {
		t.Errorf("InterpolatedPoint(100) = %v, want start vertex", start)
	}

	end := c.InterpolatedPoint(200)
	if end.Lat != 42.1 || end.Lng != -88.1 {
		t.Errorf("InterpolatedPoint(200) = %v, want end vertex", end)
	}

	mid := c.InterpolatedPoint(150)
	wantLat, wantLng := 42.05, -88.05
	const tol = 1e-9
	if diff := mid.Lat - wantLat; diff > tol || diff < -tol {
		t.Errorf("InterpolatedPoint(150).Lat = %v, want %v", mid.Lat, wantLat)
	}
	if diff := mid.Lng - wantLng; diff > tol || diff < -tol {
		t.Errorf("InterpolatedPoint(150).Lng = %v, want %v", mid.Lng, wantLng)
	}
}

func TestEnumValid(t *testing.T) {
	if !SourceTypeHTML.Valid() || SourceType("webhook").Valid() {
		t.Error("SourceType.Valid() did not match the closed set")
	}
	if !IncidentCategory("fire").Valid() || IncidentCategory("vandalism").Valid() {
		t.Error("IncidentCategory.Valid() did not match the closed set")
	}
	if !ReviewStatusApproved.Overridden() || ReviewStatusUnverified.Overridden() {
		t.Error("ReviewStatus.Overridden() did not match approved/rejected only")
	}
}

func TestPointValid(t *testing.T) {
	if !(Point{Lat: 42.0, Lng: -88.0}).Valid() {
		t.Error("expected in-range point to be valid")
	}
	if (Point{Lat: 91.0, Lng: 0}).Valid() {
		t.Error("expected out-of-range latitude to be invalid")
	}
}
