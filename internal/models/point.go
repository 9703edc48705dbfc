// Cartographus Ingest - Local-Intelligence Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus-ingest

// Package models defines the durable data structures of the ingestion
// pipeline: Source, IncidentReport, Incident, StreetCenterline, and
// WeeklyRollup.
package models

import "fmt"

// Point is a WGS84 geographic point. The database layer converts it to and
// from a DuckDB spatial GEOMETRY column (ST_Point/ST_AsText) at the
// persistence boundary; callers outside internal/database never see WKB/WKT.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the point falls within the legal lat/lng range.
func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

func (p Point) String() string {
	return fmt.Sprintf("%.6f,%.6f", p.Lat, p.Lng)
}

// Line is an ordered sequence of vertices backing a StreetCenterline's
// LINESTRING geometry column.
type Line []Point
