// Cartographus Ingest - Local-Intelligence Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus-ingest

package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/tomtom215/cartographus-ingest/internal/models"
)

// UpsertCenterline loads one street centerline row from the regional
// import. Centerlines are read-only to the rest of the pipeline once
// loaded.
func (db *DB) UpsertCenterline(ctx context.Context, c *models.StreetCenterline) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if c.ID == "" {
		c.ID = uuid.NewString()
	}

	wkt := lineToWKT(c.Geometry)

	const query = `INSERT INTO street_centerlines (
		id, region, street_name, street_name_normalized, from_address, to_address, city, geometry
	) VALUES (?, ?, ?, ?, ?, ?, ?, ST_GeomFromText(?))
	ON CONFLICT (id) DO UPDATE SET
		street_name = EXCLUDED.street_name,
		street_name_normalized = EXCLUDED.street_name_normalized,
		from_address = EXCLUDED.from_address,
		to_address = EXCLUDED.to_address,
		city = EXCLUDED.city,
		geometry = EXCLUDED.geometry`

	_, err := db.conn.ExecContext(ctx, query,
		c.ID, c.Region, c.StreetName, c.StreetNameNormalized, c.FromAddress, c.ToAddress, c.City, wkt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert street centerline %s: %w", c.StreetName, err)
	}
	return nil
}

// FindCenterlinesCoveringBlock is the geocoder's block-interpolation
// tier: it returns every centerline in a region whose normalized street
// name matches and whose address range covers houseNumber.
func (db *DB) FindCenterlinesCoveringBlock(ctx context.Context, region, streetNameNormalized string, houseNumber int) ([]*models.StreetCenterline, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	const query = `SELECT id, region, street_name, street_name_normalized, from_address, to_address, city, ST_AsText(geometry)
		FROM street_centerlines
		WHERE region = ? AND street_name_normalized = ?
		AND ? BETWEEN LEAST(from_address, to_address) AND GREATEST(from_address, to_address)`

	rows, err := db.conn.QueryContext(ctx, query, region, streetNameNormalized, houseNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to find centerlines for %s: %w", streetNameNormalized, err)
	}
	defer closeQuietly(rows)

	var out []*models.StreetCenterline
	for rows.Next() {
		var c models.StreetCenterline
		var wkt string
		if err := rows.Scan(&c.ID, &c.Region, &c.StreetName, &c.StreetNameNormalized, &c.FromAddress, &c.ToAddress, &c.City, &wkt); err != nil {
			return nil, fmt.Errorf("failed to scan street centerline: %w", err)
		}
		c.Geometry = wktToLine(wkt)
		out = append(out, &c)
	}
	return out, rows.Err()
}

// lineToWKT renders a Line as a LINESTRING, matching the teacher's
// ST_GeomFromText insertion convention for non-point geometry.
func lineToWKT(l models.Line) string {
	if len(l) == 0 {
		return "LINESTRING EMPTY"
	}
	parts := make([]string, len(l))
	for i, p := range l {
		parts[i] = fmt.Sprintf("%f %f", p.Lng, p.Lat)
	}
	return "LINESTRING(" + strings.Join(parts, ", ") + ")"
}

// wktToLine parses the WKT LINESTRING representation ST_AsText returns.
// Malformed or empty input yields a nil Line rather than an error, since
// centerline geometry is reference data the geocoder treats as advisory.
func wktToLine(wkt string) models.Line {
	start := strings.Index(wkt, "(")
	end := strings.LastIndex(wkt, ")")
	if start < 0 || end <= start {
		return nil
	}
	coords := strings.Split(wkt[start+1:end], ",")
	line := make(models.Line, 0, len(coords))
	for _, c := range coords {
		fields := strings.Fields(strings.TrimSpace(c))
		if len(fields) != 2 {
			continue
		}
		var lng, lat float64
		if _, err := fmt.Sscanf(fields[0]+" "+fields[1], "%f %f", &lng, &lat); err != nil {
			continue
		}
		line = append(line, models.Point{Lat: lat, Lng: lng})
	}
	return line
}
