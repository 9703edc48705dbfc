// Cartographus Ingest - Local-Intelligence Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus-ingest

package models

import "time"

// WeeklyRollup is an aggregate snapshot produced by the rollup job.
// (week_start, municipality) is unique; a nil Municipality means the row
// is region-wide. Upserted idempotently — re-running the job for the same
// week against unchanged data must produce a byte-identical row.
type WeeklyRollup struct {
	ID           string    `json:"id" db:"id"`
	WeekStart    time.Time `json:"week_start" db:"week_start"` // always a Monday
	Municipality *string   `json:"municipality,omitempty" db:"municipality"`

	// IncidentCounts and NewsCounts are keyed by category name
	// (IncidentCategory for incidents, SourceCategory "news" only for
	// news-report counts per source.category).
	IncidentCounts map[string]int `json:"incident_counts" db:"-"`
	NewsCounts     map[string]int `json:"news_counts" db:"-"`

	IncidentTrend int    `json:"incident_trend" db:"incident_trend"` // integer percent vs. prior week
	SummaryText   string `json:"summary_text" db:"summary_text"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// TotalIncidents sums IncidentCounts across all categories.
func (w *WeeklyRollup) TotalIncidents() int {
	total := 0
	for _, n := range w.IncidentCounts {
		total += n
	}
	return total
}

// ComputeTrend derives the integer percent change of current against
// previous, per the rollup engine's trend formula: when previous is zero,
// the trend is 100 if current is positive and 0 otherwise (there is no
// well-defined percent change from a zero baseline).
func ComputeTrend(current, previous int) int {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return int(round(100 * float64(current-previous) / float64(previous)))
}

func round(f float64) float64 {
	if f < 0 {
		return -round(-f)
	}
	return float64(int64(f + 0.5))
}
