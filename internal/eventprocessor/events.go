// Cartographus Ingest - Local-Intelligence Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus-ingest

package eventprocessor

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/cartographus-ingest/internal/models"
)

// SchemaVersion is the current IncidentEvent schema version.
const SchemaVersion = 1

// EventType is the closed set of incident lifecycle transitions the bus
// carries.
type EventType string

const (
	EventIncidentCreated EventType = "incident.created"
	EventIncidentUpdated EventType = "incident.updated"
	EventRollupPublished EventType = "rollup.published"
)

// IncidentEvent is the canonical event published whenever the workflow
// stage recomputes an incident's derived state, or the rollup job
// publishes a new weekly summary. Type also names the subject the event
// is published to (see Subject).
type IncidentEvent struct {
	SchemaVersion int       `json:"schema_version"`
	EventID       string    `json:"event_id"`
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`

	IncidentID      string                  `json:"incident_id,omitempty"`
	Region          string                  `json:"region,omitempty"`
	Category        models.IncidentCategory `json:"category,omitempty"`
	ReviewStatus    models.ReviewStatus     `json:"review_status,omitempty"`
	ConfidenceScore float64                 `json:"confidence_score,omitempty"`

	// RollupWeekStart is set only for EventRollupPublished.
	RollupWeekStart *time.Time `json:"rollup_week_start,omitempty"`
}

// Subject returns the NATS subject an event publishes to, which is its
// Type itself (e.g. "incident.created" or "rollup.published"), letting
// subscribers bind wildcard interest ("incident.>") or a single transition.
func (e *IncidentEvent) Subject() string {
	return string(e.Type)
}

// NewIncidentEvent builds an event with a fresh ID, timestamp, and schema version.
func NewIncidentEvent(eventType EventType, incidentID string) *IncidentEvent {
	return &IncidentEvent{
		SchemaVersion: SchemaVersion,
		EventID:       uuid.NewString(),
		Type:          eventType,
		Timestamp:     time.Now().UTC(),
		IncidentID:    incidentID,
	}
}

// Validate checks the fields every event must carry regardless of type.
func (e *IncidentEvent) Validate() error {
	if e.EventID == "" {
		return fmt.Errorf("%w: event_id required", ErrInvalidConfig)
	}
	if e.Type == "" {
		return fmt.Errorf("%w: type required", ErrInvalidConfig)
	}
	if e.Type != EventRollupPublished && e.IncidentID == "" {
		return fmt.Errorf("%w: incident_id required for %s", ErrInvalidConfig, e.Type)
	}
	return nil
}
