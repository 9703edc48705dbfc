// Cartographus Ingest - Local-Intelligence Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus-ingest

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/cartographus-ingest/internal/config"
	"github.com/tomtom215/cartographus-ingest/internal/database"
	"github.com/tomtom215/cartographus-ingest/internal/models"
)

var testAPIConfig = config.APIConfig{DefaultPageSize: 50, MaxPageSize: 50}

type fakeStore struct {
	incidents   []*models.Incident
	needsReview []*models.Incident
	reports     map[string][]*models.IncidentReport
	rollups     []*models.WeeklyRollup
	rollupWeeks int
	approved    []string
	rejected    []string
}

func (f *fakeStore) ListIncidents(ctx context.Context, filter database.IncidentFilter) ([]*models.Incident, error) {
	return f.incidents, nil
}

func (f *fakeStore) ListNeedsReview(ctx context.Context, limit, offset int) ([]*models.Incident, error) {
	return f.needsReview, nil
}

func (f *fakeStore) ListReportsByIncident(ctx context.Context, incidentID string) ([]*models.IncidentReport, error) {
	return f.reports[incidentID], nil
}

func (f *fakeStore) ApproveIncident(ctx context.Context, incidentID, reviewedBy string) error {
	f.approved = append(f.approved, incidentID)
	return nil
}

func (f *fakeStore) RejectIncident(ctx context.Context, incidentID, reviewedBy string) error {
	f.rejected = append(f.rejected, incidentID)
	return nil
}

func (f *fakeStore) ListRollups(ctx context.Context, municipality *string, weeks int) ([]*models.WeeklyRollup, error) {
	f.rollupWeeks = weeks
	return f.rollups, nil
}

func (f *fakeStore) CountIncidentsSince(ctx context.Context, region string, municipality *string, cutoff time.Time) (int, error) {
	return 3, nil
}

func TestListIncidentsReturnsStoreResults(t *testing.T) {
	store := &fakeStore{incidents: []*models.Incident{{ID: "inc-1"}}}
	h := NewHandlers(store, testAPIConfig)

	req := httptest.NewRequest(http.MethodGet, "/incidents?region=metro", nil)
	w := httptest.NewRecorder()
	h.ListIncidents(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Success {
		t.Fatalf("expected success response, got %+v", resp)
	}
}

func TestListIncidentsRejectsBadMinUrgency(t *testing.T) {
	h := NewHandlers(&fakeStore{}, testAPIConfig)
	req := httptest.NewRequest(http.MethodGet, "/incidents?min_urgency=abc", nil)
	w := httptest.NewRecorder()
	h.ListIncidents(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestSubmitReviewDecisionApprove(t *testing.T) {
	store := &fakeStore{}
	h := NewHandlers(store, testAPIConfig)

	body := `{"incident_id":"inc-1","action":"approve"}`
	req := httptest.NewRequest(http.MethodPost, "/review-queue", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.SubmitReviewDecision(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if len(store.approved) != 1 || store.approved[0] != "inc-1" {
		t.Fatalf("expected inc-1 approved, got %+v", store.approved)
	}
}

func TestSubmitReviewDecisionRejectsUnknownAction(t *testing.T) {
	h := NewHandlers(&fakeStore{}, testAPIConfig)
	body := `{"incident_id":"inc-1","action":"delete"}`
	req := httptest.NewRequest(http.MethodPost, "/review-queue", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.SubmitReviewDecision(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestGetRollupClampsWeeksTo12(t *testing.T) {
	store := &fakeStore{}
	h := NewHandlers(store, testAPIConfig)

	req := httptest.NewRequest(http.MethodGet, "/rollup?weeks=52", nil)
	w := httptest.NewRecorder()
	h.GetRollup(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if store.rollupWeeks != 12 {
		t.Errorf("expected weeks clamped to 12, got %d", store.rollupWeeks)
	}
}
