// Cartographus Ingest - Local-Intelligence Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus-ingest

package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/tomtom215/cartographus-ingest/internal/config"
	"github.com/tomtom215/cartographus-ingest/internal/database"
	"github.com/tomtom215/cartographus-ingest/internal/models"
)

// Store is the subset of internal/database.DB the read API needs.
type Store interface {
	ListIncidents(ctx context.Context, f database.IncidentFilter) ([]*models.Incident, error)
	ListNeedsReview(ctx context.Context, limit, offset int) ([]*models.Incident, error)
	ListReportsByIncident(ctx context.Context, incidentID string) ([]*models.IncidentReport, error)
	ApproveIncident(ctx context.Context, incidentID, reviewedBy string) error
	RejectIncident(ctx context.Context, incidentID, reviewedBy string) error
	ListRollups(ctx context.Context, municipality *string, weeks int) ([]*models.WeeklyRollup, error)
	CountIncidentsSince(ctx context.Context, region string, municipality *string, cutoff time.Time) (int, error)
}

// fallbackPageSize and fallbackMaxPageSize apply when config.APIConfig
// leaves its pagination fields unset (zero value), so a bare
// config.APIConfig{} still yields a usable Handlers.
const (
	fallbackPageSize    = 50
	fallbackMaxPageSize = 50
)

// Handlers holds the dependencies every route handler closes over.
type Handlers struct {
	store           Store
	defaultPageSize int
	maxPageSize     int
}

// NewHandlers constructs Handlers against store and cfg's pagination
// limits.
func NewHandlers(store Store, cfg config.APIConfig) *Handlers {
	defaultPageSize := cfg.DefaultPageSize
	if defaultPageSize <= 0 {
		defaultPageSize = fallbackPageSize
	}
	maxPageSize := cfg.MaxPageSize
	if maxPageSize <= 0 {
		maxPageSize = fallbackMaxPageSize
	}
	return &Handlers{store: store, defaultPageSize: defaultPageSize, maxPageSize: maxPageSize}
}

// ListIncidents handles GET /incidents.
//
// @Summary List publicly visible incidents
// @Description Filters by region, category, city, min_urgency, since, until. Only auto_published, unverified, and approved incidents are returned.
// @Tags incidents
// @Produce json
// @Param region query string false "Region code"
// @Param category query string false "Incident category"
// @Param city query string false "City name"
// @Param min_urgency query int false "Minimum urgency score (1-10)"
// @Param since query string false "RFC3339 lower bound on reported_at"
// @Param until query string false "RFC3339 upper bound on reported_at"
// @Param limit query int false "Page size, max 50"
// @Param offset query int false "Page offset"
// @Success 200 {object} Response
// @Router /incidents [get]
func (h *Handlers) ListIncidents(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	q := r.URL.Query()

	f := database.IncidentFilter{
		Region:   q.Get("region"),
		Category: models.IncidentCategory(q.Get("category")),
		City:     q.Get("city"),
	}
	if v := q.Get("min_urgency"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			rw.BadRequest("min_urgency must be an integer")
			return
		}
		f.MinUrgency = n
	}
	since, ok := parseOptionalTime(rw, q.Get("since"), "since")
	if !ok {
		return
	}
	f.Since = since
	until, ok := parseOptionalTime(rw, q.Get("until"), "until")
	if !ok {
		return
	}
	f.Until = until

	limit, offset, ok := h.parsePagination(rw, q)
	if !ok {
		return
	}
	f.Limit, f.Offset = limit, offset

	incidents, err := h.store.ListIncidents(r.Context(), f)
	if err != nil {
		rw.InternalError(err)
		return
	}
	rw.OKPaginated(incidents, &Pagination{Count: len(incidents), Limit: limit, Offset: offset})
}

// ListReviewQueue handles GET /review-queue.
//
// @Summary List incidents needing human review
// @Description Returns needs_review incidents plus their linked reports for operator context.
// @Tags review-queue
// @Produce json
// @Param limit query int false "Page size, max 50"
// @Param offset query int false "Page offset"
// @Success 200 {object} Response
// @Router /review-queue [get]
func (h *Handlers) ListReviewQueue(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	limit, offset, ok := h.parsePagination(rw, r.URL.Query())
	if !ok {
		return
	}

	incidents, err := h.store.ListNeedsReview(r.Context(), limit, offset)
	if err != nil {
		rw.InternalError(err)
		return
	}

	items := make([]reviewQueueItem, 0, len(incidents))
	for _, inc := range incidents {
		reports, err := h.store.ListReportsByIncident(r.Context(), inc.ID)
		if err != nil {
			rw.InternalError(err)
			return
		}
		items = append(items, reviewQueueItem{Incident: inc, Reports: reports})
	}
	rw.OKPaginated(items, &Pagination{Count: len(items), Limit: limit, Offset: offset})
}

type reviewQueueItem struct {
	Incident *models.Incident        `json:"incident"`
	Reports  []*models.IncidentReport `json:"reports"`
}

type reviewDecisionRequest struct {
	IncidentID string `json:"incident_id"`
	Action     string `json:"action"`
	Notes      string `json:"notes,omitempty"`
}

// SubmitReviewDecision handles POST /review-queue.
//
// @Summary Approve or reject an incident
// @Description On reject, the incident's linked reports cascade dedup_status to rejected.
// @Tags review-queue
// @Accept json
// @Produce json
// @Param request body reviewDecisionRequest true "Review decision"
// @Success 200 {object} Response
// @Failure 400 {object} Response
// @Failure 401 {object} Response
// @Router /review-queue [post]
func (h *Handlers) SubmitReviewDecision(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req reviewDecisionRequest
	if !decodeJSONBody(rw, r, &req) {
		return
	}
	if req.IncidentID == "" {
		rw.BadRequest("incident_id is required")
		return
	}

	operator := "unknown"
	if claims, ok := OperatorFromContext(r.Context()); ok {
		operator = claims.Username
	}

	switch req.Action {
	case "approve":
		if err := h.store.ApproveIncident(r.Context(), req.IncidentID, operator); err != nil {
			rw.InternalError(err)
			return
		}
	case "reject":
		if err := h.store.RejectIncident(r.Context(), req.IncidentID, operator); err != nil {
			rw.InternalError(err)
			return
		}
	default:
		rw.BadRequest(`action must be "approve" or "reject"`)
		return
	}
	rw.OK(map[string]string{"incident_id": req.IncidentID, "action": req.Action})
}

type rollupResponse struct {
	Rollups []*models.WeeklyRollup `json:"rollups"`
	Last24h int                    `json:"last_24h_count"`
	Last7d  int                    `json:"last_7d_count"`
}

// GetRollup handles GET /rollup.
//
// @Summary Weekly per-region rollups plus live counters
// @Description Filters by municipality (omit for region-wide) and weeks (max 12); also returns live last-24h/last-7d counts.
// @Tags rollup
// @Produce json
// @Param municipality query string false "Municipality name"
// @Param region query string false "Region code for the live counters"
// @Param weeks query int false "History window, max 12"
// @Success 200 {object} Response
// @Router /rollup [get]
func (h *Handlers) GetRollup(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	q := r.URL.Query()

	var municipality *string
	if v := q.Get("municipality"); v != "" {
		municipality = &v
	}

	weeks := 12
	if v := q.Get("weeks"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			rw.BadRequest("weeks must be a positive integer")
			return
		}
		weeks = n
	}
	if weeks > 12 {
		weeks = 12
	}

	rollups, err := h.store.ListRollups(r.Context(), municipality, weeks)
	if err != nil {
		rw.InternalError(err)
		return
	}

	now := time.Now()
	last24h, err := h.store.CountIncidentsSince(r.Context(), q.Get("region"), municipality, now.Add(-24*time.Hour))
	if err != nil {
		rw.InternalError(err)
		return
	}
	last7d, err := h.store.CountIncidentsSince(r.Context(), q.Get("region"), municipality, now.Add(-7*24*time.Hour))
	if err != nil {
		rw.InternalError(err)
		return
	}

	rw.OK(rollupResponse{Rollups: rollups, Last24h: last24h, Last7d: last7d})
}

func (h *Handlers) parsePagination(rw *ResponseWriter, q map[string][]string) (limit, offset int, ok bool) {
	limit = h.defaultPageSize
	if v := first(q, "limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			rw.BadRequest("limit must be a positive integer")
			return 0, 0, false
		}
		limit = n
	}
	if limit > h.maxPageSize {
		limit = h.maxPageSize
	}
	if v := first(q, "offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			rw.BadRequest("offset must be a non-negative integer")
			return 0, 0, false
		}
		offset = n
	}
	return limit, offset, true
}

func first(q map[string][]string, key string) string {
	if vs, ok := q[key]; ok && len(vs) > 0 {
		return vs[0]
	}
	return ""
}

func parseOptionalTime(rw *ResponseWriter, value, field string) (*time.Time, bool) {
	if value == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		rw.BadRequest(field + " must be an RFC3339 timestamp")
		return nil, false
	}
	return &t, true
}
