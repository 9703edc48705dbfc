// Cartographus Ingest - Local-Intelligence Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus-ingest

// Package api exposes the read-only incident/rollup surface plus the
// single operator write action (POST /review-queue), over chi.
package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/cartographus-ingest/internal/logging"
)

// Response is the standard envelope every endpoint writes, success or
// error, matching the teacher's response.go shape.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

// APIError is a machine-readable error code plus a human message.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Meta carries pagination and request-tracing metadata.
type Meta struct {
	RequestID  string      `json:"request_id,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// Pagination describes a limit/offset page of results.
type Pagination struct {
	Count  int `json:"count"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// ResponseWriter wraps http.ResponseWriter with the envelope helpers
// every handler uses, grounded on the teacher's internal/api/response.go.
type ResponseWriter struct {
	w http.ResponseWriter
	r *http.Request
}

// NewResponseWriter constructs a ResponseWriter for one request.
func NewResponseWriter(w http.ResponseWriter, r *http.Request) *ResponseWriter {
	return &ResponseWriter{w: w, r: r}
}

// OK writes a 200 with data, no pagination metadata.
func (rw *ResponseWriter) OK(data interface{}) {
	rw.OKPaginated(data, nil)
}

// OKPaginated writes a 200 with data and optional pagination metadata.
func (rw *ResponseWriter) OKPaginated(data interface{}, page *Pagination) {
	rw.write(http.StatusOK, Response{
		Success: true,
		Data:    data,
		Meta: &Meta{
			RequestID:  logging.RequestIDFromContext(rw.r.Context()),
			Timestamp:  time.Now(),
			Pagination: page,
		},
	})
}

// Created writes a 201 with data.
func (rw *ResponseWriter) Created(data interface{}) {
	rw.write(http.StatusCreated, Response{
		Success: true,
		Data:    data,
		Meta:    &Meta{RequestID: logging.RequestIDFromContext(rw.r.Context()), Timestamp: time.Now()},
	})
}

// BadRequest writes a 400 validation error.
func (rw *ResponseWriter) BadRequest(message string) {
	rw.errorResponse(http.StatusBadRequest, "BAD_REQUEST", message)
}

// NotFound writes a 404.
func (rw *ResponseWriter) NotFound(message string) {
	rw.errorResponse(http.StatusNotFound, "NOT_FOUND", message)
}

// Unauthorized writes a 401.
func (rw *ResponseWriter) Unauthorized(message string) {
	rw.errorResponse(http.StatusUnauthorized, "UNAUTHORIZED", message)
}

// InternalError logs err and writes a 500 without leaking its detail.
func (rw *ResponseWriter) InternalError(err error) {
	logging.Error().Err(err).Str("path", rw.r.URL.Path).Msg("api: internal error")
	rw.errorResponse(http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred")
}

func (rw *ResponseWriter) errorResponse(status int, code, message string) {
	rw.write(status, Response{
		Success: false,
		Error:   &APIError{Code: code, Message: message},
		Meta:    &Meta{RequestID: logging.RequestIDFromContext(rw.r.Context()), Timestamp: time.Now()},
	})
}

func (rw *ResponseWriter) write(status int, resp Response) {
	rw.w.Header().Set("Content-Type", "application/json")
	rw.w.WriteHeader(status)
	if err := json.NewEncoder(rw.w).Encode(resp); err != nil {
		logging.Error().Err(err).Msg("api: failed to encode response")
	}
}
