// Cartographus Ingest - Local-Intelligence Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus-ingest

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/tomtom215/cartographus-ingest/internal/config"
)

// Router builds and serves the read API's chi mux, per spec §6:
// GET /incidents, GET /review-queue, POST /review-queue, GET /rollup.
type Router struct {
	handlers *Handlers
	jwt      *JWTManager
	cfg      config.ServerConfig
	security config.SecurityConfig
	server   *http.Server
}

// NewRouter constructs a Router wired against store and config.
func NewRouter(store Store, serverCfg config.ServerConfig, securityCfg config.SecurityConfig, apiCfg config.APIConfig) (*Router, error) {
	jwtManager, err := NewJWTManager(securityCfg)
	if err != nil {
		return nil, err
	}
	return &Router{
		handlers: NewHandlers(store, apiCfg),
		jwt:      jwtManager,
		cfg:      serverCfg,
		security: securityCfg,
	}, nil
}

// Handler builds the chi mux. Exported separately from Serve so tests
// can exercise routes with httptest without binding a real listener.
func (router *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(corsMiddleware(router.security))
	r.Use(rateLimitMiddleware(router.security))
	r.Use(metricsMiddleware)

	r.Get("/healthz", router.handleHealthz)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	r.Get("/incidents", router.handlers.ListIncidents)
	r.Get("/review-queue", router.handlers.ListReviewQueue)
	r.Get("/rollup", router.handlers.GetRollup)

	r.Group(func(r chi.Router) {
		r.Use(router.jwt.RequireOperator)
		r.Post("/review-queue", router.handlers.SubmitReviewDecision)
	})

	return r
}

func (router *Router) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// Serve implements suture.Service: it starts an HTTP server on
// cfg.Host:cfg.Port and blocks until ctx is canceled, translating
// http.Server's blocking ListenAndServe into suture's context-aware
// Serve contract, grounded on the teacher's HTTPServerService.
func (router *Router) Serve(ctx context.Context) error {
	router.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", router.cfg.Host, router.cfg.Port),
		Handler:      router.Handler(),
		ReadTimeout:  router.cfg.Timeout,
		WriteTimeout: router.cfg.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := router.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("api server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := router.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("api server shutdown failed: %w", err)
		}
		<-errCh
		return ctx.Err()
	}
}

// String implements fmt.Stringer so suture can name this service in logs.
func (router *Router) String() string {
	return "api-router"
}
