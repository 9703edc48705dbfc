// Cartographus Ingest - Local-Intelligence Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus-ingest

// Package scheduler runs the bounded worker pool that polls every active
// source on its own cadence and drives each raw observation through
// extraction, geocoding, deduplication, and workflow recomputation.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/cartographus-ingest/internal/adapters"
	"github.com/tomtom215/cartographus-ingest/internal/config"
	"github.com/tomtom215/cartographus-ingest/internal/dedup"
	"github.com/tomtom215/cartographus-ingest/internal/extraction"
	"github.com/tomtom215/cartographus-ingest/internal/geocoder"
	"github.com/tomtom215/cartographus-ingest/internal/ingestpipeline"
	"github.com/tomtom215/cartographus-ingest/internal/logging"
	"github.com/tomtom215/cartographus-ingest/internal/metrics"
	"github.com/tomtom215/cartographus-ingest/internal/models"
	"github.com/tomtom215/cartographus-ingest/internal/workflow"
)

// Store is the subset of internal/database.DB the scheduler needs
// directly (everything else goes through the pipeline stages' own Store
// interfaces).
type Store interface {
	ListActiveSources(ctx context.Context) ([]*models.Source, error)
	ExternalIDExists(ctx context.Context, sourceID, externalID string) (bool, error)
	InsertReport(ctx context.Context, r *models.IncidentReport) error
	RecordFetchSuccess(ctx context.Context, sourceID string, at time.Time) error
	DeactivateSource(ctx context.Context, sourceID string) error
	InsertFailureLog(ctx context.Context, entry *models.FailureLogEntry) error
}

// Scheduler owns the per-source polling loops. Each source runs its own
// goroutine on its own ticker (spec §4.1: per-source cadence, not a
// single global tick), gated by a buffered semaphore channel that
// enforces cfg.Concurrency across the whole pool, the same shape as
// the teacher's syncLoop ticker-driven loop, generalized from one
// global sync target to N independently-cadenced sources.
type Scheduler struct {
	store     Store
	registry  *adapters.Registry
	extractor *extraction.Engine
	geocoder  *geocoder.Resolver
	dedup     *dedup.Deduplicator
	workflow  *workflow.Engine
	cfg       config.SchedulerConfig
	sem       chan struct{}
	state     sourceStateTracker
	wg        sync.WaitGroup
}

// New constructs a Scheduler wired against every pipeline stage it
// drives a fetch cycle through.
func New(store Store, registry *adapters.Registry, extractor *extraction.Engine, geo *geocoder.Resolver, dd *dedup.Deduplicator, wf *workflow.Engine, cfg config.SchedulerConfig) *Scheduler {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 8
	}
	return &Scheduler{
		store:     store,
		registry:  registry,
		extractor: extractor,
		geocoder:  geo,
		dedup:     dd,
		workflow:  wf,
		cfg:       cfg,
		sem:       make(chan struct{}, cfg.Concurrency),
	}
}

// Serve implements suture.Service: it loads the active source set once,
// spins up one polling goroutine per source, and blocks until ctx is
// canceled. Sources added after Serve starts are picked up on the next
// restart the supervisor tree performs after a panic/return; the
// scheduler itself doesn't hot-reload the source list mid-run.
func (s *Scheduler) Serve(ctx context.Context) error {
	sources, err := s.store.ListActiveSources(ctx)
	if err != nil {
		return fmt.Errorf("scheduler: failed to list active sources: %w", err)
	}

	logging.Info().Int("source_count", len(sources)).Msg("scheduler starting source poll loops")
	metrics.SchedulerActiveSources.Set(float64(len(sources)))

	for _, source := range sources {
		// Audio's Fetch only drains a queue a separate, continuously
		// running Listen goroutine fills (registered by the supervisor
		// tree outside this pool); the poll loop below still runs for
		// it on its own cadence to ship that queue into the pipeline.
		s.wg.Add(1)
		go s.pollLoop(ctx, source)
	}

	<-ctx.Done()
	s.wg.Wait()
	return ctx.Err()
}

// String implements fmt.Stringer so suture can name this service in logs.
func (s *Scheduler) String() string {
	return "scheduler"
}

func (s *Scheduler) pollLoop(ctx context.Context, source *models.Source) {
	defer s.wg.Done()

	state := s.state.get(source.ID)
	interval := source.PollInterval(s.cfg.DefaultPollInterval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runCycle(ctx, source, state)
			if state.deactivated() {
				return
			}
			ticker.Reset(state.nextInterval(interval, s.cfg))
		}
	}
}

// runCycle fetches, extracts, geocodes, deduplicates, and recomputes
// workflow state for every new observation from one source. A single
// observation's failure doesn't abort the cycle for its siblings.
func (s *Scheduler) runCycle(ctx context.Context, source *models.Source, state *sourceState) {
	s.sem <- struct{}{}
	defer func() { <-s.sem }()

	start := time.Now()
	defer func() {
		metrics.SchedulerCycleDuration.WithLabelValues(string(source.SourceType)).Observe(time.Since(start).Seconds())
	}()

	adapter, ok := s.registry.For(source.SourceType)
	if !ok {
		s.recordFailure(ctx, source, "fetch", fmt.Errorf("no adapter registered for source type %q", source.SourceType))
		metrics.SchedulerCycles.WithLabelValues(string(source.SourceType), "failure").Inc()
		state.recordFailure()
		s.maybeDeactivate(ctx, source, state)
		return
	}

	observations, err := adapter.Fetch(ctx, source)
	if err != nil {
		s.recordFailure(ctx, source, "fetch", err)
		metrics.SchedulerCycles.WithLabelValues(string(source.SourceType), "failure").Inc()
		state.recordFailure()
		s.maybeDeactivate(ctx, source, state)
		return
	}

	metrics.SchedulerCycles.WithLabelValues(string(source.SourceType), "success").Inc()
	state.recordSuccess()
	if err := s.store.RecordFetchSuccess(ctx, source.ID, time.Now()); err != nil {
		logging.Warn().Err(err).Str("source_id", source.ID).Msg("failed to record fetch success timestamp")
	}

	for _, obs := range observations {
		if err := s.processObservation(ctx, source, obs); err != nil {
			logging.Warn().Err(err).Str("source_id", source.ID).Str("external_id", obs.ExternalID).Msg("failed to process observation")
		}
	}
}

func (s *Scheduler) processObservation(ctx context.Context, source *models.Source, obs extraction.RawObservation) error {
	exists, err := s.store.ExternalIDExists(ctx, source.ID, obs.ExternalID)
	if err != nil {
		return fmt.Errorf("dedup-key lookup: %w", err)
	}
	if exists {
		return nil
	}

	extractStart := time.Now()
	extracted, rawPayload, err := s.extractor.Extract(ctx, obs)
	metrics.ExtractionDuration.WithLabelValues(string(source.SourceType)).Observe(time.Since(extractStart).Seconds())
	if err != nil {
		failure := err
		if errors.Is(err, ingestpipeline.ErrExtractionMalformed) {
			// Keep the unparseable model output in the failure log for
			// offline inspection.
			failure = fmt.Errorf("%w; raw response: %s", err, rawPayload)
		}
		s.recordFailure(ctx, source, "extraction", failure)
		metrics.ExtractionErrors.WithLabelValues(extractionErrorCause(err)).Inc()
		return err
	}
	if extracted == nil {
		// No incident described in this observation. Not an error,
		// nothing further to do.
		metrics.ExtractionNoIncidentFound.Inc()
		return nil
	}

	report := &models.IncidentReport{
		SourceID:             source.ID,
		ExternalID:           obs.ExternalID,
		SourceURL:            obs.SourceURL,
		RawText:              obs.Text,
		ExtractedPayload:     rawPayload,
		IncidentType:         extracted.IncidentType,
		Address:              extracted.Address,
		City:                 extracted.City,
		OccurredAt:           extracted.OccurredAt,
		IngestedAt:           time.Now(),
		ExtractionModel:      extracted.ModelIdentifier,
		ExtractionConfidence: extracted.ExtractionConfidence,
		DedupStatus:          models.DedupStatusPending,
	}

	geoStart := time.Now()
	point, resolution, locationConfidence, geoErr := s.geocoder.Resolve(ctx, extracted.Address, extracted.City, source.Region)
	metrics.GeocodeDuration.WithLabelValues(string(resolution)).Observe(time.Since(geoStart).Seconds())
	metrics.GeocodeResolutions.WithLabelValues(string(resolution)).Inc()
	if geoErr != nil {
		// A geocode miss still gets recorded, and the report still goes
		// through dedup: the miss yields the zero point with the unknown
		// tier, which passes Point.Valid, so an incident is linked or
		// created as usual. The deduplicator rejects only a point outside
		// the valid lat/lng range.
		s.recordFailure(ctx, source, "geocode", geoErr)
	}

	if err := s.store.InsertReport(ctx, report); err != nil {
		return fmt.Errorf("insert report: %w", err)
	}

	decision, err := s.dedup.Process(ctx, report, point, extracted.IncidentType, extracted.Category, extracted.UrgencyScore, resolution, locationConfidence, source.Region)
	if err != nil {
		s.recordFailure(ctx, source, "dedup", err)
		return err
	}
	if decision.IncidentID == "" {
		return nil
	}

	if err := s.workflow.Recompute(ctx, decision.IncidentID); err != nil {
		logging.Warn().Err(err).Str("incident_id", decision.IncidentID).Msg("failed to recompute workflow state")
	}
	return nil
}

func (s *Scheduler) recordFailure(ctx context.Context, source *models.Source, category string, err error) {
	logging.Warn().Err(err).Str("source_id", source.ID).Str("category", category).Msg("source pipeline failure")
	entry := &models.FailureLogEntry{
		SourceID:      source.ID,
		OccurredAt:    time.Now(),
		ErrorCategory: category,
		Message:       err.Error(),
	}
	if insertErr := s.store.InsertFailureLog(ctx, entry); insertErr != nil {
		logging.Warn().Err(insertErr).Str("source_id", source.ID).Msg("failed to write failure log entry")
	}
}

func extractionErrorCause(err error) string {
	switch {
	case errors.Is(err, ingestpipeline.ErrExtractionMalformed):
		return "malformed_output"
	case errors.Is(err, ingestpipeline.ErrFatalSource):
		return "api_error"
	default:
		return "api_error"
	}
}

func (s *Scheduler) maybeDeactivate(ctx context.Context, source *models.Source, state *sourceState) {
	if state.consecutiveFailures() < s.cfg.DeactivateAfterFailures {
		return
	}
	if err := s.store.DeactivateSource(ctx, source.ID); err != nil {
		logging.Warn().Err(err).Str("source_id", source.ID).Msg("failed to deactivate misbehaving source")
		return
	}
	state.markDeactivated()
	metrics.SchedulerSourcesDeactivated.WithLabelValues(string(source.SourceType)).Inc()
	logging.Error().Str("source_id", source.ID).Int("consecutive_failures", state.consecutiveFailures()).Msg("source deactivated after exceeding failure threshold")
}
