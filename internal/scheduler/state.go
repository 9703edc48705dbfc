// Cartographus Ingest - Local-Intelligence Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus-ingest

package scheduler

import (
	"sync"
	"time"

	"github.com/tomtom215/cartographus-ingest/internal/config"
)

// sourceState tracks per-source consecutive-failure count and whether
// it has been deactivated, entirely in memory. The database row is
// the durable record; this is just what the running pollLoop consults
// between ticks.
type sourceState struct {
	mu       sync.Mutex
	failures int
	deactive bool
}

func (s *sourceState) recordSuccess() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = 0
}

func (s *sourceState) recordFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures++
}

func (s *sourceState) consecutiveFailures() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failures
}

func (s *sourceState) markDeactivated() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deactive = true
}

func (s *sourceState) deactivated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deactive
}

// nextInterval computes the next poll delay: the configured base
// interval on a clean run, or exponential backoff from cfg.MinBackoff
// doubled once per consecutive failure up to cfg.MaxBackoff.
func (s *sourceState) nextInterval(base time.Duration, cfg config.SchedulerConfig) time.Duration {
	failures := s.consecutiveFailures()
	if failures == 0 {
		return base
	}

	backoff := cfg.MinBackoff
	for i := 1; i < failures && backoff < cfg.MaxBackoff; i++ {
		backoff *= 2
	}
	if backoff > cfg.MaxBackoff {
		backoff = cfg.MaxBackoff
	}
	return backoff
}

// sourceStateTracker hands out a stable *sourceState per source ID so
// concurrent pollLoop goroutines share the same failure counters.
type sourceStateTracker struct {
	mu   sync.Mutex
	byID map[string]*sourceState
}

func (t *sourceStateTracker) get(sourceID string) *sourceState {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.byID == nil {
		t.byID = make(map[string]*sourceState)
	}
	if s, ok := t.byID[sourceID]; ok {
		return s
	}
	s := &sourceState{}
	t.byID[sourceID] = s
	return s
}
