// Cartographus Ingest - Local-Intelligence Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus-ingest

// Package audio adapts a continuous scanner audio stream: voice-activity
// detection segments the stream, a cheap keyword pre-filter on each
// transcribed segment discards almost everything, and only the rare
// surviving segment reaches the extraction engine. This is the pipeline's
// cost-control path (spec §4.2, §8 "audio cost control") — skipping the
// pre-filter changes the system's external API spend by an order of
// magnitude, so it is never optional.
package audio

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/tomtom215/cartographus-ingest/internal/extraction"
	"github.com/tomtom215/cartographus-ingest/internal/logging"
	"github.com/tomtom215/cartographus-ingest/internal/models"
)

// Segment is one voiced window of audio handed off by the VAD.
type Segment struct {
	StartedAt time.Time
	Audio     []byte
}

// VoiceActivityDetector splits a streaming source into voiced segments,
// discarding silence before any transcription cost is incurred. A real
// deployment backs this with a dedicated VAD library; none is part of
// this project's dependency pack, so it stays an injected interface
// (see DESIGN.md).
type VoiceActivityDetector interface {
	// Segments blocks, emitting one Segment per voiced window until ctx
	// is canceled or the stream ends.
	Segments(ctx context.Context, streamURL string) (<-chan Segment, error)
}

// Transcriber converts one voiced segment to text using a cheap,
// low-latency model — not the extraction engine's LLM, which only ever
// sees the rare segment that survives the keyword pre-filter.
type Transcriber interface {
	Transcribe(ctx context.Context, segment Segment) (string, error)
}

// keywords is the cheap pre-filter: a transcribed segment becomes a
// RawObservation only if it contains one of these phrases. Matching is
// case-insensitive substring, deliberately crude — false positives cost
// one extra LLM call; false negatives cost a missed incident, the worse
// failure mode, so the list stays broad.
var keywords = []string{
	"shots fired", "shooting", "structure fire", "pursuit", "stabbing",
	"robbery", "officer down", "hit and run", "missing person", "overdose",
	"explosion", "hostage", "armed", "burglary in progress",
}

// Adapter implements adapters.Adapter for source_type = "audio". Unlike
// the other three adapters it runs continuously rather than on the
// scheduler's poll cadence (spec §4.1: "continuous session for audio") —
// Fetch drains whatever the background Listen goroutine has queued since
// the last call.
type Adapter struct {
	vad         VoiceActivityDetector
	transcriber Transcriber

	mu      sync.Mutex
	queued  []extraction.RawObservation
	windows int
	kept    int
}

// NewAdapter constructs an audio.Adapter.
func NewAdapter(vad VoiceActivityDetector, transcriber Transcriber) *Adapter {
	return &Adapter{vad: vad, transcriber: transcriber}
}

// Listen runs until ctx is canceled, pulling voiced segments from the
// VAD, transcribing each, and queuing the ones that pass the keyword
// pre-filter for the next Fetch call. Intended to run as its own
// dedicated supervised goroutine, not inside the bounded scheduler pool.
func (a *Adapter) Listen(ctx context.Context, source *models.Source) error {
	segments, err := a.vad.Segments(ctx, source.URL)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case segment, ok := <-segments:
			if !ok {
				return nil
			}
			a.handleSegment(ctx, source, segment)
		}
	}
}

func (a *Adapter) handleSegment(ctx context.Context, source *models.Source, segment Segment) {
	a.mu.Lock()
	a.windows++
	a.mu.Unlock()

	text, err := a.transcriber.Transcribe(ctx, segment)
	if err != nil {
		logging.Warn().Err(err).Str("source_id", source.ID).Msg("audio transcription failed")
		return
	}

	if !matchesKeyword(text) {
		return
	}

	a.mu.Lock()
	a.kept++
	a.queued = append(a.queued, extraction.RawObservation{
		SourceID:   source.ID,
		ExternalID: segmentExternalID(source.ID, segment.StartedAt),
		SourceURL:  source.URL,
		Text:       text,
	})
	a.mu.Unlock()
}

// Fetch satisfies adapters.Adapter by draining the queue Listen has
// filled. It never blocks waiting for new audio.
func (a *Adapter) Fetch(ctx context.Context, source *models.Source) ([]extraction.RawObservation, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := a.queued
	a.queued = nil
	return out, nil
}

// DiscardRate returns the fraction of voiced windows that never reached
// the extractor, the metric spec §8's audio-cost-control scenario
// requires to stay at or above 0.90.
func (a *Adapter) DiscardRate() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.windows == 0 {
		return 0
	}
	return 1 - float64(a.kept)/float64(a.windows)
}

func matchesKeyword(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func segmentExternalID(sourceID string, startedAt time.Time) string {
	return sourceID + ":" + startedAt.UTC().Format(time.RFC3339Nano)
}
