// Cartographus Ingest - Local-Intelligence Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus-ingest

package audio

import (
	"context"
	"testing"
	"time"

	"github.com/tomtom215/cartographus-ingest/internal/models"
)

type fakeVAD struct {
	segments []Segment
}

func (f *fakeVAD) Segments(ctx context.Context, streamURL string) (<-chan Segment, error) {
	ch := make(chan Segment, len(f.segments))
	for _, s := range f.segments {
		ch <- s
	}
	close(ch)
	return ch, nil
}

type fakeTranscriber struct {
	transcripts map[time.Time]string
	fallback    string
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, segment Segment) (string, error) {
	if t, ok := f.transcripts[segment.StartedAt]; ok {
		return t, nil
	}
	return f.fallback, nil
}

func TestListenAppliesKeywordPrefilter(t *testing.T) {
	now := time.Now()
	segments := []Segment{
		{StartedAt: now.Add(1 * time.Second)},
		{StartedAt: now.Add(2 * time.Second)},
		{StartedAt: now.Add(3 * time.Second)},
	}
	vad := &fakeVAD{segments: segments}
	transcriber := &fakeTranscriber{
		transcripts: map[time.Time]string{
			segments[1].StartedAt: "units responding, shots fired near the plaza",
		},
		fallback: "unit 12 clear, returning to patrol",
	}

	a := NewAdapter(vad, transcriber)
	source := &models.Source{ID: "scanner-1", URL: "scanner://feed"}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := a.Listen(ctx, source); err != nil && err != context.DeadlineExceeded {
		t.Fatalf("Listen returned error: %v", err)
	}

	observations, err := a.Fetch(context.Background(), source)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if len(observations) != 1 {
		t.Fatalf("got %d observations, want 1 (only the keyword-matching segment)", len(observations))
	}

	if got := a.DiscardRate(); got < 0.6 {
		t.Errorf("DiscardRate() = %v, want >= 0.6 for 2/3 discarded", got)
	}
}

func TestFetchDrainsQueueOnce(t *testing.T) {
	vad := &fakeVAD{segments: []Segment{{StartedAt: time.Now()}}}
	transcriber := &fakeTranscriber{fallback: "armed robbery in progress at the gas station"}
	a := NewAdapter(vad, transcriber)
	source := &models.Source{ID: "scanner-1", URL: "scanner://feed"}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = a.Listen(ctx, source)

	first, _ := a.Fetch(context.Background(), source)
	second, _ := a.Fetch(context.Background(), source)

	if len(first) != 1 {
		t.Fatalf("first Fetch got %d, want 1", len(first))
	}
	if len(second) != 0 {
		t.Fatalf("second Fetch got %d, want 0 (queue already drained)", len(second))
	}
}
