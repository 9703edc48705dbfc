// Cartographus Ingest - Local-Intelligence Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus-ingest

package rollup

import (
	"context"
	"time"

	"github.com/tomtom215/cartographus-ingest/internal/config"
	"github.com/tomtom215/cartographus-ingest/internal/logging"
)

// RegionLister supplies the set of regions Service computes a rollup
// for on every tick. internal/database.DB.ListDistinctRegions satisfies
// this directly.
type RegionLister interface {
	ListDistinctRegions(ctx context.Context) ([]string, error)
}

// Service drives Job.Run on cfg.Schedule's cron cadence, once per
// region returned by RegionLister, until ctx is canceled. It implements
// suture.Service the same way scheduler.Scheduler and api.Router do:
// a blocking Serve(ctx) plus a String() name.
type Service struct {
	job     *Job
	regions RegionLister
	cron    *cronExpression
}

// NewService constructs a Service against cfg.Schedule. An invalid cron
// expression is a startup configuration error.
func NewService(job *Job, regions RegionLister, cfg config.RollupConfig) (*Service, error) {
	cron, err := parseCron(cfg.Schedule)
	if err != nil {
		return nil, err
	}
	return &Service{job: job, regions: regions, cron: cron}, nil
}

// Serve blocks, firing Job.Run for every known region each time the
// cron schedule matches, until ctx is canceled.
func (s *Service) Serve(ctx context.Context) error {
	next := s.cron.nextRun(time.Now())
	timer := time.NewTimer(time.Until(next))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fired := <-timer.C:
			s.runAllRegions(ctx, fired)
			next = s.cron.nextRun(fired)
			timer.Reset(time.Until(next))
		}
	}
}

func (s *Service) runAllRegions(ctx context.Context, now time.Time) {
	regions, err := s.regions.ListDistinctRegions(ctx)
	if err != nil {
		logging.Error().Err(err).Msg("rollup: failed to list regions")
		return
	}
	for _, region := range regions {
		if err := s.job.Run(ctx, region, now); err != nil {
			logging.Error().Err(err).Str("region", region).Msg("rollup: run failed")
		}
	}
}

// String implements fmt.Stringer so suture can name this service in logs.
func (s *Service) String() string {
	return "rollup-service"
}
