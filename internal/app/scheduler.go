package app

import (
	"context"
	"time"

	"github.com/adamchilders/personal-portfolio-planner-sub000/internal/common"
	"github.com/adamchilders/personal-portfolio-planner-sub000/internal/interfaces"
)

// Scheduler drives the freshness sweep on a fixed interval. All work within
// one sweep is sequential; the interval bounds how often a new sweep starts.
type Scheduler struct {
	freshness interfaces.FreshnessService
	interval  time.Duration
	logger    *common.Logger
}

// NewScheduler creates a sweep scheduler.
func NewScheduler(freshness interfaces.FreshnessService, interval time.Duration, logger *common.Logger) *Scheduler {
	return &Scheduler{
		freshness: freshness,
		interval:  interval,
		logger:    logger,
	}
}

// Run sweeps immediately, then on every tick until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info().Dur("interval", s.interval).Msg("Freshness scheduler started")

	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Freshness scheduler stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Scheduler) sweep(ctx context.Context) {
	result, err := s.freshness.SweepQuotes(ctx, false)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Error().Err(err).Msg("Freshness sweep failed")
		return
	}
	for symbol, msg := range result.Errors {
		s.logger.Warn().Str("symbol", symbol).Str("error", msg).Msg("Symbol failed during sweep")
	}
}
