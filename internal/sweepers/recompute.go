package sweepers

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/linkmarket/pricing-service/internal/pricing"
)

// RecomputeSweeper periodically refreshes every website's derived price
// so attribution records do not go stale between quote requests.
type RecomputeSweeper struct {
	calc        *pricing.Calculator
	logger      *zerolog.Logger
	interval    time.Duration
	concurrency int
	stopChan    chan struct{}
}

// NewRecomputeSweeper creates a sweeper around the quote calculator
func NewRecomputeSweeper(calc *pricing.Calculator, logger *zerolog.Logger, interval time.Duration, concurrency int) *RecomputeSweeper {
	return &RecomputeSweeper{
		calc:        calc,
		logger:      logger,
		interval:    interval,
		concurrency: concurrency,
		stopChan:    make(chan struct{}),
	}
}

// Start begins the periodic recompute sweep
func (s *RecomputeSweeper) Start(ctx context.Context) {
	s.logger.Info().
		Dur("interval", s.interval).
		Int("concurrency", s.concurrency).
		Msg("Starting derived price sweeper")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Derived price sweeper stopping (context cancelled)")
			return
		case <-s.stopChan:
			s.logger.Info().Msg("Derived price sweeper stopping (stop signal)")
			return
		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				s.logger.Error().Err(err).Msg("Derived price sweep failed")
			}
		}
	}
}

// Stop signals the sweeper to stop
func (s *RecomputeSweeper) Stop() {
	close(s.stopChan)
}

// RunOnce executes a single best-effort sweep across all websites
func (s *RecomputeSweeper) RunOnce(ctx context.Context) error {
	s.logger.Debug().Msg("Running derived price sweep")
	start := time.Now()

	result, err := s.calc.RecomputeAll(ctx, nil, s.concurrency)
	if err != nil {
		return err
	}

	event := s.logger.Info()
	if len(result.Errors) > 0 {
		event = s.logger.Warn()
	}
	event.
		Int("updated", result.Updated).
		Int("errors", len(result.Errors)).
		Dur("duration", time.Since(start)).
		Msg("Derived price sweep complete")

	return nil
}
