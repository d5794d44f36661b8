package service

import (
	"context"
	"time"

	"github.com/timmy/wdym/internal/logger"
	"github.com/timmy/wdym/internal/repository"
)

// SweepConfig controls the stale-session sweep.
type SweepConfig struct {
	Interval time.Duration
	Window   time.Duration
}

// SweepService purges IN_PROGRESS games abandoned longer than the window.
type SweepService struct {
	gameRepo *repository.GameRepository
	logger   *logger.Logger
	interval time.Duration
	window   time.Duration
}

// NewSweepService creates a sweep service.
func NewSweepService(gameRepo *repository.GameRepository, log *logger.Logger, cfg *SweepConfig) *SweepService {
	return &SweepService{
		gameRepo: gameRepo,
		logger:   log,
		interval: cfg.Interval,
		window:   cfg.Window,
	}
}

// SweepOnce deletes every stale game and its rounds. Safe to repeat.
// Parameters:
//   - ctx: context for cancellation and deadlines.
// Returns:
//   - repository.PurgeResult: games and rounds removed.
//   - error: non-nil if the purge transaction fails.
func (s *SweepService) SweepOnce(ctx context.Context) (repository.PurgeResult, error) {
	start := time.Now()
	result, err := s.gameRepo.PurgeStale(ctx, s.window)
	if err != nil {
		return result, err
	}

	logger.With(logger.Fields{
		"rounds": result.Rounds,
	}).WithCount(result.Games).WithDuration(time.Since(start).Milliseconds()).
		Info(ctx, "Stale games swept")
	return result, nil
}

// Run sweeps once immediately and then on every tick until ctx is done.
func (s *SweepService) Run(ctx context.Context) {
	ctx = logger.SetComponent(s.logger.WithContext(ctx), "sweeper")

	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *SweepService) sweep(ctx context.Context) {
	if _, err := s.SweepOnce(ctx); err != nil && ctx.Err() == nil {
		logger.FromContext(ctx).WithError(err).Error("Stale game sweep failed")
	}
}
