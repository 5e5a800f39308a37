package application

import (
	"context"
	"time"

	"github.com/turtacn/tokenlife/internal/domain/models"
	"github.com/turtacn/tokenlife/pkg/logger"
)

// SweepRunner runs one cleanup pass over the revocation ledger.
// SweepRunner 执行一次吊销账本清理。
type SweepRunner interface {
	CleanupInvalidList(ctx context.Context, opts models.VerifyOptions) (*models.SweepResult, error)
}

// SweepScheduler calls CleanupInvalidList on a fixed interval.
// SweepScheduler 按固定间隔调用 CleanupInvalidList。
type SweepScheduler struct {
	runner   SweepRunner
	interval time.Duration
	logger   logger.Logger
}

// NewSweepScheduler creates a scheduler. interval must be positive.
// NewSweepScheduler 创建清理调度器。
func NewSweepScheduler(runner SweepRunner, interval time.Duration, log logger.Logger) *SweepScheduler {
	return &SweepScheduler{
		runner:   runner,
		interval: interval,
		logger:   log.WithComponent("sweep_scheduler"),
	}
}

// Run blocks until ctx is cancelled. A failed sweep is logged and retried on the next tick.
func (s *SweepScheduler) Run(ctx context.Context) error {
	s.logger.Info(ctx, "Sweep scheduler started", logger.Duration("interval", s.interval))
	defer s.logger.Info(ctx, "Sweep scheduler stopped")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *SweepScheduler) runOnce(ctx context.Context) {
	result, err := s.runner.CleanupInvalidList(ctx, models.VerifyOptions{})
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Error(ctx, "Scheduled sweep failed", err)
		return
	}
	s.logger.Debug(ctx, "Scheduled sweep finished",
		logger.Int("removed", result.Removed), logger.Int("retained", result.Retained))
}
