// AngelaMos | 2026
// scheduler.go

package automation

import (
	"context"
	"log/slog"
	"time"
)

// Scheduler runs the engine on a fixed interval. The mode is read
// fresh each tick, so flipping it takes effect on the next run without
// a restart.
type Scheduler struct {
	engine   *Engine
	modes    ModeStore
	interval time.Duration
	logger   *slog.Logger
}

func NewScheduler(
	engine *Engine,
	modes ModeStore,
	interval time.Duration,
	logger *slog.Logger,
) *Scheduler {
	return &Scheduler{
		engine:   engine,
		modes:    modes,
		interval: interval,
		logger:   logger,
	}
}

// Run blocks until ctx is cancelled. A failed run is logged and the
// next tick proceeds normally.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info("automation scheduler started",
		slog.Duration("interval", s.interval),
	)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("automation scheduler stopped")
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	mode, err := s.modes.Get(ctx)
	if err != nil {
		s.logger.Error("read automation mode failed",
			slog.String("error", err.Error()),
		)
		return
	}

	if _, err := s.engine.Evaluate(ctx, mode); err != nil {
		s.logger.Error("scheduled automation run failed",
			slog.String("mode", string(mode)),
			slog.String("error", err.Error()),
		)
	}
}
