package runner

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

type Scheduler struct {
	Runner   Runner
	Interval time.Duration
	Logger   *slog.Logger

	// Trigger starts an extra run on demand. Nil disables it.
	Trigger <-chan struct{}
}

// Run executes the runner immediately, then on every interval and on every
// trigger until ctx is done.
func (s *Scheduler) Run(ctx context.Context) {
	if s.Runner == nil || s.Interval <= 0 {
		return
	}
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s.runOnce(ctx, logger, "initial audit failed")

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx, logger, "scheduled audit failed")
		case <-s.Trigger:
			logger.Info("audit requested")
			s.runOnce(ctx, logger, "requested audit failed")
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, logger *slog.Logger, msg string) {
	err := s.Runner.RunOnce(ctx)
	switch {
	case err == nil:
	case errors.Is(err, ErrRunAlreadyInProgress):
		logger.Info("audit skipped, another run holds the lock")
	case errors.Is(err, context.Canceled) && ctx.Err() != nil:
	default:
		logger.Error(msg, "err", err)
	}
}
