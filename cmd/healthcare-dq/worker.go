package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/kabirhiking/healthcare-data-quality/internal/config"
	"github.com/kabirhiking/healthcare-data-quality/internal/metrics"
	"github.com/kabirhiking/healthcare-data-quality/internal/runner"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var workerCmd = &cobra.Command{
	Use:         "worker",
	Short:       "Run the audit on AUDIT_INTERVAL and serve metrics.",
	Args:        cobra.NoArgs,
	Annotations: structuredLogging(),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWorker()
	},
}

func runWorker() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.AuditInterval <= 0 {
		return errors.New("AUDIT_INTERVAL must be > 0 to run the worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := slog.Default()
	a, err := newAuditor(ctx, cfg, auditorOptions{
		ReportDir: cfg.ReportDir,
		Formats:   strings.Join(cfg.ReportFormats, ","),
		Listen:    true,
	}, logger)
	if err != nil {
		return auditExitError(err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("closing auditor failed", "err", err)
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	if _, errCh := metrics.StartServer(gctx, cfg.MetricsAddr); errCh != nil {
		g.Go(func() error {
			select {
			case err := <-errCh:
				return err
			case <-gctx.Done():
				return nil
			}
		})
	}
	trigger := make(chan struct{}, 1)
	g.Go(func() error {
		if err := runner.ListenForAuditRequests(gctx, a.pool, trigger); err != nil {
			logger.Warn("audit request listener stopped", "err", err)
		}
		return nil
	})
	g.Go(func() error {
		logger.Info("audit worker started", "interval", cfg.AuditInterval)
		scheduler := runner.Scheduler{Runner: a.runner, Interval: cfg.AuditInterval, Trigger: trigger, Logger: logger}
		scheduler.Run(gctx)
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("audit worker stopped")
	return nil
}
