package main

import (
	"log/slog"

	"github.com/kabirhiking/healthcare-data-quality/internal/config"
	"github.com/kabirhiking/healthcare-data-quality/internal/rules/datasets"
	"github.com/kabirhiking/healthcare-data-quality/internal/rules/engine"
	"github.com/kabirhiking/healthcare-data-quality/internal/runner"
	"github.com/spf13/cobra"
)

var requestAuditCmd = &cobra.Command{
	Use:         "request-audit",
	Short:       "Ask running workers to start an audit now.",
	Args:        cobra.NoArgs,
	Annotations: structuredLogging(),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		dsn, err := config.ResolveDatabaseURL(ctx, cfg)
		if err != nil {
			return err
		}
		pool, err := datasets.OpenPool(ctx, dsn, 1)
		if err != nil {
			return auditExitError(engine.ConnectionError{Err: err})
		}
		defer pool.Close()

		if err := runner.RequestAudit(ctx, pool); err != nil {
			return err
		}
		slog.Info("audit requested")
		return nil
	},
}
