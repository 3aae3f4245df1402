package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kabirhiking/healthcare-data-quality/internal/auditlog"
	"github.com/kabirhiking/healthcare-data-quality/internal/config"
	"github.com/kabirhiking/healthcare-data-quality/internal/notify"
	"github.com/kabirhiking/healthcare-data-quality/internal/reporting"
	"github.com/kabirhiking/healthcare-data-quality/internal/rules/checks"
	"github.com/kabirhiking/healthcare-data-quality/internal/rules/datasets"
	"github.com/kabirhiking/healthcare-data-quality/internal/rules/engine"
	"github.com/kabirhiking/healthcare-data-quality/internal/runner"
)

type auditorOptions struct {
	ReportDir string
	Formats   string
	DryRun    bool

	// Blocking waits for a concurrent run to finish instead of skipping.
	Blocking bool

	// Listen reserves a connection for on-demand audit requests.
	Listen bool
}

// A run holds the advisory lock connection and the engine's connection for
// its whole duration, while each audit insert borrows a third.
const (
	runConns      = 3
	listenerConns = 1
)

// poolSize returns the configured pool size raised to the number of
// connections one run holds at once, so audit writes never wait on a pool
// the run itself has exhausted.
func poolSize(configured int, listen bool) (size int32, raised bool) {
	need := runConns
	if listen {
		need += listenerConns
	}
	if configured < need {
		return int32(need), true
	}
	return int32(configured), false
}

// auditor bundles everything one audit pass needs so the run and worker
// commands share a single wiring path.
type auditor struct {
	pool     *pgxpool.Pool
	audit    *runner.AuditRunner
	runner   runner.Runner
	uploader reporting.Uploader
}

func newAuditor(ctx context.Context, cfg config.Config, opts auditorOptions, logger *slog.Logger) (*auditor, error) {
	if logger == nil {
		logger = slog.Default()
	}
	formats, err := reporting.ParseFormats(opts.Formats)
	if err != nil {
		return nil, err
	}
	policy, err := notify.ParsePolicy(cfg.NotifyOn)
	if err != nil {
		return nil, err
	}

	dsn, err := config.ResolveDatabaseURL(ctx, cfg)
	if err != nil {
		return nil, err
	}
	maxConns, raised := poolSize(cfg.DatabaseMaxConns, opts.Listen)
	if raised {
		logger.Warn("DATABASE_MAX_CONNS is below what an audit run holds, raising it",
			"configured", cfg.DatabaseMaxConns, "using", maxConns)
	}
	pool, err := datasets.OpenPool(ctx, dsn, maxConns)
	if err != nil {
		return nil, engine.ConnectionError{Err: err}
	}

	a := &auditor{pool: pool}
	var sink engine.AuditSink = auditlog.NewPostgresSink(pool)
	if opts.DryRun || cfg.AuditSink == config.AuditSinkLog {
		sink = auditlog.LogSink{Logger: logger}
	}

	a.audit = &runner.AuditRunner{
		Engine: &engine.Engine{
			Connector: datasets.NewPool(pool),
			Sink:      sink,
			Rules:     checks.Default(nil),
			Reporter:  &runner.LogReporter{Logger: logger},
			Logger:    logger,
		},
		ReportDir: opts.ReportDir,
		Formats:   formats,
		Logger:    logger,
	}

	if !opts.DryRun {
		uploader, err := reporting.NewUploader(ctx, cfg.ReportUploadURL, cfg.AWSRegion)
		if err != nil {
			pool.Close()
			return nil, err
		}
		if uploader != nil {
			a.uploader = uploader
			a.audit.Uploader = uploader
		}
		if n := notify.NewSlackNotifier(cfg.SlackWebhookURL, policy); n != nil {
			a.audit.Notifier = n
		}
	}

	if opts.Blocking {
		a.runner = runner.NewBlockingLockRunner(pool, a.audit)
	} else {
		a.runner = runner.NewTryLockRunner(pool, a.audit)
	}
	return a, nil
}

func (a *auditor) Close() error {
	if a == nil {
		return nil
	}
	var errs []error
	if a.uploader != nil {
		if err := a.uploader.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close uploader: %w", err))
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
	return errors.Join(errs...)
}
