package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/kabirhiking/healthcare-data-quality/internal/metrics"
	"github.com/kabirhiking/healthcare-data-quality/internal/reporting"
	"github.com/kabirhiking/healthcare-data-quality/internal/rules/engine"
)

// Notifier announces a finished run.
type Notifier interface {
	Notify(ctx context.Context, report *engine.Report, artifacts []string) error
}

// AuditRunner performs one full audit pass: run every rule, write the
// report files, upload them, and notify.
type AuditRunner struct {
	Engine    *engine.Engine
	ReportDir string
	Formats   []string
	Uploader  reporting.Uploader
	Notifier  Notifier
	Logger    *slog.Logger

	mu        sync.Mutex
	last      *engine.Report
	artifacts []string
}

func (r *AuditRunner) RunOnce(ctx context.Context) error {
	if r == nil || r.Engine == nil {
		return errors.New("audit runner: missing engine")
	}
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	started := time.Now()
	report, err := r.Engine.RunAll(ctx)
	metrics.AuditRunDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		metrics.AuditRunsTotal.WithLabelValues("error").Inc()
		return err
	}

	var errs []error
	artifacts, err := r.publish(ctx, logger, report)
	if err != nil {
		errs = append(errs, err)
	}
	r.remember(report, artifacts)

	if r.Notifier != nil {
		if err := r.Notifier.Notify(ctx, report, artifacts); err != nil {
			logger.Warn("audit notification failed", "run_id", report.RunID, "err", err)
		}
	}

	summary := report.Summary()
	metrics.AuditRunsTotal.WithLabelValues(strings.ToLower(string(summary.Status))).Inc()
	metrics.AuditLastSuccessTimestamp.Set(float64(time.Now().Unix()))

	if failures := report.Failures(); len(failures) > 0 {
		ruleErrs := make([]error, 0, len(failures))
		for _, f := range failures {
			ruleErrs = append(ruleErrs, f.Err)
		}
		errs = append(errs, fmt.Errorf("%w: %w", ErrChecksFailed, errors.Join(ruleErrs...)))
	}
	return errors.Join(errs...)
}

// publish writes the report files and uploads them. It returns the remote
// locations when uploaded, otherwise the local paths.
func (r *AuditRunner) publish(ctx context.Context, logger *slog.Logger, report *engine.Report) ([]string, error) {
	if len(r.Formats) == 0 {
		return nil, nil
	}
	paths, err := reporting.Write(report, r.ReportDir, r.Formats)
	if len(paths) > 0 {
		logger.Info("audit reports written", "run_id", report.RunID, "paths", paths)
	}
	if err != nil {
		return paths, err
	}
	if r.Uploader == nil {
		return paths, nil
	}
	remote, err := reporting.UploadAll(ctx, r.Uploader, paths)
	if err != nil {
		return paths, err
	}
	logger.Info("audit reports uploaded", "run_id", report.RunID, "locations", remote)
	return remote, nil
}

func (r *AuditRunner) remember(report *engine.Report, artifacts []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last = report
	r.artifacts = artifacts
}

// LastReport returns the report of the most recent completed run and where
// it was published.
func (r *AuditRunner) LastReport() (*engine.Report, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last, r.artifacts
}
