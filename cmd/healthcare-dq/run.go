package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/kabirhiking/healthcare-data-quality/internal/config"
	"github.com/kabirhiking/healthcare-data-quality/internal/rules/engine"
	"github.com/kabirhiking/healthcare-data-quality/internal/runner"
	"github.com/spf13/cobra"
)

var errIssuesFound = errors.New("data quality issues found")

type runOptions struct {
	formats      string
	outDir       string
	failOnIssues bool
	dryRun       bool
	wait         bool
}

var runOpts runOptions

var runCmd = &cobra.Command{
	Use:         "run",
	Short:       "Run every data quality check once and write the report.",
	Args:        cobra.NoArgs,
	Annotations: structuredLogging(),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAudit(cmd.OutOrStdout(), runOpts)
	},
}

func init() {
	runCmd.Flags().StringVar(&runOpts.formats, "format", "", "comma-separated report formats (json, yaml, html, xlsx); defaults to REPORT_FORMATS")
	runCmd.Flags().StringVar(&runOpts.outDir, "out", "", "directory for report files; defaults to REPORT_DIR")
	runCmd.Flags().BoolVar(&runOpts.failOnIssues, "fail-on-issues", false, "exit with code 2 when any issue is found")
	runCmd.Flags().BoolVar(&runOpts.dryRun, "dry-run", false, "log findings instead of writing the audit table; skips upload and notification")
	runCmd.Flags().BoolVar(&runOpts.wait, "wait", false, "wait for a concurrent audit to finish instead of exiting")
}

func runAudit(stdout io.Writer, opts runOptions) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := newAuditor(ctx, cfg, auditorOptions{
		ReportDir: firstNonEmpty(opts.outDir, cfg.ReportDir),
		Formats:   firstNonEmpty(opts.formats, strings.Join(cfg.ReportFormats, ",")),
		DryRun:    opts.dryRun,
		Blocking:  opts.wait,
	}, slog.Default())
	if err != nil {
		return auditExitError(err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			slog.Warn("closing auditor failed", "err", err)
		}
	}()

	runErr := a.runner.RunOnce(ctx)
	if errors.Is(runErr, runner.ErrRunAlreadyInProgress) {
		return &exitError{code: exitCodeFailure, err: runErr}
	}

	report, artifacts := a.audit.LastReport()
	if report != nil {
		printSummary(stdout, report, artifacts)
		if runErr == nil && opts.failOnIssues && report.Summary().Status == engine.StatusFail {
			runErr = errIssuesFound
		}
	}
	return auditExitError(runErr)
}

func printSummary(w io.Writer, report *engine.Report, artifacts []string) {
	s := report.Summary()
	fmt.Fprintf(w, "run %s: %s\n", report.RunID, s.Status)
	fmt.Fprintf(w, "  checks performed: %d\n", s.ChecksPerformed)
	fmt.Fprintf(w, "  checks failed:    %d\n", s.ChecksFailed)
	fmt.Fprintf(w, "  issues found:     %d\n", s.TotalIssuesFound)
	for _, res := range report.Results() {
		if res.Failed() {
			fmt.Fprintf(w, "  %-22s error: %v\n", res.Key, res.Err)
			continue
		}
		fmt.Fprintf(w, "  %-22s %d\n", res.Key, res.IssuesFound())
	}
	for _, a := range artifacts {
		fmt.Fprintf(w, "  report: %s\n", a)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
