package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/kabirhiking/healthcare-data-quality/internal/logging"
	"github.com/kabirhiking/healthcare-data-quality/internal/rules/engine"
	"github.com/kabirhiking/healthcare-data-quality/internal/runner"
)

const (
	exitCodeFailure      = 1
	exitCodeChecksFailed = 2
	exitCodeCanceled     = 130
)

func main() {
	code := runMain(Execute, os.Stderr)
	if code != 0 {
		os.Exit(code)
	}
}

func runMain(execute func() error, stderr io.Writer) int {
	if err := execute(); err != nil {
		return exitCodeForError(err, stderr)
	}
	return 0
}

func exitCodeForError(err error, stderr io.Writer) int {
	var ee *exitError
	if errors.As(err, &ee) {
		if !ee.silent {
			emitCommandError(resolveErrorForExitError(ee, err), "command failed", ee.code, stderr)
		}
		return ee.code
	}

	if errors.Is(err, context.Canceled) {
		emitCommandError(err, "command canceled", exitCodeCanceled, stderr)
		return exitCodeCanceled
	}

	emitCommandError(err, "command failed", exitCodeFailure, stderr)
	return exitCodeFailure
}

// auditExitError maps an audit run error onto the process exit code. Failed
// checks exit 2 so schedulers can tell them apart from an unreachable database.
func auditExitError(err error) error {
	if err == nil {
		return nil
	}
	var connErr engine.ConnectionError
	switch {
	case errors.Is(err, context.Canceled):
		return &exitError{code: exitCodeCanceled, err: err, silent: true}
	case errors.As(err, &connErr):
		return &exitError{code: exitCodeFailure, err: err}
	case errors.Is(err, runner.ErrChecksFailed), errors.Is(err, errIssuesFound):
		return &exitError{code: exitCodeChecksFailed, err: err}
	default:
		return &exitError{code: exitCodeFailure, err: err}
	}
}

func emitCommandError(err error, message string, exitCode int, stderr io.Writer) {
	ctx := currentCommandExecutionContext()
	if !ctx.UsesStructuredLog {
		if exitCode == exitCodeCanceled {
			fmt.Fprintln(stderr, "canceled")
			return
		}
		fmt.Fprintln(stderr, err)
		return
	}

	logger := loggerForFatalPath(ctx, stderr)
	logger.Error(message, "exit_code", exitCode, "error", err)
}

func loggerForFatalPath(ctx commandExecutionContext, stderr io.Writer) *slog.Logger {
	cfg, err := logging.LoadConfigFromEnv()
	if err != nil {
		cfg = logging.DefaultConfig()
	}
	return logging.NewLogger(cfg, stderr, ctx.CommandPath)
}

func resolveErrorForExitError(ee *exitError, fallback error) error {
	if ee != nil && ee.err != nil {
		return ee.err
	}
	return fallback
}
