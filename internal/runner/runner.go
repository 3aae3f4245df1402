// Package runner drives audit runs: one-shot, scheduled, and behind a
// Postgres advisory lock.
package runner

import (
	"context"
	"errors"
)

// Runner executes a single audit pass.
type Runner interface {
	RunOnce(context.Context) error
}

// ErrRunAlreadyInProgress is returned by a try-lock runner when another
// auditor holds the run lock.
var ErrRunAlreadyInProgress = errors.New("audit run is already in progress")

// ErrChecksFailed is wrapped around the errors of rules that could not
// execute during an otherwise completed run.
var ErrChecksFailed = errors.New("one or more checks failed to run")
