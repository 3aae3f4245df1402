package runner

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

type countingRunner struct {
	calls  atomic.Int32
	cancel context.CancelFunc
	stopAt int32
	err    error
}

func (r *countingRunner) RunOnce(context.Context) error {
	if n := r.calls.Add(1); n >= r.stopAt && r.cancel != nil {
		r.cancel()
	}
	return r.err
}

func TestSchedulerRunsImmediatelyThenOnInterval(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runner := &countingRunner{cancel: cancel, stopAt: 3, err: ErrRunAlreadyInProgress}

	done := make(chan struct{})
	go func() {
		(&Scheduler{Runner: runner, Interval: 5 * time.Millisecond}).Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop after cancellation")
	}
	if got := runner.calls.Load(); got < 3 {
		t.Fatalf("expected at least 3 runs, got %d", got)
	}
}

func TestSchedulerWithoutIntervalDoesNothing(t *testing.T) {
	t.Parallel()

	runner := &countingRunner{}
	(&Scheduler{Runner: runner}).Run(context.Background())
	if got := runner.calls.Load(); got != 0 {
		t.Fatalf("expected no runs, got %d", got)
	}
}

func TestSchedulerRunsOnTrigger(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runner := &countingRunner{cancel: cancel, stopAt: 2}
	trigger := make(chan struct{}, 1)
	trigger <- struct{}{}

	done := make(chan struct{})
	go func() {
		(&Scheduler{Runner: runner, Interval: time.Hour, Trigger: trigger}).Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("triggered run did not happen")
	}
	if got := runner.calls.Load(); got != 2 {
		t.Fatalf("expected initial and triggered runs, got %d", got)
	}
}
