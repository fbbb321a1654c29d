package bench

import (
	"context"
	"errors"
)

// Func is a benchmark body. It drives run and returns the first failure,
// normally a *PhaseError.
type Func func(ctx context.Context, run *Run) error

// Batch is the client-side queue a driver flushes.
type Batch interface {
	Releaser
	Execute(ctx context.Context) error
}

// Spec describes one batched benchmark. B is the storage client's batch
// type, handed back to Op untouched.
type Spec[B Batch] struct {
	// Iterations, when positive, replaces the run's planned iterations.
	// Benchmarks tied to a fixed data set use it.
	Iterations int
	// Multiplier scales the planned iterations.
	Multiplier Multiplier
	// OpsPerIteration is the number of storage operations Op stages per
	// index. Zero means one.
	OpsPerIteration int
	// UseBatch flushes once per pass instead of after every Op.
	UseBatch bool
	// Direct means Op talks to the store synchronously and there is
	// nothing to flush.
	Direct bool

	// NewBatch creates the measured batch. The driver owns and releases it.
	NewBatch func() B
	// Setup runs before the timer starts with n, the iterations of one
	// pass. Handles registered on the scope are released after Teardown.
	Setup func(ctx context.Context, s *Scope, n int) error
	// Op stages the work of index i.
	Op func(ctx context.Context, i int, b B) error
	// Cleanup runs at every pass boundary with the timer paused.
	Cleanup func(ctx context.Context) error
	// Teardown runs after the timer stops, on success and failure.
	Teardown func(ctx context.Context) error
}

// Batched builds a benchmark body from spec. In immediate mode every Op is
// followed by a flush; in batched mode the flush is the run's pass-boundary
// hook.
func Batched[B Batch](spec Spec[B]) Func {
	return func(ctx context.Context, run *Run) (err error) {
		scope := &Scope{}
		defer func() {
			if rerr := scope.Release(ctx); rerr != nil && err == nil {
				err = &PhaseError{Benchmark: run.Name, Phase: PhaseTeardown, Err: rerr}
			}
		}()

		if spec.Iterations > 0 {
			run.Iterations = spec.Iterations
		}
		run.Iterations = spec.Multiplier.Apply(run.Iterations)
		run.Operations = run.Iterations * max(spec.OpsPerIteration, 1)

		var batch B
		if spec.NewBatch != nil {
			batch = spec.NewBatch()
			scope.Own("batch", batch)
		}
		flush := func(ctx context.Context) error {
			start := run.clockNow()
			ferr := batch.Execute(ctx)
			run.observeFlush(spec.UseBatch, start)
			return ferr
		}

		if spec.Setup != nil {
			if serr := spec.Setup(ctx, scope, run.Iterations); serr != nil {
				return &PhaseError{Benchmark: run.Name, Phase: PhaseSetup, Err: serr}
			}
		}
		if spec.Teardown != nil {
			scope.Defer("teardown", spec.Teardown)
		}

		immediate := !spec.Direct && !spec.UseBatch && spec.NewBatch != nil
		if spec.UseBatch && !spec.Direct && spec.NewBatch != nil {
			run.Flush = flush
		}
		run.Cleanup = spec.Cleanup

		for run.Next(ctx) {
			if oerr := spec.Op(ctx, run.Index(), batch); oerr != nil {
				if spec.Direct {
					run.Fail(executionError(oerr))
				} else {
					run.Fail(stagingError(oerr))
				}
				break
			}
			if immediate {
				if ferr := flush(ctx); ferr != nil {
					run.Fail(executionError(ferr))
					break
				}
			}
		}

		if rerr := run.Err(); rerr != nil {
			phase := PhaseMeasure
			if errors.Is(rerr, ErrBatchCleanupFailed) {
				phase = PhaseCleanup
			}
			return &PhaseError{Benchmark: run.Name, Phase: phase, Err: rerr}
		}
		return nil
	}
}
