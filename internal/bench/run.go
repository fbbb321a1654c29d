package bench

import (
	"context"
	"errors"
	"time"
)

// DefaultMaxDuration is the wall-clock budget of one run.
const DefaultMaxDuration = time.Second

type runState int

const (
	stateNotStarted runState = iota
	stateRunning
	stateDone
	stateFailed
)

// Run is one time-boxed measurement of a named benchmark. A benchmark body
// drives it like a scanner:
//
//	for run.Next(ctx) {
//		stage(run.Index())
//	}
//	if err := run.Err(); err != nil {
//		...
//	}
//
// Next yields indices in [0, Iterations). Each time a pass completes it runs
// Flush, then Cleanup with the timer paused, and ends the sequence once the
// wall time since the first Next exceeds MaxDuration. A Run is not
// restartable.
type Run struct {
	Name string
	// Iterations is the planned number of indices per pass.
	Iterations int
	// Operations is the number of storage operations in one pass. It
	// defaults to Iterations and differs when an index stages more than one
	// operation.
	Operations int
	// Passes counts completed passes.
	Passes          int
	MachineReadable bool
	// MaxDuration bounds the run in wall time. Zero or less ends the run
	// after its first pass.
	MaxDuration time.Duration

	// Flush executes the work staged during a pass.
	Flush func(ctx context.Context) error
	// Cleanup undoes a pass's side effects. It is not measured.
	Cleanup func(ctx context.Context) error

	timer   *Timer
	index   int
	state   runState
	err     error
	strict  bool
	onFlush func(batched bool, d time.Duration)
}

// RunOption configures a Run.
type RunOption func(*Run)

// WithClock sets the clock read by the run's timer.
func WithClock(c Clock) RunOption {
	return func(r *Run) { r.timer = NewTimer(c) }
}

// WithMaxDuration sets the wall-clock budget.
func WithMaxDuration(d time.Duration) RunOption {
	return func(r *Run) { r.MaxDuration = d }
}

// WithMachineReadable marks the run for CSV reporting.
func WithMachineReadable(v bool) RunOption {
	return func(r *Run) { r.MachineReadable = v }
}

// WithStrict makes timer misuse panic instead of failing the run. Tests
// use it so a broken benchmark definition cannot hide behind a placeholder
// row.
func WithStrict() RunOption {
	return func(r *Run) { r.strict = true }
}

// WithFlushObserver registers fn to receive the duration of every flush a
// driver performs on this run.
func WithFlushObserver(fn func(batched bool, d time.Duration)) RunOption {
	return func(r *Run) { r.onFlush = fn }
}

// NewRun creates a run planning iterations indices per pass.
func NewRun(name string, iterations int, opts ...RunOption) *Run {
	r := &Run{
		Name:        name,
		Iterations:  iterations,
		Operations:  iterations,
		MaxDuration: DefaultMaxDuration,
	}
	for _, o := range opts {
		o(r)
	}
	if r.timer == nil {
		r.timer = NewTimer(nil)
	}
	return r
}

// Next advances to the next index. It returns false when the budget is
// spent or the run failed; Err distinguishes the two.
func (r *Run) Next(ctx context.Context) bool {
	switch r.state {
	case stateDone, stateFailed:
		return false
	case stateNotStarted:
		if r.Iterations <= 0 {
			r.Fail(ErrInvalidIterations)
			return false
		}
		if err := r.timer.Start(); err != nil {
			r.Fail(err)
			return false
		}
		r.state = stateRunning
		r.index = 0
		return true
	}

	r.index++
	if r.index < r.Iterations {
		return true
	}
	return r.endPass(ctx)
}

func (r *Run) endPass(ctx context.Context) bool {
	r.index = 0
	r.Passes++

	if r.Flush != nil {
		if err := r.Flush(ctx); err != nil {
			r.Fail(executionError(err))
			return false
		}
	}

	if r.Cleanup != nil {
		if err := r.timer.Pause(); err != nil {
			r.Fail(err)
			return false
		}
		cerr := r.Cleanup(ctx)
		if err := r.timer.Resume(); err != nil {
			r.Fail(err)
			return false
		}
		if cerr != nil {
			r.Fail(cleanupError(cerr))
			return false
		}
	}

	if r.MaxDuration <= 0 || r.timer.Wall() > r.MaxDuration {
		if err := r.timer.Stop(); err != nil {
			r.Fail(err)
			return false
		}
		r.state = stateDone
		return false
	}
	return true
}

// Fail ends the run with err. The timer is left as is, so a failed run never
// reports an elapsed time. Only the first failure is kept.
func (r *Run) Fail(err error) {
	if r.strict && errors.Is(err, ErrTimerMisuse) {
		panic(err)
	}
	if r.err == nil {
		r.err = err
	}
	r.state = stateFailed
}

// Index returns the current index within the pass.
func (r *Run) Index() int { return r.index }

// Err returns the failure that ended the run, if any.
func (r *Run) Err() error { return r.err }

// Done reports whether the run ended by exhausting its budget.
func (r *Run) Done() bool { return r.state == stateDone }

// Timer exposes the run's timer to benchmarks that need an extra exclusion
// window inside a pass.
func (r *Run) Timer() *Timer { return r.timer }

// Elapsed returns the measured time, or ErrUnavailable when the run did not
// complete.
func (r *Run) Elapsed() (time.Duration, error) {
	if r.state != stateDone {
		return 0, ErrUnavailable
	}
	return r.timer.Elapsed()
}

// TotalOperations is Operations times the completed passes, counting a run
// with no completed pass as one.
func (r *Run) TotalOperations() int64 {
	return int64(r.Operations) * int64(max(r.Passes, 1))
}

// Throughput returns operations per measured second.
func (r *Run) Throughput() (float64, error) {
	elapsed, err := r.Elapsed()
	if err != nil {
		return 0, err
	}
	if elapsed <= 0 {
		return 0, ErrUnavailable
	}
	return float64(r.TotalOperations()) / elapsed.Seconds(), nil
}

// clockNow is used by drivers to time flushes on the run's clock.
func (r *Run) clockNow() time.Time { return r.timer.clock.Now() }

func (r *Run) observeFlush(batched bool, start time.Time) {
	if r.onFlush != nil {
		r.onFlush(batched, r.clockNow().Sub(start))
	}
}
