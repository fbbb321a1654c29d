package bench

import (
	"errors"
	"fmt"
)

var (
	// ErrStagingFailed indicates an operation was rejected while being
	// queued into a batch, before any round trip.
	ErrStagingFailed = errors.New("staging failed")

	// ErrBatchExecutionFailed indicates a batch flush reported failure.
	ErrBatchExecutionFailed = errors.New("batch execution failed")

	// ErrBatchCleanupFailed indicates a pass-boundary cleanup failed. The
	// store may hold records the benchmark created.
	ErrBatchCleanupFailed = errors.New("batch cleanup failed")

	// ErrTimerMisuse indicates start/pause/resume/stop were called out of order.
	ErrTimerMisuse = errors.New("timer misuse")

	// ErrUnavailable is returned by Timer.Elapsed until the timer is stopped.
	ErrUnavailable = errors.New("measurement unavailable")

	// ErrInvalidIterations indicates a run planned fewer than one iteration.
	ErrInvalidIterations = errors.New("iterations must be positive")
)

// Phase names the part of a benchmark that failed.
type Phase string

const (
	PhaseSetup    Phase = "setup"
	PhaseMeasure  Phase = "measure"
	PhaseCleanup  Phase = "cleanup"
	PhaseTeardown Phase = "teardown"
)

// PhaseError records which benchmark failed and where.
type PhaseError struct {
	Benchmark string
	Phase     Phase
	Err       error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Benchmark, e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}

// PhaseOf returns the phase recorded in err, or PhaseMeasure when err
// carries none.
func PhaseOf(err error) Phase {
	var pe *PhaseError
	if errors.As(err, &pe) {
		return pe.Phase
	}
	return PhaseMeasure
}

func stagingError(err error) error {
	return fmt.Errorf("%w: %w", ErrStagingFailed, err)
}

func executionError(err error) error {
	return fmt.Errorf("%w: %w", ErrBatchExecutionFailed, err)
}

func cleanupError(err error) error {
	return fmt.Errorf("%w: %w", ErrBatchCleanupFailed, err)
}
