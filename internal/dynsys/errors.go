package dynsys

import "errors"

// Domain errors for simulation operations. The first group is
// structural: the caller must fix the model, no retry will help. The
// second group is transient and retried internally by the stepper with
// a reduced step. The third group halts the simulation.
var (
	// ErrUndefinedHistory indicates a delayed lookup before the earliest
	// retained sample with no initial history function covering it.
	ErrUndefinedHistory = errors.New("dynsys: history undefined at requested time")

	// ErrOutOfOrderTime indicates a history record at or before the
	// latest recorded time.
	ErrOutOfOrderTime = errors.New("dynsys: history times must be strictly increasing")

	// ErrFutureTime indicates a history lookup beyond the latest
	// recorded sample.
	ErrFutureTime = errors.New("dynsys: history lookup beyond latest recorded time")

	// ErrCyclicCoupling indicates the coupling graph is not a DAG.
	ErrCyclicCoupling = errors.New("dynsys: coupling graph contains a cycle")

	// ErrDimensionMismatch indicates mismatched state/system dimensions.
	ErrDimensionMismatch = errors.New("dynsys: dimension mismatch between state and system")

	// ErrNonconvergence indicates an implicit solve failed to converge;
	// the stepper retries with a smaller step.
	ErrNonconvergence = errors.New("dynsys: implicit solve did not converge")

	// ErrSingularIteration indicates a singular iteration matrix in an
	// implicit step. Fatal: a degenerate solution is never returned.
	ErrSingularIteration = errors.New("dynsys: singular iteration matrix")

	// ErrDiverged indicates the state left the representable range
	// (NaN or Inf) or the retry budget was exhausted.
	ErrDiverged = errors.New("dynsys: simulation diverged")

	// ErrStepTooSmall indicates adaptive refinement drove the step below
	// its minimum.
	ErrStepTooSmall = errors.New("dynsys: adaptive step below minimum")
)

// StepError wraps an error with the step index and time at which it
// arose.
type StepError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *StepError) Error() string {
	return e.Wrapped.Error()
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
