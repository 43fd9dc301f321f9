package nbody

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Domain errors for initialization and stepping.
var (
	// ErrInvalidConfig indicates initializer parameters that cannot produce a system.
	ErrInvalidConfig = errors.New("nbody: invalid configuration")

	// ErrInvalidBodies indicates a body store that breaks its invariants.
	ErrInvalidBodies = errors.New("nbody: invalid body state")

	// ErrCoincident indicates a body sitting exactly on the mass focus of the others.
	ErrCoincident = errors.New("nbody: body coincides with mass focus")

	// ErrNonFinite indicates a NaN or Inf produced by the force computation.
	ErrNonFinite = errors.New("nbody: non-finite value in force computation")
)

// StepError wraps a numerical failure with the body that caused it.
type StepError struct {
	Body     int
	Position r3.Vec
	Focus    r3.Vec
	Wrapped  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("body %d at %v (focus %v): %s", e.Body, e.Position, e.Focus, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
