package solver

import (
	"errors"
	"fmt"
)

// ErrDiverged is returned when integration produces NaN or Inf.
var ErrDiverged = errors.New("solver: integration diverged")

// DivergedError carries the offending state so callers can report where the
// model blew up. It wraps ErrDiverged.
type DivergedError struct {
	Time  float64
	State State
}

func (e *DivergedError) Error() string {
	return fmt.Sprintf("solver: non-finite state at t=%.4f", e.Time)
}

func (e *DivergedError) Unwrap() error { return ErrDiverged }
