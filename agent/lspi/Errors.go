package lspi

import (
	"errors"
	"fmt"
)

// SolveError describes a failed normal-equation solve. Solves fail
// when the accumulated feature matrix is singular or ill-conditioned;
// the weights are left untouched when this happens.
type SolveError struct {
	Err error
}

// Error implements the error interface
func (e *SolveError) Error() string {
	return fmt.Sprintf("solve: system is ill-conditioned or singular: %v",
		e.Err)
}

// Unwrap returns the underlying solver error
func (e *SolveError) Unwrap() error {
	return e.Err
}

// IsIllConditioned returns whether err indicates a failed
// normal-equation solve.
func IsIllConditioned(err error) bool {
	var solveErr *SolveError
	return errors.As(err, &solveErr)
}
