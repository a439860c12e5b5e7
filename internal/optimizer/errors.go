package optimizer

import (
	"errors"
	"fmt"
)

// ErrNoData is returned when there is no forecast or no stock to optimize over.
// It is distinct from a plan in which nothing needs ordering.
var ErrNoData = errors.New("no data available for optimization")

// MissingKeyError reports a SKU that is in the forecast but absent from another input.
type MissingKeyError struct {
	SKU   string
	Input string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("sku %q has a forecast but no %s entry", e.SKU, e.Input)
}

// InvalidCostError reports a unit cost the LP cannot use.
type InvalidCostError struct {
	SKU  string
	Cost float64
}

func (e *InvalidCostError) Error() string {
	return fmt.Sprintf("sku %q has invalid unit cost %v: must be positive and finite", e.SKU, e.Cost)
}

// SolverError wraps a failure reported by an LP solver.
type SolverError struct {
	Solver string
	Status string
	Err    error
}

func (e *SolverError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s solver: %s: %v", e.Solver, e.Status, e.Err)
	}
	return fmt.Sprintf("%s solver: %s", e.Solver, e.Status)
}

func (e *SolverError) Unwrap() error {
	return e.Err
}
