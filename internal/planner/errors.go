package planner

import "errors"

var (
	// ErrInvalidParams is returned when a Config fails validation.
	ErrInvalidParams = errors.New("planner: invalid params")
	// ErrInvalidQuantity indicates a non-positive requested quantity.
	ErrInvalidQuantity = errors.New("planner: quantity must be positive")
	// ErrInvalidStartPoints indicates a negative starting points balance.
	ErrInvalidStartPoints = errors.New("planner: start points must not be negative")
	// ErrAmountOverflow is returned when the request would exceed exact int64 arithmetic.
	ErrAmountOverflow = errors.New("planner: amounts exceed supported range")
	// ErrNoFeasiblePlan is returned when no state reached the requested quantity.
	ErrNoFeasiblePlan = errors.New("planner: no feasible plan")
	// ErrInconsistentPlan reports a broken back-pointer chain or a replay that
	// disagrees with the values recorded during the search.
	ErrInconsistentPlan = errors.New("planner: reconstructed plan is inconsistent")
)
