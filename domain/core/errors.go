package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// ErrInsufficientData signals fewer points than a fit or search requires.
	ErrInsufficientData = errors.New("insufficient data for fit")
	// ErrDomainRange signals a requested point or window outside the data's field span.
	ErrDomainRange = errors.New("target outside data range")
	// ErrIllConditionedFit signals a singular or degenerate regression.
	ErrIllConditionedFit = errors.New("ill-conditioned fit")
	// ErrNoValidRegion signals that auto-detection found no branch or crossing
	// meeting the configured quality thresholds.
	ErrNoValidRegion = errors.New("no valid region detected")
	// ErrZeroIntercept signals an anisotropy fit whose intercept is exactly zero.
	ErrZeroIntercept = errors.New("zero intercept, Ku undefined")

	// Dataset errors
	ErrColumnNotFound = errors.New("column not found")
)

// Error constructors with context
func NewInsufficientDataError(op string, n, min int) error {
	return fmt.Errorf("%w: %s needs at least %d points, got %d", ErrInsufficientData, op, min, n)
}

func NewDomainRangeError(target, lo, hi float64) error {
	return fmt.Errorf("%w: %g not in [%g, %g]", ErrDomainRange, target, lo, hi)
}

func NewColumnNotFoundError(name string) error {
	return fmt.Errorf("%w: %q", ErrColumnNotFound, name)
}

// IsAnalysisError reports whether err is one of the recoverable analysis
// failures. Callers processing batches should note these and continue.
func IsAnalysisError(err error) bool {
	return errors.Is(err, ErrInsufficientData) ||
		errors.Is(err, ErrDomainRange) ||
		errors.Is(err, ErrIllConditionedFit) ||
		errors.Is(err, ErrNoValidRegion) ||
		errors.Is(err, ErrZeroIntercept)
}
