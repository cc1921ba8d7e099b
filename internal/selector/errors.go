package selector

import "errors"

var (
	// ErrNotFitted is returned when the selector state needed by a call does not exist yet:
	// Transform before Fit, or Support/Trace before any Transform.
	ErrNotFitted = errors.New("selector: not fitted")

	// ErrNilEstimator is returned by New when no estimator is supplied.
	ErrNilEstimator = errors.New("selector: estimator is required")

	// ErrInvalidConfig is returned by New for out-of-range configuration.
	ErrInvalidConfig = errors.New("selector: invalid config")

	// ErrDimensionMismatch is returned when the importance vector does not line up with
	// the columns of the matrix being transformed.
	ErrDimensionMismatch = errors.New("selector: importance vector does not match matrix columns")

	// ErrNoRows is returned by Transform for a matrix that has columns but no rows.
	ErrNoRows = errors.New("selector: matrix has no rows")
)
