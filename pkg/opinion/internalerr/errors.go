package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrDuplicate     = errors.New("duplicate entry")
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrInconsistent marks internal state that can only result from a bug,
	// e.g. a cluster member outside the input range.
	ErrInconsistent = errors.New("internal inconsistency")
)
