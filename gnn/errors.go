package gnn

import "github.com/pkg/errors"

// Error classes of the affinity core. Every error returned by this package
// wraps exactly one of them, so callers can match with errors.Is.
// None of them is recoverable within a forward pass.
var (
	// ErrConfiguration is returned while assembling a model from an invalid configuration
	ErrConfiguration = errors.New("configuration error")
	// ErrShapeMismatch is returned when inputs do not agree with N, M or the topology
	ErrShapeMismatch = errors.New("shape mismatch")
	// ErrInvariantViolation is returned when a computed loss is negative or not a number
	ErrInvariantViolation = errors.New("invariant violation")
)
