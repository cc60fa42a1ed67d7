package store

import "errors"

// Domain-specific errors for store operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrPointNotFound is returned when a value refers to an unknown point.
	ErrPointNotFound = errors.New("store: point not found")

	// ErrNoSpecs is returned by LoadSpecs when the points table is empty.
	ErrNoSpecs = errors.New("store: no point specs stored")
)
