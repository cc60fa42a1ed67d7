package point

import "errors"

// Domain errors for the point package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, point.ErrNotCommandable) {
//	    // reject the write
//	}
var (
	// ErrPointNotFound is returned when a point name does not exist.
	ErrPointNotFound = errors.New("point: not found")

	// ErrNotCommandable is returned when a priority write targets an input point.
	ErrNotCommandable = errors.New("point: not commandable")

	// ErrInvalidPriority is returned when a priority slot is outside [1,16].
	ErrInvalidPriority = errors.New("point: invalid priority slot")

	// ErrInvalidCategory is returned when a category spelling is not recognised.
	ErrInvalidCategory = errors.New("point: invalid category")

	// ErrInvalidValue is returned when a value does not fit the point's kind,
	// e.g. a state index outside [1, numberOfStates] on a multistate point.
	ErrInvalidValue = errors.New("point: invalid value")

	// ErrInvalidSpec is returned when spec validation fails at build time.
	ErrInvalidSpec = errors.New("point: invalid spec")
)
