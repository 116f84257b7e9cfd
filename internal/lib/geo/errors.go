package geo

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput matches any *InvalidInputError via errors.Is
	ErrInvalidInput = errors.New("invalid input")

	// ErrDegenerateCrossing matches any *DegenerateCrossingError via errors.Is
	ErrDegenerateCrossing = errors.New("degenerate dateline crossing")
)

// InvalidInputError is returned when an operation is called with arguments
// outside its contract (too few points, a non-positive point count, NaN).
type InvalidInputError struct {
	Op     string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("%s: invalid input: %s", e.Op, e.Reason)
}

func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// DegenerateCrossingError is returned when the crossing point between two
// points cannot be interpolated without producing a non-finite coordinate.
type DegenerateCrossingError struct {
	Index   int // index of the second point of the crossing pair
	Prev    Point
	Curr    Point
	LonDiff float64
	Ratio   float64
}

func (e *DegenerateCrossingError) Error() string {
	return fmt.Sprintf("degenerate dateline crossing at index %d between (%g, %g) and (%g, %g): lonDiff=%g ratio=%g",
		e.Index, e.Prev.Longitude, e.Prev.Latitude, e.Curr.Longitude, e.Curr.Latitude, e.LonDiff, e.Ratio)
}

func (e *DegenerateCrossingError) Is(target error) bool {
	return target == ErrDegenerateCrossing
}

func invalidInput(op, format string, args ...any) error {
	return &InvalidInputError{Op: op, Reason: fmt.Sprintf(format, args...)}
}
