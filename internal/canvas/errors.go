package canvas

import (
	"errors"
	"fmt"
)

var (
	// ErrRestoreUnderflow is returned when Restore has no matching Save.
	ErrRestoreUnderflow = errors.New("restore without matching save")
	// ErrInvalidMatrix is returned when a transform would not be invertible.
	ErrInvalidMatrix = errors.New("invalid matrix")
	// ErrNoCurrentPoint is returned by relative path operations on an empty path.
	ErrNoCurrentPoint = errors.New("no current point")
	// ErrRegionOutOfBounds is returned when a pixel region does not overlap
	// the surface.
	ErrRegionOutOfBounds = errors.New("region outside surface bounds")
)

// GraphicsError reports an invalid drawing context state. A render pass that
// sees one is abandoned.
type GraphicsError struct {
	Op  string
	Err error
}

func (e *GraphicsError) Error() string {
	return fmt.Sprintf("graphics %s: %v", e.Op, e.Err)
}

func (e *GraphicsError) Unwrap() error {
	return e.Err
}

func graphicsErr(op string, err error) error {
	return &GraphicsError{Op: op, Err: err}
}
