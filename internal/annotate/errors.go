package annotate

import (
	"errors"

	"github.com/example/snapmark/internal/canvas"
)

var (
	// ErrOperationInProgress is returned when starting an operation while
	// another is being drawn.
	ErrOperationInProgress = errors.New("an operation is already in progress")
	// ErrNoOperation is returned when there is no operation being drawn.
	ErrNoOperation = errors.New("no operation in progress")
	// ErrSessionFinished is returned once the stack has been sealed.
	ErrSessionFinished = errors.New("editing has finished")
	// ErrRegionOutOfBounds is returned by pixel filters whose region lies
	// outside the surface.
	ErrRegionOutOfBounds = canvas.ErrRegionOutOfBounds
)
