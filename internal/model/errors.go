package model

import (
	"errors"
	"fmt"
)

// Run-fatal errors. They are returned before the canvas is touched.
var (
	ErrNoSelection = errors.New("nothing is selected")
	ErrNoFrames    = errors.New("selection contains no frame with a valid, non-degenerate bounding box")
	ErrNoImages    = errors.New("no image files found")
	ErrCancelled   = errors.New("cancelled")
)

// ErrInvalidBounds is returned for coordinate arrays that cannot form Bounds.
var ErrInvalidBounds = errors.New("invalid bounds")

// IsFatal reports whether err stops the whole run.
func IsFatal(err error) bool {
	return errors.Is(err, ErrNoSelection) ||
		errors.Is(err, ErrNoFrames) ||
		errors.Is(err, ErrNoImages) ||
		errors.Is(err, ErrCancelled)
}

// FillReason names the outcome of a failed or partially failed frame fill.
type FillReason string

const (
	ReasonUnreadableImage FillReason = "unreadableImage"
	ReasonRotationFailed  FillReason = "rotationFailed"
	ReasonPlacementFailed FillReason = "placementFailed"
	ReasonCleanupFailed   FillReason = "cleanupFailed"
)

// FrameFillError is a recoverable failure scoped to one frame.
type FrameFillError struct {
	FrameIndex int
	Asset      string
	Reason     FillReason
	Err        error
}

func (e *FrameFillError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("frame %d (%s): %s: %v", e.FrameIndex+1, e.Asset, e.Reason, e.Err)
	}
	return fmt.Sprintf("frame %d (%s): %s", e.FrameIndex+1, e.Asset, e.Reason)
}

func (e *FrameFillError) Unwrap() error {
	return e.Err
}

// ReasonOf returns the FillReason carried by err, or "" when err is not a
// FrameFillError.
func ReasonOf(err error) FillReason {
	var fe *FrameFillError
	if errors.As(err, &fe) {
		return fe.Reason
	}
	return ""
}
