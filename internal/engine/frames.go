package engine

import (
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/piwi3910/framefill/internal/model"
)

// discardLogger is used when callers pass a nil logger.
func discardLogger() *log.Logger {
	return log.New(io.Discard)
}

// CollectFrames turns selected shapes into frames. Shapes with unusable or
// zero-area bounds are skipped and logged. Frames are numbered in selection
// order; SortFrames assigns the final reading-order index.
func CollectFrames(shapes []model.Shape, logger *log.Logger) ([]model.Frame, error) {
	if logger == nil {
		logger = discardLogger()
	}
	if len(shapes) == 0 {
		return nil, model.ErrNoSelection
	}

	frames := make([]model.Frame, 0, len(shapes))
	for i, s := range shapes {
		b, err := model.BoundsFromCoords(s.Coords)
		if err != nil {
			logger.Warn("skipping shape", "index", i, "id", s.ID, "label", s.Label, "err", err)
			continue
		}
		if b.IsDegenerate() {
			logger.Warn("skipping degenerate shape", "index", i, "id", s.ID, "label", s.Label,
				"width", b.Width(), "height", b.Height())
			continue
		}
		frames = append(frames, model.Frame{
			Index:  len(frames),
			ID:     s.ID,
			Label:  s.Label,
			Bounds: b,
		})
	}

	if len(frames) == 0 {
		return nil, fmt.Errorf("%w (%d shapes selected)", model.ErrNoFrames, len(shapes))
	}
	return frames, nil
}

// FrameAxis returns the vertical axis convention of a run. It is detected
// once, from the first frame in selection order (the order CollectFrames
// returns), and must be used for every comparison and clip in that run.
func FrameAxis(frames []model.Frame) model.AxisDirection {
	if len(frames) == 0 {
		return model.AxisDown
	}
	return model.DetectAxis(frames[0].Bounds)
}

// SortFrames returns a copy of frames in reading order under axis: rows from
// top to bottom, and left to right within a row. Two frames share a row when
// their vertical centers differ by strictly less than epsilon. Index is
// renumbered to match the new order.
func SortFrames(frames []model.Frame, axis model.AxisDirection, epsilon float64) []model.Frame {
	sorted := make([]model.Frame, len(frames))
	copy(sorted, frames)
	if len(sorted) == 0 {
		return sorted
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		return readsBefore(sorted[i], sorted[j], axis, epsilon)
	})

	for i := range sorted {
		sorted[i].Index = i
	}
	return sorted
}

// SameRow reports whether two frames lie on the same row for epsilon.
func SameRow(a, b model.Frame, epsilon float64) bool {
	return math.Abs(a.Center().Y-b.Center().Y) < epsilon
}

func readsBefore(a, b model.Frame, axis model.AxisDirection, epsilon float64) bool {
	ca, cb := a.Center(), b.Center()
	if SameRow(a, b, epsilon) {
		return ca.X < cb.X
	}
	return axis.Above(ca.Y, cb.Y)
}
