package model

import (
	"fmt"
	"math"
)

// Point2D represents a 2D coordinate in canvas units.
type Point2D struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Bounds is a rectangle given by its four edges in canvas units.
// Top may be numerically greater or smaller than Bottom depending on the
// canvas convention; see AxisDirection.
type Bounds struct {
	Left   float64 `json:"left" yaml:"left"`
	Top    float64 `json:"top" yaml:"top"`
	Right  float64 `json:"right" yaml:"right"`
	Bottom float64 `json:"bottom" yaml:"bottom"`
}

// BoundsFromCoords builds Bounds from a host-style [left, top, right, bottom]
// array. Extra values are ignored. It fails when fewer than four values are
// present or any of the first four is not a finite number.
func BoundsFromCoords(coords []float64) (Bounds, error) {
	if len(coords) < 4 {
		return Bounds{}, fmt.Errorf("%w: expected 4 coordinates, got %d", ErrInvalidBounds, len(coords))
	}
	for i, c := range coords[:4] {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return Bounds{}, fmt.Errorf("%w: coordinate %d is not finite", ErrInvalidBounds, i)
		}
	}
	return Bounds{Left: coords[0], Top: coords[1], Right: coords[2], Bottom: coords[3]}, nil
}

// Coords returns the bounds as a [left, top, right, bottom] array.
func (b Bounds) Coords() []float64 {
	return []float64{b.Left, b.Top, b.Right, b.Bottom}
}

// Width returns |Right-Left|.
func (b Bounds) Width() float64 {
	return math.Abs(b.Right - b.Left)
}

// Height returns |Top-Bottom|.
func (b Bounds) Height() float64 {
	return math.Abs(b.Top - b.Bottom)
}

// Center returns the arithmetic mean of both coordinate pairs.
func (b Bounds) Center() Point2D {
	return Point2D{
		X: (b.Left + b.Right) / 2,
		Y: (b.Top + b.Bottom) / 2,
	}
}

// IsDegenerate reports whether the rectangle has zero width or height.
func (b Bounds) IsDegenerate() bool {
	return b.Width() <= 0 || b.Height() <= 0
}

// IsLandscape reports whether the rectangle is at least as wide as it is tall.
func (b Bounds) IsLandscape() bool {
	return b.Width() >= b.Height()
}

// Translate shifts all edges by dx, dy.
func (b Bounds) Translate(dx, dy float64) Bounds {
	return Bounds{
		Left:   b.Left + dx,
		Top:    b.Top + dy,
		Right:  b.Right + dx,
		Bottom: b.Bottom + dy,
	}
}

// Normalized returns the same rectangle with Left <= Right and Top <= Bottom.
// Exporters use it to work in a min/max frame.
func (b Bounds) Normalized() Bounds {
	return Bounds{
		Left:   math.Min(b.Left, b.Right),
		Top:    math.Min(b.Top, b.Bottom),
		Right:  math.Max(b.Left, b.Right),
		Bottom: math.Max(b.Top, b.Bottom),
	}
}

// Union returns the smallest normalized rectangle containing both b and o.
func (b Bounds) Union(o Bounds) Bounds {
	nb, no := b.Normalized(), o.Normalized()
	return Bounds{
		Left:   math.Min(nb.Left, no.Left),
		Top:    math.Min(nb.Top, no.Top),
		Right:  math.Max(nb.Right, no.Right),
		Bottom: math.Max(nb.Bottom, no.Bottom),
	}
}

// AxisDirection describes which way the vertical axis grows on a canvas.
type AxisDirection int

const (
	AxisDown AxisDirection = iota // y grows downward (screen / PDF page convention)
	AxisUp                        // y grows upward (Illustrator artboard, DXF)
)

func (a AxisDirection) String() string {
	if a == AxisUp {
		return "up"
	}
	return "down"
}

// DetectAxis infers the axis direction from one frame's raw coordinates:
// a top edge numerically above the bottom edge means y grows upward.
func DetectAxis(sample Bounds) AxisDirection {
	if sample.Top > sample.Bottom {
		return AxisUp
	}
	return AxisDown
}

// TopLeft returns the visual top-left corner of b under this axis
// convention, whatever order its edges were given in.
func (a AxisDirection) TopLeft(b Bounds) (left, top float64) {
	left = math.Min(b.Left, b.Right)
	if a == AxisUp {
		return left, math.Max(b.Top, b.Bottom)
	}
	return left, math.Min(b.Top, b.Bottom)
}

// TopLeftRect returns the rectangle of size w x h anchored at its top-left
// corner (left, top) under this axis convention.
func (a AxisDirection) TopLeftRect(left, top, w, h float64) Bounds {
	bottom := top + h
	if a == AxisUp {
		bottom = top - h
	}
	return Bounds{Left: left, Top: top, Right: left + w, Bottom: bottom}
}

// Above reports whether vertical coordinate y1 is visually above y2.
func (a AxisDirection) Above(y1, y2 float64) bool {
	if a == AxisUp {
		return y1 > y2
	}
	return y1 < y2
}
