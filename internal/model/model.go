package model

import (
	"fmt"
	"strings"
)

// Shape is one selectable item on a canvas. Coords is the raw
// [left, top, right, bottom] array the host reports for it; nothing about it
// is trusted until BoundsFromCoords has validated it.
type Shape struct {
	ID     string    `json:"id"`
	Label  string    `json:"label"`
	Coords []float64 `json:"coords"`
}

// NewShape returns a shape for the given bounds.
func NewShape(id, label string, b Bounds) Shape {
	return Shape{ID: id, Label: label, Coords: b.Coords()}
}

// Frame is a validated rectangular region to be filled with an image.
type Frame struct {
	Index  int    `json:"index" yaml:"index"`   // Position in reading order
	ID     string `json:"id" yaml:"id"`         // ID of the source shape
	Label  string `json:"label" yaml:"label"`   // Label of the source shape
	Bounds Bounds `json:"bounds" yaml:"bounds"` // Raw edges as reported by the host
}

// Width returns the frame width.
func (f Frame) Width() float64 { return f.Bounds.Width() }

// Height returns the frame height.
func (f Frame) Height() float64 { return f.Bounds.Height() }

// Center returns the frame center.
func (f Frame) Center() Point2D { return f.Bounds.Center() }

// IsLandscape reports whether the frame is at least as wide as it is tall.
func (f Frame) IsLandscape() bool { return f.Bounds.IsLandscape() }

// ImageAsset references one image file. Width and Height are the natural
// pixel size once known; zero means not yet loaded.
type ImageAsset struct {
	Path   string  `json:"path" yaml:"path"`
	Name   string  `json:"name" yaml:"name"`
	Width  float64 `json:"width,omitempty" yaml:"width,omitempty"`
	Height float64 `json:"height,omitempty" yaml:"height,omitempty"`
}

// CompositeGroup is the artifact produced for one frame: a clipped group
// holding a clip rectangle and the transformed placed image.
type CompositeGroup struct {
	FrameIndex int        `json:"frame_index" yaml:"frame_index"`
	GroupID    string     `json:"group_id" yaml:"group_id"`
	ClipID     string     `json:"clip_id" yaml:"clip_id"`
	ImageID    string     `json:"image_id" yaml:"image_id"`
	Asset      ImageAsset `json:"asset" yaml:"asset"`
	Clip       Bounds     `json:"clip" yaml:"clip"`
	Rotated    bool       `json:"rotated" yaml:"rotated"`
	Scale      float64    `json:"scale" yaml:"scale"`
}

// ScaleMode selects how an image is fitted to its frame.
type ScaleMode string

const (
	ScaleCover   ScaleMode = "cover"   // Fill the frame, crop the overflow
	ScaleContain ScaleMode = "contain" // Fit inside the frame, no cropping
)

// ParseScaleMode converts a user-facing string to a ScaleMode.
func ParseScaleMode(s string) (ScaleMode, error) {
	switch ScaleMode(strings.ToLower(strings.TrimSpace(s))) {
	case ScaleCover:
		return ScaleCover, nil
	case ScaleContain:
		return ScaleContain, nil
	default:
		return "", fmt.Errorf("unknown scale mode %q (want cover or contain)", s)
	}
}

// DefaultRowEpsilon is the vertical-center tolerance for "same row".
const DefaultRowEpsilon = 1.0

// Settings holds the layout configuration for a run.
type Settings struct {
	ScaleMode     ScaleMode `json:"scale_mode" yaml:"scale_mode" toml:"scale_mode"`
	RotateToMatch bool      `json:"rotate_to_match" yaml:"rotate_to_match" toml:"rotate_to_match"`
	RowEpsilon    float64   `json:"row_epsilon" yaml:"row_epsilon" toml:"row_epsilon"`
}

// DefaultSettings returns cover scaling with orientation matching enabled.
func DefaultSettings() Settings {
	return Settings{
		ScaleMode:     ScaleCover,
		RotateToMatch: true,
		RowEpsilon:    DefaultRowEpsilon,
	}
}

// Validate checks the settings for unusable values.
func (s Settings) Validate() error {
	if _, err := ParseScaleMode(string(s.ScaleMode)); err != nil {
		return err
	}
	if s.RowEpsilon <= 0 {
		return fmt.Errorf("row epsilon must be > 0, got %g", s.RowEpsilon)
	}
	return nil
}

// FrameResult records what happened to one frame during a run.
type FrameResult struct {
	FrameIndex     int             `yaml:"frame"`
	FrameID        string          `yaml:"frame_id"`
	FrameLabel     string          `yaml:"frame_label,omitempty"`
	AssetIndex     int             `yaml:"asset_index"`
	Asset          string          `yaml:"asset"`
	Group          *CompositeGroup `yaml:"group,omitempty"`
	RotationFailed bool            `yaml:"rotation_failed,omitempty"`
	Err            error           `yaml:"-"`
}

// OK reports whether the frame was filled.
func (r FrameResult) OK() bool {
	return r.Err == nil && r.Group != nil
}

// FillReport aggregates the outcome of a run.
type FillReport struct {
	Frames  int           `yaml:"frames"`
	Images  int           `yaml:"images"`
	Filled  int           `yaml:"filled"`
	Skipped int           `yaml:"skipped"`
	Results []FrameResult `yaml:"results"`
}

// Add records one frame result and updates the counters.
func (r *FillReport) Add(res FrameResult) {
	r.Results = append(r.Results, res)
	if res.OK() {
		r.Filled++
	} else {
		r.Skipped++
	}
}

// Groups returns the composite groups of all filled frames in frame order.
func (r FillReport) Groups() []CompositeGroup {
	var groups []CompositeGroup
	for _, res := range r.Results {
		if res.OK() {
			groups = append(groups, *res.Group)
		}
	}
	return groups
}

// Summary returns the human-readable message shown at the end of a run.
func (r FillReport) Summary() string {
	msg := fmt.Sprintf("Filled %d of %d frames", r.Filled, r.Frames)
	if r.Images > 0 && r.Images < r.Frames {
		msg += " (images repeated)"
	}
	if r.Skipped > 0 {
		msg += fmt.Sprintf(", %d skipped", r.Skipped)
	}
	return msg + "."
}
