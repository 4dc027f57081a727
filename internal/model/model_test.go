package model

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestParseScaleMode(t *testing.T) {
	for _, s := range []string{"cover", "COVER", " Cover "} {
		mode, err := ParseScaleMode(s)
		if err != nil || mode != ScaleCover {
			t.Errorf("ParseScaleMode(%q) = %q, %v; want cover", s, mode, err)
		}
	}
	if mode, err := ParseScaleMode("contain"); err != nil || mode != ScaleContain {
		t.Errorf("ParseScaleMode(contain) = %q, %v", mode, err)
	}
	if _, err := ParseScaleMode("stretch"); err == nil {
		t.Error("expected error for unknown scale mode")
	}
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	if s.ScaleMode != ScaleCover {
		t.Errorf("expected cover, got %s", s.ScaleMode)
	}
	if !s.RotateToMatch {
		t.Error("expected RotateToMatch to default to true")
	}
	if s.RowEpsilon != 1.0 {
		t.Errorf("expected row epsilon 1.0, got %f", s.RowEpsilon)
	}
	if err := s.Validate(); err != nil {
		t.Errorf("default settings should validate: %v", err)
	}
}

func TestSettingsValidate(t *testing.T) {
	s := DefaultSettings()
	s.RowEpsilon = 0
	if err := s.Validate(); err == nil {
		t.Error("expected error for zero epsilon")
	}

	s = DefaultSettings()
	s.ScaleMode = "fill"
	if err := s.Validate(); err == nil {
		t.Error("expected error for unknown scale mode")
	}
}

func TestFrameDimensions(t *testing.T) {
	f := Frame{Bounds: Bounds{Left: 60, Top: 100, Right: 110, Bottom: 50}}
	if f.Width() != 50 || f.Height() != 50 {
		t.Errorf("expected 50x50, got %fx%f", f.Width(), f.Height())
	}
	if !f.IsLandscape() {
		t.Error("a square frame counts as landscape")
	}
	if c := f.Center(); c.X != 85 || c.Y != 75 {
		t.Errorf("unexpected center %+v", c)
	}
}

func TestFillReportCounters(t *testing.T) {
	var r FillReport
	r.Frames = 3
	r.Images = 2
	r.Add(FrameResult{FrameIndex: 0, Group: &CompositeGroup{GroupID: "g1"}})
	r.Add(FrameResult{FrameIndex: 1, Err: &FrameFillError{FrameIndex: 1, Reason: ReasonUnreadableImage}})
	r.Add(FrameResult{FrameIndex: 2, Group: &CompositeGroup{GroupID: "g3"}})

	if r.Filled != 2 || r.Skipped != 1 {
		t.Fatalf("expected 2 filled / 1 skipped, got %d / %d", r.Filled, r.Skipped)
	}
	groups := r.Groups()
	if len(groups) != 2 || groups[0].GroupID != "g1" || groups[1].GroupID != "g3" {
		t.Errorf("unexpected groups %+v", groups)
	}

	summary := r.Summary()
	for _, want := range []string{"Filled 2 of 3 frames", "images repeated", "1 skipped"} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary %q missing %q", summary, want)
		}
	}
}

func TestFrameFillError(t *testing.T) {
	cause := errors.New("decode failed")
	err := fmt.Errorf("wrapped: %w", &FrameFillError{FrameIndex: 2, Asset: "c.png", Reason: ReasonPlacementFailed, Err: cause})

	if !errors.Is(err, cause) {
		t.Error("expected FrameFillError to unwrap to its cause")
	}
	if ReasonOf(err) != ReasonPlacementFailed {
		t.Errorf("expected placementFailed, got %q", ReasonOf(err))
	}
	if ReasonOf(cause) != "" {
		t.Error("plain errors carry no reason")
	}
	if !strings.Contains(err.Error(), "frame 3 (c.png)") {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestIsFatal(t *testing.T) {
	if !IsFatal(fmt.Errorf("run: %w", ErrNoFrames)) {
		t.Error("ErrNoFrames should be fatal")
	}
	if !IsFatal(ErrCancelled) {
		t.Error("ErrCancelled should be fatal")
	}
	if IsFatal(&FrameFillError{Reason: ReasonUnreadableImage}) {
		t.Error("frame errors are not fatal")
	}
}
