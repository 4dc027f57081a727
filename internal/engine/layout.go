// Package engine fits image files into rectangular frames on a canvas: it
// collects and orders frames, places, rotates, scales and centers one image
// per frame, and clips it to the frame outline.
package engine

import (
	"errors"
	"fmt"
	"math"

	"github.com/charmbracelet/log"

	"github.com/piwi3910/framefill/internal/model"
)

// Canvas is the set of document operations the engine needs. IDs are opaque
// item handles issued by the canvas.
type Canvas interface {
	PlaceImage(path string) (string, error)
	ItemSize(id string) (w, h float64, err error)
	Embed(id string) error
	Rotate(id string, degrees float64) error
	Resize(id string, w, h float64) error
	ItemBounds(id string) (model.Bounds, error)
	Translate(id string, dx, dy float64) error
	AddGroup() (string, error)
	AddClipRect(group string, b model.Bounds) (string, error)
	MoveInto(id, group string) error
	SetClipped(group string, clipped bool) error
	RemoveItem(id string) error
}

// Engine fills frames on one canvas with the given settings.
type Engine struct {
	canvas   Canvas
	settings model.Settings
	axis     model.AxisDirection
	logger   *log.Logger
}

// New creates an engine. A nil logger discards all output.
func New(c Canvas, settings model.Settings, logger *log.Logger) *Engine {
	if logger == nil {
		logger = discardLogger()
	}
	return &Engine{
		canvas:   c,
		settings: settings,
		logger:   logger,
	}
}

// SetAxis fixes the vertical axis convention used to anchor clip rectangles.
// Run sets it from FrameAxis; the default is AxisDown.
func (e *Engine) SetAxis(axis model.AxisDirection) {
	e.axis = axis
}

// Axis returns the axis convention in use.
func (e *Engine) Axis() model.AxisDirection {
	return e.axis
}

// FitScale returns the uniform factor that fits an iw x ih image to a
// fw x fh frame. Cover guarantees both dimensions reach the frame; contain
// keeps both inside it.
func FitScale(mode model.ScaleMode, fw, fh, iw, ih float64) float64 {
	sx, sy := fw/iw, fh/ih
	if mode == model.ScaleContain {
		return math.Min(sx, sy)
	}
	return math.Max(sx, sy)
}

// FillFrame places asset into frame as a clipped group and returns the
// resulting composite. On failure nothing it created is left on the canvas
// and the error is a *model.FrameFillError.
func (e *Engine) FillFrame(frame model.Frame, asset model.ImageAsset) (model.CompositeGroup, error) {
	group, _, err := e.fillFrame(frame, asset)
	return group, err
}

// fillFrame additionally reports whether a requested rotation failed.
func (e *Engine) fillFrame(frame model.Frame, asset model.ImageAsset) (model.CompositeGroup, bool, error) {
	fail := func(reason model.FillReason, err error) error {
		return &model.FrameFillError{FrameIndex: frame.Index, Asset: asset.Name, Reason: reason, Err: err}
	}

	placed, err := e.canvas.PlaceImage(asset.Path)
	if err != nil {
		return model.CompositeGroup{}, false, fail(model.ReasonUnreadableImage, err)
	}

	iw, ih, err := e.loadedSize(placed)
	if err != nil {
		if rmErr := e.canvas.RemoveItem(placed); rmErr != nil {
			e.logger.Warn("cleanup failed", "frame", frame.Index+1, "item", placed, "err", rmErr)
			err = errors.Join(err, fail(model.ReasonCleanupFailed, rmErr))
		}
		return model.CompositeGroup{}, false, fail(model.ReasonUnreadableImage, err)
	}
	asset.Width, asset.Height = iw, ih

	result := model.CompositeGroup{
		FrameIndex: frame.Index,
		ImageID:    placed,
		Asset:      asset,
	}
	var groupID string
	abort := func(err error) (model.CompositeGroup, bool, error) {
		if cleanupErr := e.cleanup(frame, placed, groupID); cleanupErr != nil {
			err = errors.Join(err, cleanupErr)
		}
		return model.CompositeGroup{}, false, fail(model.ReasonPlacementFailed, err)
	}

	rotationFailed := false
	if e.settings.RotateToMatch && (iw >= ih) != frame.IsLandscape() {
		if err := e.canvas.Rotate(placed, 90); err != nil {
			rotationFailed = true
			e.logger.Warn("rotation failed, keeping original orientation",
				"frame", frame.Index+1, "asset", asset.Name, "reason", model.ReasonRotationFailed, "err", err)
		} else {
			result.Rotated = true
		}
		if iw, ih, err = e.canvas.ItemSize(placed); err != nil {
			return abort(fmt.Errorf("read size after rotation: %w", err))
		}
		if iw <= 0 || ih <= 0 {
			return abort(fmt.Errorf("image size %gx%g after rotation", iw, ih))
		}
	}

	fw, fh := frame.Width(), frame.Height()
	scale := FitScale(e.settings.ScaleMode, fw, fh, iw, ih)
	result.Scale = scale
	if err := e.canvas.Resize(placed, iw*scale, ih*scale); err != nil {
		return abort(fmt.Errorf("resize: %w", err))
	}

	pb, err := e.canvas.ItemBounds(placed)
	if err != nil {
		return abort(fmt.Errorf("read bounds: %w", err))
	}
	pc, fc := pb.Center(), frame.Center()
	if err := e.canvas.Translate(placed, fc.X-pc.X, fc.Y-pc.Y); err != nil {
		return abort(fmt.Errorf("center: %w", err))
	}

	if groupID, err = e.canvas.AddGroup(); err != nil {
		return abort(fmt.Errorf("create group: %w", err))
	}
	left, top := e.axis.TopLeft(frame.Bounds)
	clip := e.axis.TopLeftRect(left, top, fw, fh)
	clipID, err := e.canvas.AddClipRect(groupID, clip)
	if err != nil {
		return abort(fmt.Errorf("create clip: %w", err))
	}
	if err := e.canvas.MoveInto(placed, groupID); err != nil {
		return abort(fmt.Errorf("move into group: %w", err))
	}
	if err := e.canvas.SetClipped(groupID, true); err != nil {
		return abort(fmt.Errorf("enable clipping: %w", err))
	}

	result.GroupID = groupID
	result.ClipID = clipID
	result.Clip = clip
	return result, rotationFailed, nil
}

// loadedSize reads the placed item's size, forcing one full load when the
// host reports zero.
func (e *Engine) loadedSize(id string) (float64, float64, error) {
	w, h, err := e.canvas.ItemSize(id)
	if err == nil && w > 0 && h > 0 {
		return w, h, nil
	}

	if embedErr := e.canvas.Embed(id); embedErr != nil {
		e.logger.Debug("embed failed", "item", id, "err", embedErr)
	}
	w, h, err = e.canvas.ItemSize(id)
	if err != nil {
		return 0, 0, err
	}
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("image has no readable dimensions (%gx%g)", w, h)
	}
	return w, h, nil
}

// cleanup removes the placed image and any group created for it. Removal
// failures are logged and returned as cleanupFailed.
func (e *Engine) cleanup(frame model.Frame, placed, group string) error {
	var errs []error
	for _, id := range []string{placed, group} {
		if id == "" {
			continue
		}
		if err := e.canvas.RemoveItem(id); err != nil {
			e.logger.Warn("cleanup failed", "frame", frame.Index+1, "item", id, "err", err)
			errs = append(errs, &model.FrameFillError{
				FrameIndex: frame.Index,
				Reason:     model.ReasonCleanupFailed,
				Err:        err,
			})
		}
	}
	return errors.Join(errs...)
}
