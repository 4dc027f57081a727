package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/piwi3910/framefill/internal/model"
	"github.com/piwi3910/framefill/internal/source"
)

// AssetIndex returns the image index used for the frame at frameIndex when
// imageCount images are available. Images are reused cyclically.
func AssetIndex(frameIndex, imageCount int) int {
	return frameIndex % imageCount
}

// FillAll fills frames in order, cycling through assets. A failed frame is
// recorded and skipped; the loop continues with the next frame. ctx is
// checked between frames only, so a frame in progress always completes or
// cleans up. Remaining frames are reported as skipped after cancellation.
// Clips use the axis set by SetAxis, never one detected from frames. An
// empty assets slice skips every frame; Run fails earlier with ErrNoImages.
func (e *Engine) FillAll(ctx context.Context, frames []model.Frame, assets []model.ImageAsset) model.FillReport {
	report := model.FillReport{Frames: len(frames), Images: len(assets)}
	if len(frames) == 0 {
		return report
	}

	for i, frame := range frames {
		res := model.FrameResult{FrameIndex: frame.Index, FrameID: frame.ID, FrameLabel: frame.Label}

		if len(assets) == 0 {
			res.Err = model.ErrNoImages
			report.Add(res)
			continue
		}
		res.AssetIndex = AssetIndex(i, len(assets))
		asset := assets[res.AssetIndex]
		res.Asset = asset.Name

		if err := ctx.Err(); err != nil {
			res.Err = err
			report.Add(res)
			continue
		}

		group, rotationFailed, err := e.fillFrame(frame, asset)
		res.RotationFailed = rotationFailed
		if err != nil {
			res.Err = err
			e.logger.Warn("frame skipped", "frame", frame.Index+1, "asset", asset.Name,
				"reason", model.ReasonOf(err), "err", err)
		} else {
			res.Group = &group
			e.logger.Debug("frame filled", "frame", frame.Index+1, "asset", asset.Name,
				"scale", group.Scale, "rotated", group.Rotated)
		}
		report.Add(res)
	}

	if err := ctx.Err(); err != nil {
		e.logger.Warn("run cancelled", "filled", report.Filled, "frames", report.Frames)
	}
	return report
}

// FolderPicker asks the user for the image folder. Implementations return
// model.ErrCancelled (or an empty path) when the user backs out.
type FolderPicker interface {
	PickFolder(ctx context.Context) (string, error)
}

// FolderPickerFunc adapts a function to FolderPicker.
type FolderPickerFunc func(ctx context.Context) (string, error)

// PickFolder calls f.
func (f FolderPickerFunc) PickFolder(ctx context.Context) (string, error) {
	return f(ctx)
}

// StaticFolder is a FolderPicker that always answers with the same folder.
type StaticFolder string

// PickFolder returns the folder, or ErrCancelled when it is empty.
func (s StaticFolder) PickFolder(context.Context) (string, error) {
	if s == "" {
		return "", model.ErrCancelled
	}
	return string(s), nil
}

// Document is a canvas that also exposes its current selection.
type Document interface {
	Canvas
	Selection() []model.Shape
}

// Job describes one complete run.
type Job struct {
	Document Document
	Picker   FolderPicker
	Settings model.Settings
	Logger   *log.Logger

	// ListImages enumerates the chosen folder. Defaults to source.ListImages.
	ListImages func(dir string) ([]model.ImageAsset, error)
}

// Run performs a full fill: read the selection, build and order frames, ask
// for the image folder, list its images and fill every frame. Errors from the
// steps before filling are returned without touching the document.
func Run(ctx context.Context, job Job) (model.FillReport, error) {
	logger := job.Logger
	if logger == nil {
		logger = discardLogger()
	}
	if err := job.Settings.Validate(); err != nil {
		return model.FillReport{}, fmt.Errorf("invalid settings: %w", err)
	}

	frames, err := CollectFrames(job.Document.Selection(), logger)
	if err != nil {
		return model.FillReport{}, err
	}
	axis := FrameAxis(frames)
	frames = SortFrames(frames, axis, job.Settings.RowEpsilon)
	logger.Debug("frames ordered", "count", len(frames), "axis", axis)

	if job.Picker == nil {
		return model.FillReport{}, model.ErrCancelled
	}
	dir, err := job.Picker.PickFolder(ctx)
	if err != nil {
		if errors.Is(err, model.ErrCancelled) {
			return model.FillReport{}, err
		}
		if errors.Is(err, context.Canceled) {
			return model.FillReport{}, fmt.Errorf("%w: %v", model.ErrCancelled, err)
		}
		return model.FillReport{}, fmt.Errorf("choose image folder: %w", err)
	}
	if dir == "" {
		return model.FillReport{}, model.ErrCancelled
	}

	list := job.ListImages
	if list == nil {
		list = source.ListImages
	}
	assets, err := list(dir)
	if err != nil {
		return model.FillReport{}, err
	}
	logger.Debug("images found", "count", len(assets), "folder", dir)

	e := New(job.Document, job.Settings, logger)
	e.SetAxis(axis)
	report := e.FillAll(ctx, frames, assets)
	logger.Info(report.Summary(), "filled", report.Filled, "skipped", report.Skipped)
	return report, nil
}
