// Package widgets holds custom fyne widgets for the framefill desktop app.
package widgets

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/piwi3910/framefill/internal/model"
)

// Frame outline colors by fill status.
var (
	pendingColor = color.NRGBA{R: 120, G: 120, B: 120, A: 255}
	filledColor  = color.NRGBA{R: 76, G: 175, B: 80, A: 255}
	skippedColor = color.NRGBA{R: 244, G: 67, B: 54, A: 255}
	skippedFill  = color.NRGBA{R: 244, G: 67, B: 54, A: 60}
)

// FrameCanvas draws the frames of a document in fill order on top of an
// optional rendering of the filled document.
type FrameCanvas struct {
	widget.BaseWidget
	frames    []model.Frame
	status    map[int]bool // frame index -> filled
	extent    model.Bounds
	axis      model.AxisDirection
	rendered  image.Image
	maxWidth  float32
	maxHeight float32
}

// NewFrameCanvas creates a canvas for frames. extent is the normalized area
// the background image covers.
func NewFrameCanvas(frames []model.Frame, extent model.Bounds, axis model.AxisDirection, maxW, maxH float32) *FrameCanvas {
	fc := &FrameCanvas{
		frames:    frames,
		extent:    extent,
		axis:      axis,
		maxWidth:  maxW,
		maxHeight: maxH,
	}
	fc.ExtendBaseWidget(fc)
	return fc
}

// SetReport colors each frame by its outcome in report.
func (fc *FrameCanvas) SetReport(report *model.FillReport) {
	fc.status = nil
	if report != nil {
		fc.status = make(map[int]bool, len(report.Results))
		for _, res := range report.Results {
			fc.status[res.FrameIndex] = res.OK()
		}
	}
	fc.Refresh()
}

// SetBackground sets the image drawn behind the frames.
func (fc *FrameCanvas) SetBackground(img image.Image) {
	fc.rendered = img
	fc.Refresh()
}

// scale returns the factor that fits the extent into the maximum size.
func (fc *FrameCanvas) scale() float32 {
	w, h := float32(fc.extent.Width()), float32(fc.extent.Height())
	if w <= 0 || h <= 0 {
		return 1
	}
	return float32(math.Min(float64(fc.maxWidth/w), float64(fc.maxHeight/h)))
}

// position maps a frame onto widget coordinates.
func (fc *FrameCanvas) position(b model.Bounds) (fyne.Position, fyne.Size) {
	s := fc.scale()
	n := b.Normalized()
	x := float32(n.Left-fc.extent.Left) * s
	y := float32(n.Top-fc.extent.Top) * s
	if fc.axis == model.AxisUp {
		y = float32(fc.extent.Bottom-n.Bottom) * s
	}
	return fyne.NewPos(x, y), fyne.NewSize(float32(n.Width())*s, float32(n.Height())*s)
}

func (fc *FrameCanvas) CreateRenderer() fyne.WidgetRenderer {
	return newFrameCanvasRenderer(fc)
}

type frameCanvasRenderer struct {
	fc      *FrameCanvas
	objects []fyne.CanvasObject
}

func newFrameCanvasRenderer(fc *FrameCanvas) *frameCanvasRenderer {
	r := &frameCanvasRenderer{fc: fc}
	r.rebuild()
	return r
}

func (r *frameCanvasRenderer) rebuild() {
	r.objects = nil
	fc := r.fc
	s := fc.scale()
	canvasW := float32(fc.extent.Width()) * s
	canvasH := float32(fc.extent.Height()) * s

	bg := canvas.NewRectangle(color.NRGBA{R: 250, G: 250, B: 250, A: 255})
	bg.Resize(fyne.NewSize(canvasW, canvasH))
	r.objects = append(r.objects, bg)

	if fc.rendered != nil {
		img := canvas.NewImageFromImage(fc.rendered)
		img.FillMode = canvas.ImageFillStretch
		img.Resize(fyne.NewSize(canvasW, canvasH))
		r.objects = append(r.objects, img)
	}

	for _, f := range fc.frames {
		pos, size := fc.position(f.Bounds)

		stroke := pendingColor
		filled, done := fc.status[f.Index]
		switch {
		case done && filled:
			stroke = filledColor
		case done:
			stroke = skippedColor
			shade := canvas.NewRectangle(skippedFill)
			shade.Resize(size)
			shade.Move(pos)
			r.objects = append(r.objects, shade)
		}

		border := canvas.NewRectangle(color.Transparent)
		border.StrokeColor = stroke
		border.StrokeWidth = 2
		border.Resize(size)
		border.Move(pos)
		r.objects = append(r.objects, border)

		if size.Width > 16 && size.Height > 14 {
			label := canvas.NewText(fmt.Sprintf("%d", f.Index+1), stroke)
			label.TextSize = 11
			label.TextStyle = fyne.TextStyle{Bold: true}
			label.Move(fyne.NewPos(pos.X+3, pos.Y+2))
			r.objects = append(r.objects, label)
		}
	}
}

func (r *frameCanvasRenderer) Layout(size fyne.Size)        {}
func (r *frameCanvasRenderer) Refresh()                     { r.rebuild(); canvas.Refresh(r.fc) }
func (r *frameCanvasRenderer) Destroy()                     {}
func (r *frameCanvasRenderer) Objects() []fyne.CanvasObject { return r.objects }
func (r *frameCanvasRenderer) MinSize() fyne.Size {
	s := r.fc.scale()
	return fyne.NewSize(float32(r.fc.extent.Width())*s, float32(r.fc.extent.Height())*s)
}

// RenderFrameResults creates a scrollable list of the frames and, when a
// report is given, what happened to each of them.
func RenderFrameResults(frames []model.Frame, report *model.FillReport) fyne.CanvasObject {
	if len(frames) == 0 {
		return widget.NewLabel("No frames yet. Open a document or import frames to begin.")
	}

	results := map[int]model.FrameResult{}
	if report != nil {
		for _, res := range report.Results {
			results[res.FrameIndex] = res
		}
	}

	var items []fyne.CanvasObject
	for _, f := range frames {
		name := f.Label
		if name == "" {
			name = f.ID
		}
		line := fmt.Sprintf("%d. %s  (%.0f x %.0f)", f.Index+1, name, f.Width(), f.Height())
		label := widget.NewLabel(line)

		if res, ok := results[f.Index]; ok {
			switch {
			case res.OK() && res.RotationFailed:
				label.SetText(line + "  ->  " + res.Asset + "  (rotation failed)")
				label.Importance = widget.WarningImportance
			case res.OK():
				label.SetText(line + "  ->  " + res.Asset)
				label.Importance = widget.SuccessImportance
			default:
				reason := string(model.ReasonOf(res.Err))
				if reason == "" && res.Err != nil {
					reason = res.Err.Error()
				}
				label.SetText(line + "  skipped: " + reason)
				label.Importance = widget.DangerImportance
			}
		}
		items = append(items, label)
	}

	if report != nil {
		summary := widget.NewLabel(report.Summary())
		summary.TextStyle = fyne.TextStyle{Bold: true}
		items = append(items, widget.NewSeparator(), summary)
	}

	return container.NewVScroll(container.NewVBox(items...))
}
