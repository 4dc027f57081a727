// Package export renders filled documents to PDF and raster images and
// produces QR-coded frame labels from fill reports.
package export

import (
	"context"
	"errors"
	"image"
	"math"
	"runtime"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"

	"github.com/piwi3910/framefill/internal/canvas"
	"github.com/piwi3910/framefill/internal/model"
	"github.com/piwi3910/framefill/internal/source"
)

// ErrEmptyDocument is returned when a document has nothing to render.
var ErrEmptyDocument = errors.New("document has no drawable items")

// drawOp is one item to paint, in painting order.
type drawOp struct {
	kind     canvas.Kind
	label    string
	path     string
	rotation float64
	bounds   model.Bounds
	clip     *model.Bounds // intersection of all enclosing clips, nil when unclipped
}

// flatten walks the document depth-first and returns the paths and placed
// images it contains. Clip rectangles are not painted; they narrow the clip
// of the siblings that follow them in a clipped group.
func flatten(doc *canvas.Document) []drawOp {
	var ops []drawOp
	var walk func(items []canvas.Item, clip *model.Bounds)
	walk = func(items []canvas.Item, clip *model.Bounds) {
		for _, it := range items {
			switch it.Kind {
			case canvas.KindGroup:
				inner := clip
				if it.Clipped {
					for _, child := range doc.Children(it.ID) {
						if child.Kind != canvas.KindClip {
							continue
						}
						if b, err := child.Bounds(); err == nil {
							inner = intersectClip(clip, b.Normalized())
						}
						break
					}
				}
				walk(doc.Children(it.ID), inner)
			case canvas.KindPath, canvas.KindPlaced:
				b, err := it.Bounds()
				if err != nil || b.IsDegenerate() {
					continue
				}
				ops = append(ops, drawOp{
					kind:     it.Kind,
					label:    it.Label,
					path:     it.Path,
					rotation: it.Rotation,
					bounds:   b.Normalized(),
					clip:     clip,
				})
			}
		}
	}
	walk(doc.Roots(), nil)
	return ops
}

func intersectClip(outer *model.Bounds, b model.Bounds) *model.Bounds {
	if outer == nil {
		return &b
	}
	r := model.Bounds{
		Left:   math.Max(outer.Left, b.Left),
		Top:    math.Max(outer.Top, b.Top),
		Right:  math.Min(outer.Right, b.Right),
		Bottom: math.Min(outer.Bottom, b.Bottom),
	}
	if r.Right < r.Left {
		r.Right = r.Left
	}
	if r.Bottom < r.Top {
		r.Bottom = r.Top
	}
	return &r
}

// viewport maps normalized canvas bounds onto an output surface whose y axis
// grows downward.
type viewport struct {
	ext        model.Bounds
	axis       model.AxisDirection
	scale      float64
	offX, offY float64
}

// fitViewport scales ext uniformly into a w x h area at (x, y), centered
// horizontally.
func fitViewport(ext model.Bounds, axis model.AxisDirection, x, y, w, h float64) viewport {
	scale := math.Min(w/ext.Width(), h/ext.Height())
	return viewport{
		ext:   ext,
		axis:  axis,
		scale: scale,
		offX:  x + (w-ext.Width()*scale)/2,
		offY:  y,
	}
}

// rect returns the output rectangle for normalized canvas bounds b.
func (v viewport) rect(b model.Bounds) (x, y, w, h float64) {
	x = v.offX + (b.Left-v.ext.Left)*v.scale
	if v.axis == model.AxisUp {
		y = v.offY + (v.ext.Bottom-b.Bottom)*v.scale
	} else {
		y = v.offY + (b.Top-v.ext.Top)*v.scale
	}
	return x, y, b.Width() * v.scale, b.Height() * v.scale
}

// imageSet holds decoded images keyed by path. Failed decodes are kept in
// errs so renderers can draw a placeholder instead.
type imageSet struct {
	images map[string]image.Image
	errs   map[string]error
}

// loadImages decodes every distinct image referenced by ops concurrently.
// Images larger than maxPixels on either side are downscaled; zero keeps the
// original size. Only context cancellation fails the whole load.
func loadImages(ctx context.Context, ops []drawOp, maxPixels int) (imageSet, error) {
	var paths []string
	seen := map[string]bool{}
	for _, op := range ops {
		if op.kind == canvas.KindPlaced && !seen[op.path] {
			seen[op.path] = true
			paths = append(paths, op.path)
		}
	}

	decoded := make([]image.Image, len(paths))
	failures := make([]error, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, p := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			img, err := source.Decode(p)
			if err != nil {
				failures[i] = err
				return nil
			}
			if maxPixels > 0 {
				b := img.Bounds()
				if b.Dx() > maxPixels || b.Dy() > maxPixels {
					img = imaging.Fit(img, maxPixels, maxPixels, imaging.Lanczos)
				}
			}
			decoded[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return imageSet{}, err
	}

	set := imageSet{images: map[string]image.Image{}, errs: map[string]error{}}
	for i, p := range paths {
		if failures[i] != nil {
			set.errs[p] = failures[i]
			continue
		}
		set.images[p] = decoded[i]
	}
	return set, nil
}

// orient applies a counter-clockwise rotation in multiples of 90 degrees.
func orient(img image.Image, degrees float64) image.Image {
	switch int(math.Mod(math.Mod(degrees, 360)+360, 360)) {
	case 90:
		return imaging.Rotate90(img)
	case 180:
		return imaging.Rotate180(img)
	case 270:
		return imaging.Rotate270(img)
	default:
		return img
	}
}
