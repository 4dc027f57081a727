package export

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"

	"github.com/piwi3910/framefill/internal/canvas"
)

// RasterOptions configures Render and ExportImage.
type RasterOptions struct {
	Width      int         // Output width in pixels; height follows the document aspect
	Background color.Color // Defaults to white
	DrawFrames bool        // Outline path items
}

// DefaultRasterOptions renders 2000 pixels wide on white with frame outlines.
func DefaultRasterOptions() RasterOptions {
	return RasterOptions{Width: 2000, Background: color.White, DrawFrames: true}
}

var (
	frameColor   = color.NRGBA{R: 150, G: 150, B: 150, A: 255}
	missingColor = color.NRGBA{R: 255, G: 200, B: 200, A: 255}
)

// Render paints the document into a new image. Placed images are scaled with
// Catmull-Rom and cut to their group's clip rectangle.
func Render(ctx context.Context, doc *canvas.Document, opts RasterOptions) (*image.NRGBA, error) {
	ext, ok := doc.Extent()
	if !ok {
		return nil, ErrEmptyDocument
	}
	if opts.Width <= 0 {
		return nil, fmt.Errorf("raster width must be > 0, got %d", opts.Width)
	}
	if opts.Background == nil {
		opts.Background = color.White
	}

	height := int(math.Max(1, math.Round(float64(opts.Width)*ext.Height()/ext.Width())))
	dst := imaging.New(opts.Width, height, opts.Background)
	vp := fitViewport(ext, doc.Axis(), 0, 0, float64(opts.Width), float64(height))

	ops := flatten(doc)
	images, err := loadImages(ctx, ops, 0)
	if err != nil {
		return nil, err
	}

	for _, op := range ops {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		target := dst
		if op.clip != nil {
			sub, ok := dst.SubImage(pixelRect(vp.rect(*op.clip))).(*image.NRGBA)
			if !ok || sub.Rect.Empty() {
				continue
			}
			target = sub
		}
		r := pixelRect(vp.rect(op.bounds))

		switch op.kind {
		case canvas.KindPath:
			if opts.DrawFrames {
				strokeRect(target, r, frameColor)
			}
		case canvas.KindPlaced:
			img, ok := images.images[op.path]
			if !ok {
				draw.Draw(target, r, image.NewUniform(missingColor), image.Point{}, draw.Over)
				continue
			}
			src := orient(img, op.rotation)
			draw.CatmullRom.Scale(target, r, src, src.Bounds(), draw.Over, nil)
		}
	}
	return dst, nil
}

// ExportImage renders the document and saves it. The format follows the
// file extension (.png, .jpg, .tif, .bmp, .gif).
func ExportImage(ctx context.Context, path string, doc *canvas.Document, opts RasterOptions) error {
	img, err := Render(ctx, doc, opts)
	if err != nil {
		return err
	}
	if err := imaging.Save(img, path, imaging.JPEGQuality(92)); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

func pixelRect(x, y, w, h float64) image.Rectangle {
	return image.Rect(
		int(math.Round(x)), int(math.Round(y)),
		int(math.Round(x+w)), int(math.Round(y+h)),
	)
}

// strokeRect draws a one pixel outline of r, clipped to dst.
func strokeRect(dst *image.NRGBA, r image.Rectangle, c color.Color) {
	b := dst.Bounds()
	for x := r.Min.X; x < r.Max.X; x++ {
		setIn(dst, b, x, r.Min.Y, c)
		setIn(dst, b, x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		setIn(dst, b, r.Min.X, y, c)
		setIn(dst, b, r.Max.X-1, y, c)
	}
}

func setIn(dst *image.NRGBA, b image.Rectangle, x, y int, c color.Color) {
	if (image.Point{X: x, Y: y}).In(b) {
		dst.Set(x, y, c)
	}
}
