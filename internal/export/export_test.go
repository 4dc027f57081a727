package export

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/piwi3910/framefill/internal/canvas"
	"github.com/piwi3910/framefill/internal/engine"
	"github.com/piwi3910/framefill/internal/model"
	"github.com/piwi3910/framefill/internal/source"
)

var (
	red  = color.NRGBA{R: 255, A: 255}
	blue = color.NRGBA{B: 255, A: 255}
)

func writePNG(t *testing.T, dir, name string, w, h int, c color.Color) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

// filledDocument returns a y-up document with two frames on one row,
// filled with a red and a blue square image.
//
//	F1: x 0..40,  y 0..20  (wide)
//	F2: x 50..90, y -10..30 (square)
func filledDocument(t *testing.T) (*canvas.Document, model.FillReport) {
	t.Helper()
	dir := t.TempDir()
	writePNG(t, dir, "a_red.png", 10, 10, red)
	writePNG(t, dir, "b_blue.png", 10, 10, blue)

	doc := canvas.New("test", model.AxisUp)
	doc.AddShapes([]model.Shape{
		{ID: "F1", Label: "First", Coords: []float64{0, 20, 40, 0}},
		{ID: "F2", Label: "Second", Coords: []float64{50, 30, 90, -10}},
	})

	frames, err := engine.CollectFrames(doc.Selection(), nil)
	if err != nil {
		t.Fatal(err)
	}
	axis := engine.FrameAxis(frames)
	frames = engine.SortFrames(frames, axis, model.DefaultRowEpsilon)
	assets, err := source.ListImages(dir)
	if err != nil {
		t.Fatal(err)
	}
	e := engine.New(doc, model.DefaultSettings(), nil)
	e.SetAxis(axis)
	report := e.FillAll(context.Background(), frames, assets)
	if report.Filled != 2 {
		t.Fatalf("expected 2 filled frames, got %s", report.Summary())
	}
	return doc, report
}

func isColor(c color.Color, want color.NRGBA) bool {
	got := color.NRGBAModel.Convert(c).(color.NRGBA)
	near := func(a, b uint8) bool {
		d := int(a) - int(b)
		return d > -8 && d < 8
	}
	return near(got.R, want.R) && near(got.G, want.G) && near(got.B, want.B)
}
