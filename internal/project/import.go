package project

import (
	"path/filepath"
	"strings"

	"github.com/piwi3910/framefill/internal/canvas"
	"github.com/piwi3910/framefill/internal/importer"
	"github.com/piwi3910/framefill/internal/model"
)

// ImportDocument builds a new document from a CSV, Excel or DXF file with
// every imported shape selected. The document takes its axis from the first
// usable shape and its name from the file. The document is nil when nothing
// could be imported; the result carries the row errors and warnings either
// way.
func ImportDocument(path string, opts ...canvas.Option) (*canvas.Document, importer.ImportResult) {
	result := importer.ImportFile(path)
	if len(result.Shapes) == 0 {
		return nil, result
	}

	axis := model.AxisDown
	for _, s := range result.Shapes {
		if b, err := model.BoundsFromCoords(s.Coords); err == nil && !b.IsDegenerate() {
			axis = model.DetectAxis(b)
			break
		}
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	doc := canvas.New(name, axis, opts...)
	doc.AddShapes(result.Shapes)
	return doc, result
}

// IsDocumentFile reports whether path names a saved document rather than a
// frame table or drawing to import.
func IsDocumentFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}
