package export

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/go-pdf/fpdf"

	"github.com/piwi3910/framefill/internal/canvas"
	"github.com/piwi3910/framefill/internal/model"
)

// Page layout constants (A4 in mm).
const (
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	headerHeight = 12.0
	drawAreaTop  = marginTop + headerHeight + 5.0

	// pdfMaxPixels caps embedded image resolution.
	pdfMaxPixels = 2400
)

// ExportPDF renders the document on one page, with every clipped group
// painted through a real PDF clip path. When report is not nil a summary of
// the run follows on its own page.
func ExportPDF(ctx context.Context, path string, doc *canvas.Document, report *model.FillReport, settings model.Settings) error {
	ext, ok := doc.Extent()
	if !ok {
		return ErrEmptyDocument
	}
	ops := flatten(doc)
	images, err := loadImages(ctx, ops, pdfMaxPixels)
	if err != nil {
		return err
	}

	orientation := "P"
	if ext.Width() >= ext.Height() {
		orientation = "L"
	}
	pdf := fpdf.New(orientation, "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)

	pdf.AddPage()
	if err := renderDocumentPage(pdf, doc.Name(), doc.Axis(), ext, ops, images); err != nil {
		return err
	}

	if report != nil {
		pdf.AddPage()
		renderSummaryPage(pdf, *report, settings)
	}

	return pdf.OutputFileAndClose(path)
}

// renderDocumentPage draws every path and placed image on the current page.
func renderDocumentPage(pdf *fpdf.Fpdf, name string, axis model.AxisDirection, ext model.Bounds, ops []drawOp, images imageSet) error {
	pageWidth, pageHeight := pdf.GetPageSize()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(marginLeft, marginTop)
	title := name
	if title == "" {
		title = "Untitled"
	}
	title = fmt.Sprintf("%s (%.0f x %.0f)", title, ext.Width(), ext.Height())
	pdf.CellFormat(pageWidth-marginLeft-marginRight, headerHeight, title, "", 0, "L", false, 0, "")

	drawWidth := pageWidth - marginLeft - marginRight
	drawHeight := pageHeight - drawAreaTop - marginBottom
	vp := fitViewport(ext, axis, marginLeft, drawAreaTop, drawWidth, drawHeight)

	registered := map[string]string{}
	for _, op := range ops {
		x, y, w, h := vp.rect(op.bounds)

		if op.clip != nil {
			cx, cy, cw, ch := vp.rect(*op.clip)
			pdf.ClipRect(cx, cy, cw, ch, false)
		}

		switch op.kind {
		case canvas.KindPath:
			drawFrameOutline(pdf, x, y, w, h, op.label)
		case canvas.KindPlaced:
			img, ok := images.images[op.path]
			if !ok {
				drawMissingImage(pdf, x, y, w, h, filepath.Base(op.path))
				break
			}
			key := fmt.Sprintf("%s@%g", op.path, op.rotation)
			imgName, done := registered[key]
			if !done {
				imgName = fmt.Sprintf("img%d", len(registered))
				var buf bytes.Buffer
				if err := imaging.Encode(&buf, orient(img, op.rotation), imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
					return fmt.Errorf("failed to encode %s: %w", filepath.Base(op.path), err)
				}
				pdf.RegisterImageOptionsReader(imgName, fpdf.ImageOptions{ImageType: "JPG"}, &buf)
				registered[key] = imgName
			}
			pdf.ImageOptions(imgName, x, y, w, h, false, fpdf.ImageOptions{ImageType: "JPG"}, 0, "")
		}

		if op.clip != nil {
			pdf.ClipEnd()
		}
	}

	return pdf.Error()
}

// drawFrameOutline draws a dashed frame rectangle with its label.
func drawFrameOutline(pdf *fpdf.Fpdf, x, y, w, h float64, label string) {
	pdf.SetDrawColor(150, 150, 150)
	pdf.SetLineWidth(0.2)
	pdf.SetDashPattern([]float64{1.5, 1}, 0)
	pdf.Rect(x, y, w, h, "D")
	pdf.SetDashPattern([]float64{}, 0)

	if label != "" && w > 15 && h > 8 {
		pdf.SetFont("Helvetica", "", labelFontSize(w, h))
		pdf.SetTextColor(120, 120, 120)
		if labelW := pdf.GetStringWidth(label); labelW < w-2 {
			pdf.SetXY(x+1, y+1)
			pdf.CellFormat(labelW, 4, label, "", 0, "L", false, 0, "")
		}
		pdf.SetTextColor(0, 0, 0)
	}
}

// drawMissingImage marks an image that could not be decoded.
func drawMissingImage(pdf *fpdf.Fpdf, x, y, w, h float64, name string) {
	pdf.SetFillColor(235, 235, 235)
	pdf.SetDrawColor(200, 0, 0)
	pdf.SetLineWidth(0.3)
	pdf.Rect(x, y, w, h, "FD")
	drawHatchPattern(pdf, x, y, w, h)

	if w > 20 && h > 8 {
		pdf.SetFont("Helvetica", "B", 6)
		pdf.SetTextColor(180, 0, 0)
		labelW := pdf.GetStringWidth(name)
		if labelW < w-2 {
			pdf.SetXY(x+(w-labelW)/2, y+h/2-2)
			pdf.CellFormat(labelW, 4, name, "", 0, "C", false, 0, "")
		}
	}
	pdf.SetTextColor(0, 0, 0)
}

// drawHatchPattern draws diagonal lines inside a rectangle.
func drawHatchPattern(pdf *fpdf.Fpdf, x, y, w, h float64) {
	pdf.SetDrawColor(200, 0, 0)
	pdf.SetLineWidth(0.15)

	spacing := 4.0
	maxDist := w + h

	for d := spacing; d < maxDist; d += spacing {
		x1 := x + math.Max(0, d-h)
		y1 := y + math.Min(h, d)
		x2 := x + math.Min(w, d)
		y2 := y + math.Max(0, d-w)

		pdf.Line(x1, y1, x2, y2)
	}
}

// renderSummaryPage draws the run statistics, the settings used and one row
// per frame. The frame table continues on new pages when needed.
func renderSummaryPage(pdf *fpdf.Fpdf, report model.FillReport, settings model.Settings) {
	pageWidth, pageHeight := pdf.GetPageSize()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 10, "Fill Summary", "", 0, "L", false, 0, "")

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.5)
	pdf.Line(marginLeft, marginTop+12, pageWidth-marginRight, marginTop+12)

	y := marginTop + 18

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 6, report.Summary(), "", 0, "L", false, 0, "")
	y += 10

	rotate := "no"
	if settings.RotateToMatch {
		rotate = "yes"
	}
	summaryItems := []struct {
		label string
		value string
	}{
		{"Frames", fmt.Sprintf("%d", report.Frames)},
		{"Images", fmt.Sprintf("%d", report.Images)},
		{"Filled", fmt.Sprintf("%d", report.Filled)},
		{"Skipped", fmt.Sprintf("%d", report.Skipped)},
		{"Scale Mode", string(settings.ScaleMode)},
		{"Rotate To Match", rotate},
		{"Row Tolerance", fmt.Sprintf("%g", settings.RowEpsilon)},
	}

	for _, item := range summaryItems {
		pdf.SetXY(marginLeft+5, y)
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(50, 6, item.label+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(40, 6, item.value, "", 0, "L", false, 0, "")
		y += 7
	}
	y += 5

	colWidths := []float64{15, 35, 60, 25, 50}
	headers := []string{"Frame", "ID", "Image", "Status", "Note"}
	drawHeader := func() {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		xPos := marginLeft
		for i, header := range headers {
			pdf.SetXY(xPos, y)
			pdf.CellFormat(colWidths[i], 6, header, "1", 0, "C", true, 0, "")
			xPos += colWidths[i]
		}
		y += 6
		pdf.SetFont("Helvetica", "", 9)
	}
	drawHeader()

	for i, res := range report.Results {
		if y+6 > pageHeight-marginBottom-6 {
			pdf.AddPage()
			y = marginTop
			drawHeader()
		}

		status, note := "filled", ""
		if res.OK() {
			if res.Group.Rotated {
				note = "rotated"
			}
			if res.RotationFailed {
				note = "rotation failed"
			}
		} else {
			status = "skipped"
			if reason := model.ReasonOf(res.Err); reason != "" {
				note = string(reason)
			} else if res.Err != nil {
				note = res.Err.Error()
			}
		}
		rowData := []string{
			fmt.Sprintf("%d", res.FrameIndex+1),
			res.FrameID,
			res.Asset,
			status,
			note,
		}

		if i%2 == 0 {
			pdf.SetFillColor(245, 245, 245)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}

		xPos := marginLeft
		for j, cell := range rowData {
			pdf.SetXY(xPos, y)
			pdf.CellFormat(colWidths[j], 6, fitText(pdf, cell, colWidths[j]-2), "1", 0, "C", true, 0, "")
			xPos += colWidths[j]
		}
		y += 6
	}

	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.SetXY(marginLeft, pageHeight-marginBottom)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 4, "Generated by framefill", "", 0, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

// fitText shortens s with an ellipsis until it fits in width.
func fitText(pdf *fpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	for len(s) > 0 && pdf.GetStringWidth(s+"...") > width {
		s = s[:len(s)-1]
	}
	return s + "..."
}

// labelFontSize returns an appropriate font size based on the rectangle dimensions.
func labelFontSize(w, h float64) float64 {
	minDim := math.Min(w, h)
	switch {
	case minDim > 40:
		return 8
	case minDim > 20:
		return 7
	default:
		return 6
	}
}
