// Package importer reads frame rectangles from CSV, Excel and DXF files.
// Tabular sources support automatic delimiter detection, flexible column
// mapping and case-insensitive header recognition.
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/framefill/internal/model"
)

// ImportResult holds the results of an import operation.
type ImportResult struct {
	Shapes   []model.Shape
	Errors   []string
	Warnings []string
}

// Layout tells how a table describes rectangles.
type Layout int

const (
	LayoutEdges Layout = iota // left, top, right, bottom
	LayoutBox                 // x, y, width, height with y growing downward
)

// ColumnMapping maps semantic column roles to their indices in the data.
// Unused roles are -1.
type ColumnMapping struct {
	Layout Layout
	Label  int
	Left   int
	Top    int
	Right  int
	Bottom int
	X      int
	Y      int
	Width  int
	Height int
}

// headerAliases maps canonical column names to their accepted aliases (all lowercase).
var headerAliases = map[string][]string{
	"label":  {"label", "name", "id", "frame", "description", "desc"},
	"left":   {"left", "x1", "l"},
	"top":    {"top", "y1", "t"},
	"right":  {"right", "x2", "r"},
	"bottom": {"bottom", "y2", "b"},
	"x":      {"x"},
	"y":      {"y"},
	"width":  {"width", "w"},
	"height": {"height", "h"},
}

// DetectCSVDelimiter reads the file content and determines the most likely CSV delimiter.
// It tries comma, semicolon, tab, and pipe. The delimiter that produces the most
// consistent (non-one) column count across lines wins.
func DetectCSVDelimiter(data []byte) rune {
	candidates := []rune{',', ';', '\t', '|'}
	bestDelimiter := ','
	bestScore := 0

	for _, delim := range candidates {
		reader := csv.NewReader(bytes.NewReader(data))
		reader.Comma = delim
		reader.LazyQuotes = true
		reader.FieldsPerRecord = -1

		records, err := reader.ReadAll()
		if err != nil || len(records) < 1 {
			continue
		}

		firstCols := len(records[0])
		if firstCols < 2 {
			continue
		}

		score := 0
		for _, row := range records {
			if len(row) == firstCols {
				score++
			}
		}

		weighted := score*10 + firstCols
		if weighted > bestScore {
			bestScore = weighted
			bestDelimiter = delim
		}
	}

	return bestDelimiter
}

func emptyMapping() ColumnMapping {
	return ColumnMapping{Label: -1, Left: -1, Top: -1, Right: -1, Bottom: -1, X: -1, Y: -1, Width: -1, Height: -1}
}

// DetectColumns examines a header row and returns a ColumnMapping. Matching
// is case-insensitive against known aliases for each role. When no header is
// recognized it returns the positional mapping label, left, top, right,
// bottom and false.
func DetectColumns(row []string) (ColumnMapping, bool) {
	mapping := emptyMapping()
	slots := map[string]*int{
		"label": &mapping.Label, "left": &mapping.Left, "top": &mapping.Top,
		"right": &mapping.Right, "bottom": &mapping.Bottom, "x": &mapping.X,
		"y": &mapping.Y, "width": &mapping.Width, "height": &mapping.Height,
	}

	isHeader := false
	for i, cell := range row {
		normalized := strings.ToLower(strings.TrimSpace(cell))
		for role, aliases := range headerAliases {
			for _, alias := range aliases {
				if normalized == alias && *slots[role] == -1 {
					*slots[role] = i
					isHeader = true
				}
			}
		}
	}

	if !isHeader {
		return ColumnMapping{Layout: LayoutEdges, Label: 0, Left: 1, Top: 2, Right: 3, Bottom: 4,
			X: -1, Y: -1, Width: -1, Height: -1}, false
	}

	if mapping.Left == -1 && mapping.Right == -1 && mapping.X != -1 {
		mapping.Layout = LayoutBox
	}
	return mapping, true
}

// missingColumns lists the required roles a header mapping lacks.
func (m ColumnMapping) missingColumns() []string {
	var required map[string]int
	if m.Layout == LayoutBox {
		required = map[string]int{"X": m.X, "Y": m.Y, "Width": m.Width, "Height": m.Height}
	} else {
		required = map[string]int{"Left": m.Left, "Top": m.Top, "Right": m.Right, "Bottom": m.Bottom}
	}
	var missing []string
	for _, name := range []string{"Left", "Top", "Right", "Bottom", "X", "Y", "Width", "Height"} {
		if idx, ok := required[name]; ok && idx == -1 {
			missing = append(missing, name)
		}
	}
	return missing
}

// getCell safely retrieves a cell value from a row by column index.
// Returns empty string if the index is out of range or negative.
func getCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func parseNumber(row []string, idx int, name, rowLabel string) (float64, string) {
	s := getCell(row, idx)
	if s == "" {
		return 0, fmt.Sprintf("%s: Missing %s value", rowLabel, name)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Sprintf("%s: Invalid %s '%s'", rowLabel, name, s)
	}
	return v, ""
}

// parseRow extracts a Shape from a row using the given column mapping.
// Returns the shape and any error message.
func parseRow(row []string, mapping ColumnMapping, rowLabel string, shapeCount int) (model.Shape, string) {
	label := getCell(row, mapping.Label)
	if label == "" {
		label = fmt.Sprintf("Frame %d", shapeCount+1)
	}

	var b model.Bounds
	if mapping.Layout == LayoutBox {
		var vals [4]float64
		for i, col := range []struct {
			idx  int
			name string
		}{{mapping.X, "x"}, {mapping.Y, "y"}, {mapping.Width, "width"}, {mapping.Height, "height"}} {
			v, msg := parseNumber(row, col.idx, col.name, rowLabel)
			if msg != "" {
				return model.Shape{}, msg
			}
			vals[i] = v
		}
		if vals[2] <= 0 || vals[3] <= 0 {
			return model.Shape{}, fmt.Sprintf("%s: Width and height must be positive", rowLabel)
		}
		b = model.AxisDown.TopLeftRect(vals[0], vals[1], vals[2], vals[3])
	} else {
		var vals [4]float64
		for i, col := range []struct {
			idx  int
			name string
		}{{mapping.Left, "left"}, {mapping.Top, "top"}, {mapping.Right, "right"}, {mapping.Bottom, "bottom"}} {
			v, msg := parseNumber(row, col.idx, col.name, rowLabel)
			if msg != "" {
				return model.Shape{}, msg
			}
			vals[i] = v
		}
		b = model.Bounds{Left: vals[0], Top: vals[1], Right: vals[2], Bottom: vals[3]}
		if b.IsDegenerate() {
			return model.Shape{}, fmt.Sprintf("%s: Frame has zero width or height", rowLabel)
		}
	}

	return model.NewShape("", label, b), ""
}

// isEmptyRow returns true if the row has no meaningful content.
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ImportCSV imports frames from a CSV file.
// It automatically detects the delimiter and maps columns by header names.
// Supports comma, semicolon, tab, and pipe delimiters.
func ImportCSV(path string) ImportResult {
	result := ImportResult{}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open file: %v", err))
		return result
	}

	if len(bytes.TrimSpace(data)) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	delimiter := DetectCSVDelimiter(data)
	if delimiter != ',' {
		delimName := map[rune]string{';': "semicolon", '\t': "tab", '|': "pipe"}[delimiter]
		result.Warnings = append(result.Warnings, fmt.Sprintf("Detected %s delimiter", delimName))
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}

	return importFromRows(records, "Line", result.Warnings)
}

// ImportCSVFromReader imports frames from a CSV reader with a specific delimiter.
func ImportCSVFromReader(reader io.Reader, delimiter rune) ImportResult {
	result := ImportResult{}

	csvReader := csv.NewReader(reader)
	csvReader.Comma = delimiter
	csvReader.LazyQuotes = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}

	return importFromRows(records, "Line", nil)
}

// ImportExcel imports frames from an Excel (.xlsx) file.
// Reads the first sheet and auto-detects column mapping from headers.
func ImportExcel(path string) ImportResult {
	result := ImportResult{}

	f, err := excelize.OpenFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open Excel file: %v", err))
		return result
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		result.Errors = append(result.Errors, "Excel file has no sheets")
		return result
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read Excel data: %v", err))
		return result
	}

	return importFromRows(rows, "Row", nil)
}

// importFromRows is the shared import logic for both CSV and Excel data.
// It detects headers, maps columns, and parses each row into shapes.
func importFromRows(rows [][]string, rowPrefix string, initialWarnings []string) ImportResult {
	result := ImportResult{
		Warnings: initialWarnings,
	}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	mapping, hasHeader := DetectColumns(rows[0])
	startRow := 0
	if hasHeader {
		startRow = 1
		result.Warnings = append(result.Warnings, "Detected header row, skipping")

		if missing := mapping.missingColumns(); len(missing) > 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("Required columns not found in header: %s", strings.Join(missing, ", ")))
			return result
		}
	} else if len(rows[0]) >= 5 {
		// An unrecognized header still has a non-numeric second column
		if _, err := strconv.ParseFloat(strings.TrimSpace(rows[0][1]), 64); err != nil {
			startRow = 1
			result.Warnings = append(result.Warnings, "Detected header row, skipping")
		}
	}

	for i := startRow; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}

		rowLabel := fmt.Sprintf("%s %d", rowPrefix, i+1)
		shape, errMsg := parseRow(row, mapping, rowLabel, len(result.Shapes))
		if errMsg != "" {
			result.Errors = append(result.Errors, errMsg)
			continue
		}
		result.Shapes = append(result.Shapes, shape)
	}

	if len(result.Shapes) == 0 && len(result.Errors) == 0 {
		result.Errors = append(result.Errors, "No data rows found")
	}
	return result
}

// ImportFile picks the importer from the file extension.
func ImportFile(path string) ImportResult {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv", ".tsv", ".txt":
		return ImportCSV(path)
	case ".xlsx", ".xlsm":
		return ImportExcel(path)
	case ".dxf":
		return ImportDXF(path)
	default:
		return ImportResult{Errors: []string{fmt.Sprintf("Unsupported file type '%s'", ext)}}
	}
}
