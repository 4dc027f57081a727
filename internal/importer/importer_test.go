package importer

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

// ─── DetectCSVDelimiter Tests ──────────────────────────────

func TestDetectCSVDelimiter(t *testing.T) {
	tests := map[rune]string{
		',':  "Label,Left,Top,Right,Bottom\nA,0,100,50,50\nB,60,100,110,50\n",
		';':  "Label;Left;Top;Right;Bottom\nA;0;100;50;50\nB;60;100;110;50\n",
		'\t': "Label\tLeft\tTop\tRight\tBottom\nA\t0\t100\t50\t50\n",
		'|':  "Label|Left|Top|Right|Bottom\nA|0|100|50|50\n",
	}
	for want, data := range tests {
		if got := DetectCSVDelimiter([]byte(data)); got != want {
			t.Errorf("expected %q delimiter, got %q", want, got)
		}
	}
}

// ─── DetectColumns Tests ───────────────────────────────────

func TestDetectColumns_EdgeHeaders(t *testing.T) {
	mapping, isHeader := DetectColumns([]string{"Name", "LEFT", "Top", "right", "Bottom"})

	if !isHeader {
		t.Fatal("expected header to be detected")
	}
	if mapping.Layout != LayoutEdges {
		t.Errorf("expected edge layout, got %v", mapping.Layout)
	}
	if mapping.Label != 0 || mapping.Left != 1 || mapping.Top != 2 || mapping.Right != 3 || mapping.Bottom != 4 {
		t.Errorf("unexpected mapping %+v", mapping)
	}
}

func TestDetectColumns_Aliases(t *testing.T) {
	mapping, isHeader := DetectColumns([]string{"y2", "x2", "y1", "x1", "id"})

	if !isHeader {
		t.Fatal("expected header to be detected")
	}
	if mapping.Bottom != 0 || mapping.Right != 1 || mapping.Top != 2 || mapping.Left != 3 || mapping.Label != 4 {
		t.Errorf("unexpected mapping %+v", mapping)
	}
}

func TestDetectColumns_BoxHeaders(t *testing.T) {
	mapping, isHeader := DetectColumns([]string{"Label", "X", "Y", "Width", "Height"})

	if !isHeader {
		t.Fatal("expected header to be detected")
	}
	if mapping.Layout != LayoutBox {
		t.Errorf("expected box layout, got %v", mapping.Layout)
	}
	if mapping.X != 1 || mapping.Y != 2 || mapping.Width != 3 || mapping.Height != 4 {
		t.Errorf("unexpected mapping %+v", mapping)
	}
}

func TestDetectColumns_NoHeader(t *testing.T) {
	mapping, isHeader := DetectColumns([]string{"A", "0", "100", "50", "50"})

	if isHeader {
		t.Error("expected no header")
	}
	if mapping.Label != 0 || mapping.Left != 1 || mapping.Top != 2 || mapping.Right != 3 || mapping.Bottom != 4 {
		t.Errorf("expected positional mapping, got %+v", mapping)
	}
}

// ─── CSV Import Tests ──────────────────────────────────────

func TestImportCSVFromReader_WithHeaders(t *testing.T) {
	data := "Label,Left,Top,Right,Bottom\nA,0,100,50,50\nB,60,100,110,50\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	if len(result.Errors) > 0 {
		t.Errorf("unexpected errors: %v", result.Errors)
	}
	if len(result.Shapes) != 2 {
		t.Fatalf("expected 2 shapes, got %d", len(result.Shapes))
	}
	if result.Shapes[0].Label != "A" {
		t.Errorf("expected label 'A', got '%s'", result.Shapes[0].Label)
	}
	if !reflect.DeepEqual(result.Shapes[1].Coords, []float64{60, 100, 110, 50}) {
		t.Errorf("unexpected coords %v", result.Shapes[1].Coords)
	}
}

func TestImportCSVFromReader_WithoutHeaders(t *testing.T) {
	data := "A,0,100,50,50\nB,60,100,110,50\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	if len(result.Shapes) != 2 {
		t.Fatalf("expected 2 shapes, got %d (errors: %v)", len(result.Shapes), result.Errors)
	}
	if !reflect.DeepEqual(result.Shapes[0].Coords, []float64{0, 100, 50, 50}) {
		t.Errorf("unexpected coords %v", result.Shapes[0].Coords)
	}
}

func TestImportCSVFromReader_UnknownHeaderSkipped(t *testing.T) {
	data := "Frame name,Links,Oben,Rechts,Unten\nA,0,100,50,50\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	if len(result.Shapes) != 1 {
		t.Fatalf("expected 1 shape, got %d (errors: %v)", len(result.Shapes), result.Errors)
	}
}

func TestImportCSVFromReader_BoxLayout(t *testing.T) {
	data := "x,y,w,h,name\n10,20,30,40,Photo\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	if len(result.Shapes) != 1 {
		t.Fatalf("expected 1 shape, got %d (errors: %v)", len(result.Shapes), result.Errors)
	}
	s := result.Shapes[0]
	if s.Label != "Photo" {
		t.Errorf("expected label 'Photo', got '%s'", s.Label)
	}
	if !reflect.DeepEqual(s.Coords, []float64{10, 20, 40, 60}) {
		t.Errorf("expected y-down box [10 20 40 60], got %v", s.Coords)
	}
}

func TestImportCSVFromReader_RowErrors(t *testing.T) {
	data := strings.Join([]string{
		"Label,Left,Top,Right,Bottom",
		"ok,0,100,50,50",
		"bad,abc,100,50,50",
		"missing,0,100,,50",
		"flat,10,100,10,50",
		"nan,0,NaN,50,50",
		"",
		",60,100,110,50",
	}, "\n")
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	if len(result.Shapes) != 2 {
		t.Fatalf("expected 2 shapes, got %d", len(result.Shapes))
	}
	if len(result.Errors) != 4 {
		t.Errorf("expected 4 errors, got %v", result.Errors)
	}
	if result.Shapes[1].Label != "Frame 2" {
		t.Errorf("expected default label 'Frame 2', got '%s'", result.Shapes[1].Label)
	}
	if !strings.Contains(result.Errors[0], "Line 3") {
		t.Errorf("expected error to name its line, got %q", result.Errors[0])
	}
}

func TestImportCSVFromReader_MissingRequiredColumn(t *testing.T) {
	data := "Label,Left,Top,Right\nA,0,100,50\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	if len(result.Errors) == 0 {
		t.Fatal("expected error for missing Bottom column")
	}
	if !strings.Contains(result.Errors[0], "Bottom") {
		t.Errorf("expected error to mention Bottom, got %q", result.Errors[0])
	}
}

func TestImportCSVFromReader_OnlyHeaders(t *testing.T) {
	result := ImportCSVFromReader(strings.NewReader("Label,Left,Top,Right,Bottom\n"), ',')
	if len(result.Shapes) != 0 || len(result.Errors) == 0 {
		t.Errorf("expected no shapes and an error, got %d shapes, errors %v", len(result.Shapes), result.Errors)
	}
}

// ─── CSV File Import Tests ──────────────────────────────────

func TestImportCSV_SemicolonFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frames.csv")
	content := "Label;Left;Top;Right;Bottom\nA;0;100;50;50\nB;60;100;110;50\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	result := ImportCSV(path)

	if len(result.Shapes) != 2 {
		t.Errorf("expected 2 shapes, got %d (errors: %v)", len(result.Shapes), result.Errors)
	}
	hasSemicolonWarning := false
	for _, w := range result.Warnings {
		if strings.Contains(w, "semicolon") {
			hasSemicolonWarning = true
		}
	}
	if !hasSemicolonWarning {
		t.Error("expected warning about semicolon delimiter detection")
	}
}

func TestImportCSV_FileNotFound(t *testing.T) {
	result := ImportCSV("/nonexistent/path/file.csv")
	if len(result.Errors) == 0 {
		t.Error("expected error for nonexistent file")
	}
}

func TestImportCSV_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	if err := os.WriteFile(path, []byte("  \n"), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	if result := ImportCSV(path); len(result.Errors) == 0 {
		t.Error("expected error for empty file")
	}
}

// ─── Excel Import Tests ────────────────────────────────────

func createTestExcel(t *testing.T, rows [][]interface{}) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "frames.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	for i, row := range rows {
		for j, cell := range row {
			cellRef, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				t.Fatalf("failed to create cell reference: %v", err)
			}
			if err := f.SetCellValue(sheet, cellRef, cell); err != nil {
				t.Fatalf("failed to set cell value: %v", err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		t.Fatalf("failed to save Excel file: %v", err)
	}
	return path
}

func TestImportExcel_WithHeaders(t *testing.T) {
	path := createTestExcel(t, [][]interface{}{
		{"Bottom", "Right", "Top", "Left", "Label"},
		{50, 50, 100, 0, "A"},
		{50, 110, 100, 60.5, "B"},
	})

	result := ImportExcel(path)

	if len(result.Errors) > 0 {
		t.Errorf("unexpected errors: %v", result.Errors)
	}
	if len(result.Shapes) != 2 {
		t.Fatalf("expected 2 shapes, got %d", len(result.Shapes))
	}
	if !reflect.DeepEqual(result.Shapes[1].Coords, []float64{60.5, 100, 110, 50}) {
		t.Errorf("unexpected coords %v", result.Shapes[1].Coords)
	}
}

func TestImportExcel_FileNotFound(t *testing.T) {
	if result := ImportExcel("/nonexistent/frames.xlsx"); len(result.Errors) == 0 {
		t.Error("expected error for nonexistent file")
	}
}

func TestImportFile_DispatchesOnExtension(t *testing.T) {
	path := createTestExcel(t, [][]interface{}{
		{"x", "y", "width", "height"},
		{0, 0, 10, 20},
	})
	if result := ImportFile(path); len(result.Shapes) != 1 {
		t.Errorf("expected 1 shape from xlsx, got %d (errors: %v)", len(result.Shapes), result.Errors)
	}

	if result := ImportFile("frames.pdf"); len(result.Errors) == 0 {
		t.Error("expected error for unsupported extension")
	}
}
