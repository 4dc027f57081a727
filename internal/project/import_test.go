package project

import (
	"testing"

	"github.com/piwi3910/framefill/internal/model"
)

func TestImportDocument(t *testing.T) {
	path := writeFile(t, "wall.csv", "label,left,top,right,bottom\nA,0,0,50,50\nB,60,0,110,50\n")

	doc, result := ImportDocument(path)
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if doc == nil {
		t.Fatal("expected a document")
	}
	if doc.Name() != "wall" {
		t.Errorf("expected name 'wall', got %q", doc.Name())
	}
	if doc.Axis() != model.AxisDown {
		t.Errorf("expected axis down, got %v", doc.Axis())
	}
	if got := len(doc.Selection()); got != 2 {
		t.Errorf("expected 2 selected shapes, got %d", got)
	}
}

func TestImportDocumentAxisUp(t *testing.T) {
	path := writeFile(t, "up.csv", "left,top,right,bottom\n0,50,50,0\n")

	doc, _ := ImportDocument(path)
	if doc == nil {
		t.Fatal("expected a document")
	}
	if doc.Axis() != model.AxisUp {
		t.Errorf("expected axis up, got %v", doc.Axis())
	}
}

func TestImportDocumentNothingImported(t *testing.T) {
	path := writeFile(t, "frames.pdf", "not a table")

	doc, result := ImportDocument(path)
	if doc != nil {
		t.Error("expected no document for an unsupported file")
	}
	if len(result.Errors) == 0 {
		t.Error("expected an import error")
	}
}

func TestIsDocumentFile(t *testing.T) {
	tests := map[string]bool{
		"a.framefill.json": true,
		"A.JSON":           true,
		"frames.csv":       false,
		"plan.dxf":         false,
	}
	for path, want := range tests {
		if got := IsDocumentFile(path); got != want {
			t.Errorf("IsDocumentFile(%q) = %v, want %v", path, got, want)
		}
	}
}
