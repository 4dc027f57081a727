package project

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/piwi3910/framefill/internal/canvas"
	"github.com/piwi3910/framefill/internal/model"
)

func TestSaveAndLoadDocument(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "a.png")
	if err := os.WriteFile(img, []byte("img"), 0644); err != nil {
		t.Fatal(err)
	}

	probe := canvas.WithProbe(func(string) (int, int, error) { return 20, 10, nil })
	doc := canvas.New("album", model.AxisUp, probe)
	doc.AddShapes([]model.Shape{{ID: "f1", Label: "Cover", Coords: []float64{0, 100, 50, 50}}})
	placed, err := doc.PlaceImage(img)
	if err != nil {
		t.Fatal(err)
	}
	group, _ := doc.AddGroup()
	if _, err := doc.AddClipRect(group, model.Bounds{Left: 0, Top: 100, Right: 50, Bottom: 50}); err != nil {
		t.Fatal(err)
	}
	if err := doc.MoveInto(placed, group); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(dir, "out", "album"+DocumentExt)
	if err := SaveDocument(path, doc); err != nil {
		t.Fatalf("SaveDocument failed: %v", err)
	}

	loaded, err := LoadDocument(path, probe)
	if err != nil {
		t.Fatalf("LoadDocument failed: %v", err)
	}
	if loaded.Name() != "album" {
		t.Errorf("expected name album, got %s", loaded.Name())
	}
	if loaded.Axis() != model.AxisUp {
		t.Errorf("expected axis up, got %s", loaded.Axis())
	}
	if loaded.Len() != doc.Len() {
		t.Errorf("expected %d items, got %d", doc.Len(), loaded.Len())
	}
	sel := loaded.Selection()
	if len(sel) != 1 || sel[0].Label != "Cover" {
		t.Errorf("unexpected selection %+v", sel)
	}
	it, ok := loaded.Item(placed)
	if !ok || it.Path != img || it.Parent != group {
		t.Errorf("placed image not restored: %+v", it)
	}
}

func TestLoadDocumentErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadDocument(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadDocument(bad); err == nil {
		t.Error("expected error for invalid JSON")
	}

	noVersion := filepath.Join(dir, "noversion.json")
	if err := os.WriteFile(noVersion, []byte(`{"document":{}}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadDocument(noVersion); err == nil {
		t.Error("expected error for missing version")
	}

	dangling := filepath.Join(dir, "dangling.json")
	if err := os.WriteFile(dangling, []byte(`{"version":"1.0.0","document":{"version":1,"roots":["x"]}}`), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadDocument(dangling)
	if !errors.Is(err, canvas.ErrUnknownItem) {
		t.Errorf("expected ErrUnknownItem, got %v", err)
	}
}
