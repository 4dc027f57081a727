package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/piwi3910/framefill/internal/model"
)

func TestSaveAndLoadPresets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.json")
	presets := []model.Preset{{
		Name:      "Wide rows",
		Settings:  model.Settings{ScaleMode: model.ScaleContain, RowEpsilon: 12},
		IsBuiltIn: true,
	}}
	if err := SavePresets(path, presets); err != nil {
		t.Fatalf("SavePresets failed: %v", err)
	}

	loaded, err := LoadPresets(path)
	if err != nil {
		t.Fatalf("LoadPresets failed: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("expected 1 preset, got %d", len(loaded))
	}
	if loaded[0].IsBuiltIn {
		t.Error("loaded presets must not be built-in")
	}
	if loaded[0].Settings.RowEpsilon != 12 {
		t.Errorf("expected row epsilon 12, got %g", loaded[0].Settings.RowEpsilon)
	}
}

func TestLoadPresetsMissingFile(t *testing.T) {
	presets, err := LoadPresets(filepath.Join(t.TempDir(), "none.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if presets == nil || len(presets) != 0 {
		t.Errorf("expected empty slice, got %v", presets)
	}
}

func TestAllPresetsSkipsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.json")
	custom := []model.Preset{
		{Name: "Good", Settings: model.Settings{ScaleMode: model.ScaleCover, RowEpsilon: 2}},
		{Name: "Bad", Settings: model.Settings{ScaleMode: "stretch", RowEpsilon: 2}},
	}
	if err := SavePresets(path, custom); err != nil {
		t.Fatal(err)
	}

	all, err := AllPresets(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != len(model.BuiltInPresets())+1 {
		t.Errorf("expected built-ins plus one custom preset, got %d", len(all))
	}
	if _, ok := model.FindPreset(all, "Bad"); ok {
		t.Error("invalid preset should be skipped")
	}
}

func TestExportImportPreset(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shared.json")
	builtIn := model.BuiltInPresets()[1]
	if err := ExportPreset(path, builtIn); err != nil {
		t.Fatalf("ExportPreset failed: %v", err)
	}

	imported, err := ImportPreset(path)
	if err != nil {
		t.Fatalf("ImportPreset failed: %v", err)
	}
	if imported.Name != builtIn.Name || imported.IsBuiltIn {
		t.Errorf("unexpected imported preset %+v", imported)
	}

	noName := filepath.Join(dir, "noname.json")
	if err := os.WriteFile(noName, []byte(`{"settings":{"scale_mode":"cover","row_epsilon":1}}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ImportPreset(noName); err == nil {
		t.Error("expected error for preset without a name")
	}

	badMode := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(badMode, []byte(`{"name":"x","settings":{"scale_mode":"fill","row_epsilon":1}}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ImportPreset(badMode); err == nil {
		t.Error("expected error for preset with unknown scale mode")
	}
}
