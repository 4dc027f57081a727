package project

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/piwi3910/framefill/internal/model"
)

// DefaultPresetsPath returns the default file path for custom presets.
func DefaultPresetsPath() string {
	return filepath.Join(DefaultConfigDir(), "presets.json")
}

// SavePresets saves custom presets to a JSON file.
func SavePresets(path string, presets []model.Preset) error {
	return writeJSON(path, presets)
}

// LoadPresets loads custom presets from a JSON file.
// Returns an empty slice if the file does not exist.
func LoadPresets(path string) ([]model.Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []model.Preset{}, nil
		}
		return nil, err
	}

	var presets []model.Preset
	if err := json.Unmarshal(data, &presets); err != nil {
		return nil, err
	}
	return presets, nil
}

// AllPresets returns the built-in presets followed by the custom presets
// stored at path. Custom presets with invalid settings are left out.
func AllPresets(path string) ([]model.Preset, error) {
	custom, err := LoadPresets(path)
	if err != nil {
		return nil, err
	}
	all := model.BuiltInPresets()
	for _, p := range custom {
		if p.Settings.Validate() == nil {
			all = append(all, p)
		}
	}
	return all, nil
}

// ExportPreset exports a single preset to a JSON file (for sharing).
func ExportPreset(path string, preset model.Preset) error {
	preset.IsBuiltIn = false
	return writeJSON(path, preset)
}

// ImportPreset imports a single preset from a JSON file.
func ImportPreset(path string) (model.Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Preset{}, err
	}

	var preset model.Preset
	if err := json.Unmarshal(data, &preset); err != nil {
		return model.Preset{}, err
	}

	if preset.Name == "" {
		return model.Preset{}, errors.New("imported preset has no name")
	}
	if err := preset.Settings.Validate(); err != nil {
		return model.Preset{}, err
	}
	return preset, nil
}
