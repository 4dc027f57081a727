package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/piwi3910/framefill/internal/model"
)

// SettingsFile is a partial settings override read from disk. Nil fields
// leave the current value alone.
type SettingsFile struct {
	Preset        string   `json:"preset" yaml:"preset" toml:"preset"`
	ScaleMode     *string  `json:"scale_mode" yaml:"scale_mode" toml:"scale_mode"`
	RotateToMatch *bool    `json:"rotate_to_match" yaml:"rotate_to_match" toml:"rotate_to_match"`
	RowEpsilon    *float64 `json:"row_epsilon" yaml:"row_epsilon" toml:"row_epsilon"`
}

// LoadSettingsFile reads a settings file. The format follows the extension:
// .yaml/.yml, .toml or .json.
func LoadSettingsFile(path string) (SettingsFile, error) {
	var sf SettingsFile
	data, err := os.ReadFile(path)
	if err != nil {
		return sf, fmt.Errorf("read settings: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &sf)
	case ".toml":
		_, err = toml.Decode(string(data), &sf)
	case ".json":
		err = json.Unmarshal(data, &sf)
	default:
		return sf, fmt.Errorf("unsupported settings format %q", ext)
	}
	if err != nil {
		return sf, fmt.Errorf("parse %s: %w", path, err)
	}
	return sf, nil
}

// Apply overlays the file onto s. A named preset is applied first, then the
// individual fields. The result is validated.
func (sf SettingsFile) Apply(s *model.Settings, presets []model.Preset) error {
	if sf.Preset != "" {
		p, ok := model.FindPreset(presets, sf.Preset)
		if !ok {
			return fmt.Errorf("unknown preset %q", sf.Preset)
		}
		*s = p.Settings
	}
	if sf.ScaleMode != nil {
		mode, err := model.ParseScaleMode(*sf.ScaleMode)
		if err != nil {
			return err
		}
		s.ScaleMode = mode
	}
	if sf.RotateToMatch != nil {
		s.RotateToMatch = *sf.RotateToMatch
	}
	if sf.RowEpsilon != nil {
		s.RowEpsilon = *sf.RowEpsilon
	}
	return s.Validate()
}
