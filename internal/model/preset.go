package model

import "strings"

// Preset is a named set of layout settings.
type Preset struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Settings    Settings `json:"settings"`
	IsBuiltIn   bool     `json:"-"`
}

// BuiltInPresets returns the presets shipped with the application.
func BuiltInPresets() []Preset {
	return []Preset{
		{
			Name:        "Cover",
			Description: "Fill every frame, rotate images to match, crop the overflow",
			Settings:    DefaultSettings(),
			IsBuiltIn:   true,
		},
		{
			Name:        "Contain",
			Description: "Fit whole images inside their frames",
			Settings:    Settings{ScaleMode: ScaleContain, RotateToMatch: true, RowEpsilon: DefaultRowEpsilon},
			IsBuiltIn:   true,
		},
		{
			Name:        "Cover, keep orientation",
			Description: "Fill every frame without rotating images",
			Settings:    Settings{ScaleMode: ScaleCover, RotateToMatch: false, RowEpsilon: DefaultRowEpsilon},
			IsBuiltIn:   true,
		},
		{
			Name:        "Loose rows",
			Description: "Treat frames whose centers differ by less than 5 units as one row",
			Settings:    Settings{ScaleMode: ScaleCover, RotateToMatch: true, RowEpsilon: 5},
			IsBuiltIn:   true,
		},
	}
}

// FindPreset looks a preset up by name, ignoring case.
func FindPreset(presets []Preset, name string) (Preset, bool) {
	for _, p := range presets {
		if strings.EqualFold(p.Name, strings.TrimSpace(name)) {
			return p, true
		}
	}
	return Preset{}, false
}
