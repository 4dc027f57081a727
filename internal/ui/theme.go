// Package ui provides the framefill desktop application.
//
// This file defines a compact Fyne theme that can pin the light or dark
// variant regardless of the system setting.

package ui

import (
	"image/color"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// FramefillTheme wraps the default Fyne theme with compact sizing overrides.
type FramefillTheme struct {
	base    fyne.Theme
	variant fyne.ThemeVariant
	pinned  bool // false follows the system variant
}

// NewFramefillTheme creates a theme for a preference value: "light", "dark"
// or "system".
func NewFramefillTheme(preference string) *FramefillTheme {
	t := &FramefillTheme{base: theme.DefaultTheme()}
	t.SetPreference(preference)
	return t
}

// ParseThemeVariant maps a preference value to a variant. The second result
// is false for "system" and unknown values, which follow the system setting.
func ParseThemeVariant(preference string) (fyne.ThemeVariant, bool) {
	switch strings.ToLower(strings.TrimSpace(preference)) {
	case "light":
		return theme.VariantLight, true
	case "dark":
		return theme.VariantDark, true
	default:
		return 0, false
	}
}

// SetPreference updates the variant (light/dark/system).
func (t *FramefillTheme) SetPreference(preference string) {
	t.variant, t.pinned = ParseThemeVariant(preference)
}

// Color delegates to the base theme with the pinned variant, if any.
func (t *FramefillTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	if t.pinned {
		variant = t.variant
	}
	return t.base.Color(name, variant)
}

// Font delegates to the base theme.
func (t *FramefillTheme) Font(style fyne.TextStyle) fyne.Resource {
	return t.base.Font(style)
}

// Icon delegates to the base theme.
func (t *FramefillTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return t.base.Icon(name)
}

// Size returns compact sizing overrides for a dense layout.
func (t *FramefillTheme) Size(name fyne.ThemeSizeName) float32 {
	switch name {
	case theme.SizeNameText:
		return 12
	case theme.SizeNameCaptionText:
		return 9
	case theme.SizeNameHeadingText:
		return 20
	case theme.SizeNameSubHeadingText:
		return 15
	case theme.SizeNamePadding:
		return 3
	case theme.SizeNameInnerPadding:
		return 6
	case theme.SizeNameInlineIcon:
		return 16
	default:
		return t.base.Size(name)
	}
}
