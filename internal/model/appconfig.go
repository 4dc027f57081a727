package model

// AppConfig holds application-wide preferences and default settings.
type AppConfig struct {
	// Default layout settings applied to new runs
	DefaultScaleMode     ScaleMode `json:"default_scale_mode"`
	DefaultRotateToMatch bool      `json:"default_rotate_to_match"`
	DefaultRowEpsilon    float64   `json:"default_row_epsilon"`

	// Application preferences
	LastImageFolder string   `json:"last_image_folder"`
	RecentDocuments []string `json:"recent_documents"`
	Theme           string   `json:"theme"` // "light", "dark", "system"
}

// maxRecentDocuments bounds the recent documents list.
const maxRecentDocuments = 10

// DefaultAppConfig returns an AppConfig populated with the values from
// DefaultSettings().
func DefaultAppConfig() AppConfig {
	defaults := DefaultSettings()
	return AppConfig{
		DefaultScaleMode:     defaults.ScaleMode,
		DefaultRotateToMatch: defaults.RotateToMatch,
		DefaultRowEpsilon:    defaults.RowEpsilon,
		RecentDocuments:      []string{},
		Theme:                "system",
	}
}

// ApplyToSettings copies the saved defaults into s. Zero values in the config
// leave the corresponding setting untouched.
func (c AppConfig) ApplyToSettings(s *Settings) {
	if c.DefaultScaleMode != "" {
		s.ScaleMode = c.DefaultScaleMode
	}
	s.RotateToMatch = c.DefaultRotateToMatch
	if c.DefaultRowEpsilon > 0 {
		s.RowEpsilon = c.DefaultRowEpsilon
	}
}

// AddRecentDocument moves path to the front of the recent list.
func (c *AppConfig) AddRecentDocument(path string) {
	recent := []string{path}
	for _, p := range c.RecentDocuments {
		if p != path {
			recent = append(recent, p)
		}
	}
	if len(recent) > maxRecentDocuments {
		recent = recent[:maxRecentDocuments]
	}
	c.RecentDocuments = recent
}
