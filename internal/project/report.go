package project

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/piwi3910/framefill/internal/model"
)

// ReportFile is the YAML form of a fill report.
type ReportFile struct {
	GeneratedAt string         `yaml:"generated_at"`
	Folder      string         `yaml:"folder,omitempty"`
	Settings    model.Settings `yaml:"settings"`
	Summary     string         `yaml:"summary"`
	Frames      int            `yaml:"frames"`
	Images      int            `yaml:"images"`
	Filled      int            `yaml:"filled"`
	Skipped     int            `yaml:"skipped"`
	Results     []ReportEntry  `yaml:"results"`
}

// ReportEntry describes the outcome for one frame.
type ReportEntry struct {
	Frame          int           `yaml:"frame"`
	FrameID        string        `yaml:"frame_id"`
	Label          string        `yaml:"label,omitempty"`
	Asset          string        `yaml:"asset,omitempty"`
	Status         string        `yaml:"status"`
	Reason         string        `yaml:"reason,omitempty"`
	Error          string        `yaml:"error,omitempty"`
	Rotated        bool          `yaml:"rotated,omitempty"`
	RotationFailed bool          `yaml:"rotation_failed,omitempty"`
	Scale          float64       `yaml:"scale,omitempty"`
	Clip           *model.Bounds `yaml:"clip,omitempty"`
}

// NewReportFile converts a run report for serialization. Frame numbers are
// one-based.
func NewReportFile(report model.FillReport, settings model.Settings, folder string) ReportFile {
	rf := ReportFile{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Folder:      folder,
		Settings:    settings,
		Summary:     report.Summary(),
		Frames:      report.Frames,
		Images:      report.Images,
		Filled:      report.Filled,
		Skipped:     report.Skipped,
		Results:     make([]ReportEntry, 0, len(report.Results)),
	}
	for _, res := range report.Results {
		entry := ReportEntry{
			Frame:          res.FrameIndex + 1,
			FrameID:        res.FrameID,
			Label:          res.FrameLabel,
			Asset:          res.Asset,
			Status:         "filled",
			RotationFailed: res.RotationFailed,
		}
		if res.OK() {
			clip := res.Group.Clip
			entry.Rotated = res.Group.Rotated
			entry.Scale = res.Group.Scale
			entry.Clip = &clip
		} else {
			entry.Status = "skipped"
			if res.Err != nil {
				entry.Error = res.Err.Error()
				entry.Reason = string(model.ReasonOf(res.Err))
			}
		}
		rf.Results = append(rf.Results, entry)
	}
	return rf
}

// SaveReport writes a fill report as YAML.
func SaveReport(path string, rf ReportFile) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(rf)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// LoadReport reads a report written by SaveReport.
func LoadReport(path string) (ReportFile, error) {
	var rf ReportFile
	data, err := os.ReadFile(path)
	if err != nil {
		return rf, err
	}
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return rf, fmt.Errorf("parse %s: %w", path, err)
	}
	return rf, nil
}
