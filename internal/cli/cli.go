// Package cli implements the framefill command-line interface.
//
// Commands:
//   - fill: fill the selected frames of a document with images from a folder
//   - frames: print the frames of a document in reading order
//   - images: list the images a folder contributes, in fill order
//   - presets: list the built-in and saved settings presets
//   - gui: open the desktop application (when available)
//
// All commands support --verbose (-v) for debug-level logging.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/piwi3910/framefill/internal/canvas"
	"github.com/piwi3910/framefill/internal/model"
	"github.com/piwi3910/framefill/internal/project"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// Version is reported by --version. It is set at build time.
var Version = "dev"

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// AppConfigPath is where preferences are read and written.
	AppConfigPath string

	// PresetsPath holds the user's saved presets.
	PresetsPath string

	// GUI starts the desktop application, opening document when it is not
	// empty. The gui command is only registered when it is set.
	GUI func(ctx context.Context, document string) error
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger:        newLogger(w, level),
		AppConfigPath: project.DefaultConfigPath(),
		PresetsPath:   project.DefaultPresetsPath(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:          "framefill",
		Short:        "Fill frames on a canvas with images from a folder",
		Long:         `framefill places one image into each selected frame of a document: it rotates the image to the frame's orientation, scales it to cover the frame, centers it and clips it to the frame. Images are reused in order when there are more frames than images.`,
		Version:      Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				c.SetLogLevel(LogDebug)
			}
			return nil
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&c.AppConfigPath, "app-config", c.AppConfigPath, "preferences file")
	root.PersistentFlags().StringVar(&c.PresetsPath, "presets-file", c.PresetsPath, "saved presets file")

	root.AddCommand(c.fillCommand())
	root.AddCommand(c.framesCommand())
	root.AddCommand(c.imagesCommand())
	root.AddCommand(c.presetsCommand())
	if c.GUI != nil {
		root.AddCommand(c.guiCommand())
	}

	return root
}

func (c *CLI) guiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "gui [document]",
		Short: "Open the desktop application",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var document string
			if len(args) == 1 {
				document = args[0]
			}
			return c.GUI(cmd.Context(), document)
		},
	}
}

// loadInput opens a saved document (.json) or builds a new one from a CSV,
// Excel or DXF file with every imported shape selected.
func (c *CLI) loadInput(path string) (*canvas.Document, error) {
	if project.IsDocumentFile(path) {
		doc, err := project.LoadDocument(path)
		if err != nil {
			return nil, err
		}
		c.Logger.Debug("document loaded", "path", path, "items", doc.Len())
		return doc, nil
	}

	doc, result := project.ImportDocument(path)
	for _, w := range result.Warnings {
		c.Logger.Warn(w, "file", filepath.Base(path))
	}
	for _, e := range result.Errors {
		c.Logger.Error(e, "file", filepath.Base(path))
	}
	if doc == nil {
		if len(result.Errors) > 0 {
			return nil, fmt.Errorf("import %s: %s", filepath.Base(path), result.Errors[0])
		}
		return nil, fmt.Errorf("import %s: no shapes found", filepath.Base(path))
	}
	c.Logger.Debug("shapes imported", "path", path, "count", len(result.Shapes), "axis", doc.Axis())
	return doc, nil
}

// ExitCode maps an error returned by a command to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled), errors.Is(err, model.ErrCancelled):
		return 130
	case model.IsFatal(err):
		return 2
	default:
		return 1
	}
}
