package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/piwi3910/framefill/internal/canvas"
	"github.com/piwi3910/framefill/internal/engine"
	"github.com/piwi3910/framefill/internal/export"
	"github.com/piwi3910/framefill/internal/model"
	"github.com/piwi3910/framefill/internal/project"
)

// fillOpts holds the command-line flags for the fill command.
type fillOpts struct {
	images     string  // image folder
	settings   string  // settings file (.yaml, .toml, .json)
	preset     string  // named preset
	scale      string  // cover or contain
	rotate     bool    // rotate images to match frame orientation
	rowEpsilon float64 // same-row tolerance
	output     string  // filled document path
	pdf        string  // PDF render path
	image      string  // raster render path
	imageWidth int     // raster width in pixels
	labels     string  // QR label sheet path
	report     string  // YAML report path
}

func (c *CLI) fillCommand() *cobra.Command {
	defaults := model.DefaultSettings()
	opts := fillOpts{
		scale:      string(defaults.ScaleMode),
		rotate:     defaults.RotateToMatch,
		rowEpsilon: defaults.RowEpsilon,
		imageWidth: export.DefaultRasterOptions().Width,
	}

	cmd := &cobra.Command{
		Use:   "fill [document]",
		Short: "Fill the selected frames of a document with images",
		Long: `Fill reads frames from a saved document (.json) or imports them from a
CSV, Excel or DXF file, then places one image from the image folder into each
frame in reading order. The filled document is saved next to the input unless
--output is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runFill(cmd, args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.images, "images", "i", "", "image folder (defaults to the last folder used)")
	cmd.Flags().StringVarP(&opts.settings, "config", "c", "", "settings file (.yaml, .toml or .json)")
	cmd.Flags().StringVarP(&opts.preset, "preset", "p", "", "settings preset name")
	cmd.Flags().StringVar(&opts.scale, "scale", opts.scale, "scale mode: cover or contain")
	cmd.Flags().BoolVar(&opts.rotate, "rotate", opts.rotate, "rotate images to match frame orientation")
	cmd.Flags().Float64Var(&opts.rowEpsilon, "row-epsilon", opts.rowEpsilon, "frames whose centers differ less than this share a row")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "filled document path")
	cmd.Flags().StringVar(&opts.pdf, "pdf", "", "also render the result to this PDF")
	cmd.Flags().StringVar(&opts.image, "image", "", "also render the result to this image (.png, .jpg)")
	cmd.Flags().IntVar(&opts.imageWidth, "image-width", opts.imageWidth, "rendered image width in pixels")
	cmd.Flags().StringVar(&opts.labels, "labels", "", "write a QR label sheet for the filled frames")
	cmd.Flags().StringVar(&opts.report, "report", "", "write a YAML fill report")

	return cmd
}

// resolveSettings applies, lowest to highest precedence: defaults, saved
// preferences, a preset, a settings file, then explicitly set flags.
func (c *CLI) resolveSettings(cmd *cobra.Command, cfg model.AppConfig, opts *fillOpts) (model.Settings, error) {
	settings := model.DefaultSettings()
	cfg.ApplyToSettings(&settings)

	presets, err := project.AllPresets(c.PresetsPath)
	if err != nil {
		c.Logger.Warn("cannot read saved presets", "err", err)
		presets = model.BuiltInPresets()
	}
	if opts.preset != "" {
		p, ok := model.FindPreset(presets, opts.preset)
		if !ok {
			return settings, fmt.Errorf("unknown preset %q", opts.preset)
		}
		settings = p.Settings
	}
	if opts.settings != "" {
		sf, err := project.LoadSettingsFile(opts.settings)
		if err != nil {
			return settings, err
		}
		if err := sf.Apply(&settings, presets); err != nil {
			return settings, fmt.Errorf("%s: %w", opts.settings, err)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("scale") {
		mode, err := model.ParseScaleMode(opts.scale)
		if err != nil {
			return settings, err
		}
		settings.ScaleMode = mode
	}
	if flags.Changed("rotate") {
		settings.RotateToMatch = opts.rotate
	}
	if flags.Changed("row-epsilon") {
		settings.RowEpsilon = opts.rowEpsilon
	}
	return settings, settings.Validate()
}

func (c *CLI) runFill(cmd *cobra.Command, input string, opts *fillOpts) error {
	ctx := cmd.Context()

	cfg, err := project.LoadAppConfig(c.AppConfigPath)
	if err != nil {
		c.Logger.Warn("cannot read preferences, using defaults", "path", c.AppConfigPath, "err", err)
		cfg = model.DefaultAppConfig()
	}

	settings, err := c.resolveSettings(cmd, cfg, opts)
	if err != nil {
		return err
	}
	c.Logger.Debug("settings", "scale", settings.ScaleMode, "rotate", settings.RotateToMatch, "row_epsilon", settings.RowEpsilon)

	doc, err := c.loadInput(input)
	if err != nil {
		return err
	}

	folder := opts.images
	if folder == "" {
		folder = cfg.LastImageFolder
		if folder != "" {
			c.Logger.Info("using last image folder", "folder", folder)
		}
	}

	p := newProgress(c.Logger)
	report, err := engine.Run(ctx, engine.Job{
		Document: doc,
		Picker:   engine.StaticFolder(folder),
		Settings: settings,
		Logger:   c.Logger,
	})
	if err != nil {
		if folder == "" && errors.Is(err, model.ErrCancelled) {
			return fmt.Errorf("%w: no image folder given (use --images)", err)
		}
		return err
	}
	p.done("fill finished", "frames", report.Frames, "images", report.Images)

	output := opts.output
	if output == "" {
		output = defaultOutputPath(input)
	}
	if err := project.SaveDocument(output, doc); err != nil {
		return err
	}
	c.Logger.Info("document saved", "path", output)

	if err := c.writeOutputs(ctx, doc, report, settings, folder, opts); err != nil {
		return err
	}

	absFolder, err := filepath.Abs(folder)
	if err != nil {
		absFolder = folder
	}
	cfg.LastImageFolder = absFolder
	cfg.AddRecentDocument(output)
	if err := project.SaveAppConfig(c.AppConfigPath, cfg); err != nil {
		c.Logger.Warn("cannot save preferences", "path", c.AppConfigPath, "err", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), report.Summary())
	for _, res := range report.Results {
		if !res.OK() && res.Err != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "  skipped frame %d (%s): %v\n", res.FrameIndex+1, res.FrameID, res.Err)
		}
	}
	return nil
}

// writeOutputs produces the optional renders, labels and report.
func (c *CLI) writeOutputs(ctx context.Context, doc *canvas.Document, report model.FillReport, settings model.Settings, folder string, opts *fillOpts) error {
	if opts.pdf != "" {
		if err := export.ExportPDF(ctx, opts.pdf, doc, &report, settings); err != nil {
			return fmt.Errorf("export PDF: %w", err)
		}
		c.Logger.Info("PDF written", "path", opts.pdf)
	}
	if opts.image != "" {
		ro := export.DefaultRasterOptions()
		ro.Width = opts.imageWidth
		if err := export.ExportImage(ctx, opts.image, doc, ro); err != nil {
			return fmt.Errorf("export image: %w", err)
		}
		c.Logger.Info("image written", "path", opts.image)
	}
	if opts.labels != "" {
		if err := export.ExportLabels(opts.labels, report); err != nil {
			return fmt.Errorf("export labels: %w", err)
		}
		c.Logger.Info("labels written", "path", opts.labels)
	}
	if opts.report != "" {
		if err := project.SaveReport(opts.report, project.NewReportFile(report, settings, folder)); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		c.Logger.Info("report written", "path", opts.report)
	}
	return nil
}

// defaultOutputPath returns "<dir>/<name>.filled.framefill.json" for input.
func defaultOutputPath(input string) string {
	base := filepath.Base(input)
	base = strings.TrimSuffix(base, project.DocumentExt)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(input), base+".filled"+project.DocumentExt)
}
