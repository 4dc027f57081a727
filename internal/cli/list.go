package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/piwi3910/framefill/internal/engine"
	"github.com/piwi3910/framefill/internal/model"
	"github.com/piwi3910/framefill/internal/project"
	"github.com/piwi3910/framefill/internal/source"
)

const (
	formatTable = "table"
	formatYAML  = "yaml"
	formatJSON  = "json"
)

// validateFormat checks the --format flag.
func validateFormat(f string) error {
	switch f {
	case formatTable, formatYAML, formatJSON:
		return nil
	default:
		return fmt.Errorf("invalid format: %s (must be 'table', 'yaml' or 'json')", f)
	}
}

// writeStructured encodes v as YAML or JSON.
func writeStructured(w io.Writer, format string, v any) error {
	if format == formatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func (c *CLI) framesCommand() *cobra.Command {
	var format string
	epsilon := model.DefaultRowEpsilon

	cmd := &cobra.Command{
		Use:   "frames [document]",
		Short: "Print the frames of a document in fill order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}
			if epsilon <= 0 {
				return fmt.Errorf("row epsilon must be > 0, got %g", epsilon)
			}
			doc, err := c.loadInput(args[0])
			if err != nil {
				return err
			}
			frames, err := engine.CollectFrames(doc.Selection(), c.Logger)
			if err != nil {
				return err
			}
			frames = engine.SortFrames(frames, engine.FrameAxis(frames), epsilon)

			out := cmd.OutOrStdout()
			if format != formatTable {
				return writeStructured(out, format, frames)
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "#\tID\tLABEL\tLEFT\tTOP\tRIGHT\tBOTTOM\tSIZE")
			for _, f := range frames {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%g\t%g\t%g\t%g\t%gx%g\n",
					f.Index+1, f.ID, f.Label, f.Bounds.Left, f.Bounds.Top, f.Bounds.Right, f.Bounds.Bottom, f.Width(), f.Height())
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatTable, "output format: table, yaml or json")
	cmd.Flags().Float64Var(&epsilon, "row-epsilon", epsilon, "frames whose centers differ less than this share a row")
	return cmd
}

func (c *CLI) imagesCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "images [folder]",
		Short: "List the images of a folder in fill order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}
			assets, err := source.ListImages(args[0])
			if err != nil {
				return err
			}
			for i := range assets {
				w, h, err := source.Probe(assets[i].Path)
				if err != nil {
					c.Logger.Debug("cannot probe image", "file", assets[i].Name, "err", err)
					continue
				}
				assets[i].Width, assets[i].Height = float64(w), float64(h)
			}

			out := cmd.OutOrStdout()
			if format != formatTable {
				return writeStructured(out, format, assets)
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "#\tNAME\tSIZE\tORIENTATION")
			for i, a := range assets {
				size, orientation := "unreadable", "-"
				if a.Width > 0 && a.Height > 0 {
					size = fmt.Sprintf("%gx%g", a.Width, a.Height)
					orientation = "portrait"
					if a.Width >= a.Height {
						orientation = "landscape"
					}
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i+1, filepath.Base(a.Path), size, orientation)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatTable, "output format: table, yaml or json")
	return cmd
}

func (c *CLI) presetsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List the available settings presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			presets, err := project.AllPresets(c.PresetsPath)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tSCALE\tROTATE\tROW EPSILON\tSOURCE")
			for _, p := range presets {
				origin := "saved"
				if p.IsBuiltIn {
					origin = "built-in"
				}
				fmt.Fprintf(tw, "%s\t%s\t%t\t%g\t%s\n", p.Name, p.Settings.ScaleMode, p.Settings.RotateToMatch, p.Settings.RowEpsilon, origin)
			}
			return tw.Flush()
		},
	}
}
