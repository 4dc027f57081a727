// framefill: fill frames on a canvas with images from a folder
//
// Command-line and desktop tool that places one image into each selected
// frame of a document, rotated to the frame's orientation, scaled to cover
// it, centered and clipped.
//
// Build:
//   go build -o framefill ./cmd/framefill
//
// Cross-compile (the desktop app needs cgo; see fyne-cross):
//   GOOS=windows GOARCH=amd64 go build -o framefill.exe ./cmd/framefill
//   GOOS=darwin  GOARCH=arm64 go build -o framefill-darwin ./cmd/framefill

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/piwi3910/framefill/internal/cli"
	"github.com/piwi3910/framefill/internal/ui"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := cli.New(os.Stderr, cli.LogInfo)
	c.GUI = func(ctx context.Context, document string) error {
		return ui.Run(ctx, ui.Options{
			ConfigPath:  c.AppConfigPath,
			PresetsPath: c.PresetsPath,
			Logger:      c.Logger,
			Document:    document,
		})
	}

	err := c.RootCommand().ExecuteContext(ctx)
	stop()
	os.Exit(cli.ExitCode(err))
}
