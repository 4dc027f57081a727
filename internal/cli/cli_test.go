package cli

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/piwi3910/framefill/internal/model"
	"github.com/piwi3910/framefill/internal/project"
)

// workspace is a temp dir holding a two-frame CSV and an image folder.
type workspace struct {
	dir     string
	csv     string
	images  string
	config  string
	presets string
}

func newWorkspace(t *testing.T, images ...string) workspace {
	t.Helper()
	dir := t.TempDir()
	ws := workspace{
		dir:     dir,
		csv:     filepath.Join(dir, "frames.csv"),
		images:  filepath.Join(dir, "photos"),
		config:  filepath.Join(dir, "config.json"),
		presets: filepath.Join(dir, "presets.json"),
	}
	// Listed right to left; reading order puts A first.
	csv := "label,left,top,right,bottom\nB,60,0,110,50\nA,0,0,50,50\n"
	if err := os.WriteFile(ws.csv, []byte(csv), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(ws.images, 0755); err != nil {
		t.Fatal(err)
	}
	for _, name := range images {
		writePNG(t, filepath.Join(ws.images, name), 20, 10)
	}
	return ws
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{G: 200, A: 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

// execute runs the CLI with args and returns stdout, the log output and the
// command error.
func execute(t *testing.T, ws workspace, args ...string) (string, string, error) {
	t.Helper()
	var logs, out bytes.Buffer
	c := New(&logs, LogInfo)
	c.AppConfigPath = ws.config
	c.PresetsPath = ws.presets
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&logs)
	err := root.ExecuteContext(context.Background())
	return out.String(), logs.String(), err
}

func TestFill_EndToEnd(t *testing.T) {
	ws := newWorkspace(t, "a.png", "b.png", "c.png")
	output := filepath.Join(ws.dir, "out.framefill.json")
	reportPath := filepath.Join(ws.dir, "report.yaml")
	pdfPath := filepath.Join(ws.dir, "out.pdf")
	pngPath := filepath.Join(ws.dir, "out.png")
	labelsPath := filepath.Join(ws.dir, "labels.pdf")

	out, logs, err := execute(t, ws, "fill", ws.csv,
		"--images", ws.images,
		"-o", output,
		"--report", reportPath,
		"--pdf", pdfPath,
		"--image", pngPath, "--image-width", "200",
		"--labels", labelsPath,
	)
	if err != nil {
		t.Fatalf("fill failed: %v\nlogs:\n%s", err, logs)
	}
	if !strings.Contains(out, "Filled 2 of 2 frames.") {
		t.Errorf("unexpected output %q", out)
	}

	for _, p := range []string{output, reportPath, pdfPath, pngPath, labelsPath} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("expected %s to exist: %v", filepath.Base(p), err)
		}
	}

	rf, err := project.LoadReport(reportPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(rf.Results) != 2 || rf.Results[0].Label != "A" || rf.Results[0].Asset != "a.png" || rf.Results[1].Asset != "b.png" {
		t.Errorf("unexpected report results %+v", rf.Results)
	}

	doc, err := project.LoadDocument(output)
	if err != nil {
		t.Fatal(err)
	}
	// Two shapes plus one group, clip and image per frame.
	if doc.Len() != 8 {
		t.Errorf("expected 8 items in the filled document, got %d", doc.Len())
	}

	cfg, err := project.LoadAppConfig(ws.config)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LastImageFolder == "" || len(cfg.RecentDocuments) != 1 || cfg.RecentDocuments[0] != output {
		t.Errorf("preferences not updated: %+v", cfg)
	}
}

func TestFill_UsesLastImageFolder(t *testing.T) {
	ws := newWorkspace(t, "a.png")
	cfg := model.DefaultAppConfig()
	cfg.LastImageFolder = ws.images
	if err := project.SaveAppConfig(ws.config, cfg); err != nil {
		t.Fatal(err)
	}

	out, _, err := execute(t, ws, "fill", ws.csv)
	if err != nil {
		t.Fatalf("fill failed: %v", err)
	}
	if !strings.Contains(out, "Filled 2 of 2 frames (images repeated).") {
		t.Errorf("unexpected output %q", out)
	}
	if _, err := os.Stat(filepath.Join(ws.dir, "frames.filled"+project.DocumentExt)); err != nil {
		t.Errorf("expected default output next to the input: %v", err)
	}
}

func TestFill_FatalErrors(t *testing.T) {
	ws := newWorkspace(t)

	_, _, err := execute(t, ws, "fill", ws.csv, "--images", ws.images)
	if !errors.Is(err, model.ErrNoImages) {
		t.Errorf("expected ErrNoImages, got %v", err)
	}
	if ExitCode(err) != 2 {
		t.Errorf("expected exit code 2, got %d", ExitCode(err))
	}

	_, _, err = execute(t, ws, "fill", ws.csv)
	if !errors.Is(err, model.ErrCancelled) {
		t.Errorf("expected ErrCancelled without a folder, got %v", err)
	}
	if !strings.Contains(err.Error(), "--images") {
		t.Errorf("expected a hint about --images, got %v", err)
	}

	_, _, err = execute(t, ws, "fill", ws.csv, "--images", ws.images, "--scale", "stretch")
	if err == nil {
		t.Error("expected error for unknown scale mode")
	}

	_, _, err = execute(t, ws, "fill", filepath.Join(ws.dir, "missing.csv"), "--images", ws.images)
	if err == nil {
		t.Error("expected error for missing input")
	}
}

func TestResolveSettingsPrecedence(t *testing.T) {
	ws := newWorkspace(t, "a.png")
	settingsFile := filepath.Join(ws.dir, "settings.toml")
	if err := os.WriteFile(settingsFile, []byte("scale_mode = \"contain\"\nrow_epsilon = 3.0\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg := model.DefaultAppConfig()
	cfg.DefaultRotateToMatch = false
	if err := project.SaveAppConfig(ws.config, cfg); err != nil {
		t.Fatal(err)
	}
	reportPath := filepath.Join(ws.dir, "r.yaml")

	_, logs, err := execute(t, ws, "fill", ws.csv, "--images", ws.images,
		"--config", settingsFile, "--row-epsilon", "7", "--report", reportPath)
	if err != nil {
		t.Fatalf("fill failed: %v\n%s", err, logs)
	}
	rf, err := project.LoadReport(reportPath)
	if err != nil {
		t.Fatal(err)
	}
	want := model.Settings{ScaleMode: model.ScaleContain, RotateToMatch: false, RowEpsilon: 7}
	if rf.Settings != want {
		t.Errorf("expected %+v, got %+v", want, rf.Settings)
	}
}

func TestFramesCommand(t *testing.T) {
	ws := newWorkspace(t)

	out, _, err := execute(t, ws, "frames", ws.csv)
	if err != nil {
		t.Fatalf("frames failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 rows, got %q", out)
	}
	if !strings.HasPrefix(strings.TrimSpace(lines[1]), "1") || !strings.Contains(lines[1], "A") {
		t.Errorf("expected frame A first, got %q", lines[1])
	}

	out, _, err = execute(t, ws, "frames", ws.csv, "--format", "yaml")
	if err != nil {
		t.Fatalf("frames yaml failed: %v", err)
	}
	if !strings.Contains(out, "label: A") {
		t.Errorf("expected YAML frames, got %q", out)
	}

	if _, _, err := execute(t, ws, "frames", ws.csv, "--format", "xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestImagesCommand(t *testing.T) {
	ws := newWorkspace(t, "b.png", "A.png")
	if err := os.WriteFile(filepath.Join(ws.images, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	out, _, err := execute(t, ws, "images", ws.images)
	if err != nil {
		t.Fatalf("images failed: %v", err)
	}
	if strings.Contains(out, "notes.txt") {
		t.Error("non-image files must not be listed")
	}
	if strings.Index(out, "A.png") > strings.Index(out, "b.png") {
		t.Errorf("expected case-insensitive name order, got %q", out)
	}
	if !strings.Contains(out, "20x10") || !strings.Contains(out, "landscape") {
		t.Errorf("expected probed sizes, got %q", out)
	}
}

func TestPresetsCommand(t *testing.T) {
	ws := newWorkspace(t)
	custom := []model.Preset{{Name: "Mine", Settings: model.Settings{ScaleMode: model.ScaleCover, RowEpsilon: 2}}}
	if err := project.SavePresets(ws.presets, custom); err != nil {
		t.Fatal(err)
	}

	out, _, err := execute(t, ws, "presets")
	if err != nil {
		t.Fatalf("presets failed: %v", err)
	}
	if !strings.Contains(out, "Contain") || !strings.Contains(out, "Mine") || !strings.Contains(out, "saved") {
		t.Errorf("unexpected presets output %q", out)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{context.Canceled, 130},
		{model.ErrCancelled, 130},
		{model.ErrNoFrames, 2},
		{errors.New("boom"), 1},
	}
	for _, tt := range tests {
		if got := ExitCode(tt.err); got != tt.want {
			t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestDefaultOutputPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{filepath.Join("dir", "frames.csv"), filepath.Join("dir", "frames.filled"+project.DocumentExt)},
		{filepath.Join("dir", "album"+project.DocumentExt), filepath.Join("dir", "album.filled"+project.DocumentExt)},
		{filepath.Join("dir", "plan.dxf"), filepath.Join("dir", "plan.filled"+project.DocumentExt)},
	}
	for _, tt := range tests {
		if got := defaultOutputPath(tt.in); got != tt.want {
			t.Errorf("defaultOutputPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGUICommand(t *testing.T) {
	var logs bytes.Buffer
	c := New(&logs, LogInfo)

	if cmd, _, _ := c.RootCommand().Find([]string{"gui"}); cmd != nil && cmd.Name() == "gui" {
		t.Error("gui command should not exist without a GUI hook")
	}

	var opened string
	c.GUI = func(ctx context.Context, document string) error {
		opened = document
		return nil
	}
	root := c.RootCommand()
	root.SetArgs([]string{"gui", "album.framefill.json"})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("gui failed: %v", err)
	}
	if opened != "album.framefill.json" {
		t.Errorf("expected document to be passed through, got %q", opened)
	}
}
