package ui

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"path/filepath"
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/charmbracelet/log"

	document "github.com/piwi3910/framefill/internal/canvas"
	"github.com/piwi3910/framefill/internal/engine"
	"github.com/piwi3910/framefill/internal/export"
	"github.com/piwi3910/framefill/internal/model"
	"github.com/piwi3910/framefill/internal/project"
	"github.com/piwi3910/framefill/internal/ui/widgets"
)

// AppID identifies the application to fyne for preferences storage.
const AppID = "com.piwi3910.framefill"

// Document view geometry in device independent pixels.
const (
	viewWidth    = 720
	viewHeight   = 520
	renderPixels = 1440
)

// Options configures the desktop application.
type Options struct {
	ConfigPath  string
	PresetsPath string
	Logger      *log.Logger
	Document    string // opened at startup when not empty
}

// App holds all application state and UI references.
type App struct {
	ctx    context.Context
	app    fyne.App
	window fyne.Window
	logger *log.Logger
	theme  *FramefillTheme

	configPath  string
	presetsPath string
	config      model.AppConfig
	presets     []model.Preset
	settings    model.Settings

	doc        *document.Document
	docPath    string
	report     *model.FillReport
	lastFolder string
	rendered   image.Image

	running bool
	cancel  context.CancelFunc
	working dialog.Dialog

	// UI references for dynamic updates
	frameCanvas     *widgets.FrameCanvas
	viewContainer   *fyne.Container
	resultContainer *fyne.Container
	presetSelect    *widget.Select
	scaleSelect     *widget.Select
	rotateCheck     *widget.Check
	epsilonEntry    *widget.Entry
	fillButton      *widget.Button
	status          *widget.Label
}

// Run starts the desktop application and blocks until its window is closed
// or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	application := app.NewWithID(AppID)
	window := application.NewWindow("framefill")

	appUI := NewApp(ctx, application, window, opts)
	appUI.SetupMenus()
	window.SetContent(withToolTips(appUI.Build(), window))
	window.Resize(fyne.NewSize(1200, 760))
	window.CenterOnScreen()
	if opts.Document != "" {
		appUI.openPath(opts.Document)
	}

	stop := context.AfterFunc(ctx, func() {
		fyne.Do(application.Quit)
	})
	defer stop()

	window.ShowAndRun()
	return nil
}

// NewApp loads preferences and presets and prepares the application state.
// Load failures are logged and fall back to defaults.
func NewApp(ctx context.Context, application fyne.App, window fyne.Window, opts Options) *App {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	a := &App{
		ctx:         ctx,
		app:         application,
		window:      window,
		logger:      logger,
		configPath:  opts.ConfigPath,
		presetsPath: opts.PresetsPath,
		settings:    model.DefaultSettings(),
	}

	cfg, err := project.LoadAppConfig(a.configPath)
	if err != nil {
		logger.Warn("could not load preferences, using defaults", "path", a.configPath, "err", err)
		cfg = model.DefaultAppConfig()
	}
	a.config = cfg
	a.config.ApplyToSettings(&a.settings)
	a.lastFolder = cfg.LastImageFolder
	a.loadPresets()

	a.theme = NewFramefillTheme(cfg.Theme)
	application.Settings().SetTheme(a.theme)
	return a
}

func (a *App) loadPresets() {
	presets, err := project.AllPresets(a.presetsPath)
	if err != nil {
		a.logger.Warn("could not load presets", "path", a.presetsPath, "err", err)
		presets = model.BuiltInPresets()
	}
	a.presets = presets
}

// SetupMenus creates the native menu bar for the application.
func (a *App) SetupMenus() {
	recent := fyne.NewMenuItem("Open Recent", nil)
	var recentItems []*fyne.MenuItem
	for _, path := range a.config.RecentDocuments {
		recentItems = append(recentItems, fyne.NewMenuItem(filepath.Base(path), func() {
			a.openPath(path)
		}))
	}
	if len(recentItems) == 0 {
		none := fyne.NewMenuItem("No recent documents", nil)
		none.Disabled = true
		recentItems = append(recentItems, none)
	}
	recent.ChildMenu = fyne.NewMenu("", recentItems...)

	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open...", a.showOpenDialog),
		recent,
		fyne.NewMenuItem("Save Document...", a.saveDocument),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Export PDF...", a.exportPDF),
		fyne.NewMenuItem("Export Image...", a.exportImage),
		fyne.NewMenuItem("Export Frame Labels...", a.exportLabels),
		fyne.NewMenuItem("Save Fill Report...", a.saveReport),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", func() {
			a.window.Close()
		}),
	)

	editMenu := fyne.NewMenu("Edit",
		fyne.NewMenuItem("Select All Shapes", a.selectAllShapes),
	)

	toolsMenu := fyne.NewMenu("Tools",
		fyne.NewMenuItem("Fill Frames...", a.runFill),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Save Settings as Preset...", a.showSavePresetDialog),
		fyne.NewMenuItem("Import Preset...", a.importPreset),
		fyne.NewMenuItem("Export Preset...", a.exportPreset),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Preferences...", a.showPreferencesDialog),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", a.showAboutDialog),
	)

	a.window.SetMainMenu(fyne.NewMainMenu(fileMenu, editMenu, toolsMenu, helpMenu))
}

func (a *App) showAboutDialog() {
	dialog.ShowInformation(
		"About framefill",
		"framefill\n\n"+
			"Places one image from a folder into each selected frame,\n"+
			"rotated to the frame's orientation, scaled to cover it,\n"+
			"centered and clipped to its edges.",
		a.window,
	)
}

// Build constructs the full UI and returns the root container.
func (a *App) Build() fyne.CanvasObject {
	a.status = widget.NewLabel("Open a document or import frames to begin.")

	toolbar := container.NewHBox(
		newIconButtonWithTooltip(theme.FolderOpenIcon(), "Open document or import frames", a.showOpenDialog),
		newIconButtonWithTooltip(theme.DocumentSaveIcon(), "Save document", a.saveDocument),
		newIconButtonWithTooltip(theme.MediaPlayIcon(), "Fill frames", a.runFill),
		widget.NewSeparator(),
		newIconButtonWithTooltip(theme.DocumentPrintIcon(), "Export PDF", a.exportPDF),
		newIconButtonWithTooltip(theme.FileImageIcon(), "Export image", a.exportImage),
		layout.NewSpacer(),
	)

	a.viewContainer = container.NewStack()
	a.resultContainer = container.NewStack()
	a.refreshFrames()

	main := container.NewHSplit(
		a.buildSettingsPanel(),
		container.NewVSplit(
			container.NewScroll(a.viewContainer),
			a.resultContainer,
		),
	)
	main.Offset = 0.28

	return container.NewBorder(toolbar, a.status, nil, nil, main)
}

// ─── Settings Panel ────────────────────────────────────────

func (a *App) buildSettingsPanel() fyne.CanvasObject {
	a.presetSelect = widget.NewSelect(a.presetNames(), func(name string) {
		if p, ok := model.FindPreset(a.presets, name); ok {
			a.applySettings(p.Settings)
		}
	})
	a.presetSelect.PlaceHolder = "Choose a preset..."

	a.scaleSelect = widget.NewSelect([]string{string(model.ScaleCover), string(model.ScaleContain)}, func(selected string) {
		a.settings.ScaleMode = model.ScaleMode(selected)
	})

	a.rotateCheck = widget.NewCheck("", func(b bool) {
		a.settings.RotateToMatch = b
	})

	a.epsilonEntry = widget.NewEntry()
	a.epsilonEntry.OnChanged = func(text string) {
		v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil || v <= 0 || v == a.settings.RowEpsilon {
			return
		}
		a.settings.RowEpsilon = v
		a.refreshFrames()
	}

	a.applySettings(a.settings)

	layoutSection := widget.NewCard("Layout", "", container.NewGridWithColumns(2,
		widget.NewLabel("Preset"), a.presetSelect,
		widget.NewLabel("Scale Mode"), a.scaleSelect,
		widget.NewLabel("Rotate To Match"), a.rotateCheck,
		widget.NewLabel("Row Tolerance"), a.epsilonEntry,
	))

	savePreset := widget.NewButtonWithIcon("Save as Preset", theme.ContentAddIcon(), a.showSavePresetDialog)

	a.fillButton = widget.NewButtonWithIcon("Fill Frames...", theme.MediaPlayIcon(), a.runFill)
	a.fillButton.Importance = widget.HighImportance

	return container.NewVScroll(container.NewVBox(
		layoutSection,
		savePreset,
		widget.NewSeparator(),
		a.fillButton,
	))
}

func (a *App) presetNames() []string {
	names := make([]string, len(a.presets))
	for i, p := range a.presets {
		names[i] = p.Name
	}
	return names
}

// applySettings copies s into the state and the settings widgets.
func (a *App) applySettings(s model.Settings) {
	a.settings = s
	a.scaleSelect.SetSelected(string(s.ScaleMode))
	a.rotateCheck.SetChecked(s.RotateToMatch)
	a.epsilonEntry.SetText(strconv.FormatFloat(s.RowEpsilon, 'g', -1, 64))
	a.refreshFrames()
}

// currentSettings returns the settings from the panel, checking the row
// tolerance text that OnChanged may have ignored.
func (a *App) currentSettings() (model.Settings, error) {
	s := a.settings
	v, err := strconv.ParseFloat(strings.TrimSpace(a.epsilonEntry.Text), 64)
	if err != nil {
		return s, fmt.Errorf("row tolerance %q is not a number", a.epsilonEntry.Text)
	}
	s.RowEpsilon = v
	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

// ─── Document View ─────────────────────────────────────────

// frames returns the document's selected frames in fill order.
func (a *App) frames() []model.Frame {
	if a.doc == nil {
		return nil
	}
	frames, err := engine.CollectFrames(a.doc.Selection(), a.logger)
	if err != nil {
		return nil
	}
	return engine.SortFrames(frames, engine.FrameAxis(frames), a.settings.RowEpsilon)
}

// refreshFrames redraws the document view and the result list.
func (a *App) refreshFrames() {
	if a.viewContainer == nil {
		return
	}
	frames := a.frames()

	a.viewContainer.RemoveAll()
	a.frameCanvas = nil
	if a.doc != nil {
		if ext, ok := a.doc.Extent(); ok {
			a.frameCanvas = widgets.NewFrameCanvas(frames, ext, a.doc.Axis(), viewWidth, viewHeight)
			a.frameCanvas.SetReport(a.report)
			if a.rendered != nil {
				a.frameCanvas.SetBackground(a.rendered)
			}
			a.viewContainer.Add(container.NewCenter(a.frameCanvas))
		}
	}
	a.viewContainer.Refresh()

	a.resultContainer.RemoveAll()
	a.resultContainer.Add(widgets.RenderFrameResults(frames, a.report))
	a.resultContainer.Refresh()
}

// renderDocument rasterizes the document in the background and shows it
// behind the frames.
func (a *App) renderDocument() {
	a.rendered = nil
	doc := a.doc
	if doc == nil {
		return
	}
	go func() {
		img, err := export.Render(a.ctx, doc, export.RasterOptions{
			Width:      renderPixels,
			Background: color.White,
		})
		if err != nil {
			a.logger.Warn("render failed", "err", err)
			return
		}
		fyne.Do(func() {
			if a.doc != doc {
				return
			}
			a.rendered = img
			if a.frameCanvas != nil {
				a.frameCanvas.SetBackground(img)
			}
		})
	}()
}

// setDocument replaces the current document and resets the run state.
func (a *App) setDocument(doc *document.Document, path string) {
	a.doc = doc
	a.docPath = path
	a.report = nil
	a.refreshFrames()
	a.renderDocument()

	n := len(a.frames())
	a.setStatus(fmt.Sprintf("%s: %d frames selected.", doc.Name(), n))
}

func (a *App) setStatus(msg string) {
	if a.status != nil {
		a.status.SetText(msg)
	}
}

func (a *App) selectAllShapes() {
	if a.doc == nil {
		return
	}
	var ids []string
	for _, it := range a.doc.Roots() {
		if it.Kind == document.KindPath {
			ids = append(ids, it.ID)
		}
	}
	if err := a.doc.Select(ids...); err != nil {
		dialog.ShowError(err, a.window)
		return
	}
	a.refreshFrames()
	a.setStatus(fmt.Sprintf("%d frames selected.", len(a.frames())))
}
