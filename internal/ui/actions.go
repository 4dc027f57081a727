package ui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"github.com/piwi3910/framefill/internal/engine"
	"github.com/piwi3910/framefill/internal/export"
	"github.com/piwi3910/framefill/internal/model"
	"github.com/piwi3910/framefill/internal/project"
	"github.com/piwi3910/framefill/internal/source"
)

// openExtensions lists the files the Open dialog accepts.
var openExtensions = []string{".json", ".csv", ".tsv", ".txt", ".xlsx", ".xlsm", ".dxf"}

// ─── Documents ─────────────────────────────────────────────

func (a *App) showOpenDialog() {
	d := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		path := reader.URI().Path()
		reader.Close()
		a.openPath(path)
	}, a.window)
	d.SetFilter(storage.NewExtensionFileFilter(openExtensions))
	d.Show()
}

// openPath loads a saved document or imports frames from a table or drawing.
func (a *App) openPath(path string) {
	if a.running {
		return
	}
	if project.IsDocumentFile(path) {
		doc, err := project.LoadDocument(path)
		if err != nil {
			dialog.ShowError(err, a.window)
			return
		}
		a.setDocument(doc, path)
		a.rememberDocument(path)
		return
	}

	doc, result := project.ImportDocument(path)
	for _, w := range result.Warnings {
		a.logger.Warn(w, "file", filepath.Base(path))
	}
	if len(result.Errors) > 0 {
		errorMsg := "Errors encountered during import:\n\n" + strings.Join(result.Errors, "\n")
		dialog.ShowError(fmt.Errorf("%s", errorMsg), a.window)
	}
	if doc == nil {
		return
	}
	a.setDocument(doc, "")

	msg := fmt.Sprintf("Imported %d frames.", len(result.Shapes))
	if len(result.Errors) > 0 {
		msg += fmt.Sprintf("\n\nHowever, %d rows had errors and were skipped.", len(result.Errors))
	}
	dialog.ShowInformation("Import Complete", msg, a.window)
}

func (a *App) saveDocument() {
	if !a.requireDocument() {
		return
	}
	name := a.doc.Name() + project.DocumentExt
	if a.docPath != "" {
		name = filepath.Base(a.docPath)
	}
	a.showSaveDialog(name, func(path string) error {
		if !strings.HasSuffix(path, ".json") {
			path += project.DocumentExt
		}
		if err := project.SaveDocument(path, a.doc); err != nil {
			return err
		}
		a.docPath = path
		a.rememberDocument(path)
		a.setStatus("Saved " + filepath.Base(path) + ".")
		return nil
	})
}

func (a *App) rememberDocument(path string) {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	a.config.AddRecentDocument(path)
	a.saveConfig()
	a.SetupMenus()
}

func (a *App) saveConfig() {
	if err := project.SaveAppConfig(a.configPath, a.config); err != nil {
		a.logger.Warn("could not save preferences", "path", a.configPath, "err", err)
	}
}

func (a *App) requireDocument() bool {
	if a.doc == nil {
		dialog.ShowInformation("No document", "Open a document or import frames first.", a.window)
		return false
	}
	return true
}

func (a *App) requireReport() bool {
	if a.report == nil {
		dialog.ShowInformation("No results", "Fill the frames first.", a.window)
		return false
	}
	return true
}

// showSaveDialog asks for a file name and passes the chosen path to save.
func (a *App) showSaveDialog(name string, save func(path string) error) {
	d := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		path := writer.URI().Path()
		writer.Close()
		if err := save(path); err != nil {
			dialog.ShowError(err, a.window)
		}
	}, a.window)
	d.SetFileName(name)
	d.Show()
}

// ─── Exports ───────────────────────────────────────────────

// exportInBackground runs export off the UI goroutine and reports the outcome.
func (a *App) exportInBackground(path string, run func() error) {
	a.setStatus("Exporting " + filepath.Base(path) + "...")
	go func() {
		err := run()
		fyne.Do(func() {
			if err != nil {
				a.setStatus("Export failed.")
				dialog.ShowError(err, a.window)
				return
			}
			a.setStatus("Exported " + filepath.Base(path) + ".")
			dialog.ShowInformation("Export Complete", fmt.Sprintf("Saved to %s", path), a.window)
		})
	}()
}

func (a *App) exportPDF() {
	if !a.requireDocument() {
		return
	}
	doc, report, settings := a.doc, a.report, a.settings
	a.showSaveDialog(doc.Name()+".pdf", func(path string) error {
		a.exportInBackground(path, func() error {
			return export.ExportPDF(a.ctx, path, doc, report, settings)
		})
		return nil
	})
}

func (a *App) exportImage() {
	if !a.requireDocument() {
		return
	}
	doc := a.doc
	a.showSaveDialog(doc.Name()+".png", func(path string) error {
		if !source.IsImageFile(path) {
			path += ".png"
		}
		a.exportInBackground(path, func() error {
			return export.ExportImage(a.ctx, path, doc, export.DefaultRasterOptions())
		})
		return nil
	})
}

func (a *App) exportLabels() {
	if !a.requireDocument() || !a.requireReport() {
		return
	}
	report := *a.report
	a.showSaveDialog(a.doc.Name()+"-labels.pdf", func(path string) error {
		if err := export.ExportLabels(path, report); err != nil {
			return err
		}
		dialog.ShowInformation("Export Complete", fmt.Sprintf("Labels saved to %s", path), a.window)
		return nil
	})
}

func (a *App) saveReport() {
	if !a.requireDocument() || !a.requireReport() {
		return
	}
	rf := project.NewReportFile(*a.report, a.settings, a.lastFolder)
	a.showSaveDialog(a.doc.Name()+"-report.yaml", func(path string) error {
		if err := project.SaveReport(path, rf); err != nil {
			return err
		}
		a.setStatus("Saved report " + filepath.Base(path) + ".")
		return nil
	})
}

// ─── Fill ──────────────────────────────────────────────────

// runFill asks for the image folder and fills the selected frames in the
// background. The document is left untouched when the run fails before
// filling starts.
func (a *App) runFill() {
	if a.running || !a.requireDocument() {
		return
	}
	settings, err := a.currentSettings()
	if err != nil {
		dialog.ShowError(err, a.window)
		return
	}

	ctx, cancel := context.WithCancel(a.ctx)
	a.cancel = cancel
	a.setRunning(true)

	doc := a.doc
	var folder string
	picker := engine.FolderPickerFunc(func(ctx context.Context) (string, error) {
		dir, err := a.pickFolder(ctx)
		folder = dir
		return dir, err
	})

	go func() {
		defer cancel()
		report, err := engine.Run(ctx, engine.Job{
			Document: doc,
			Picker:   picker,
			Settings: settings,
			Logger:   a.logger,
		})
		fyne.Do(func() {
			a.finishFill(report, folder, err)
		})
	}()
}

// pickFolder shows the folder dialog on the UI goroutine and waits for the
// answer. Closing the dialog without a choice cancels the run.
func (a *App) pickFolder(ctx context.Context) (string, error) {
	picked := make(chan string, 1)
	fyne.Do(func() {
		d := dialog.NewFolderOpen(func(uri fyne.ListableURI, err error) {
			if err != nil || uri == nil {
				picked <- ""
				return
			}
			picked <- uri.Path()
		}, a.window)
		if a.lastFolder != "" {
			if loc, err := storage.ListerForURI(storage.NewFileURI(a.lastFolder)); err == nil {
				d.SetLocation(loc)
			}
		}
		d.Show()
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case dir := <-picked:
		if dir == "" {
			return "", model.ErrCancelled
		}
		fyne.Do(func() {
			a.showWorking(filepath.Base(dir))
		})
		return dir, nil
	}
}

// showWorking shows a progress dialog whose Cancel button stops the run
// between frames.
func (a *App) showWorking(folder string) {
	content := widget.NewProgressBarInfinite()
	d := dialog.NewCustom("Filling frames from "+folder, "Cancel", content, a.window)
	d.SetOnClosed(func() {
		if a.cancel != nil {
			a.cancel()
		}
	})
	a.working = d
	d.Show()
}

func (a *App) setRunning(running bool) {
	a.running = running
	if a.fillButton == nil {
		return
	}
	if running {
		a.fillButton.Disable()
		a.setStatus("Choose the image folder...")
	} else {
		a.fillButton.Enable()
	}
}

func (a *App) finishFill(report model.FillReport, folder string, err error) {
	a.setRunning(false)
	if a.working != nil {
		a.working.Hide()
		a.working = nil
	}
	a.cancel = nil

	if err != nil {
		if errors.Is(err, model.ErrCancelled) {
			a.setStatus("Fill cancelled.")
			return
		}
		a.setStatus("Fill failed.")
		dialog.ShowError(err, a.window)
		return
	}

	a.report = &report
	if folder != "" {
		if abs, err := filepath.Abs(folder); err == nil {
			folder = abs
		}
		a.lastFolder = folder
		a.config.LastImageFolder = folder
		a.saveConfig()
	}
	a.refreshFrames()
	a.renderDocument()
	a.setStatus(report.Summary())

	msg := report.Summary()
	var skipped []string
	for _, res := range report.Results {
		if res.OK() {
			continue
		}
		reason := string(model.ReasonOf(res.Err))
		if reason == "" && res.Err != nil {
			reason = res.Err.Error()
		}
		skipped = append(skipped, fmt.Sprintf("Frame %d: %s", res.FrameIndex+1, reason))
	}
	if len(skipped) > 0 {
		if len(skipped) > 10 {
			skipped = append(skipped[:10], fmt.Sprintf("... and %d more", len(skipped)-10))
		}
		msg += "\n\n" + strings.Join(skipped, "\n")
	}
	dialog.ShowInformation("Fill Complete", msg, a.window)
}

// ─── Presets & Preferences ─────────────────────────────────

func (a *App) showSavePresetDialog() {
	nameEntry := widget.NewEntry()
	nameEntry.SetPlaceHolder("My preset")
	descEntry := widget.NewEntry()

	dialog.ShowForm("Save Settings as Preset", "Save", "Cancel",
		[]*widget.FormItem{
			widget.NewFormItem("Name", nameEntry),
			widget.NewFormItem("Description", descEntry),
		},
		func(ok bool) {
			if !ok {
				return
			}
			settings, err := a.currentSettings()
			if err != nil {
				dialog.ShowError(err, a.window)
				return
			}
			preset := model.Preset{
				Name:        strings.TrimSpace(nameEntry.Text),
				Description: strings.TrimSpace(descEntry.Text),
				Settings:    settings,
			}
			if err := a.addCustomPreset(preset); err != nil {
				dialog.ShowError(err, a.window)
				return
			}
			a.setStatus("Saved preset " + preset.Name + ".")
		},
		a.window,
	)
}

// addCustomPreset stores preset, replacing a saved preset with the same name.
// Built-in names are reserved.
func (a *App) addCustomPreset(preset model.Preset) error {
	if preset.Name == "" {
		return fmt.Errorf("preset name is required")
	}
	if _, builtIn := model.FindPreset(model.BuiltInPresets(), preset.Name); builtIn {
		return fmt.Errorf("%q is a built-in preset", preset.Name)
	}
	custom, err := project.LoadPresets(a.presetsPath)
	if err != nil {
		return err
	}
	kept := custom[:0]
	for _, p := range custom {
		if !strings.EqualFold(p.Name, preset.Name) {
			kept = append(kept, p)
		}
	}
	if err := project.SavePresets(a.presetsPath, append(kept, preset)); err != nil {
		return err
	}
	a.loadPresets()
	a.presetSelect.Options = a.presetNames()
	a.presetSelect.Refresh()
	return nil
}

func (a *App) importPreset() {
	d := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		path := reader.URI().Path()
		reader.Close()
		preset, err := project.ImportPreset(path)
		if err != nil {
			dialog.ShowError(err, a.window)
			return
		}
		if err := a.addCustomPreset(preset); err != nil {
			dialog.ShowError(err, a.window)
			return
		}
		dialog.ShowInformation("Preset Imported", fmt.Sprintf("Imported preset %q.", preset.Name), a.window)
	}, a.window)
	d.SetFilter(storage.NewExtensionFileFilter([]string{".json"}))
	d.Show()
}

// exportPreset writes the selected preset, or the current settings when no
// preset is selected.
func (a *App) exportPreset() {
	settings, err := a.currentSettings()
	if err != nil {
		dialog.ShowError(err, a.window)
		return
	}
	preset := model.Preset{Name: "Custom", Settings: settings}
	if p, ok := model.FindPreset(a.presets, a.presetSelect.Selected); ok {
		preset = p
	}
	fileName := strings.ReplaceAll(strings.ToLower(preset.Name), " ", "-") + ".json"
	a.showSaveDialog(fileName, func(path string) error {
		return project.ExportPreset(path, preset)
	})
}

func (a *App) showPreferencesDialog() {
	themeSelect := widget.NewSelect([]string{"system", "light", "dark"}, nil)
	themeSelect.SetSelected(a.config.Theme)
	if themeSelect.Selected == "" {
		themeSelect.SetSelected("system")
	}
	useDefaults := widget.NewCheck("Use current layout settings for new runs", nil)

	dialog.ShowForm("Preferences", "Save", "Cancel",
		[]*widget.FormItem{
			widget.NewFormItem("Theme", themeSelect),
			widget.NewFormItem("", useDefaults),
		},
		func(ok bool) {
			if !ok {
				return
			}
			a.config.Theme = themeSelect.Selected
			a.theme.SetPreference(a.config.Theme)
			a.app.Settings().SetTheme(a.theme)

			if useDefaults.Checked {
				settings, err := a.currentSettings()
				if err != nil {
					dialog.ShowError(err, a.window)
					return
				}
				a.config.DefaultScaleMode = settings.ScaleMode
				a.config.DefaultRotateToMatch = settings.RotateToMatch
				a.config.DefaultRowEpsilon = settings.RowEpsilon
			}
			a.saveConfig()
		},
		a.window,
	)
}
