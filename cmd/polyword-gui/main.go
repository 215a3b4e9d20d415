package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/oukeidos/polyword/internal/client"
	"github.com/oukeidos/polyword/internal/config"
	"github.com/oukeidos/polyword/internal/logger"
	"github.com/oukeidos/polyword/internal/session"
	"github.com/oukeidos/polyword/internal/version"
)

const fileLabelLimit = 40

type polywordApp struct {
	window fyne.Window
	ctrl   *session.Controller
	api    *apiSwitch

	defaults config.Config
	cfg      config.Config

	dropZone     *dropZone
	uploadBtn    *widget.Button
	progress     *widget.ProgressBarInfinite
	statusLabel  *widget.Label
	docLabel     *widget.Label
	messageLabel *widget.Label
	results      *fyne.Container
	locators     map[client.Artifact]*widget.Label
	downloadBtns map[client.Artifact]*widget.Button

	cancelMu     sync.Mutex
	cancels      map[uint64]context.CancelFunc
	nextCancelID uint64

	panicNoticeOnce sync.Once
}

func newPolywordApp(w fyne.Window, defaults config.Config) (*polywordApp, error) {
	a := &polywordApp{
		window:   w,
		defaults: defaults,
		api:      &apiSwitch{},
	}
	a.cfg = loadSettings(fyne.CurrentApp().Preferences(), defaults)
	c, err := a.cfg.NewClient()
	if err != nil {
		return nil, err
	}
	a.api.set(c)
	a.ctrl = session.New(a.api, a, &saveDialogSink{app: a})
	a.setupUI()
	a.apply(a.ctrl.Snapshot())
	return a, nil
}

func (a *polywordApp) setupUI() {
	a.dropZone = newDropZone(a.showFilePicker, func(on bool) {
		if on {
			a.ctrl.OnDragEnter()
		} else {
			a.ctrl.OnDragLeave()
		}
	})

	a.uploadBtn = widget.NewButtonWithIcon("Upload", theme.UploadIcon(), a.submit)
	a.uploadBtn.Importance = widget.HighImportance

	a.progress = widget.NewProgressBarInfinite()
	a.statusLabel = widget.NewLabelWithStyle("", fyne.TextAlignCenter, fyne.TextStyle{Italic: true})
	a.docLabel = widget.NewLabelWithStyle("", fyne.TextAlignCenter, fyne.TextStyle{})

	a.messageLabel = widget.NewLabel("")
	a.locators = make(map[client.Artifact]*widget.Label)
	a.downloadBtns = make(map[client.Artifact]*widget.Button)
	rows := []fyne.CanvasObject{
		widget.NewLabelWithStyle("Processing Results", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		a.messageLabel,
	}
	for _, kind := range client.Artifacts() {
		loc := widget.NewLabel("")
		loc.Truncation = fyne.TextTruncateEllipsis
		btn := widget.NewButtonWithIcon("Download", theme.DownloadIcon(), func() { a.download(kind) })
		a.locators[kind] = loc
		a.downloadBtns[kind] = btn
		rows = append(rows, container.NewBorder(nil, nil,
			widget.NewLabelWithStyle(kind.Label(), fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
			btn, loc))
	}
	a.results = container.NewVBox(rows...)

	settingsBtn := widget.NewButtonWithIcon("", theme.SettingsIcon(), a.showSettings)
	settingsBtn.Importance = widget.LowImportance
	aboutBtn := widget.NewButtonWithIcon("", theme.InfoIcon(), a.showAbout)
	aboutBtn.Importance = widget.LowImportance
	header := container.NewHBox(
		widget.NewLabelWithStyle("PolyWord", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		layout.NewSpacer(), aboutBtn, settingsBtn,
	)

	body := container.NewVBox(
		a.dropZone,
		a.docLabel,
		container.NewCenter(a.uploadBtn),
		a.progress,
		a.statusLabel,
		widget.NewSeparator(),
		a.results,
	)
	a.window.SetContent(container.NewBorder(header, nil, nil, nil, container.NewPadded(body)))
}

// Render implements session.View.
func (a *polywordApp) Render(s session.Snapshot) {
	a.safeDo("ui.render", func() { a.apply(s) })
}

// Alert implements session.View.
func (a *polywordApp) Alert(message string) {
	a.safeDo("ui.alert", func() {
		dialog.ShowError(errors.New(message), a.window)
	})
}

// apply must run on the UI goroutine.
func (a *polywordApp) apply(s session.Snapshot) {
	caption := "Drop a PDF here or click to browse"
	if s.FileName != "" {
		caption = "Selected: " + session.DisplayName(s.FileName, fileLabelLimit)
	}
	a.dropZone.setState(s.DragOver, caption)

	if s.CanUpload && !s.Busy {
		a.uploadBtn.Enable()
	} else {
		a.uploadBtn.Disable()
	}

	switch s.State {
	case session.StateProcessing:
		a.progress.Show()
		a.progress.Start()
		a.statusLabel.SetText("Processing... this may take a few minutes.")
	default:
		a.progress.Stop()
		a.progress.Hide()
		a.statusLabel.SetText("")
	}

	if s.Result == nil {
		a.results.Hide()
		for _, kind := range client.Artifacts() {
			a.locators[kind].SetText("")
			a.downloadBtns[kind].Disable()
		}
		return
	}
	a.messageLabel.SetText(s.Result.Message)
	for _, kind := range client.Artifacts() {
		loc, _ := s.Result.Locator(kind)
		a.locators[kind].SetText(loc)
		if s.CanDownload {
			a.downloadBtns[kind].Enable()
		} else {
			a.downloadBtns[kind].Disable()
		}
	}
	a.results.Show()
}

func (a *polywordApp) showFilePicker() {
	if a.ctrl.State() == session.StateProcessing {
		return
	}
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		uri := reader.URI()
		reader.Close()
		a.ctrl.OnFileSelected(fileFromURI(uri))
		a.inspect(uri)
	}, a.window)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".pdf"}))
	fd.Resize(fyne.NewSize(900, 650))
	fd.Show()
}

func (a *polywordApp) showSettings() {
	server := widget.NewEntry()
	server.SetText(a.cfg.ServerURL)
	server.SetPlaceHolder(config.DefaultServerURL)
	prefix := widget.NewEntry()
	prefix.SetText(a.api.current().BucketPrefix())
	prefix.SetPlaceHolder(client.DefaultBucketPrefix)
	reset := widget.NewButtonWithIcon("Reset to defaults", theme.ViewRestoreIcon(), func() {
		a.resetConfig()
		server.SetText(a.cfg.ServerURL)
		prefix.SetText(a.cfg.BucketPrefix)
	})

	items := []*widget.FormItem{
		widget.NewFormItem("Server URL", server),
		widget.NewFormItem("Bucket prefix", prefix),
		widget.NewFormItem("", reset),
	}
	d := dialog.NewForm("Settings", "Save", "Cancel", items, func(ok bool) {
		if !ok {
			return
		}
		prefs := fyne.CurrentApp().Preferences()
		cfg, err := saveSettings(prefs, a.cfg, guiSettings{ServerURL: server.Text, BucketPrefix: prefix.Text})
		if err != nil {
			dialog.ShowError(err, a.window)
			return
		}
		a.applyConfig(cfg)
	}, a.window)
	d.Resize(fyne.NewSize(520, 220))
	d.Show()
}

// resetConfig drops stored overrides and reconnects with the defaults.
func (a *polywordApp) resetConfig() {
	cfg := resetSettings(fyne.CurrentApp().Preferences(), a.defaults)
	a.applyConfig(cfg)
}

func (a *polywordApp) applyConfig(cfg config.Config) {
	c, err := cfg.NewClient()
	if err != nil {
		dialog.ShowError(err, a.window)
		return
	}
	a.cfg = cfg
	a.api.set(c)
	logger.Info("Settings applied", "server", cfg.ServerURL, "bucket_prefix", c.BucketPrefix())
}

func (a *polywordApp) showAbout() {
	dialog.ShowInformation("About PolyWord",
		"Upload a PDF to extract, translate and refine its text.\n\n"+version.Info(),
		a.window)
}

func main() {
	logger.Init(logger.LevelInfo, nil)
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Unrecovered GUI panic", "scope", "main", "panic", fmt.Sprint(r))
			os.Exit(1)
		}
	}()

	defaults, err := config.Load(config.Options{
		SearchDirs: config.DefaultSearchDirs(),
		DotEnv:     []string{".env"},
	})
	if err != nil {
		logger.Warn("Configuration rejected; using built-in defaults", "error", err)
		defaults = config.Defaults()
	}

	myApp := app.NewWithID("com.polyword.app")
	w := myApp.NewWindow("PolyWord")
	w.SetMaster()
	w.Resize(fyne.NewSize(640, 560))
	w.CenterOnScreen()

	pa, err := newPolywordApp(w, defaults)
	if err != nil {
		logger.Error("Failed to start", "error", err)
		os.Exit(1)
	}
	w.SetCloseIntercept(func() {
		pa.cancelAll("window closed")
		w.SetCloseIntercept(nil)
		w.Close()
	})
	w.SetOnDropped(func(_ fyne.Position, uris []fyne.URI) {
		pa.handleURIs(uris)
	})

	w.ShowAndRun()
}
