package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/test"

	"github.com/oukeidos/polyword/internal/client"
	"github.com/oukeidos/polyword/internal/config"
	"github.com/oukeidos/polyword/internal/files"
	"github.com/oukeidos/polyword/internal/session"
)

func newTestApp(t *testing.T, serverURL string) *polywordApp {
	t.Helper()
	fa := test.NewApp()
	t.Cleanup(fa.Quit)
	w := test.NewWindow(nil)
	t.Cleanup(w.Close)

	defaults := config.Defaults()
	if serverURL != "" {
		defaults.ServerURL = serverURL
	}
	a, err := newPolywordApp(w, defaults)
	if err != nil {
		t.Fatalf("newPolywordApp: %v", err)
	}
	return a
}

func TestApply_InitialState(t *testing.T) {
	a := newTestApp(t, "")

	if !a.uploadBtn.Disabled() {
		t.Fatal("upload must be disabled without a file")
	}
	if a.results.Visible() {
		t.Fatal("results must be hidden without a result")
	}
	for kind, btn := range a.downloadBtns {
		if !btn.Disabled() {
			t.Fatalf("%s download must be disabled", kind)
		}
	}
	if a.progress.Visible() {
		t.Fatal("progress must be hidden when idle")
	}
}

func TestApply_Processing(t *testing.T) {
	a := newTestApp(t, "")
	a.apply(session.Snapshot{
		State:    session.StateProcessing,
		FileName: "report.pdf",
		Busy:     true,
	})
	if !a.uploadBtn.Disabled() {
		t.Fatal("upload must be disabled while processing")
	}
	if !a.progress.Visible() || a.statusLabel.Text == "" {
		t.Fatal("processing indicator not shown")
	}
	if a.dropZone.caption != "Selected: report.pdf" {
		t.Fatalf("caption = %q", a.dropZone.caption)
	}
}

func TestApply_ResultsReady(t *testing.T) {
	a := newTestApp(t, "")
	res := &client.ProcessingResult{
		Message:        "File processed successfully",
		OriginalText:   "gs://polyword-bucket/uploads/a.txt",
		TranslatedText: "gs://polyword-bucket/uploads/b.txt",
		RefinedText:    "gs://polyword-bucket/uploads/c.txt",
	}
	a.apply(session.Snapshot{
		State:       session.StateResultsReady,
		FileName:    "report.pdf",
		CanUpload:   true,
		CanDownload: true,
		DragOver:    true,
		Result:      res,
	})
	if !a.results.Visible() {
		t.Fatal("results must be shown")
	}
	if got := a.locators[client.ArtifactTranslated].Text; got != res.TranslatedText {
		t.Fatalf("translated locator = %q", got)
	}
	for kind, btn := range a.downloadBtns {
		if btn.Disabled() {
			t.Fatalf("%s download must be enabled", kind)
		}
	}
	if !a.dropZone.highlighted {
		t.Fatal("drag-over highlight not applied")
	}
}

func TestUploadFlow_EnablesDownloads(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(client.ProcessingResult{
			OriginalText:   "gs://polyword-bucket/uploads/a.txt",
			TranslatedText: "gs://polyword-bucket/uploads/b.txt",
			RefinedText:    "gs://polyword-bucket/uploads/c.txt",
		})
	}))
	defer srv.Close()
	a := newTestApp(t, srv.URL)

	a.ctrl.OnFileSelected(session.FileFromBytes("report.pdf", []byte("%PDF")))
	if err := a.ctrl.OnSubmit(context.Background()); err != nil {
		t.Fatalf("OnSubmit: %v", err)
	}
	a.apply(a.ctrl.Snapshot())
	if a.downloadBtns[client.ArtifactRefined].Disabled() {
		t.Fatal("download must be enabled after a result")
	}
}

func TestApplyConfig_SwitchesService(t *testing.T) {
	a := newTestApp(t, "")
	cfg := a.cfg
	cfg.ServerURL = "https://polyword.example.com"
	cfg.BucketPrefix = "gs://other/"
	a.applyConfig(cfg)
	if got := a.api.current().BucketPrefix(); got != "gs://other/" {
		t.Fatalf("client prefix = %q", got)
	}
}

type closeRecorder struct {
	bytes.Buffer
	closed   bool
	closeErr error
}

func (c *closeRecorder) Close() error {
	c.closed = true
	return c.closeErr
}

func TestCopyStaged(t *testing.T) {
	staged, err := files.Stage("refined.txt", []byte("hola"))
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}
	defer staged.Release()

	rec := &closeRecorder{}
	if err := copyStaged(rec, staged); err != nil {
		t.Fatalf("copyStaged: %v", err)
	}
	if rec.String() != "hola" || !rec.closed {
		t.Fatalf("unexpected state: %q closed=%v", rec.String(), rec.closed)
	}

	rec = &closeRecorder{closeErr: errors.New("disk full")}
	if err := copyStaged(rec, staged); err == nil {
		t.Fatal("expected close error")
	}

	if err := staged.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	rec = &closeRecorder{}
	if err := copyStaged(rec, staged); !errors.Is(err, files.ErrReleased) {
		t.Fatalf("copy after release = %v, want ErrReleased", err)
	}
	if !rec.closed {
		t.Fatal("writer must be closed when the artifact is gone")
	}
}

func TestResetConfig_RestoresDefaults(t *testing.T) {
	a := newTestApp(t, "")
	prefs := fyne.CurrentApp().Preferences()
	cfg, err := saveSettings(prefs, a.cfg, guiSettings{
		ServerURL:    "https://polyword.example.com",
		BucketPrefix: "gs://other/",
	})
	if err != nil {
		t.Fatalf("saveSettings: %v", err)
	}
	a.applyConfig(cfg)

	a.resetConfig()
	if a.cfg != a.defaults {
		t.Fatalf("cfg = %+v, want %+v", a.cfg, a.defaults)
	}
	if got := a.api.current().BucketPrefix(); got != a.defaults.BucketPrefix {
		t.Fatalf("client prefix = %q", got)
	}
	if got := prefs.String(prefServerURL); got != "" {
		t.Fatalf("stored server = %q, want none", got)
	}
}

func TestDocumentNote_WarnsOnNonPDFNames(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"REPORT.PDF", "notes.txt"} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("%PDF-1.4"), 0600); err != nil {
			t.Fatal(err)
		}
		if got := documentNote(storage.NewFileURI(path)); got != "The service only accepts files ending in .pdf." {
			t.Errorf("%s: note = %q", name, got)
		}
	}

	path := filepath.Join(dir, "broken.pdf")
	if err := os.WriteFile(path, []byte("not a pdf"), 0600); err != nil {
		t.Fatal(err)
	}
	if got := documentNote(storage.NewFileURI(path)); got != "Not a readable PDF; the service may reject it." {
		t.Errorf("broken.pdf: note = %q", got)
	}
}

func TestSaveDismissedIsCancellation(t *testing.T) {
	if !errors.Is(errSaveDismissed, context.Canceled) {
		t.Fatal("dismissed save must read as cancellation")
	}
}

func TestFileFromURI(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4"), 0600); err != nil {
		t.Fatal(err)
	}
	f := fileFromURI(storage.NewFileURI(path))
	if f.Name != "report.pdf" || f.Size != 8 {
		t.Fatalf("file = %+v", f)
	}
	rc, err := f.Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "%PDF-1.4" {
		t.Fatalf("content = %q", data)
	}
}
