package main

import (
	"context"
	"errors"
	"io"
	"os"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/storage"

	"github.com/oukeidos/polyword/internal/client"
	"github.com/oukeidos/polyword/internal/document"
	"github.com/oukeidos/polyword/internal/logger"
	"github.com/oukeidos/polyword/internal/session"
)

func (a *polywordApp) trackCancel(cancel context.CancelFunc) uint64 {
	a.cancelMu.Lock()
	defer a.cancelMu.Unlock()
	if a.cancels == nil {
		a.cancels = make(map[uint64]context.CancelFunc)
	}
	a.nextCancelID++
	a.cancels[a.nextCancelID] = cancel
	return a.nextCancelID
}

func (a *polywordApp) untrackCancel(id uint64) {
	a.cancelMu.Lock()
	delete(a.cancels, id)
	a.cancelMu.Unlock()
}

func (a *polywordApp) cancelAll(reason string) {
	a.cancelMu.Lock()
	cancels := a.cancels
	a.cancels = nil
	a.cancelMu.Unlock()
	if len(cancels) == 0 {
		return
	}
	logger.Warn("Cancellation requested", "reason", reason, "requests", len(cancels))
	for _, cancel := range cancels {
		cancel()
	}
}

// run executes op on a guarded goroutine with a cancelable context.
// Failures are alerted by the controller; only precondition misses are
// logged here.
func (a *polywordApp) run(scope string, op func(ctx context.Context) error) {
	ctx, cancel := context.WithCancel(context.Background())
	id := a.trackCancel(cancel)
	a.safeGo(scope, func() {
		defer cancel()
		defer a.untrackCancel(id)
		if err := op(ctx); err != nil {
			if errors.Is(err, session.ErrBusy) || errors.Is(err, session.ErrNoResult) {
				logger.Debug("Request skipped", "scope", scope, "reason", err)
			}
		}
	})
}

func (a *polywordApp) submit() {
	a.run("ops.upload", a.ctrl.OnSubmit)
}

func (a *polywordApp) download(kind client.Artifact) {
	a.run("ops.download."+string(kind), func(ctx context.Context) error {
		return a.ctrl.OnDownload(ctx, kind)
	})
}

func (a *polywordApp) handleURIs(uris []fyne.URI) {
	picked := make([]session.File, 0, len(uris))
	for _, u := range uris {
		if u == nil {
			continue
		}
		picked = append(picked, fileFromURI(u))
	}
	a.ctrl.OnDrop(picked...)
	if len(picked) > 0 {
		a.inspect(uris[0])
	}
}

// inspect describes a local PDF below the drop zone. Remote URIs are skipped.
func (a *polywordApp) inspect(u fyne.URI) {
	if a.ctrl.State() == session.StateProcessing {
		return
	}
	if u == nil {
		a.safeDo("ui.document_info", func() { a.docLabel.SetText("") })
		return
	}
	a.safeGo("ops.inspect", func() {
		text := documentNote(u)
		a.safeDo("ui.document_info", func() { a.docLabel.SetText(text) })
	})
}

// documentNote is the line shown under the drop zone for u.
func documentNote(u fyne.URI) string {
	if !document.HasPDFExtension(u.Name()) {
		logger.Warn("The service only accepts file names ending in .pdf", "file", u.Name())
		return "The service only accepts files ending in .pdf."
	}
	if u.Scheme() != "file" {
		return ""
	}
	info, err := document.InspectFile(u.Path())
	if err != nil {
		logger.Warn("Selected file does not look like a PDF", "file", u.Name(), "error", err)
		return "Not a readable PDF; the service may reject it."
	}
	return info.Describe()
}

// fileFromURI reads lazily so a dropped file is opened only on upload.
func fileFromURI(u fyne.URI) session.File {
	size := int64(-1)
	if u.Scheme() == "file" {
		if info, err := os.Stat(u.Path()); err == nil {
			size = info.Size()
		}
	}
	return session.NewFile(u.Name(), size, func() (io.ReadCloser, error) {
		if u.Scheme() == "file" {
			return os.Open(u.Path())
		}
		return storage.Reader(u)
	})
}
