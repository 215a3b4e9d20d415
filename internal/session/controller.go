// Package session drives the upload/download lifecycle shared by the CLI and
// the desktop app: pick a file, upload it, wait for processing, download one
// of the three resulting artifacts.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/oukeidos/polyword/internal/apperrors"
	"github.com/oukeidos/polyword/internal/client"
	"github.com/oukeidos/polyword/internal/files"
	"github.com/oukeidos/polyword/internal/logger"
)

var (
	// ErrBusy is returned when an upload or download is already in flight.
	ErrBusy = errors.New("another request is in flight")
	// ErrNoResult is returned by downloads before a processing result exists.
	ErrNoResult = errors.New("no processing result available")
)

// API is the remote service. *client.Client satisfies it.
type API interface {
	Upload(ctx context.Context, name string, r io.Reader) (*client.ProcessingResult, error)
	Download(ctx context.Context, locator string) (*client.Download, error)
}

// View draws snapshots and shows blocking alerts.
type View interface {
	Render(Snapshot)
	Alert(message string)
}

// Sink hands a staged artifact to the user, e.g. through a save dialog.
// The staged file is released by the controller after Deliver returns.
type Sink interface {
	Deliver(ctx context.Context, a *files.Staged) error
}

// Handler is the event surface front-ends wire their widgets to.
type Handler interface {
	OnFileSelected(files ...File)
	OnDragEnter()
	OnDragOver()
	OnDragLeave()
	OnDrop(files ...File)
	OnSubmit(ctx context.Context) error
	OnDownload(ctx context.Context, kind client.Artifact) error
}

var _ Handler = (*Controller)(nil)

type Option func(*Controller)

// WithLogger replaces the global logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// Controller owns the selected file, the processing result and the view
// state for one session. It allows one network operation at a time.
type Controller struct {
	api  API
	view View
	sink Sink
	log  *slog.Logger

	mu       sync.Mutex
	state    State
	selected *File
	result   *client.ProcessingResult
	busy     bool
	dragOver bool
}

func New(api API, view View, sink Sink, opts ...Option) *Controller {
	c := &Controller{
		api:  api,
		view: view,
		sink: sink,
		log:  logger.L().With("component", "session"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns the current view model.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// State returns the lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Selected returns the pending selection.
func (c *Controller) Selected() (File, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selected == nil {
		return File{}, false
	}
	return *c.selected, true
}

// Result returns a copy of the live processing result.
func (c *Controller) Result() (client.ProcessingResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.result == nil {
		return client.ProcessingResult{}, false
	}
	return *c.result, true
}

func (c *Controller) snapshotLocked() Snapshot {
	s := Snapshot{
		State:       c.state,
		DragOver:    c.dragOver,
		Busy:        c.busy,
		CanUpload:   c.selected != nil && c.state != StateProcessing,
		CanDownload: c.result != nil && !c.busy,
	}
	if c.selected != nil {
		s.FileName = c.selected.Name
		s.FileSize = c.selected.Size
	}
	if c.result != nil {
		r := *c.result
		s.Result = &r
	}
	return s
}

// render must be called without holding mu.
func (c *Controller) render(s Snapshot) {
	if c.view != nil {
		c.view.Render(s)
	}
}

func (c *Controller) alert(err error) {
	if c.view != nil {
		c.view.Alert(apperrors.PublicMessage(err))
	}
}

// OnFileSelected records the first of files as the pending selection,
// replacing any earlier one. It is ignored while an upload is running.
func (c *Controller) OnFileSelected(files ...File) {
	if len(files) == 0 {
		return
	}
	f := files[0]

	c.mu.Lock()
	if c.state == StateProcessing {
		c.mu.Unlock()
		c.log.Warn("Selection ignored while processing", "file", f.Name)
		return
	}
	c.selected = &f
	c.state = StateFileSelected
	snap := c.snapshotLocked()
	c.mu.Unlock()

	if len(files) > 1 {
		c.log.Info("Multiple files offered; keeping the first", "file", f.Name, "offered", len(files))
	}
	c.log.Debug("File selected", "file", f.Name, "size", f.Size)
	c.render(snap)
}

func (c *Controller) setDragOver(on bool) {
	c.mu.Lock()
	if c.dragOver == on {
		c.mu.Unlock()
		return
	}
	c.dragOver = on
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.render(snap)
}

func (c *Controller) OnDragEnter() { c.setDragOver(true) }
func (c *Controller) OnDragOver()  { c.setDragOver(true) }
func (c *Controller) OnDragLeave() { c.setDragOver(false) }

// OnDrop clears the drag highlight and selects the first dropped file.
func (c *Controller) OnDrop(files ...File) {
	c.setDragOver(false)
	c.OnFileSelected(files...)
}

// OnSubmit uploads the selected file. Without a selection it does nothing.
// On failure the selection is kept, the view returns to FileSelected and
// one alert is shown.
func (c *Controller) OnSubmit(ctx context.Context) error {
	c.mu.Lock()
	if c.selected == nil {
		c.mu.Unlock()
		return nil
	}
	if c.busy {
		c.mu.Unlock()
		return apperrors.Precondition(ErrBusy)
	}
	f := *c.selected
	c.result = nil
	c.state = StateProcessing
	c.busy = true
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.render(snap)

	c.log.Info("Uploading", "file", f.Name, "size", f.Size)
	res, err := c.upload(ctx, f)

	c.mu.Lock()
	c.busy = false
	if err != nil {
		c.state = StateFileSelected
	} else {
		c.result = res
		c.state = StateResultsReady
	}
	snap = c.snapshotLocked()
	c.mu.Unlock()
	c.render(snap)

	if err != nil {
		if errors.Is(err, context.Canceled) {
			c.log.Warn("Upload canceled", "file", f.Name)
			return err
		}
		c.log.Error("Upload failed", "file", f.Name, "error", errorDetail(err))
		c.alert(err)
		return err
	}
	c.log.Info("Processing finished", "file", f.Name,
		"original", res.OriginalText, "translated", res.TranslatedText, "refined", res.RefinedText)
	return nil
}

func (c *Controller) upload(ctx context.Context, f File) (*client.ProcessingResult, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, apperrors.Upload(fmt.Errorf("open %s: %w", f.Name, err))
	}
	defer rc.Close()
	return c.api.Upload(ctx, f.Name, rc)
}

// OnDownload fetches one artifact of the live result and hands it to the
// sink. The view state is left as it was whether or not the download works.
func (c *Controller) OnDownload(ctx context.Context, kind client.Artifact) error {
	c.mu.Lock()
	if c.result == nil {
		c.mu.Unlock()
		c.log.Warn("Download requested without a result", "artifact", kind)
		return apperrors.Precondition(ErrNoResult)
	}
	if c.busy {
		c.mu.Unlock()
		return apperrors.Precondition(ErrBusy)
	}
	locator, err := c.result.Locator(kind)
	if err != nil {
		c.mu.Unlock()
		return apperrors.Precondition(err)
	}
	c.busy = true
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.render(snap)

	err = c.download(ctx, kind, locator)

	c.mu.Lock()
	c.busy = false
	snap = c.snapshotLocked()
	c.mu.Unlock()
	c.render(snap)

	if err != nil {
		if errors.Is(err, context.Canceled) {
			c.log.Warn("Download canceled", "artifact", kind)
			return err
		}
		c.log.Error("Download failed", "artifact", kind, "locator", locator, "error", errorDetail(err))
		c.alert(err)
	}
	return err
}

func (c *Controller) download(ctx context.Context, kind client.Artifact, locator string) (err error) {
	dl, err := c.api.Download(ctx, locator)
	if err != nil {
		return err
	}
	staged, err := files.Stage(dl.Filename, []byte(dl.Content))
	if err != nil {
		return apperrors.Download(err)
	}
	defer func() {
		if rerr := staged.Release(); rerr != nil {
			c.log.Warn("Staged artifact not released", "file", staged.Name, "error", rerr)
		}
	}()

	if c.sink == nil {
		return apperrors.Download(errors.New("no download sink configured"))
	}
	if err := c.sink.Deliver(ctx, staged); err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return apperrors.Download(fmt.Errorf("deliver %s: %w", staged.Name, err))
	}
	c.log.Info("Downloaded", "artifact", kind, "file", staged.Name, "bytes", staged.Size)
	return nil
}

// errorDetail returns the internal cause for logs; alerts use the safe text.
func errorDetail(err error) string {
	var ae *apperrors.Error
	if errors.As(err, &ae) && ae.Cause != nil {
		return ae.Cause.Error()
	}
	return err.Error()
}
