package main

import (
	"context"
	"fmt"
	"io"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"

	"github.com/oukeidos/polyword/internal/client"
	"github.com/oukeidos/polyword/internal/files"
)

// errSaveDismissed reports a closed save dialog. It wraps context.Canceled
// so the controller does not alert on it.
var errSaveDismissed = fmt.Errorf("save dialog dismissed: %w", context.Canceled)

// saveDialogSink asks the user where to put each artifact.
type saveDialogSink struct {
	app *polywordApp
}

func (s *saveDialogSink) Deliver(ctx context.Context, staged *files.Staged) error {
	done := make(chan error, 1)
	s.app.safeDo("sink.save_dialog", func() {
		fd := dialog.NewFileSave(func(w fyne.URIWriteCloser, err error) {
			switch {
			case err != nil:
				done <- err
			case w == nil:
				done <- errSaveDismissed
			default:
				done <- copyStaged(w, staged)
			}
		}, s.app.window)
		fd.SetFileName(staged.Name)
		fd.Resize(fyne.NewSize(900, 650))
		fd.Show()
	})

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// copyStaged streams the staged artifact into w and closes w.
func copyStaged(w io.WriteCloser, staged *files.Staged) error {
	r, err := staged.Open()
	if err != nil {
		w.Close()
		return err
	}
	defer r.Close()
	_, werr := io.Copy(w, r)
	cerr := w.Close()
	if werr != nil {
		return fmt.Errorf("failed to write artifact: %w", werr)
	}
	if cerr != nil {
		return fmt.Errorf("failed to close artifact: %w", cerr)
	}
	return nil
}

// apiSwitch lets the settings dialog replace the service client without
// discarding the controller's result.
type apiSwitch struct {
	mu sync.RWMutex
	c  *client.Client
}

func (s *apiSwitch) set(c *client.Client) {
	s.mu.Lock()
	s.c = c
	s.mu.Unlock()
}

func (s *apiSwitch) current() *client.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.c
}

func (s *apiSwitch) Upload(ctx context.Context, name string, r io.Reader) (*client.ProcessingResult, error) {
	return s.current().Upload(ctx, name, r)
}

func (s *apiSwitch) Download(ctx context.Context, locator string) (*client.Download, error) {
	return s.current().Download(ctx, locator)
}
