package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/oukeidos/polyword/internal/files"
	"github.com/oukeidos/polyword/internal/logger"
	"github.com/oukeidos/polyword/internal/prompt"
	"github.com/oukeidos/polyword/internal/session"
)

// consoleView reports state changes through the logger and prints alerts.
type consoleView struct {
	mu      sync.Mutex
	errOut  io.Writer
	last    session.State
	started bool
	alerts  int
}

func newConsoleView(errOut io.Writer) *consoleView {
	return &consoleView{errOut: errOut}
}

func (v *consoleView) Render(s session.Snapshot) {
	v.mu.Lock()
	changed := !v.started || s.State != v.last
	v.started = true
	v.last = s.State
	v.mu.Unlock()

	if !changed {
		logger.Debug("View updated", "state", s.State, "busy", s.Busy)
		return
	}
	switch s.State {
	case session.StateFileSelected:
		logger.Info("File selected", "file", s.FileName, "size", s.FileSize)
	case session.StateProcessing:
		logger.Info("Processing... this may take a while", "file", s.FileName)
	case session.StateResultsReady:
		logger.Info("Results ready", "file", s.FileName)
	default:
		logger.Debug("View updated", "state", s.State)
	}
}

func (v *consoleView) Alert(message string) {
	v.mu.Lock()
	v.alerts++
	v.mu.Unlock()
	fmt.Fprintln(v.errOut, "Error:", message)
}

func (v *consoleView) alerted() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.alerts > 0
}

// dirSink saves staged artifacts into a directory.
type dirSink struct {
	dir     string
	force   bool
	confirm func(path string, force bool) (bool, error)
	out     io.Writer

	mu    sync.Mutex
	saved []string
}

func newDirSink(dir string, force bool, out io.Writer) *dirSink {
	return &dirSink{
		dir:     dir,
		force:   force,
		confirm: prompt.DefaultConfirmer().ConfirmOverwrite,
		out:     out,
	}
}

func (s *dirSink) Deliver(ctx context.Context, a *files.Staged) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := a.Bytes()
	if err != nil {
		return err
	}
	target, err := s.target(a.Name)
	if err != nil {
		return err
	}
	if err := files.AtomicWrite(target, data, 0644); err != nil {
		return err
	}

	s.mu.Lock()
	s.saved = append(s.saved, target)
	s.mu.Unlock()
	fmt.Fprintf(s.out, "Saved %s (%d bytes)\n", target, a.Size)
	return nil
}

// target resolves where name goes. An existing file is replaced only when
// forced or confirmed; otherwise a free sibling name is chosen.
func (s *dirSink) target(name string) (string, error) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(s.dir, name)
	if err := files.RejectSymlinkPath(path); err != nil {
		return "", err
	}
	if _, err := os.Lstat(path); errors.Is(err, os.ErrNotExist) {
		return path, nil
	} else if err != nil {
		return "", err
	}

	ok, err := s.confirm(path, s.force)
	if err != nil && !errors.Is(err, prompt.ErrNonInteractive) {
		return "", err
	}
	if ok {
		return path, nil
	}
	alt, _, err := files.SafePath(path)
	if err != nil {
		return "", err
	}
	logger.Info("Keeping existing file; saving under a new name", "existing", path, "file", alt)
	return alt, nil
}

func (s *dirSink) savedPaths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.saved...)
}
