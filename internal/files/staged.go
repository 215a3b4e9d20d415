package files

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
)

// DefaultArtifactName is used when the service returns no usable file name.
const DefaultArtifactName = "download.txt"

// ErrReleased is returned when a staged artifact is read after Release.
var ErrReleased = errors.New("staged artifact already released")

// Staged is downloaded content parked in a private temp directory until a
// sink has saved it. Callers must Release it on every path.
type Staged struct {
	// Name is the sanitized file name suggested to the user.
	Name string
	Size int64

	mu       sync.Mutex
	dir      string
	file     string
	released bool
}

// Stage writes data under a fresh temp directory.
func Stage(name string, data []byte) (*Staged, error) {
	dir, err := os.MkdirTemp("", "polyword-dl-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	s := &Staged{
		Name: SanitizeName(name),
		Size: int64(len(data)),
		dir:  dir,
	}
	s.file = filepath.Join(dir, s.Name)
	if err := os.WriteFile(s.file, data, 0600); err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("failed to stage artifact: %w", err)
	}
	return s, nil
}

// Open returns a reader over the staged content.
func (s *Staged) Open() (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return nil, ErrReleased
	}
	return os.Open(s.file)
}

// Bytes returns the staged content.
func (s *Staged) Bytes() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return nil, ErrReleased
	}
	return os.ReadFile(s.file)
}

// Release removes the staging directory. It is safe to call more than once.
func (s *Staged) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return nil
	}
	s.released = true
	if err := os.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("failed to release staged artifact: %w", err)
	}
	return nil
}

// SanitizeName reduces a server-provided name to a single path element.
func SanitizeName(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	base := path.Base(name)
	switch base {
	case "", ".", "..", "/":
		return DefaultArtifactName
	}
	return base
}
