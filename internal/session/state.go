package session

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/oukeidos/polyword/internal/client"
)

// State is the lifecycle position of the upload/download view.
type State int

const (
	StateIdle State = iota
	StateFileSelected
	StateProcessing
	StateResultsReady
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFileSelected:
		return "file_selected"
	case StateProcessing:
		return "processing"
	case StateResultsReady:
		return "results_ready"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// File is a document picked or dropped by the user.
type File struct {
	Name string
	Size int64
	open func() (io.ReadCloser, error)
}

// NewFile wraps an opener. Size may be -1 when unknown.
func NewFile(name string, size int64, open func() (io.ReadCloser, error)) File {
	return File{Name: name, Size: size, open: open}
}

// FileFromPath describes a regular file on disk.
func FileFromPath(path string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return File{}, err
	}
	if !info.Mode().IsRegular() {
		return File{}, fmt.Errorf("%s is not a regular file", path)
	}
	return NewFile(filepath.Base(path), info.Size(), func() (io.ReadCloser, error) {
		return os.Open(path)
	}), nil
}

// FileFromBytes wraps in-memory content.
func FileFromBytes(name string, data []byte) File {
	return NewFile(name, int64(len(data)), func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	})
}

// Open returns the file content.
func (f File) Open() (io.ReadCloser, error) {
	if f.open == nil {
		return nil, fmt.Errorf("file %q has no content", f.Name)
	}
	return f.open()
}

// Snapshot is everything a view needs to draw itself.
type Snapshot struct {
	State    State
	FileName string
	FileSize int64
	DragOver bool
	// Busy is set while an upload or download is in flight.
	Busy        bool
	CanUpload   bool
	CanDownload bool
	// Result is a copy of the live processing result, nil when none.
	Result *client.ProcessingResult
}
