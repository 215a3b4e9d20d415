//go:build !windows

package files

import "os"

func renameAtomic(oldPath, newPath string) error {
	return os.Rename(oldPath, newPath)
}

// Reparse points only exist on Windows.
func isReparsePoint(string) (bool, error) {
	return false, nil
}
