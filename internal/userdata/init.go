package userdata

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/qwk-labs/qwk/internal/platform"
)

// EnsureRoot resolves the data directory and creates it with owner-only
// permissions if it does not exist yet. An existing directory is left as is.
func EnsureRoot() (string, error) {
	root, err := Root()
	if err != nil {
		return "", err
	}
	if err := ensureDir(root, DirPermSecure); err != nil {
		return "", err
	}
	return root, nil
}

// MarkFirstRunComplete writes the first-run marker into root.
func MarkFirstRunComplete(root string) error {
	if err := ensureDir(root, DirPermSecure); err != nil {
		return err
	}
	path := filepath.Join(root, FirstRunMarker)
	if err := os.WriteFile(path, nil, FilePermSecure); err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	return nil
}

func ensureDir(path string, perm os.FileMode) error {
	if info, err := os.Stat(path); err == nil {
		if info.IsDir() {
			return nil
		}
		return fmt.Errorf("%s exists but is not a directory", path)
	}

	if err := os.MkdirAll(path, perm); err != nil {
		return fmt.Errorf("creating directory %s: %w", path, err)
	}
	// MkdirAll is subject to the umask.
	if err := platform.Chmod(path, perm); err != nil {
		return fmt.Errorf("setting permissions on %s: %w", path, err)
	}
	return nil
}
