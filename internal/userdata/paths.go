package userdata

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/qwk-labs/qwk/internal/alias"
	"github.com/qwk-labs/qwk/internal/branding"
	"github.com/qwk-labs/qwk/internal/config"
)

// File names inside the data directory.
const (
	AliasesFile    = alias.FileName
	BackupPrefix   = alias.BackupPrefix
	FirstRunMarker = ".first_run_complete"
)

// ConfigFile is the agent configuration file name.
var ConfigFile = config.FileName()

// Permission constants.
const (
	DirPermSecure  os.FileMode = 0700
	FilePermSecure os.FileMode = 0600
)

// HomeEnv names the environment variable that relocates the data directory.
func HomeEnv() string { return branding.EnvVar("HOME") }

// Root returns the data directory. It checks the QWK_HOME environment
// variable first, then falls back to ~/.config/qwk.
func Root() (string, error) {
	if v := os.Getenv(HomeEnv()); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, branding.ConfigDir()), nil
}

// AliasesPath returns the alias store path inside root.
func AliasesPath(root string) string { return filepath.Join(root, AliasesFile) }

// ConfigPath returns the configuration file path inside root.
func ConfigPath(root string) string { return filepath.Join(root, ConfigFile) }

// IsFirstRun reports whether the first-run marker is absent from root.
func IsFirstRun(root string) bool {
	_, err := os.Stat(filepath.Join(root, FirstRunMarker))
	return errors.Is(err, fs.ErrNotExist)
}
