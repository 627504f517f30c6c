package userdata

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"

	"github.com/qwk-labs/qwk/internal/alias"
	"github.com/qwk-labs/qwk/internal/config"
	"github.com/qwk-labs/qwk/internal/platform"
)

var lookPath = exec.LookPath

// ErrUnhealthy is returned by Check when at least one check failed.
var ErrUnhealthy = errors.New("health check failed")

type report struct {
	w        io.Writer
	failures int
}

func (r *report) line(tag, format string, args ...any) {
	fmt.Fprintf(r.w, "  [%s] %s\n", tag, fmt.Sprintf(format, args...))
	if tag == "FAIL" {
		r.failures++
	}
}

// Check validates the data directory at root: its permissions, the alias
// store, the configuration file, the configured agent and existing backups.
// When fix is true, it repairs missing directories and loose permissions.
func Check(w io.Writer, root string, fix bool) error {
	r := &report{w: w}
	fmt.Fprintln(w, "Data directory check:")

	if !checkRoot(r, root, fix) {
		return nil
	}
	checkStore(r, root, fix)
	checkConfig(r, root)

	if r.failures > 0 {
		return fmt.Errorf("%w: %d problem(s) found", ErrUnhealthy, r.failures)
	}
	return nil
}

// checkRoot reports false when there is nothing further to inspect.
func checkRoot(r *report, root string, fix bool) bool {
	info, err := os.Stat(root)
	if errors.Is(err, fs.ErrNotExist) {
		r.line("MISS", "%s does not exist", root)
		if !fix {
			fmt.Fprintln(r.w, "         It is created the first time an alias is saved")
			return false
		}
		if err := ensureDir(root, DirPermSecure); err != nil {
			r.line("FAIL", "Could not create %s: %v", root, err)
			return false
		}
		r.line("FIX ", "Created %s with %o", root, DirPermSecure)
		return true
	}
	if err != nil {
		r.line("FAIL", "%s: %v", root, err)
		return false
	}
	if !info.IsDir() {
		r.line("FAIL", "%s exists but is not a directory", root)
		return false
	}

	checkPerm(r, root, info, DirPermSecure, fix)
	return true
}

func checkPerm(r *report, path string, info os.FileInfo, expected os.FileMode, fix bool) {
	if platform.PermMatches(info, expected) {
		r.line(" OK ", "%s (permissions %o)", path, info.Mode().Perm())
		return
	}
	r.line("WARN", "%s has permissions %o (expected %o)", path, info.Mode().Perm(), expected)
	if fix {
		if err := platform.Chmod(path, expected); err != nil {
			r.line("FAIL", "Could not fix permissions on %s: %v", path, err)
			return
		}
		r.line("FIX ", "Fixed permissions on %s to %o", path, expected)
	}
}

func checkStore(r *report, root string, fix bool) {
	store := alias.New(root)
	path := store.Path()

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		r.line("MISS", "%s does not exist (no aliases saved yet)", path)
	} else if err != nil {
		r.line("FAIL", "%s: %v", path, err)
	} else {
		checkPerm(r, path, info, FilePermSecure, fix)
		aliases, err := store.Load()
		if err != nil {
			r.line("FAIL", "%v", err)
		} else {
			r.line(" OK ", "%d alias(es) defined", len(aliases))
		}
	}

	backups, err := store.Backups()
	if err != nil {
		r.line("WARN", "Could not list backups: %v", err)
		return
	}
	r.line(" OK ", "%d backup(s) in %s", len(backups), root)
}

func checkConfig(r *report, root string) {
	cfg, err := config.Load(root)
	switch {
	case err != nil:
		r.line("FAIL", "%v", err)
	case fileExists(cfg.Path()):
		r.line(" OK ", "%s is readable", cfg.Path())
	default:
		r.line("SKIP", "%s not present, using defaults", cfg.Path())
	}

	command, _ := config.ParseCommand(cfg.AgentCommand())
	bin, err := lookPath(command)
	if err != nil {
		r.line("FAIL", "Agent %q not found on PATH", command)
		fmt.Fprintf(r.w, "         Set one with '--agent \"<command>\"'\n")
		return
	}
	r.line(" OK ", "Agent %q found at %s", command, bin)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
