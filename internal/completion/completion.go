// Package completion generates shell completion candidates and installs the
// completion hook into the user's shell startup file.
package completion

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/qwk-labs/qwk/internal/branding"
	"github.com/qwk-labs/qwk/internal/userdata"
)

// Shell identifies a supported interactive shell.
type Shell string

const (
	Bash Shell = "bash"
	Zsh  Shell = "zsh"
	Fish Shell = "fish"
)

// ErrUnknownShell is returned when $SHELL names none of the supported shells.
var ErrUnknownShell = errors.New("could not detect current shell")

// Flags lists the command flags offered as completion candidates.
var Flags = []string{
	"--set",
	"--agent",
	"--list",
	"--remove",
	"--reset",
	"--setup-completion",
	"--doctor",
	"--version",
	"--help",
}

// Candidates returns alias names and command flags that start with partial,
// sorted. An empty partial matches everything.
func Candidates(names []string, partial string) []string {
	out := make([]string, 0, len(names)+len(Flags))
	for _, c := range append(append([]string{}, names...), Flags...) {
		if strings.HasPrefix(c, partial) {
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out
}

// DetectShell maps the value of $SHELL to a supported shell.
func DetectShell(shellEnv string) (Shell, error) {
	base := filepath.Base(shellEnv)
	for _, sh := range []Shell{Bash, Zsh, Fish} {
		if strings.Contains(base, string(sh)) {
			return sh, nil
		}
	}
	return "", ErrUnknownShell
}

// Marker precedes the installed hook in the startup file.
func Marker() string {
	return "# " + branding.CLIName() + " autocompletion setup"
}

// hookName is the shell function installed by Script.
func hookName(sh Shell) string {
	if sh == Fish {
		return "__" + branding.CLIName() + "_complete"
	}
	return "_" + branding.CLIName() + "_complete"
}

const bashScript = `
%[2]s() {
    local cur="${COMP_WORDS[COMP_CWORD]}"
    COMPREPLY=($(%[1]s --complete "$cur" 2>/dev/null))
}
complete -F %[2]s %[1]s
`

const zshScript = `
%[2]s() {
    local completions
    completions=($(%[1]s --complete "$1" 2>/dev/null))
    compadd -a completions
}
compdef %[2]s %[1]s
`

const fishScript = `
function %[2]s
    %[1]s --complete (commandline -ct) 2>/dev/null
end
complete -c %[1]s -f -a "(%[2]s)"
`

// Script returns the completion hook for sh. Each hook calls back into
// `qwk --complete <word>`.
func Script(sh Shell) (string, error) {
	var tmpl string
	switch sh {
	case Bash:
		tmpl = bashScript
	case Zsh:
		tmpl = zshScript
	case Fish:
		tmpl = fishScript
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownShell, sh)
	}
	return fmt.Sprintf(tmpl, branding.CLIName(), hookName(sh)), nil
}

// RCFile returns the startup file that receives the hook. Bash prefers
// ~/.bashrc and falls back to ~/.bash_profile when .bashrc does not exist.
func RCFile(home string, sh Shell) (string, error) {
	switch sh {
	case Bash:
		bashrc := filepath.Join(home, ".bashrc")
		if _, err := os.Stat(bashrc); err == nil {
			return bashrc, nil
		}
		return filepath.Join(home, ".bash_profile"), nil
	case Zsh:
		return filepath.Join(home, ".zshrc"), nil
	case Fish:
		return filepath.Join(home, ".config", "fish", "config.fish"), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownShell, sh)
}

// Installed reports whether the startup file at rc already references the
// completion hook for sh. A missing file is not installed.
func Installed(rc string, sh Shell) (bool, error) {
	content, err := os.ReadFile(rc)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("reading %s: %w", rc, err)
	}
	return strings.Contains(string(content), hookName(sh)), nil
}

// Install appends the marker comment and the hook to rc, creating the file
// and its parent directory when needed.
func Install(rc string, sh Shell) error {
	script, err := Script(sh)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(rc), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(rc), err)
	}

	content, err := os.ReadFile(rc)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading %s: %w", rc, err)
	}

	addition := Marker() + "\n" + script + "\n"
	if len(content) > 0 && !strings.HasSuffix(string(content), "\n") {
		addition = "\n" + addition
	}

	f, err := os.OpenFile(rc, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s for append: %w", rc, err)
	}
	defer f.Close()

	if _, err := f.WriteString(addition); err != nil {
		return fmt.Errorf("writing to %s: %w", rc, err)
	}
	return nil
}

// Result describes the outcome of Setup.
type Result struct {
	Shell            Shell
	RCFile           string
	AlreadyInstalled bool
}

// Setup installs the hook for the shell named by shellEnv into its startup
// file under home. Running it again is a no-op.
func Setup(home, shellEnv string) (*Result, error) {
	sh, err := DetectShell(shellEnv)
	if err != nil {
		return nil, err
	}
	rc, err := RCFile(home, sh)
	if err != nil {
		return nil, err
	}

	res := &Result{Shell: sh, RCFile: rc}
	installed, err := Installed(rc, sh)
	if err != nil {
		return nil, err
	}
	if installed {
		res.AlreadyInstalled = true
		return res, nil
	}
	if err := Install(rc, sh); err != nil {
		return nil, err
	}
	return res, nil
}

// Report prints the outcome of Setup.
func (r *Result) Report(w io.Writer, home string) {
	if r.AlreadyInstalled {
		fmt.Fprintf(w, "Autocompletion is already set up for %s\n", r.Shell)
		return
	}
	rc := r.RCFile
	if rel, err := filepath.Rel(home, rc); err == nil && !strings.HasPrefix(rel, "..") {
		rc = "~/" + filepath.ToSlash(rel)
	}
	fmt.Fprintf(w, "Autocompletion set up for %s!\n", r.Shell)
	fmt.Fprintf(w, "Restart your shell or run 'source %s' to activate.\n", rc)
}

// FirstRun sets up completion the first time the CLI runs against root.
// Everything it prints goes to w, which callers point at stderr so command
// output on stdout stays parseable. The first-run marker is written even
// when setup fails so the attempt is not repeated.
func FirstRun(w io.Writer, root, home, shellEnv string) {
	if !userdata.IsFirstRun(root) {
		return
	}

	fmt.Fprintf(w, "Welcome to %s! Setting up autocompletion...\n", branding.DisplayName())
	res, err := Setup(home, shellEnv)
	if err != nil {
		fmt.Fprintf(w, "Note: Could not set up autocompletion automatically: %v\n", err)
		fmt.Fprintf(w, "You can set it up manually later with: %s --setup-completion\n", branding.CLIName())
	} else {
		res.Report(w, home)
	}

	if err := userdata.MarkFirstRunComplete(root); err != nil {
		fmt.Fprintf(w, "Warning: Could not mark first run as complete: %v\n", err)
	}
}
