package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/qwk-labs/qwk/internal/alias"
	"github.com/qwk-labs/qwk/internal/launcher"
	"github.com/qwk-labs/qwk/internal/userdata"
)

type fakeLauncher struct {
	argv  []string
	calls int
	code  int
	err   error
}

func (f *fakeLauncher) Launch(_ context.Context, argv []string) (int, error) {
	f.calls++
	f.argv = argv
	return f.code, f.err
}

type result struct {
	stdout string
	stderr string
	code   int
}

// setupEnv points the data directory and home at temp dirs and marks the
// first run as done.
func setupEnv(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	root := filepath.Join(home, ".config", "qwk")
	t.Setenv("HOME", home)
	t.Setenv("QWK_HOME", root)
	t.Setenv("SHELL", "/bin/bash")
	t.Setenv("QWK_AGENT", "")
	t.Setenv("QWK_LOG_LEVEL", "")
	t.Setenv("QWK_PREVIEW_WIDTH", "")
	if err := userdata.MarkFirstRunComplete(root); err != nil {
		t.Fatal(err)
	}
	return root
}

func runCLI(t *testing.T, l launcher.Launcher, stdin string, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	a := &app{
		version:  "1.2.3",
		commit:   "abc123",
		date:     "2026-01-01",
		stdin:    strings.NewReader(stdin),
		stdout:   &stdout,
		stderr:   &stderr,
		launcher: l,
	}
	code := a.execute(args)
	return result{stdout: stdout.String(), stderr: stderr.String(), code: code}
}

func mustRun(t *testing.T, args ...string) result {
	t.Helper()
	r := runCLI(t, &fakeLauncher{}, "", args...)
	if r.code != ExitOK {
		t.Fatalf("%v exited %d\nstdout: %s\nstderr: %s", args, r.code, r.stdout, r.stderr)
	}
	return r
}

func TestNoArgsPrintsHelp(t *testing.T) {
	setupEnv(t)
	r := mustRun(t)
	if !strings.Contains(r.stdout, "Usage:") || !strings.Contains(r.stdout, "--set") {
		t.Errorf("expected help output, got:\n%s", r.stdout)
	}
}

func TestVersion(t *testing.T) {
	setupEnv(t)
	r := mustRun(t, "--version")
	if !strings.Contains(r.stdout, "1.2.3") || !strings.Contains(r.stdout, "abc123") {
		t.Errorf("unexpected version output: %q", r.stdout)
	}
}

func TestSetAndRunAlias(t *testing.T) {
	setupEnv(t)
	r := mustRun(t, "--set", "docs", "Generate docs")
	if !strings.Contains(r.stdout, "Alias 'docs' set successfully") {
		t.Errorf("unexpected output: %q", r.stdout)
	}

	l := &fakeLauncher{code: 7}
	r = runCLI(t, l, "", "docs")
	if r.code != 7 {
		t.Errorf("exit code = %d, want the agent's 7", r.code)
	}
	want := []string{"claude", "Generate docs"}
	if !reflect.DeepEqual(l.argv, want) {
		t.Errorf("argv = %v, want %v", l.argv, want)
	}
}

func TestRunAlias_MergesAgentArgs(t *testing.T) {
	setupEnv(t)
	mustRun(t, "--agent", "claude --flag1")
	mustRun(t, "--set", "hello", "hello")

	l := &fakeLauncher{}
	r := runCLI(t, l, "", "hello", "--", "--flag2")
	if r.code != ExitOK {
		t.Fatalf("exit %d: %s", r.code, r.stderr)
	}
	want := []string{"claude", "--flag1", "--flag2", "hello"}
	if !reflect.DeepEqual(l.argv, want) {
		t.Errorf("argv = %v, want %v", l.argv, want)
	}
}

func TestRunAlias_ArgsWithoutSeparator(t *testing.T) {
	setupEnv(t)
	mustRun(t, "--set", "docs", "Generate docs")

	l := &fakeLauncher{}
	r := runCLI(t, l, "", "docs", "extra")
	if r.code != ExitUsage {
		t.Errorf("exit code = %d, want %d", r.code, ExitUsage)
	}
	if l.calls != 0 {
		t.Error("agent must not run on a usage error")
	}
	if !strings.Contains(r.stderr, "qwk docs -- <agent-args>") {
		t.Errorf("missing usage hint:\n%s", r.stderr)
	}
}

func TestRunAlias_NotFound(t *testing.T) {
	setupEnv(t)
	l := &fakeLauncher{}
	r := runCLI(t, l, "", "missing")
	if r.code != ExitNotFound {
		t.Errorf("exit code = %d, want %d", r.code, ExitNotFound)
	}
	if !strings.Contains(r.stderr, "Error: alias not found") || !strings.Contains(r.stderr, "--list") {
		t.Errorf("unexpected stderr:\n%s", r.stderr)
	}
	if l.calls != 0 {
		t.Error("agent must not run for an unknown alias")
	}
}

func TestRunAlias_ConfigError(t *testing.T) {
	root := setupEnv(t)
	mustRun(t, "--set", "docs", "Generate docs")
	if err := os.WriteFile(filepath.Join(root, "config.yaml"), []byte("agent: [unclosed\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	r := runCLI(t, &fakeLauncher{}, "", "docs")
	if r.code != ExitConfig {
		t.Errorf("exit code = %d, want %d\n%s", r.code, ExitConfig, r.stderr)
	}

	// Commands that do not need the agent keep working.
	mustRun(t, "--list")

	// An unknown alias is still reported as such.
	if r := runCLI(t, &fakeLauncher{}, "", "missing"); r.code != ExitNotFound {
		t.Errorf("exit code = %d, want %d", r.code, ExitNotFound)
	}
}

func TestRunAlias_SpawnError(t *testing.T) {
	setupEnv(t)
	t.Setenv("QWK_AGENT", "qwk-test-agent-does-not-exist")
	mustRun(t, "--set", "docs", "Generate docs")

	r := runCLI(t, nil, "", "docs")
	if r.code != ExitSpawn {
		t.Errorf("exit code = %d, want %d\n%s", r.code, ExitSpawn, r.stderr)
	}
	if !strings.Contains(r.stderr, "qwk-test-agent-does-not-exist") {
		t.Errorf("stderr should name the agent:\n%s", r.stderr)
	}
}

func TestSet_FromStdin(t *testing.T) {
	root := setupEnv(t)
	r := runCLI(t, nil, "  Review the diff.\nBe terse.\n\n", "--set", "review")
	if r.code != ExitOK {
		t.Fatalf("exit %d: %s", r.code, r.stderr)
	}

	prompt, err := alias.New(root).Get("review")
	if err != nil {
		t.Fatal(err)
	}
	if prompt != "Review the diff.\nBe terse." {
		t.Errorf("prompt = %q", prompt)
	}
}

func TestSet_EmptyPrompt(t *testing.T) {
	setupEnv(t)
	for _, tc := range []struct {
		name  string
		stdin string
		args  []string
	}{
		{"stdin", "   \n", []string{"--set", "x"}},
		{"argument", "", []string{"--set", "x", "   "}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			r := runCLI(t, nil, tc.stdin, tc.args...)
			if r.code != ExitFailure {
				t.Errorf("exit code = %d, want %d", r.code, ExitFailure)
			}
			if !strings.Contains(r.stderr, "prompt is empty") {
				t.Errorf("unexpected stderr:\n%s", r.stderr)
			}
		})
	}
}

func TestSet_InvalidName(t *testing.T) {
	setupEnv(t)
	r := runCLI(t, nil, "", "--set", "two words", "prompt")
	if r.code != ExitUsage {
		t.Errorf("exit code = %d, want %d", r.code, ExitUsage)
	}
}

func TestSet_MissingAlias(t *testing.T) {
	setupEnv(t)
	if r := runCLI(t, nil, "", "--set"); r.code != ExitUsage {
		t.Errorf("exit code = %d, want %d", r.code, ExitUsage)
	}
}

func TestList(t *testing.T) {
	setupEnv(t)
	r := mustRun(t, "--list")
	if strings.TrimSpace(r.stdout) != "No shortcuts available." {
		t.Errorf("unexpected output: %q", r.stdout)
	}

	mustRun(t, "--set", "review", "Review\nthe   diff")
	mustRun(t, "--set", "docs", strings.Repeat("a", 80))

	r = mustRun(t, "--list")
	want := "Available shortcuts:\n" +
		"  docs - " + strings.Repeat("a", 57) + "...\n" +
		"  review - Review the diff\n"
	if r.stdout != want {
		t.Errorf("output:\n%s\nwant:\n%s", r.stdout, want)
	}
}

func TestList_PreviewWidthFromConfig(t *testing.T) {
	setupEnv(t)
	t.Setenv("QWK_PREVIEW_WIDTH", "10")
	mustRun(t, "--set", "docs", "Generate documentation")

	r := mustRun(t, "--list")
	if !strings.Contains(r.stdout, "  docs - Generat...\n") {
		t.Errorf("unexpected output:\n%s", r.stdout)
	}
}

func TestList_JSON(t *testing.T) {
	setupEnv(t)
	mustRun(t, "--set", "docs", "Generate docs")

	r := mustRun(t, "--list", "--json")
	var got []map[string]string
	if err := json.Unmarshal([]byte(r.stdout), &got); err != nil {
		t.Fatalf("invalid JSON %q: %v", r.stdout, err)
	}
	if len(got) != 1 || got[0]["name"] != "docs" || got[0]["prompt"] != "Generate docs" {
		t.Errorf("unexpected entries: %v", got)
	}
}

func TestRemove(t *testing.T) {
	setupEnv(t)
	mustRun(t, "--set", "docs", "Generate docs")

	r := mustRun(t, "--remove", "docs")
	if !strings.Contains(r.stdout, "Shortcut 'docs' removed successfully") {
		t.Errorf("unexpected output: %q", r.stdout)
	}

	if r := runCLI(t, nil, "", "--remove", "docs"); r.code != ExitNotFound {
		t.Errorf("exit code = %d, want %d", r.code, ExitNotFound)
	}
}

func TestReset(t *testing.T) {
	root := setupEnv(t)
	mustRun(t, "--set", "docs", "Generate docs")
	before, err := os.ReadFile(filepath.Join(root, "aliases.yaml"))
	if err != nil {
		t.Fatal(err)
	}

	r := runCLI(t, nil, "n\n", "--reset")
	if r.code != ExitOK || !strings.Contains(r.stdout, "Reset cancelled.") {
		t.Fatalf("declined reset: code %d, output %q", r.code, r.stdout)
	}
	if _, err := alias.New(root).Get("docs"); err != nil {
		t.Fatalf("declined reset removed data: %v", err)
	}

	r = runCLI(t, nil, "y\n", "--reset")
	if r.code != ExitOK {
		t.Fatalf("exit %d: %s", r.code, r.stderr)
	}
	if !strings.Contains(r.stdout, "(y/N)") || !strings.Contains(r.stdout, "All shortcuts have been reset.") {
		t.Errorf("unexpected output:\n%s", r.stdout)
	}

	backups, err := alias.New(root).Backups()
	if err != nil || len(backups) != 1 {
		t.Fatalf("backups = %v, %v", backups, err)
	}
	if !strings.Contains(r.stdout, "Backup created: "+backups[0]) {
		t.Errorf("backup path not reported:\n%s", r.stdout)
	}
	got, _ := os.ReadFile(backups[0])
	if !bytes.Equal(got, before) {
		t.Error("backup content differs from the pre-reset store")
	}

	names, _ := alias.New(root).Names()
	if len(names) != 0 {
		t.Errorf("store not empty after reset: %v", names)
	}
}

func TestReset_YesWithoutStore(t *testing.T) {
	setupEnv(t)
	r := mustRun(t, "--reset", "--yes")
	if !strings.Contains(r.stdout, "No existing aliases file to backup.") {
		t.Errorf("unexpected output:\n%s", r.stdout)
	}
	if strings.Contains(r.stdout, "(y/N)") {
		t.Error("--yes must skip the confirmation")
	}
}

func TestAgent(t *testing.T) {
	setupEnv(t)
	r := mustRun(t, "--agent", "  codex --full-auto ")
	if !strings.Contains(r.stdout, "Agent set to 'codex --full-auto'") {
		t.Errorf("unexpected output: %q", r.stdout)
	}

	if r := runCLI(t, nil, "", "--agent", " "); r.code != ExitConfig {
		t.Errorf("blank agent exit code = %d, want %d", r.code, ExitConfig)
	}
}

func TestUsageErrors(t *testing.T) {
	setupEnv(t)
	tests := []struct {
		name string
		args []string
	}{
		{"unknown flag", []string{"--bogus"}},
		{"exclusive flags", []string{"--list", "--reset"}},
		{"json without list", []string{"--json"}},
		{"yes without reset", []string{"--yes"}},
		{"fix without doctor", []string{"--fix"}},
		{"list with argument", []string{"--list", "extra"}},
		{"agent args without alias", []string{"--", "--model", "x"}},
		{"bad log level", []string{"--log-level", "loud", "--list"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := runCLI(t, nil, "", tt.args...)
			if r.code != ExitUsage {
				t.Errorf("exit code = %d, want %d\n%s", r.code, ExitUsage, r.stderr)
			}
			if !strings.HasPrefix(r.stderr, "Error: ") {
				t.Errorf("stderr = %q", r.stderr)
			}
		})
	}
}

func TestComplete(t *testing.T) {
	setupEnv(t)
	mustRun(t, "--set", "review", "r")
	mustRun(t, "--set", "refactor", "r")
	mustRun(t, "--set", "docs", "d")

	r := mustRun(t, "--complete", "re")
	if r.stdout != "refactor\nreview\n" {
		t.Errorf("--complete re = %q", r.stdout)
	}

	r = mustRun(t, "--complete", "--se")
	if r.stdout != "--set\n--setup-completion\n" {
		t.Errorf("--complete --se = %q", r.stdout)
	}

	r = mustRun(t, "--complete")
	lines := strings.Split(strings.TrimSpace(r.stdout), "\n")
	if lines[len(lines)-1] != "review" {
		t.Errorf("--complete = %q", r.stdout)
	}
}

func TestFirstRun(t *testing.T) {
	home := t.TempDir()
	root := filepath.Join(home, ".config", "qwk")
	t.Setenv("HOME", home)
	t.Setenv("QWK_HOME", root)
	t.Setenv("SHELL", "/bin/zsh")

	r := mustRun(t, "--complete", "x")
	if strings.Contains(r.stdout+r.stderr, "Welcome") {
		t.Error("completion calls must not trigger first-run setup")
	}

	r = mustRun(t, "--list")
	if !strings.Contains(r.stderr, "Welcome to qwk!") {
		t.Errorf("missing welcome on stderr:\n%s", r.stderr)
	}
	rc, err := os.ReadFile(filepath.Join(home, ".zshrc"))
	if err != nil || !strings.Contains(string(rc), "_qwk_complete") {
		t.Errorf("completion not installed: %v", err)
	}

	r = mustRun(t, "--list")
	if strings.Contains(r.stderr, "Welcome") {
		t.Error("first-run setup repeated")
	}
}

func TestFirstRun_JSONListStaysParseable(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("QWK_HOME", filepath.Join(home, ".config", "qwk"))
	t.Setenv("SHELL", "/bin/zsh")

	r := mustRun(t, "--list", "--json")
	var got []map[string]string
	if err := json.Unmarshal([]byte(r.stdout), &got); err != nil {
		t.Fatalf("invalid JSON %q: %v", r.stdout, err)
	}
	if len(got) != 0 {
		t.Errorf("unexpected entries: %v", got)
	}
	if !strings.Contains(r.stderr, "Welcome to qwk!") {
		t.Errorf("missing welcome on stderr:\n%s", r.stderr)
	}
}

func TestSetupCompletion(t *testing.T) {
	setupEnv(t)
	t.Setenv("SHELL", "/usr/bin/fish")

	r := mustRun(t, "--setup-completion")
	if !strings.Contains(r.stdout, "Autocompletion set up for fish!") {
		t.Errorf("unexpected output:\n%s", r.stdout)
	}
	r = mustRun(t, "--setup-completion")
	if !strings.Contains(r.stdout, "already set up") {
		t.Errorf("unexpected output:\n%s", r.stdout)
	}

	t.Setenv("SHELL", "/bin/tcsh")
	if r := runCLI(t, nil, "", "--setup-completion"); r.code != ExitFailure {
		t.Errorf("exit code = %d, want %d", r.code, ExitFailure)
	}
}

func TestDoctor(t *testing.T) {
	setupEnv(t)
	exe, err := os.Executable()
	if err != nil {
		t.Fatal(err)
	}
	t.Setenv("QWK_AGENT", exe)

	r := mustRun(t, "--doctor")
	if !strings.Contains(r.stdout, "Data directory check:") || !strings.Contains(r.stdout, "[ OK ]") {
		t.Errorf("unexpected output:\n%s", r.stdout)
	}

	t.Setenv("QWK_AGENT", "qwk-test-agent-does-not-exist")
	if r := runCLI(t, nil, "", "--doctor"); r.code != ExitFailure {
		t.Errorf("exit code = %d, want %d", r.code, ExitFailure)
	}
}

func TestLogLevelFlag(t *testing.T) {
	setupEnv(t)
	r := mustRun(t, "--log-level", "debug", "--list")
	if !strings.Contains(r.stderr, "starting") {
		t.Errorf("expected debug log on stderr, got:\n%s", r.stderr)
	}

	r = mustRun(t, "--list")
	if r.stderr != "" {
		t.Errorf("default level should be quiet, got:\n%s", r.stderr)
	}
}

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, ExitOK},
		{errors.New("boom"), ExitFailure},
		{usageErrorf("bad"), ExitUsage},
		{alias.ErrInvalidName, ExitUsage},
		{alias.ErrNotFound, ExitNotFound},
		{&launcher.SpawnError{Command: "x", Err: errors.New("nope")}, ExitSpawn},
	}
	for _, tt := range tests {
		if got := exitCodeFor(tt.err); got != tt.want {
			t.Errorf("exitCodeFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
