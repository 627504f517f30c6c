package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/qwk-labs/qwk/internal/alias"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func (a *app) runSet(cmd *cobra.Command, args []string) error {
	if len(args) == 0 || len(args) > 2 {
		return usageErrorf("--set takes an alias and an optional prompt")
	}
	name := args[0]
	if err := alias.ValidateName(name); err != nil {
		return err
	}

	var prompt string
	if len(args) == 2 {
		prompt = args[1]
	} else {
		p, err := readPrompt(cmd.InOrStdin(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		prompt = p
	}

	if err := a.store.Set(name, prompt); err != nil {
		return fmt.Errorf("saving alias: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Alias '%s' set successfully\n", name)
	return nil
}

// readPrompt reads the prompt from in until EOF, trimming surrounding
// whitespace. A hint goes to hint when in is an interactive terminal.
func readPrompt(in io.Reader, hint io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprintln(hint, "Enter the prompt, then press Ctrl-D on an empty line:")
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("reading prompt: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (a *app) runAgent(cmd *cobra.Command) error {
	if err := a.cfg.SetAgent(a.flags.agent); err != nil {
		return fmt.Errorf("setting agent: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Agent set to '%s'\n", a.cfg.AgentCommand())
	return nil
}

func (a *app) runList(cmd *cobra.Command) error {
	entries, err := a.store.List()
	if err != nil {
		return fmt.Errorf("loading aliases: %w", err)
	}
	out := cmd.OutOrStdout()

	if a.flags.json {
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling aliases: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	if len(entries) == 0 {
		fmt.Fprintln(out, "No shortcuts available.")
		return nil
	}
	fmt.Fprintln(out, "Available shortcuts:")
	for _, e := range entries {
		fmt.Fprintf(out, "  %s - %s\n", e.Name, e.Preview)
	}
	return nil
}

func (a *app) runRemove(cmd *cobra.Command) error {
	if err := a.store.Remove(a.flags.remove); err != nil {
		return fmt.Errorf("removing alias: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Shortcut '%s' removed successfully\n", a.flags.remove)
	return nil
}

func (a *app) runReset(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	if !a.flags.yes && !confirm(cmd.InOrStdin(), out,
		"This will remove all shortcuts (a backup will be created). Are you sure? (y/N): ") {
		fmt.Fprintln(out, "Reset cancelled.")
		return nil
	}

	backup, err := a.store.Reset()
	if err != nil {
		return fmt.Errorf("resetting aliases: %w", err)
	}
	if backup == "" {
		fmt.Fprintln(out, "No existing aliases file to backup.")
	} else {
		fmt.Fprintf(out, "Backup created: %s\n", backup)
	}
	fmt.Fprintln(out, "All shortcuts have been reset.")
	return nil
}

// confirm asks question on out and reports whether the answer read from in
// is "y" or "yes". Anything else, including EOF, declines.
func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprint(out, question)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(out)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
