package cli

import (
	"fmt"
	"os"

	"github.com/qwk-labs/qwk/internal/completion"
	"github.com/spf13/cobra"
)

// runComplete prints one candidate per line for the word being completed.
// A store that cannot be read still yields the flag candidates.
func (a *app) runComplete(cmd *cobra.Command, args []string) error {
	partial := ""
	if len(args) > 0 {
		partial = args[0]
	}

	names, err := a.store.Names()
	if err != nil {
		a.log.Warn().Err(err).Msg("completing without aliases")
	}
	for _, c := range completion.Candidates(names, partial) {
		fmt.Fprintln(cmd.OutOrStdout(), c)
	}
	return nil
}

func (a *app) runSetupCompletion(cmd *cobra.Command) error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("resolving home directory: %w", err)
	}
	res, err := completion.Setup(home, os.Getenv("SHELL"))
	if err != nil {
		return fmt.Errorf("setting up autocompletion: %w", err)
	}
	res.Report(cmd.OutOrStdout(), home)
	return nil
}
