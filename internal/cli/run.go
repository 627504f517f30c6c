package cli

import (
	"github.com/qwk-labs/qwk/internal/launcher"
	"github.com/qwk-labs/qwk/internal/resolver"
	"github.com/spf13/cobra"
)

// runAlias resolves name and runs the agent. The agent's exit code becomes
// the process exit code.
func (a *app) runAlias(cmd *cobra.Command, name string, extra []string) error {
	inv, err := resolver.New(a.store, a.cfg, a.log).Resolve(name, extra)
	if err != nil {
		return err
	}

	l := a.launcher
	if l == nil {
		l = &launcher.ExecLauncher{
			Stdin:  cmd.InOrStdin(),
			Stdout: cmd.OutOrStdout(),
			Stderr: cmd.ErrOrStderr(),
			Log:    a.log,
		}
	}

	code, err := l.Launch(cmd.Context(), inv.Argv)
	if err != nil {
		return err
	}
	a.exitCode = code
	return nil
}
