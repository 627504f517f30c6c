package cli

import (
	"github.com/qwk-labs/qwk/internal/userdata"
	"github.com/spf13/cobra"
)

func (a *app) runDoctor(cmd *cobra.Command) error {
	return userdata.Check(cmd.OutOrStdout(), a.root, a.flags.fix)
}
