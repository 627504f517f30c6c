package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/qwk-labs/qwk/internal/alias"
	"github.com/qwk-labs/qwk/internal/branding"
	"github.com/qwk-labs/qwk/internal/completion"
	"github.com/qwk-labs/qwk/internal/config"
	"github.com/qwk-labs/qwk/internal/launcher"
	"github.com/qwk-labs/qwk/internal/logging"
	"github.com/qwk-labs/qwk/internal/userdata"
	"github.com/spf13/cobra"
)

// flags holds the parsed command line for one invocation.
type flags struct {
	set             bool
	agent           string
	list            bool
	json            bool
	remove          string
	reset           bool
	yes             bool
	setupCompletion bool
	complete        bool
	doctor          bool
	fix             bool
	logLevel        string
}

// app carries the state of a single CLI invocation.
type app struct {
	version, commit, date string

	stdin          io.Reader
	stdout, stderr io.Writer
	launcher       launcher.Launcher

	flags    flags
	root     string
	cfg      *config.Config
	store    *alias.Store
	log      *logging.Logger
	exitCode int
}

// Execute runs the command line with build info injected via ldflags and
// returns the process exit code.
func Execute(version, commit, date string) int {
	a := &app{version: version, commit: commit, date: date}
	return a.execute(os.Args[1:])
}

func (a *app) execute(args []string) int {
	cmd := a.newRootCmd()
	if a.stdin != nil {
		cmd.SetIn(a.stdin)
	}
	if a.stdout != nil {
		cmd.SetOut(a.stdout)
	}
	if a.stderr != nil {
		cmd.SetErr(a.stderr)
	}
	cmd.SetArgs(completionArgs(args))

	err := cmd.ExecuteContext(context.Background())
	if err == nil {
		return a.exitCode
	}

	errOut := cmd.ErrOrStderr()
	fmt.Fprintf(errOut, "Error: %v\n", err)
	code := exitCodeFor(err)
	switch code {
	case ExitUsage:
		fmt.Fprintf(errOut, "Run '%s --help' for usage.\n", branding.CLIName())
	case ExitNotFound:
		fmt.Fprintf(errOut, "Run '%s --list' to see available shortcuts.\n", branding.CLIName())
	case ExitSpawn:
		fmt.Fprintf(errOut, "Configure the agent with '%s --agent \"<command>\"'.\n", branding.CLIName())
	}
	return code
}

// completionArgs keeps the word being completed from being parsed as a flag:
// `qwk --complete --se` must complete "--se", not fail on an unknown flag.
func completionArgs(args []string) []string {
	if len(args) == 0 || args[0] != "--complete" {
		return args
	}
	out := make([]string, 0, len(args)+1)
	out = append(out, "--complete", "--")
	return append(out, args[1:]...)
}

func (a *app) newRootCmd() *cobra.Command {
	name := branding.CLIName()
	cmd := &cobra.Command{
		Use:   name + " <alias> [-- agent-args...]",
		Short: branding.Description(),
		Long: branding.DisplayName() + ` binds short aliases to stored prompts and runs the configured
AI agent command with the prompt of the alias you name.`,
		Example: fmt.Sprintf(`  %[1]s --set docs "Generate documentation for this package"
  git diff | %[1]s --set review
  %[1]s docs
  %[1]s docs -- --model opus
  %[1]s --agent "claude --verbose"
  %[1]s --list`, name),
		Version:           fmt.Sprintf("%s (commit: %s, built: %s)", a.version, a.commit, a.date),
		Args:              cobra.ArbitraryArgs,
		SilenceUsage:      true,
		SilenceErrors:     true,
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
		PersistentPreRunE: a.setup,
		RunE:              a.run,
	}

	f := cmd.Flags()
	f.BoolVar(&a.flags.set, "set", false, "Store a prompt: --set <alias> [prompt] (reads stdin without prompt)")
	f.StringVar(&a.flags.agent, "agent", "", "Set the agent command, e.g. \"claude --verbose\"")
	f.BoolVar(&a.flags.list, "list", false, "List stored aliases")
	f.BoolVar(&a.flags.json, "json", false, "With --list, print aliases as JSON")
	f.StringVar(&a.flags.remove, "remove", "", "Remove an alias")
	f.BoolVar(&a.flags.reset, "reset", false, "Remove all aliases after writing a backup")
	f.BoolVar(&a.flags.yes, "yes", false, "With --reset, skip the confirmation prompt")
	f.BoolVar(&a.flags.setupCompletion, "setup-completion", false, "Install shell autocompletion")
	f.BoolVar(&a.flags.complete, "complete", false, "Print completion candidates")
	f.BoolVar(&a.flags.doctor, "doctor", false, "Check the data directory and agent setup")
	f.BoolVar(&a.flags.fix, "fix", false, "With --doctor, repair missing directories and permissions")
	_ = f.MarkHidden("complete")
	cmd.MarkFlagsMutuallyExclusive("set", "agent", "list", "remove", "reset", "setup-completion", "complete", "doctor")

	cmd.PersistentFlags().StringVar(&a.flags.logLevel, "log-level", "", "log level (trace, debug, info, warn, error, fatal, silent)")

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})
	return cmd
}

// setup resolves the data directory, loads configuration and builds the
// logger before any command runs.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	// Checked here so a conflict is a usage error and nothing is touched.
	if err := cmd.ValidateFlagGroups(); err != nil {
		return &usageError{err: err}
	}
	if a.flags.logLevel != "" && !logging.ValidLevel(a.flags.logLevel) {
		return usageErrorf("invalid log level %q", a.flags.logLevel)
	}

	var err error
	if a.flags.complete || a.flags.doctor {
		a.root, err = userdata.Root()
	} else {
		a.root, err = userdata.EnsureRoot()
	}
	if err != nil {
		return fmt.Errorf("resolving data directory: %w", err)
	}

	// A broken config file is reported when the agent is needed.
	cfg, cfgErr := config.Load(a.root)
	level := a.flags.logLevel
	if level == "" {
		level = cfg.LogLevel()
	}
	a.log = logging.NewConsole(cmd.ErrOrStderr(), level)
	if cfgErr != nil {
		a.log.Warn().Err(cfgErr).Msg("config file unreadable, using defaults")
	}
	cfg.SetLogger(a.log)
	a.cfg = cfg

	a.store = alias.New(a.root,
		alias.WithLogger(a.log),
		alias.WithPreviewWidth(a.cfg.PreviewWidth()),
	)
	a.log.Debug().Str("root", a.root).Str("version", a.version).Msg("starting")

	if !a.flags.complete && !a.flags.doctor {
		home, err := os.UserHomeDir()
		if err == nil {
			completion.FirstRun(cmd.ErrOrStderr(), a.root, home, os.Getenv("SHELL"))
		}
	}
	return nil
}

func (a *app) run(cmd *cobra.Command, args []string) error {
	positional, extra := args, []string(nil)
	if dash := cmd.ArgsLenAtDash(); dash >= 0 {
		positional, extra = args[:dash], args[dash:]
	}

	if a.flags.json && !a.flags.list {
		return usageErrorf("--json requires --list")
	}
	if a.flags.yes && !a.flags.reset {
		return usageErrorf("--yes requires --reset")
	}
	if a.flags.fix && !a.flags.doctor {
		return usageErrorf("--fix requires --doctor")
	}

	switch {
	case a.flags.complete:
		return a.runComplete(cmd, args)
	case a.flags.set:
		if len(extra) > 0 {
			return usageErrorf("--set does not take agent arguments")
		}
		return a.runSet(cmd, positional)
	}

	if a.isManagement(cmd) {
		if len(args) > 0 {
			return usageErrorf("unexpected argument %q", args[0])
		}
		return a.runManagement(cmd)
	}

	switch len(positional) {
	case 0:
		if len(extra) > 0 {
			return usageErrorf("agent arguments given without an alias")
		}
		return cmd.Help()
	case 1:
		return a.runAlias(cmd, positional[0], extra)
	default:
		return usageErrorf("unexpected argument %q; pass agent arguments after '--': %s %s -- <agent-args>",
			positional[1], branding.CLIName(), positional[0])
	}
}

func (a *app) isManagement(cmd *cobra.Command) bool {
	return cmd.Flags().Changed("agent") || a.flags.list || cmd.Flags().Changed("remove") ||
		a.flags.reset || a.flags.setupCompletion || a.flags.doctor
}

func (a *app) runManagement(cmd *cobra.Command) error {
	switch {
	case cmd.Flags().Changed("agent"):
		return a.runAgent(cmd)
	case a.flags.list:
		return a.runList(cmd)
	case cmd.Flags().Changed("remove"):
		return a.runRemove(cmd)
	case a.flags.reset:
		return a.runReset(cmd)
	case a.flags.setupCompletion:
		return a.runSetupCompletion(cmd)
	default:
		return a.runDoctor(cmd)
	}
}
