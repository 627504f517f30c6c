// Package resolver turns an alias invocation into the argv of the agent
// process: the agent command, its configured default arguments, the one-off
// extra arguments, and finally the stored prompt.
package resolver

import (
	"errors"
	"fmt"

	"github.com/qwk-labs/qwk/internal/logging"
)

// PromptSource looks up the prompt stored for an alias.
type PromptSource interface {
	Get(name string) (string, error)
}

// AgentSource supplies the agent executable and its default arguments.
type AgentSource interface {
	Agent() (command string, defaultArgs []string, err error)
}

// ErrNoAgent is returned when the agent command resolves to nothing.
var ErrNoAgent = errors.New("agent command is empty")

// Invocation is a resolved alias, ready to launch.
type Invocation struct {
	Alias  string
	Prompt string
	Argv   []string
}

// Resolver builds Invocations from aliases.
type Resolver struct {
	prompts PromptSource
	agent   AgentSource
	log     *logging.Logger
}

// New returns a Resolver reading prompts and agent settings from the given
// sources. A nil logger disables logging.
func New(prompts PromptSource, agent AgentSource, log *logging.Logger) *Resolver {
	if log == nil {
		log = logging.Nop()
	}
	return &Resolver{prompts: prompts, agent: agent, log: log.Sub("resolver")}
}

// Resolve looks up alias and builds the agent argv. The prompt lookup comes
// first: an unknown alias fails before the agent configuration is consulted.
func (r *Resolver) Resolve(alias string, extra []string) (*Invocation, error) {
	prompt, err := r.prompts.Get(alias)
	if err != nil {
		return nil, err
	}

	command, defaults, err := r.agent.Agent()
	if err != nil {
		return nil, fmt.Errorf("loading agent configuration: %w", err)
	}
	if command == "" {
		return nil, ErrNoAgent
	}

	argv := BuildArgv(command, defaults, extra, prompt)
	r.log.Debug().
		Str("alias", alias).
		Str("agent", command).
		Int("default_args", len(defaults)).
		Int("extra_args", len(extra)).
		Msg("alias resolved")

	return &Invocation{Alias: alias, Prompt: prompt, Argv: argv}, nil
}

// BuildArgv assembles [command, defaults..., extra..., prompt]. The prompt is
// always the last positional argument so every flag reaches the agent
// before it.
func BuildArgv(command string, defaults, extra []string, prompt string) []string {
	argv := make([]string, 0, 2+len(defaults)+len(extra))
	argv = append(argv, command)
	argv = append(argv, defaults...)
	argv = append(argv, extra...)
	argv = append(argv, prompt)
	return argv
}
