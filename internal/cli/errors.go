package cli

import (
	"errors"
	"fmt"

	"github.com/qwk-labs/qwk/internal/alias"
	"github.com/qwk-labs/qwk/internal/config"
	"github.com/qwk-labs/qwk/internal/launcher"
	"github.com/qwk-labs/qwk/internal/resolver"
)

// Process exit codes. A launched agent's own exit code is passed through
// unchanged.
const (
	ExitOK       = 0
	ExitFailure  = 1
	ExitUsage    = 2
	ExitNotFound = 3
	ExitConfig   = 4
	ExitSpawn    = 127
)

// usageError marks bad flags or arguments.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func usageErrorf(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

// exitCodeFor maps an error returned by a command to the process exit code.
func exitCodeFor(err error) int {
	var (
		ue *usageError
		ce *config.Error
		se *launcher.SpawnError
	)
	switch {
	case err == nil:
		return ExitOK
	case errors.As(err, &ue), errors.Is(err, alias.ErrInvalidName):
		return ExitUsage
	case errors.Is(err, alias.ErrNotFound):
		return ExitNotFound
	case errors.As(err, &ce), errors.Is(err, resolver.ErrNoAgent):
		return ExitConfig
	case errors.As(err, &se):
		return ExitSpawn
	default:
		return ExitFailure
	}
}
