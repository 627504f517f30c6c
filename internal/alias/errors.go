package alias

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an alias does not exist in the store.
	ErrNotFound = errors.New("alias not found")

	// ErrEmptyPrompt is returned when setting an alias with no prompt text.
	ErrEmptyPrompt = errors.New("prompt is empty")

	// ErrInvalidName is returned for alias names that cannot be invoked
	// from the command line.
	ErrInvalidName = errors.New("invalid alias name")
)

// StoreError reports a failure reading, parsing or writing a store file.
type StoreError struct {
	Op   string // "read", "parse", "validate", "write" or "backup"
	Path string
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// ValidationError lists the schema violations found in a store file.
type ValidationError struct {
	Issues []ValidationIssue
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "store does not match schema"
	}
	first := e.Issues[0]
	msg := first.Message
	if first.Path != "" {
		msg = first.Path + ": " + msg
	}
	if n := len(e.Issues) - 1; n > 0 {
		return fmt.Sprintf("%s (and %d more)", msg, n)
	}
	return msg
}
