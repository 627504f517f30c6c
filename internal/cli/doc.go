// Package cli implements the qwk command line: running an alias, managing
// stored prompts and the agent command, shell completion and diagnostics.
package cli
