// Package alias implements the persistent alias store: a YAML file mapping
// short alias names to prompt text. Every operation loads the file, applies
// its change and writes it back atomically, so a crash mid-write never leaves
// a truncated store behind. Reset copies the current file to a timestamped
// backup before clearing it.
package alias
