// Package branding provides compile-time identity values for the CLI.
//
// The values live in branding.yaml next to this file and are baked into the
// binary with //go:embed, so a fork can rename the tool without touching code.
package branding

import (
	_ "embed"
	"path/filepath"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed branding.yaml
var rawBranding []byte

var (
	once     sync.Once
	defaults brand
)

type brand struct {
	CLIName      string `yaml:"cli_name"`
	DisplayName  string `yaml:"display_name"`
	Description  string `yaml:"description"`
	ConfigDir    string `yaml:"config_dir"`
	EnvPrefix    string `yaml:"env_prefix"`
	DefaultAgent string `yaml:"default_agent"`
}

func load() {
	once.Do(func() {
		// Set hard defaults in case the embedded file is missing/empty.
		defaults = brand{
			CLIName:      "qwk",
			DisplayName:  "qwk",
			Description:  "Run stored prompts through your AI agent with short aliases",
			ConfigDir:    ".config/qwk",
			EnvPrefix:    "QWK",
			DefaultAgent: "claude",
		}
		// Overlay with embedded YAML values.
		_ = yaml.Unmarshal(rawBranding, &defaults)
	})
}

// CLIName returns the binary name (e.g., "qwk").
func CLIName() string { load(); return defaults.CLIName }

// DisplayName returns the human-readable product name.
func DisplayName() string { load(); return defaults.DisplayName }

// Description returns the short product description.
func Description() string { load(); return defaults.Description }

// ConfigDir returns the per-user directory relative to $HOME, using the
// host path separator (e.g., ".config/qwk").
func ConfigDir() string { load(); return filepath.FromSlash(defaults.ConfigDir) }

// EnvPrefix returns the environment variable prefix (e.g., "QWK").
func EnvPrefix() string { load(); return defaults.EnvPrefix }

// DefaultAgent returns the agent command used when none is configured.
func DefaultAgent() string { load(); return defaults.DefaultAgent }

// EnvVar returns a fully qualified env var name, e.g., EnvVar("HOME") → "QWK_HOME".
func EnvVar(suffix string) string {
	load()
	return defaults.EnvPrefix + "_" + strings.ToUpper(suffix)
}
