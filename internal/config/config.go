package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/qwk-labs/qwk/internal/branding"
	"github.com/qwk-labs/qwk/internal/logging"
	"github.com/qwk-labs/qwk/internal/platform"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"
)

const (
	fileName = "config"
	fileType = "yaml"
)

// Config keys.
const (
	KeyAgent        = "agent"
	KeyPreviewWidth = "preview_width"
	KeyLogLevel     = "log_level"
)

const (
	defaultPreviewWidth = 60
	defaultLogLevel     = "warn"

	dirPerm  os.FileMode = 0700
	filePerm os.FileMode = 0600
)

// ErrEmptyAgent is returned when setting a blank agent command.
var ErrEmptyAgent = errors.New("agent command is empty")

// Error reports a configuration problem tied to the config file.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("config %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Config holds the settings read from config.yaml and the environment.
type Config struct {
	dir     string
	path    string
	v       *viper.Viper
	log     *logging.Logger
	loadErr error
}

// Option configures a Config.
type Option func(*Config)

// WithLogger sets the logger used for config diagnostics.
func WithLogger(l *logging.Logger) Option {
	return func(c *Config) {
		if l != nil {
			c.log = l.Sub("config")
		}
	}
}

// SetLogger replaces the logger after Load, for callers that derive their
// log level from the loaded configuration.
func (c *Config) SetLogger(l *logging.Logger) {
	WithLogger(l)(c)
}

// FileName returns the config file name inside the data directory.
func FileName() string { return fileName + "." + fileType }

// Load reads dir/config.yaml. A missing file is not an error.
//
// If the file exists but cannot be read or parsed, Load returns a Config
// that serves defaults and environment overrides together with the error.
// The same error is reported again by Agent, so commands that never touch
// the agent keep working while the file is broken.
func Load(dir string, opts ...Option) (*Config, error) {
	c := &Config{
		dir:  dir,
		path: filepath.Join(dir, FileName()),
		log:  logging.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.v = newViper(c.path)
	c.v.SetEnvPrefix(branding.EnvPrefix())
	c.v.AutomaticEnv()
	c.v.SetDefault(KeyAgent, branding.DefaultAgent())
	c.v.SetDefault(KeyPreviewWidth, defaultPreviewWidth)
	c.v.SetDefault(KeyLogLevel, defaultLogLevel)

	if err := readFile(c.v); err != nil {
		c.loadErr = &Error{Path: c.path, Err: err}
		c.log.Warn().Err(err).Str("path", c.path).Msg("config file unreadable, using defaults")
		return c, c.loadErr
	}
	c.log.Debug().Str("path", c.path).Msg("config loaded")
	return c, nil
}

// Path returns the config file path.
func (c *Config) Path() string { return c.path }

// Err returns the error Load encountered, if any.
func (c *Config) Err() error { return c.loadErr }

// AgentCommand returns the raw agent command template, falling back to the
// default agent when unset or blank.
func (c *Config) AgentCommand() string {
	s := strings.TrimSpace(c.v.GetString(KeyAgent))
	if s == "" {
		return branding.DefaultAgent()
	}
	return s
}

// Agent splits the agent command template into the executable and its
// default arguments. It returns the Load error, if any, so a broken config
// file surfaces when an alias is run.
func (c *Config) Agent() (string, []string, error) {
	if c.loadErr != nil {
		return "", nil, c.loadErr
	}
	command, args := ParseCommand(c.AgentCommand())
	return command, args, nil
}

// PreviewWidth returns the list preview length.
func (c *Config) PreviewWidth() int {
	if n := c.v.GetInt(KeyPreviewWidth); n > 0 {
		return n
	}
	return defaultPreviewWidth
}

// LogLevel returns the configured log level name.
func (c *Config) LogLevel() string {
	return c.v.GetString(KeyLogLevel)
}

// SetAgent stores the agent command template. Surrounding whitespace is
// trimmed; the template is otherwise kept as typed.
func (c *Config) SetAgent(command string) error {
	command = strings.TrimSpace(command)
	if command == "" {
		return &Error{Path: c.path, Err: ErrEmptyAgent}
	}
	return c.Set(KeyAgent, command)
}

// Set writes a config key-value pair and saves the config file atomically.
// Only values from the file itself are persisted; environment overrides and
// defaults are not copied into it.
func (c *Config) Set(key string, value interface{}) error {
	file := newViper(c.path)
	if err := readFile(file); err != nil {
		return &Error{Path: c.path, Err: err}
	}
	file.Set(key, value)

	data, err := yaml.Marshal(file.AllSettings())
	if err != nil {
		return &Error{Path: c.path, Err: fmt.Errorf("encoding settings: %w", err)}
	}
	if err := os.MkdirAll(c.dir, dirPerm); err != nil {
		return &Error{Path: c.dir, Err: fmt.Errorf("creating config directory: %w", err)}
	}
	if err := platform.WriteFileAtomic(c.path, data, filePerm); err != nil {
		return &Error{Path: c.path, Err: err}
	}

	c.v.Set(key, value)
	c.log.Debug().Str("key", key).Msg("config value saved")
	return nil
}

// ParseCommand splits a command template on whitespace into the executable
// and its arguments. Quotes have no special meaning.
func ParseCommand(s string) (string, []string) {
	fields := strings.Fields(s)
	switch len(fields) {
	case 0:
		return "", nil
	case 1:
		return fields[0], nil
	default:
		return fields[0], fields[1:]
	}
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType(fileType)
	return v
}

// readFile loads the config file into v, ignoring a missing file.
func readFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
}
