// Package config holds the calculator configuration.
//
// Settings come from, in increasing precedence: built-in defaults, a TOML
// file, KEYCALC_* environment variables, and command-line flags (applied
// by the caller on the returned Config). The file may be watched for
// changes; see Watch.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/keycalc/internal/config/loader"
)

// AppName names the configuration and data directories.
const AppName = "keycalc"

// Filter policy names.
const (
	PolicyEditable = "editable"
	PolicyBuilder  = "builder"
)

// Delete mode names.
const (
	DeleteModeBackspace = "backspace"
	DeleteModeClear     = "clear"
)

// Config is the complete calculator configuration.
type Config struct {
	Calculator CalculatorConfig `toml:"calculator"`
	History    HistoryConfig    `toml:"history"`
	Paths      PathsConfig      `toml:"paths"`
	Logging    LoggingConfig    `toml:"logging"`
}

// CalculatorConfig covers input and evaluation.
type CalculatorConfig struct {
	// Locale is a BCP 47 tag such as "de-DE".
	Locale string `toml:"locale"`

	// LocalizedDigits shows the locale's own digits instead of 0-9.
	LocalizedDigits bool `toml:"localized_digits"`

	// FilterPolicy is "editable" or "builder".
	FilterPolicy string `toml:"filter_policy"`

	// Functions is an optional Lua script defining extra functions.
	Functions string `toml:"functions"`

	// DeleteMode is the delete mode used when no saved state exists.
	DeleteMode string `toml:"delete_mode"`
}

// HistoryConfig covers the persisted history.
type HistoryConfig struct {
	// File is the state file name, relative to Paths.DataDir unless
	// absolute.
	File string `toml:"file"`

	// MaxEntries bounds the history, sentinel included.
	MaxEntries int `toml:"max_entries"`
}

// PathsConfig covers directories.
type PathsConfig struct {
	DataDir string `toml:"data_dir"`
}

// LoggingConfig covers the log file.
type LoggingConfig struct {
	// Level is debug, info, warn or error.
	Level string `toml:"level"`

	// File is the log file, relative to Paths.DataDir unless absolute.
	// "-" sends logs to stderr.
	File string `toml:"file"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Calculator: CalculatorConfig{
			Locale:       localeFromEnv(),
			FilterPolicy: PolicyEditable,
			DeleteMode:   DeleteModeBackspace,
		},
		History: HistoryConfig{
			File:       "calculator.data",
			MaxEntries: 100,
		},
		Paths: PathsConfig{
			DataDir: defaultDataDir(),
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  AppName + ".log",
		},
	}
}

// DefaultPath returns the default configuration file path, or "" when no
// configuration directory can be determined.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, AppName, "config.toml")
}

// Load builds a Config from defaults, the TOML file at path and the
// environment. An empty path skips the file; a missing file is not an
// error.
func Load(path string) (*Config, error) {
	return LoadFrom(loader.NewTOMLLoader(path), loader.NewEnvLoader(loader.DefaultEnvPrefix))
}

// LoadFrom builds a Config from defaults and the given loaders, later
// loaders taking precedence.
func LoadFrom(loaders ...loader.Loader) (*Config, error) {
	merged, err := toMap(Default())
	if err != nil {
		return nil, err
	}
	for _, l := range loaders {
		m, err := l.Load()
		if err != nil {
			return nil, err
		}
		merged = loader.DeepMerge(merged, m)
	}

	data, err := toml.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("encoding merged configuration: %w", err)
	}
	cfg := &Config{}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func toMap(cfg *Config) (map[string]any, error) {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encoding defaults: %w", err)
	}
	var m map[string]any
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding defaults: %w", err)
	}
	return m, nil
}

// Validate checks setting values.
func (c *Config) Validate() error {
	switch c.Calculator.FilterPolicy {
	case PolicyEditable, PolicyBuilder:
	default:
		return &ValidationError{Setting: "calculator.filter_policy", Value: c.Calculator.FilterPolicy}
	}
	switch c.Calculator.DeleteMode {
	case DeleteModeBackspace, DeleteModeClear:
	default:
		return &ValidationError{Setting: "calculator.delete_mode", Value: c.Calculator.DeleteMode}
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return &ValidationError{Setting: "logging.level", Value: c.Logging.Level}
	}
	if c.History.MaxEntries < 2 {
		return &ValidationError{Setting: "history.max_entries", Value: fmt.Sprint(c.History.MaxEntries)}
	}
	if c.History.File == "" {
		return &ValidationError{Setting: "history.file", Value: ""}
	}
	return nil
}

// HistoryPath returns the absolute path of the state file.
func (c *Config) HistoryPath() string {
	return c.resolve(c.History.File)
}

// LogPath returns the log file path, or "-" for stderr.
func (c *Config) LogPath() string {
	if c.Logging.File == "-" || c.Logging.File == "" {
		return "-"
	}
	return c.resolve(c.Logging.File)
}

// FunctionsPath returns the Lua script path, or "" when none is set.
func (c *Config) FunctionsPath() string {
	if c.Calculator.Functions == "" {
		return ""
	}
	return expandHome(c.Calculator.Functions)
}

func (c *Config) resolve(name string) string {
	name = expandHome(name)
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(expandHome(c.Paths.DataDir), name)
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

// defaultDataDir follows the XDG base directory layout.
func defaultDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, AppName)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", AppName)
	}
	return filepath.Join(os.TempDir(), AppName)
}

// localeFromEnv derives a BCP 47 tag from the POSIX locale variables,
// turning "de_DE.UTF-8" into "de-DE".
func localeFromEnv() string {
	for _, name := range []string{"LC_ALL", "LC_NUMERIC", "LANG"} {
		v := os.Getenv(name)
		if v == "" || v == "C" || v == "POSIX" {
			continue
		}
		if i := strings.IndexAny(v, ".@"); i >= 0 {
			v = v[:i]
		}
		if v == "" || v == "C" {
			continue
		}
		return strings.ReplaceAll(v, "_", "-")
	}
	return "en"
}
