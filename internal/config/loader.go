// Package config provides configuration loading and management for dotup.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const (
	// FileName is the configuration file name searched for in the
	// usual places.
	FileName = ".dotfiles-update.yml"

	// EnvPrefix is the prefix for environment variable overrides.
	EnvPrefix = "DOTUP"
)

// Loader handles loading configuration from files and environment.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	v := viper.New()

	v.SetConfigType("yaml")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Loader{v: v}
}

// DefaultPath returns the first existing config file among the search
// locations: the current directory, $XDG_CONFIG_HOME/dotup/, and $HOME.
// Returns empty string if none exists.
func DefaultPath() string {
	for _, path := range searchPaths() {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// searchPaths returns the candidate config file locations in priority order.
func searchPaths() []string {
	var paths []string

	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, FileName))
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths, filepath.Join(xdg, "dotup", FileName))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "dotup", FileName))
		paths = append(paths, filepath.Join(home, FileName))
	}

	return paths
}

// LoadConfig loads configuration from the specified path, applies defaults,
// merges environment variables, and validates the result.
// If path is empty, the search locations are tried; if no file exists
// anywhere, the default configuration is returned.
func (l *Loader) LoadConfig(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	// No config anywhere: run with defaults. An explicitly requested file
	// that is missing is still an error.
	if path == "" {
		cfg := NewConfig()
		l.applyEnvOverrides(cfg)
		cfg.ApplyDefaults()
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, &LoadError{
			Path:    path,
			Message: "config file not found",
			Err:     err,
		}
	}

	l.v.SetConfigFile(path)

	if err := l.v.ReadInConfig(); err != nil {
		return nil, &LoadError{
			Path:    path,
			Message: "failed to read config file",
			Err:     err,
		}
	}

	// Start with defaults so absent keys keep their default values
	cfg := NewConfig()

	if err := l.v.Unmarshal(cfg, viperDecodeHook); err != nil {
		return nil, &LoadError{
			Path:    path,
			Message: "failed to parse config file",
			Err:     err,
		}
	}

	l.applyEnvOverrides(cfg)
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, &LoadError{
			Path:    path,
			Message: "configuration validation failed",
			Err:     err,
		}
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func (l *Loader) applyEnvOverrides(cfg *Config) {
	// Brew settings
	if v := os.Getenv(EnvPrefix + "_BREW_UPDATE"); v != "" {
		cfg.Brew.Update = parseBool(v)
	}
	if v := os.Getenv(EnvPrefix + "_BREW_UPGRADE_FORMULAE"); v != "" {
		cfg.Brew.UpgradeFormulae = parseBool(v)
	}
	if v := os.Getenv(EnvPrefix + "_BREW_UPGRADE_CASKS"); v != "" {
		cfg.Brew.UpgradeCasks = parseBool(v)
	}
	if v := os.Getenv(EnvPrefix + "_BREW_GREEDY"); v != "" {
		cfg.Brew.Greedy = parseBool(v)
	}
	if v := os.Getenv(EnvPrefix + "_BREW_CLEANUP"); v != "" {
		cfg.Brew.Cleanup = parseBool(v)
	}
	if v := os.Getenv(EnvPrefix + "_BREW_BREWFILE"); v != "" {
		cfg.Brew.Brewfile = v
	}

	// Retry settings
	if v := os.Getenv(EnvPrefix + "_RETRY_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Retry.Attempts = n
		}
	}
	if v := os.Getenv(EnvPrefix + "_RETRY_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Retry.Delay = d
		}
	}

	// Step settings
	if v := os.Getenv(EnvPrefix + "_STEPS_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Steps.Timeout = d
		}
	}

	// Log settings
	if v := os.Getenv(EnvPrefix + "_LOG_DIR"); v != "" {
		cfg.Log.Dir = v
	}
}

// parseBool parses a string as a boolean value.
// Returns true for "true", "1", "yes" (case-insensitive).
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes"
}

// viperDecodeHook provides custom decoding for viper unmarshaling.
// It composes the standard mapstructure hooks with our custom ones.
func viperDecodeHook(dc *mapstructure.DecoderConfig) {
	dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		stringToCustomTypeHookFunc(),
	)
}

// stringToCustomTypeHookFunc creates a decode hook for our custom types.
func stringToCustomTypeHookFunc() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if from.Kind() != reflect.String {
			return data, nil
		}

		if to == reflect.TypeOf(FailureMode("")) {
			return FailureMode(data.(string)), nil
		}

		return data, nil
	}
}

// LoadError represents an error that occurred while loading configuration.
type LoadError struct {
	Path    string
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Path, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Load is a convenience function that creates a new Loader and loads
// configuration. If path is empty, the search locations are tried.
func Load(path string) (*Config, error) {
	return NewLoader().LoadConfig(path)
}
