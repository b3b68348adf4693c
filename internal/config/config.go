// Package config provides configuration data structures for dotup.
package config

import (
	"fmt"
	"time"
)

// Config represents the complete dotup configuration loaded from
// .dotfiles-update.yml.
type Config struct {
	Brew  BrewConfig  `yaml:"brew"  json:"brew"`
	Casks CasksConfig `yaml:"casks" json:"casks"`
	Retry RetryConfig `yaml:"retry" json:"retry"`
	Steps StepsConfig `yaml:"steps" json:"steps"`
	Hooks HooksConfig `yaml:"hooks" json:"hooks"`
	Log   LogConfig   `yaml:"log"   json:"log"`
}

// BrewConfig configures the Homebrew portion of the update run.
type BrewConfig struct {
	// Update runs `brew update` before anything else (default: true).
	Update bool `yaml:"update" json:"update"`
	// UpgradeFormulae runs `brew upgrade` for formulae (default: true).
	UpgradeFormulae bool `yaml:"upgrade_formulae" json:"upgrade_formulae"`
	// UpgradeCasks upgrades outdated casks one at a time (default: true).
	UpgradeCasks bool `yaml:"upgrade_casks" json:"upgrade_casks"`
	// Greedy passes --greedy to cask upgrades, including casks that
	// auto-update themselves (default: false).
	Greedy bool `yaml:"greedy" json:"greedy"`
	// Cleanup runs `brew cleanup` at the end of the run (default: true).
	Cleanup bool `yaml:"cleanup" json:"cleanup"`
	// Brewfile is an optional Brewfile path. When set, a sync step installs
	// missing taps and runs `brew bundle` against it.
	Brewfile string `yaml:"brewfile" json:"brewfile"`
}

// CasksConfig carries the cask ignore and remove lists.
type CasksConfig struct {
	// Ignore lists casks that are never upgraded and never reported
	// as outdated.
	Ignore []string `yaml:"ignore" json:"ignore"`
	// Remove lists casks that are uninstalled during the run if present.
	Remove []string `yaml:"remove" json:"remove"`
}

// RetryConfig configures the cask failure retry policy.
type RetryConfig struct {
	// Attempts is the number of re-tries after the first failure
	// (default: 1). Zero disables retries.
	Attempts int `yaml:"attempts" json:"attempts"`
	// Delay is the pause before each retry (default: 5s).
	Delay time.Duration `yaml:"delay" json:"delay"`
}

// StepsConfig configures step execution.
type StepsConfig struct {
	// Timeout is the per-step watchdog (default: 30m).
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
	// Extra lists optional package managers to include when their binary
	// is found on PATH. Known names: mas, npm, gem, rustup.
	Extra []string `yaml:"extra" json:"extra"`
}

// FailureMode defines how hook failures are handled.
type FailureMode string

const (
	// FailureModeWarnContinue logs a warning but continues the run.
	FailureModeWarnContinue FailureMode = "warn_continue"
	// FailureModeSkipStep skips the remaining hooks of the phase and
	// continues the run.
	FailureModeSkipStep FailureMode = "skip_step"
	// FailureModeAbortRun stops the entire run.
	FailureModeAbortRun FailureMode = "abort_run"
)

// HookDefinition defines a single shell hook.
type HookDefinition struct {
	// Command is the shell command to execute.
	Command string `yaml:"command" json:"command"`
	// OnFailure defines how to handle hook failures (default: warn_continue).
	OnFailure FailureMode `yaml:"on_failure" json:"on_failure"`
}

// HooksConfig configures pre/post update hooks.
type HooksConfig struct {
	// PreUpdate hooks run before the first step.
	PreUpdate []HookDefinition `yaml:"pre_update" json:"pre_update"`
	// PostUpdate hooks run after the last step, whether or not the run
	// succeeded.
	PostUpdate []HookDefinition `yaml:"post_update" json:"post_update"`
}

// LogConfig configures file logging.
type LogConfig struct {
	// Dir is the log directory. Empty means <state-dir>/logs.
	Dir string `yaml:"dir" json:"dir"`
	// MaxFiles is the maximum number of log files to keep (default: 10).
	MaxFiles int `yaml:"max_files" json:"max_files"`
	// MaxAge is the maximum age of log files before cleanup (default: 7d).
	MaxAge time.Duration `yaml:"max_age" json:"max_age"`
}

// Default values.
const (
	DefaultRetryAttempts = 1
	DefaultRetryDelay    = 5 * time.Second
	DefaultStepTimeout   = 30 * time.Minute
	DefaultMaxLogFiles   = 10
	DefaultMaxLogAge     = 7 * 24 * time.Hour
)

// KnownExtraSteps lists the optional package managers dotup knows how to
// drive. The binary of the same name must exist on PATH for the step to run.
var KnownExtraSteps = []string{"mas", "npm", "gem", "rustup"}

// NewConfig returns a new Config with default values applied.
func NewConfig() *Config {
	return &Config{
		Brew: BrewConfig{
			Update:          true,
			UpgradeFormulae: true,
			UpgradeCasks:    true,
			Greedy:          false,
			Cleanup:         true,
			Brewfile:        "",
		},
		Casks: CasksConfig{
			Ignore: []string{},
			Remove: []string{},
		},
		Retry: RetryConfig{
			Attempts: DefaultRetryAttempts,
			Delay:    DefaultRetryDelay,
		},
		Steps: StepsConfig{
			Timeout: DefaultStepTimeout,
			Extra:   []string{},
		},
		Hooks: HooksConfig{
			PreUpdate:  []HookDefinition{},
			PostUpdate: []HookDefinition{},
		},
		Log: LogConfig{
			Dir:      "",
			MaxFiles: DefaultMaxLogFiles,
			MaxAge:   DefaultMaxLogAge,
		},
	}
}

// ApplyDefaults applies default values to any unset fields.
// This is used after loading config from file to fill in missing values.
func (c *Config) ApplyDefaults() {
	defaults := NewConfig()

	if c.Retry.Delay == 0 {
		c.Retry.Delay = defaults.Retry.Delay
	}
	// Note: Retry.Attempts defaults to 1 but an explicit 0 is meaningful
	// (retries disabled). The loader handles this by unmarshaling on top
	// of the default config, so 0 here can only mean an explicit 0.

	if c.Steps.Timeout == 0 {
		c.Steps.Timeout = defaults.Steps.Timeout
	}

	if c.Log.MaxFiles == 0 {
		c.Log.MaxFiles = defaults.Log.MaxFiles
	}
	if c.Log.MaxAge == 0 {
		c.Log.MaxAge = defaults.Log.MaxAge
	}

	// Initialize nil slices
	if c.Casks.Ignore == nil {
		c.Casks.Ignore = []string{}
	}
	if c.Casks.Remove == nil {
		c.Casks.Remove = []string{}
	}
	if c.Steps.Extra == nil {
		c.Steps.Extra = []string{}
	}
	if c.Hooks.PreUpdate == nil {
		c.Hooks.PreUpdate = []HookDefinition{}
	}
	if c.Hooks.PostUpdate == nil {
		c.Hooks.PostUpdate = []HookDefinition{}
	}
}

// IsIgnoredCask reports whether the cask is on the ignore list.
func (c *Config) IsIgnoredCask(name string) bool {
	for _, n := range c.Casks.Ignore {
		if n == name {
			return true
		}
	}
	return false
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []*ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	msg := "multiple validation errors:"
	for _, err := range e {
		msg += "\n  - " + err.Error()
	}
	return msg
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidationErrors

	if c.Retry.Attempts < 0 {
		errs = append(errs, &ValidationError{Field: "retry.attempts", Message: "must be non-negative"})
	}
	if c.Retry.Delay < 0 {
		errs = append(errs, &ValidationError{Field: "retry.delay", Message: "must be non-negative"})
	}
	if c.Steps.Timeout < 0 {
		errs = append(errs, &ValidationError{Field: "steps.timeout", Message: "must be non-negative"})
	}

	for i, name := range c.Steps.Extra {
		if !isKnownExtra(name) {
			errs = append(errs, &ValidationError{
				Field:   fmt.Sprintf("steps.extra[%d]", i),
				Message: fmt.Sprintf("unknown manager %q (known: mas, npm, gem, rustup)", name),
			})
		}
	}

	// A cask on both lists is contradictory: remove wins silently otherwise.
	removeSet := make(map[string]bool, len(c.Casks.Remove))
	for _, name := range c.Casks.Remove {
		removeSet[name] = true
	}
	for _, name := range c.Casks.Ignore {
		if removeSet[name] {
			errs = append(errs, &ValidationError{
				Field:   "casks.ignore",
				Message: fmt.Sprintf("%q appears in both casks.ignore and casks.remove", name),
			})
		}
	}

	for i, hook := range c.Hooks.PreUpdate {
		if err := validateHook(hook, "hooks.pre_update", i); err != nil {
			errs = append(errs, err)
		}
	}
	for i, hook := range c.Hooks.PostUpdate {
		if err := validateHook(hook, "hooks.post_update", i); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateHook(hook HookDefinition, prefix string, index int) *ValidationError {
	field := fmt.Sprintf("%s[%d]", prefix, index)

	if hook.Command == "" {
		return &ValidationError{
			Field:   field + ".command",
			Message: "must not be empty",
		}
	}

	if hook.OnFailure != "" {
		switch hook.OnFailure {
		case FailureModeWarnContinue, FailureModeSkipStep, FailureModeAbortRun:
			// valid
		default:
			return &ValidationError{
				Field:   field + ".on_failure",
				Message: "must be 'warn_continue', 'skip_step', or 'abort_run'",
			}
		}
	}

	return nil
}

func isKnownExtra(name string) bool {
	for _, k := range KnownExtraSteps {
		if k == name {
			return true
		}
	}
	return false
}
