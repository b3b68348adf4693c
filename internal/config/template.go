// Package config provides configuration management for dotup.
// This file contains the default config template written by `dotup init`
// and the strict YAML check used by `dotup doctor`.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultTemplate is the commented configuration written by `dotup init`.
// Every value shown matches the built-in default.
const DefaultTemplate = `# dotup configuration
# See 'dotup doctor' to validate this file.

brew:
  update: true             # run 'brew update' first
  upgrade_formulae: true
  upgrade_casks: true
  greedy: false            # include self-updating casks in upgrades
  cleanup: true            # run 'brew cleanup' at the end
  brewfile: ""             # optional: sync against a Brewfile, e.g. ~/Brewfile

casks:
  ignore: []               # casks never upgraded, e.g. [google-chrome]
  remove: []               # casks uninstalled during the run, e.g. [legacy-app]

retry:
  attempts: 1              # re-tries after a failed cask install
  delay: 5s                # pause before each retry

steps:
  timeout: 30m             # per-step watchdog
  extra: []                # optional managers when installed: mas, npm, gem, rustup

hooks:
  pre_update: []           # shell hooks, e.g. [{command: "git -C ~/dotfiles pull"}]
  post_update: []

log:
  dir: ""                  # default: <state-dir>/logs
  max_files: 10
  max_age: 168h
`

// WriteDefault writes the default configuration template to path.
// It refuses to overwrite an existing file.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}
	return os.WriteFile(path, []byte(DefaultTemplate), 0644)
}

// rawConfig mirrors Config with string durations so the strict check can
// decode the same files the viper loader accepts (yaml.v3 cannot parse
// "30m" into a time.Duration on its own).
type rawConfig struct {
	Brew struct {
		Update          bool   `yaml:"update"`
		UpgradeFormulae bool   `yaml:"upgrade_formulae"`
		UpgradeCasks    bool   `yaml:"upgrade_casks"`
		Greedy          bool   `yaml:"greedy"`
		Cleanup         bool   `yaml:"cleanup"`
		Brewfile        string `yaml:"brewfile"`
	} `yaml:"brew"`
	Casks struct {
		Ignore []string `yaml:"ignore"`
		Remove []string `yaml:"remove"`
	} `yaml:"casks"`
	Retry struct {
		Attempts int    `yaml:"attempts"`
		Delay    string `yaml:"delay"`
	} `yaml:"retry"`
	Steps struct {
		Timeout string   `yaml:"timeout"`
		Extra   []string `yaml:"extra"`
	} `yaml:"steps"`
	Hooks struct {
		PreUpdate []struct {
			Command   string `yaml:"command"`
			OnFailure string `yaml:"on_failure"`
		} `yaml:"pre_update"`
		PostUpdate []struct {
			Command   string `yaml:"command"`
			OnFailure string `yaml:"on_failure"`
		} `yaml:"post_update"`
	} `yaml:"hooks"`
	Log struct {
		Dir      string `yaml:"dir"`
		MaxFiles int    `yaml:"max_files"`
		MaxAge   string `yaml:"max_age"`
	} `yaml:"log"`
}

// CheckStrict decodes the config file rejecting unknown keys.
// It catches typos like 'casks.ingore' that the permissive viper loader
// would silently drop. Duration values are checked for parseability.
func CheckStrict(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var raw rawConfig
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		// An empty file decodes to EOF, which is fine
		if strings.Contains(err.Error(), "EOF") {
			return nil
		}
		return err
	}

	for field, value := range map[string]string{
		"retry.delay":   raw.Retry.Delay,
		"steps.timeout": raw.Steps.Timeout,
		"log.max_age":   raw.Log.MaxAge,
	} {
		if value == "" {
			continue
		}
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("%s: invalid duration %q", field, value)
		}
	}

	return nil
}
