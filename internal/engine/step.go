// Package engine orchestrates an update run: it builds the step list from
// configuration, runs each step under a watchdog timeout, applies the cask
// remediation policy, and assembles the run report.
package engine

import (
	"context"

	"github.com/dbmrq/dotup/internal/brew"
	"github.com/dbmrq/dotup/internal/config"
	"github.com/dbmrq/dotup/internal/logging"
	"github.com/dbmrq/dotup/internal/report"
)

// StepKind groups steps for the --brew-only and --casks-only filters.
type StepKind string

const (
	// KindBrew covers formula-level Homebrew steps.
	KindBrew StepKind = "brew"
	// KindCask covers cask-level Homebrew steps.
	KindCask StepKind = "cask"
	// KindExtra covers optional package managers (mas, npm, gem, rustup).
	KindExtra StepKind = "extra"
)

// Step names.
const (
	StepBrewUpdate   = "brew-update"
	StepCaskRemove   = "cask-remove"
	StepBrewUpgrade  = "brew-upgrade"
	StepCaskUpgrade  = "cask-upgrade"
	StepBrewfileSync = "brewfile-sync"
	StepBrewCleanup  = "brew-cleanup"
)

// StepContext carries the shared dependencies steps run with.
type StepContext struct {
	// Config is the loaded configuration.
	Config *config.Config
	// Brew is the Homebrew service.
	Brew *brew.Service
	// Runner executes non-brew commands (extra package managers).
	Runner brew.Runner
	// Logger is the run logger.
	Logger *logging.Logger
	// DryRun reports whether mutations should be logged instead of run.
	DryRun bool
	// Confirm is asked before destructive actions (cask uninstalls and
	// conflict reinstalls). Nil means proceed.
	Confirm func(prompt string) bool
	// OnPackage is called as each package outcome is decided (optional).
	OnPackage func(step string, outcome report.PackageOutcome)
}

// confirm asks the Confirm callback, defaulting to yes when unset.
func (sc *StepContext) confirm(prompt string) bool {
	if sc.Confirm == nil {
		return true
	}
	return sc.Confirm(prompt)
}

// emitPackage records an outcome and notifies the observer.
func (sc *StepContext) emitPackage(step string, outcomes *[]report.PackageOutcome, outcome report.PackageOutcome) {
	*outcomes = append(*outcomes, outcome)
	if sc.OnPackage != nil {
		sc.OnPackage(step, outcome)
	}
}

// Step is one unit of an update run.
type Step interface {
	// Name returns the step name used in reports and the --only/--skip
	// filters.
	Name() string

	// Kind returns the step's filter group.
	Kind() StepKind

	// Run executes the step. Package outcomes are returned even when the
	// step itself errors, so partial progress is reported.
	Run(ctx context.Context, sc *StepContext) ([]report.PackageOutcome, error)
}

// BuildSteps assembles the step list for the given configuration, in
// execution order. Extra steps are appended for each configured package
// manager whose binary is on PATH.
func BuildSteps(cfg *config.Config, runner brew.Runner) []Step {
	var steps []Step

	if cfg.Brew.Update {
		steps = append(steps, &brewUpdateStep{})
	}
	if len(cfg.Casks.Remove) > 0 {
		steps = append(steps, &caskRemoveStep{})
	}
	if cfg.Brew.UpgradeFormulae {
		steps = append(steps, &brewUpgradeStep{})
	}
	if cfg.Brew.UpgradeCasks {
		steps = append(steps, &caskUpgradeStep{})
	}
	if cfg.Brew.Brewfile != "" {
		steps = append(steps, &brewfileSyncStep{})
	}
	if cfg.Brew.Cleanup {
		steps = append(steps, &brewCleanupStep{})
	}

	steps = append(steps, DiscoverExtras(cfg, runner)...)

	return steps
}

// FilterSteps applies the CLI step filters to the step list.
// BrewOnly keeps Homebrew steps (formulae and casks); CasksOnly keeps cask
// steps. Only and Skip match step names and are applied last.
func FilterSteps(steps []Step, brewOnly, casksOnly bool, only, skip []string) []Step {
	var out []Step
	for _, step := range steps {
		if brewOnly && step.Kind() == KindExtra {
			continue
		}
		if casksOnly && step.Kind() != KindCask {
			continue
		}
		if len(only) > 0 && !containsName(only, step.Name()) {
			continue
		}
		if containsName(skip, step.Name()) {
			continue
		}
		out = append(out, step)
	}
	return out
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
