// Package hooks provides pre/post update hook functionality for dotup.
// Hooks are shell commands from .dotfiles-update.yml that run before the
// first update step or after the last one (pulling the dotfiles repo
// beforehand, notifying afterwards, and so on).
package hooks

import (
	"context"
	"fmt"

	"github.com/dbmrq/dotup/internal/config"
)

// Phase indicates when a hook runs relative to the update run.
type Phase string

const (
	// PhasePre indicates the hook runs before the first step.
	PhasePre Phase = "pre"
	// PhasePost indicates the hook runs after the last step.
	PhasePost Phase = "post"
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	return string(p)
}

// Context provides information for hook execution, surfaced to the shell
// command through DOTUP_* environment variables.
type Context struct {
	// RunID identifies the current update run.
	RunID string
	// DryRun reports whether the run is a dry run.
	DryRun bool
	// Status is the run outcome so far ("ok", "failed"); only meaningful
	// for post-update hooks.
	Status string
	// Summary is a one-line run summary; only meaningful for post-update
	// hooks.
	Summary string
}

// Result represents the outcome of a hook execution.
type Result struct {
	// Success indicates whether the hook completed successfully.
	Success bool
	// Output is the captured output from the hook.
	Output string
	// Error contains any error message if the hook failed.
	Error string
	// ExitCode is the shell exit code (0 = success).
	ExitCode int
	// FailureMode is the configured failure handling mode.
	FailureMode config.FailureMode
}

// IsSuccess returns true if the hook executed successfully.
func (r Result) IsSuccess() bool {
	return r.Success && r.ExitCode == 0
}

// ShouldAbort returns true if the hook failure should abort the run.
func (r Result) ShouldAbort() bool {
	return !r.IsSuccess() && r.FailureMode == config.FailureModeAbortRun
}

// ShouldSkipRemaining returns true if the hook failure should skip the
// remaining hooks in this phase.
func (r Result) ShouldSkipRemaining() bool {
	return !r.IsSuccess() && r.FailureMode == config.FailureModeSkipStep
}

// Hook defines the interface hook implementations satisfy.
type Hook interface {
	// Name returns a descriptive name for this hook (for logging).
	Name() string

	// Phase returns whether this is a pre- or post-update hook.
	Phase() Phase

	// Definition returns the underlying hook definition from config.
	Definition() config.HookDefinition

	// Execute runs the hook with the given context.
	Execute(ctx context.Context, hookCtx *Context) (*Result, error)
}

// BaseHook provides common functionality for hook implementations.
type BaseHook struct {
	name       string
	phase      Phase
	definition config.HookDefinition
}

// NewBaseHook creates a new BaseHook with the given parameters.
func NewBaseHook(name string, phase Phase, def config.HookDefinition) BaseHook {
	return BaseHook{
		name:       name,
		phase:      phase,
		definition: def,
	}
}

// Name returns the hook name.
func (h *BaseHook) Name() string {
	return h.name
}

// Phase returns the hook phase.
func (h *BaseHook) Phase() Phase {
	return h.phase
}

// Definition returns the hook definition.
func (h *BaseHook) Definition() config.HookDefinition {
	return h.definition
}

// FailureMode returns the failure mode, defaulting to warn_continue.
func (h *BaseHook) FailureMode() config.FailureMode {
	if h.definition.OnFailure == "" {
		return config.FailureModeWarnContinue
	}
	return h.definition.OnFailure
}

// NewResult creates a Result carrying the hook's failure mode.
func (h *BaseHook) NewResult(success bool, output, errMsg string, exitCode int) *Result {
	return &Result{
		Success:     success,
		Output:      output,
		Error:       errMsg,
		ExitCode:    exitCode,
		FailureMode: h.FailureMode(),
	}
}

// FromConfig creates Hook instances from the configuration.
func FromConfig(cfg *config.HooksConfig) (preHooks, postHooks []Hook) {
	preHooks = make([]Hook, 0, len(cfg.PreUpdate))
	postHooks = make([]Hook, 0, len(cfg.PostUpdate))

	for i, def := range cfg.PreUpdate {
		name := fmt.Sprintf("pre_update[%d]", i)
		preHooks = append(preHooks, NewShellHook(name, PhasePre, def))
	}
	for i, def := range cfg.PostUpdate {
		name := fmt.Sprintf("post_update[%d]", i)
		postHooks = append(postHooks, NewShellHook(name, PhasePost, def))
	}

	return preHooks, postHooks
}
