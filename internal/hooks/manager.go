package hooks

import (
	"context"
	"fmt"

	"github.com/dbmrq/dotup/internal/config"
)

// ManagerResult represents the aggregate outcome of executing a phase of hooks.
type ManagerResult struct {
	// AllSuccess is true if all hooks succeeded.
	AllSuccess bool
	// Results contains the individual result for each hook.
	Results []*Result
	// Action is the recommended action based on hook results.
	Action ManagerAction
	// FailedHook is the hook that caused a non-continue action (if any).
	FailedHook Hook
	// FailedResult is the result of the failed hook (if any).
	FailedResult *Result
}

// ManagerAction defines the action the manager recommends after hook execution.
type ManagerAction string

const (
	// ManagerActionContinue indicates all hooks passed or failed with
	// warn_continue.
	ManagerActionContinue ManagerAction = "continue"
	// ManagerActionSkipRemaining indicates a hook failed with skip_step
	// mode; remaining hooks in the phase were not run.
	ManagerActionSkipRemaining ManagerAction = "skip_remaining"
	// ManagerActionAbortRun indicates a hook failed with abort_run mode.
	ManagerActionAbortRun ManagerAction = "abort_run"
)

// Manager orchestrates hook execution around an update run.
// It runs pre-update and post-update hooks in order and handles failures
// according to each hook's configured failure mode.
type Manager struct {
	preHooks  []Hook
	postHooks []Hook
	// Logger is called for each hook execution (optional).
	Logger func(phase Phase, hook Hook, result *Result)
}

// NewManager creates a new hook manager with the given hooks.
func NewManager(preHooks, postHooks []Hook) *Manager {
	return &Manager{
		preHooks:  preHooks,
		postHooks: postHooks,
	}
}

// NewManagerFromConfig creates a Manager from configuration.
func NewManagerFromConfig(cfg *config.HooksConfig) *Manager {
	preHooks, postHooks := FromConfig(cfg)
	return NewManager(preHooks, postHooks)
}

// HasPreHooks returns true if there are pre-update hooks configured.
func (m *Manager) HasPreHooks() bool {
	return len(m.preHooks) > 0
}

// HasPostHooks returns true if there are post-update hooks configured.
func (m *Manager) HasPostHooks() bool {
	return len(m.postHooks) > 0
}

// ExecutePreHooks runs all pre-update hooks in order.
// It stops execution if a hook fails with skip_step or abort_run mode.
func (m *Manager) ExecutePreHooks(ctx context.Context, hookCtx *Context) *ManagerResult {
	return m.executeHooks(ctx, m.preHooks, hookCtx, PhasePre)
}

// ExecutePostHooks runs all post-update hooks in order.
// It stops execution if a hook fails with skip_step or abort_run mode.
func (m *Manager) ExecutePostHooks(ctx context.Context, hookCtx *Context) *ManagerResult {
	return m.executeHooks(ctx, m.postHooks, hookCtx, PhasePost)
}

// executeHooks runs a list of hooks in order, handling failures.
func (m *Manager) executeHooks(ctx context.Context, hooks []Hook, hookCtx *Context, phase Phase) *ManagerResult {
	result := &ManagerResult{
		AllSuccess: true,
		Results:    make([]*Result, 0, len(hooks)),
		Action:     ManagerActionContinue,
	}

	for _, hook := range hooks {
		if ctx.Err() != nil {
			result.AllSuccess = false
			result.Action = ManagerActionAbortRun
			break
		}

		hookResult, err := hook.Execute(ctx, hookCtx)
		if err != nil {
			// Execution error (not hook failure), treat as abort
			hookResult = &Result{
				Success:     false,
				Error:       fmt.Sprintf("execution error: %v", err),
				ExitCode:    1,
				FailureMode: config.FailureModeAbortRun,
			}
		}

		result.Results = append(result.Results, hookResult)

		if m.Logger != nil {
			m.Logger(phase, hook, hookResult)
		}

		if !hookResult.IsSuccess() {
			result.AllSuccess = false

			switch {
			case hookResult.ShouldAbort():
				result.Action = ManagerActionAbortRun
				result.FailedHook = hook
				result.FailedResult = hookResult
				return result

			case hookResult.ShouldSkipRemaining():
				result.Action = ManagerActionSkipRemaining
				result.FailedHook = hook
				result.FailedResult = hookResult
				return result
			}
		}
	}

	return result
}

// FailedHookInfo returns a formatted description of the failed hook for
// log output.
func (m *Manager) FailedHookInfo(result *ManagerResult) string {
	if result.FailedHook == nil || result.FailedResult == nil {
		return ""
	}

	return fmt.Sprintf(
		"Hook '%s' (phase: %s) failed with exit code %d.\nError: %s\nOutput: %s",
		result.FailedHook.Name(),
		result.FailedHook.Phase(),
		result.FailedResult.ExitCode,
		result.FailedResult.Error,
		result.FailedResult.Output,
	)
}
