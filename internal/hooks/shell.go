package hooks

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/dbmrq/dotup/internal/config"
)

// ShellHook executes a shell command as a hook.
// It injects DOTUP_* environment variables describing the run and captures
// stdout/stderr.
type ShellHook struct {
	BaseHook
}

// NewShellHook creates a new shell hook with the given parameters.
func NewShellHook(name string, phase Phase, def config.HookDefinition) *ShellHook {
	return &ShellHook{
		BaseHook: NewBaseHook(name, phase, def),
	}
}

// Execute runs the shell command with the hook context.
// The result includes the exit code and combined output.
func (h *ShellHook) Execute(ctx context.Context, hookCtx *Context) (*Result, error) {
	if hookCtx == nil {
		return nil, fmt.Errorf("hook context is required")
	}

	command := h.definition.Command
	if command == "" {
		return nil, fmt.Errorf("shell hook command is empty")
	}

	command = h.expandVars(command, hookCtx)

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Env = h.buildEnv(hookCtx)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	output := strings.TrimSpace(stdout.String())
	if stderr.Len() > 0 {
		stderrStr := strings.TrimSpace(stderr.String())
		if output != "" {
			output = output + "\n" + stderrStr
		} else {
			output = stderrStr
		}
	}

	exitCode := 0
	var errMsg string
	success := true

	if err != nil {
		success = false
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			exitCode = 1
		}
		errMsg = err.Error()
	}

	return h.NewResult(success, output, errMsg, exitCode), nil
}

// vars builds the hook-specific variables exposed to the command.
func (h *ShellHook) vars(hookCtx *Context) map[string]string {
	return map[string]string{
		"DOTUP_RUN_ID":  hookCtx.RunID,
		"DOTUP_PHASE":   h.phase.String(),
		"DOTUP_DRY_RUN": strconv.FormatBool(hookCtx.DryRun),
		"DOTUP_STATUS":  hookCtx.Status,
		"DOTUP_SUMMARY": hookCtx.Summary,
	}
}

// buildEnv creates the environment for the shell command. It starts with
// the current process environment and adds the DOTUP_* variables.
func (h *ShellHook) buildEnv(hookCtx *Context) []string {
	env := os.Environ()
	for key, value := range h.vars(hookCtx) {
		env = append(env, fmt.Sprintf("%s=%s", key, value))
	}
	return env
}

// expandVars expands ${VAR} patterns in the command string so commands
// like "echo 'run ${DOTUP_RUN_ID} finished: ${DOTUP_STATUS}'" work even
// in shells that do not inherit the injected environment.
func (h *ShellHook) expandVars(command string, hookCtx *Context) string {
	result := command
	for key, value := range h.vars(hookCtx) {
		result = strings.ReplaceAll(result, "${"+key+"}", value)
	}
	return result
}
