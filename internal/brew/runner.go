// Package brew wraps the Homebrew CLI for dotup.
// This file contains the command runner abstraction; the real
// implementation shells out, tests substitute a fake.
package brew

import (
	"bytes"
	"context"
	"io"
	"os/exec"
	"strings"
)

// Result holds the outcome of an external command.
type Result struct {
	// Stdout is the captured standard output.
	Stdout string
	// Stderr is the captured standard error.
	Stderr string
	// ExitCode is the process exit code (0 = success).
	ExitCode int
}

// Success reports whether the command exited zero.
func (r *Result) Success() bool {
	return r.ExitCode == 0
}

// CombinedOutput returns stdout and stderr joined, trimmed.
func (r *Result) CombinedOutput() string {
	out := strings.TrimSpace(r.Stdout)
	errOut := strings.TrimSpace(r.Stderr)
	switch {
	case out == "":
		return errOut
	case errOut == "":
		return out
	default:
		return out + "\n" + errOut
	}
}

// Runner executes external commands. The interface exists so the engine
// and service can be tested without a real Homebrew installation.
type Runner interface {
	// Run executes the command and captures its output. A non-zero exit
	// is reported through Result.ExitCode, not through the error; the
	// error is reserved for start failures and context cancellation.
	Run(ctx context.Context, name string, args ...string) (*Result, error)

	// LookPath reports where the named binary lives, or an error if it
	// is not on PATH.
	LookPath(name string) (string, error)
}

// ExecRunner runs commands via os/exec.
type ExecRunner struct {
	// Stream, when set, receives a live copy of stdout and stderr.
	// Typically a logging.Logger.Writer so command output lands in the
	// log file as it is produced.
	Stream io.Writer
}

// NewExecRunner creates an ExecRunner streaming output to w (may be nil).
func NewExecRunner(w io.Writer) *ExecRunner {
	return &ExecRunner{Stream: w}
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (*Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	if r.Stream != nil {
		cmd.Stdout = io.MultiWriter(&stdout, r.Stream)
		cmd.Stderr = io.MultiWriter(&stderr, r.Stream)
	} else {
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	}

	err := cmd.Run()

	result := &Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		result.ExitCode = 1
		return result, err
	}

	return result, nil
}

// LookPath implements Runner.
func (r *ExecRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}
