// Package errors provides error types for dotup.
// This file contains Homebrew-specific error constructors and the stderr
// classification that drives cask failure remediation.
package errors

import (
	"fmt"
	"strings"
)

// BrewNotInstalled creates an error for a missing brew binary.
func BrewNotInstalled() *DotupError {
	return &DotupError{
		Kind:    ErrNotFound,
		Message: "Homebrew is not installed or not on PATH",
		Suggestion: `Install Homebrew first:

  /bin/bash -c "$(curl -fsSL https://raw.githubusercontent.com/Homebrew/install/HEAD/install.sh)"

Then run 'dotup doctor' to verify the environment.`,
	}
}

// BrewCommandFailed creates an error for a failed brew invocation.
// The stderr output is classified so callers can pick the right
// remediation (retry, skip, or uninstall-and-reinstall).
func BrewCommandFailed(command string, exitCode int, stderr string, cause error) *DotupError {
	err := ClassifyBrewOutput(stderr)
	err.Cause = cause
	err.WithDetails("command", command)
	err.WithDetails("exit_code", fmt.Sprintf("%d", exitCode))
	if s := lastNonEmptyLine(stderr); s != "" {
		err.WithDetails("stderr", s)
	}
	return err
}

// conflictPatterns match brew's "an app is already at the target path"
// family of failures. These are fixed by uninstalling and reinstalling.
var conflictPatterns = []string{
	"it seems there is already an app at",
	"already an app at",
	"target already exists",
	"already exists.",
	"conflicts with an existing",
}

// transientPatterns match failures that tend to resolve on their own:
// flaky downloads, CDN hiccups, checksum races against a moving upstream.
var transientPatterns = []string{
	"download failed",
	"curl: (",
	"sha256 mismatch",
	"checksum mismatch",
	"could not resolve host",
	"connection reset",
	"connection refused",
	"operation timed out",
	"timed out",
	"the request timed out",
	"502 bad gateway",
	"503 service unavailable",
	"temporary failure",
}

var permissionPatterns = []string{
	"permission denied",
	"operation not permitted",
}

var notFoundPatterns = []string{
	"no available formula",
	"no cask with this name",
	"no formulae found",
	"is unavailable",
	"does not exist",
}

// ClassifyBrewOutput inspects brew stderr output and returns a DotupError
// with the matching kind. Unrecognized output is classified as plain
// ErrBrew, which the retry policy treats as retryable.
func ClassifyBrewOutput(stderr string) *DotupError {
	lower := strings.ToLower(stderr)

	for _, p := range conflictPatterns {
		if strings.Contains(lower, p) {
			return WithSuggestion(ErrConflict,
				"install path conflict",
				"dotup will uninstall the cask and reinstall it. If the conflicting app was installed manually, remove it from /Applications first.")
		}
	}
	for _, p := range transientPatterns {
		if strings.Contains(lower, p) {
			return WithSuggestion(ErrTransient,
				"transient download failure",
				"This usually resolves on its own. The package is skipped for this run; the next 'dotup update' will pick it up.")
		}
	}
	for _, p := range permissionPatterns {
		if strings.Contains(lower, p) {
			return WithSuggestion(ErrPermission,
				"permission denied",
				"Check ownership of the Homebrew prefix: sudo chown -R $(whoami) $(brew --prefix)/*")
		}
	}
	for _, p := range notFoundPatterns {
		if strings.Contains(lower, p) {
			return New(ErrNotFound, "package not found")
		}
	}

	return New(ErrBrew, "brew command failed")
}

// lastNonEmptyLine returns the last non-blank line of output, which for
// brew is almost always the actual error message.
func lastNonEmptyLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}
