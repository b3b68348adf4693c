// Package errors provides error types with actionable suggestions for the
// dotup application. Errors include contextual information to help users
// resolve issues quickly.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Common sentinel errors for use with errors.Is().
var (
	// ErrConfig indicates a configuration error.
	ErrConfig = errors.New("configuration error")
	// ErrBrew indicates a Homebrew invocation failure.
	ErrBrew = errors.New("brew error")
	// ErrConflict indicates an install path conflict (an app already exists
	// at the target location).
	ErrConflict = errors.New("path conflict")
	// ErrTransient indicates a transient failure (download, checksum,
	// connection reset) that is expected to resolve on its own.
	ErrTransient = errors.New("transient failure")
	// ErrPermission indicates insufficient permissions.
	ErrPermission = errors.New("permission denied")
	// ErrHook indicates a hook execution failure.
	ErrHook = errors.New("hook error")
	// ErrStep indicates an update step failure.
	ErrStep = errors.New("step error")
	// ErrNetwork indicates a network-related error.
	ErrNetwork = errors.New("network error")
	// ErrTimeout indicates a timeout occurred.
	ErrTimeout = errors.New("timeout error")
	// ErrNotFound indicates a resource was not found.
	ErrNotFound = errors.New("not found")
)

// Is reports whether any error in err's chain matches target.
// Re-exported so callers do not need to import both this package and the
// standard library errors package.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// DotupError is the base error type for dotup errors.
// It wraps an underlying error and provides additional context.
type DotupError struct {
	// Kind is the category of error (e.g., ErrBrew, ErrConflict).
	Kind error
	// Message is the human-readable error message.
	Message string
	// Suggestion provides actionable advice for resolving the error.
	Suggestion string
	// Cause is the underlying error that caused this error.
	Cause error
	// Details provides additional context (e.g., cask name, command output).
	Details map[string]string
}

// Error implements the error interface.
func (e *DotupError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause for use with errors.Is/errors.As.
func (e *DotupError) Unwrap() error {
	if e.Cause != nil {
		return e.Cause
	}
	return e.Kind
}

// Is reports whether any error in err's chain matches the target.
func (e *DotupError) Is(target error) bool {
	return errors.Is(e.Kind, target)
}

// Format returns a formatted error message with suggestions.
func (e *DotupError) Format() string {
	var sb strings.Builder

	sb.WriteString("Error: ")
	sb.WriteString(e.Error())
	sb.WriteString("\n")

	if len(e.Details) > 0 {
		sb.WriteString("\nDetails:\n")
		for k, v := range e.Details {
			sb.WriteString(fmt.Sprintf("  %s: %s\n", k, v))
		}
	}

	if e.Suggestion != "" {
		sb.WriteString("\n💡 Suggestion: ")
		sb.WriteString(e.Suggestion)
		sb.WriteString("\n")
	}

	return sb.String()
}

// WithDetails adds details to the error.
func (e *DotupError) WithDetails(key, value string) *DotupError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying cause of the error.
func (e *DotupError) WithCause(cause error) *DotupError {
	e.Cause = cause
	return e
}

// New creates a new DotupError with the given kind and message.
func New(kind error, message string) *DotupError {
	return &DotupError{
		Kind:    kind,
		Message: message,
	}
}

// Wrap wraps an existing error with additional context.
func Wrap(err error, kind error, message string) *DotupError {
	return &DotupError{
		Kind:    kind,
		Message: message,
		Cause:   err,
	}
}

// WithSuggestion creates a new error with a suggestion.
func WithSuggestion(kind error, message, suggestion string) *DotupError {
	return &DotupError{
		Kind:       kind,
		Message:    message,
		Suggestion: suggestion,
	}
}

// IsRetryable returns true if the error is worth one more attempt after the
// configured retry delay. Transient failures are deliberately excluded: the
// run skips those instead of retrying, since a second download attempt in
// the same run usually hits the same mirror. Conflicts are excluded too,
// they are handled by uninstall-and-reinstall rather than a plain retry.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTransient) || errors.Is(err, ErrConflict) {
		return false
	}
	return errors.Is(err, ErrBrew) || errors.Is(err, ErrTimeout)
}

// IsUserError returns true if the error is due to user misconfiguration.
func IsUserError(err error) bool {
	return errors.Is(err, ErrConfig)
}
