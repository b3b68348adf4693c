// Package errors provides error types for dotup.
// This file contains configuration-related error constructors.
package errors

import "fmt"

// ConfigNotFound creates an error for a missing configuration file.
func ConfigNotFound(path string) *DotupError {
	return &DotupError{
		Kind:    ErrConfig,
		Message: fmt.Sprintf("config file not found: %s", path),
		Suggestion: `Create a default configuration:

  dotup init

Or point dotup at an existing file:

  dotup --config /path/to/.dotfiles-update.yml update`,
	}
}

// ConfigInvalid creates an error for a config file that fails validation.
func ConfigInvalid(path string, cause error) *DotupError {
	return &DotupError{
		Kind:       ErrConfig,
		Message:    fmt.Sprintf("invalid configuration in %s", path),
		Cause:      cause,
		Suggestion: "Run 'dotup doctor' to see every validation problem at once.",
	}
}

// ConfigUnknownKeys creates an error for unrecognized keys in the config
// file, typically typos like 'casks.ingore'.
func ConfigUnknownKeys(path string, cause error) *DotupError {
	return &DotupError{
		Kind:       ErrConfig,
		Message:    fmt.Sprintf("unrecognized keys in %s", path),
		Cause:      cause,
		Suggestion: "Compare your file against the template written by 'dotup init'.",
	}
}
