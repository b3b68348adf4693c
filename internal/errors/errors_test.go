package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestDotupError_Is(t *testing.T) {
	err := New(ErrConflict, "install path conflict")

	if !errors.Is(err, ErrConflict) {
		t.Error("expected errors.Is to match ErrConflict")
	}
	if errors.Is(err, ErrTransient) {
		t.Error("did not expect errors.Is to match ErrTransient")
	}
}

func TestDotupError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("exit status 1")
	err := Wrap(cause, ErrBrew, "brew upgrade failed")

	if !errors.Is(err, cause) {
		t.Error("expected wrapped cause to be reachable via errors.Is")
	}
	if got := err.Error(); !strings.Contains(got, "exit status 1") {
		t.Errorf("expected error string to include cause, got %q", got)
	}
}

func TestDotupError_Format(t *testing.T) {
	err := WithSuggestion(ErrPermission, "permission denied", "check prefix ownership")
	err.WithDetails("command", "brew upgrade --cask docker")

	formatted := err.Format()
	if !strings.Contains(formatted, "permission denied") {
		t.Errorf("formatted output missing message: %q", formatted)
	}
	if !strings.Contains(formatted, "brew upgrade --cask docker") {
		t.Errorf("formatted output missing details: %q", formatted)
	}
	if !strings.Contains(formatted, "check prefix ownership") {
		t.Errorf("formatted output missing suggestion: %q", formatted)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain brew failure", New(ErrBrew, "brew command failed"), true},
		{"timeout", New(ErrTimeout, "step timed out"), true},
		{"transient skips retry", New(ErrTransient, "download failed"), false},
		{"conflict skips retry", New(ErrConflict, "path conflict"), false},
		{"config error", New(ErrConfig, "bad config"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsUserError(t *testing.T) {
	if !IsUserError(New(ErrConfig, "bad config")) {
		t.Error("expected config errors to be user errors")
	}
	if IsUserError(New(ErrBrew, "brew failed")) {
		t.Error("did not expect brew errors to be user errors")
	}
}
