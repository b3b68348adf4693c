package errors

import (
	"errors"
	"testing"
)

func TestClassifyBrewOutput(t *testing.T) {
	tests := []struct {
		name   string
		stderr string
		want   error
	}{
		{
			name:   "app already at target",
			stderr: "Error: It seems there is already an App at '/Applications/Docker.app'.",
			want:   ErrConflict,
		},
		{
			name:   "target exists",
			stderr: "Error: Target /Applications/iTerm.app\nalready exists.",
			want:   ErrConflict,
		},
		{
			name:   "curl failure",
			stderr: "curl: (56) Recv failure: Connection reset by peer\nError: Download failed",
			want:   ErrTransient,
		},
		{
			name:   "checksum mismatch",
			stderr: "Error: SHA256 mismatch\nExpected: abc\nActual: def",
			want:   ErrTransient,
		},
		{
			name:   "dns failure",
			stderr: "curl: (6) Could not resolve host: github.com",
			want:   ErrTransient,
		},
		{
			name:   "permission",
			stderr: "Error: Permission denied @ apply2files - /usr/local/bin/foo",
			want:   ErrPermission,
		},
		{
			name:   "unknown cask",
			stderr: "Error: No Cask with this name exists.",
			want:   ErrNotFound,
		},
		{
			name:   "unrecognized output",
			stderr: "Error: something completely different went wrong",
			want:   ErrBrew,
		},
		{
			name:   "empty output",
			stderr: "",
			want:   ErrBrew,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyBrewOutput(tt.stderr)
			if !errors.Is(got, tt.want) {
				t.Errorf("ClassifyBrewOutput(%q) kind = %v, want %v", tt.stderr, got.Kind, tt.want)
			}
		})
	}
}

func TestBrewCommandFailed_Details(t *testing.T) {
	cause := errors.New("exit status 1")
	err := BrewCommandFailed("brew upgrade --cask docker", 1,
		"Error: It seems there is already an App at '/Applications/Docker.app'.", cause)

	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict classification, got kind %v", err.Kind)
	}
	if err.Details["command"] != "brew upgrade --cask docker" {
		t.Errorf("missing command detail: %v", err.Details)
	}
	if err.Details["exit_code"] != "1" {
		t.Errorf("missing exit_code detail: %v", err.Details)
	}
	if err.Details["stderr"] == "" {
		t.Errorf("missing stderr detail: %v", err.Details)
	}
	if !errors.Is(err, cause) {
		t.Error("expected cause to be preserved")
	}
}

func TestLastNonEmptyLine(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"one\ntwo\n\n", "two"},
		{"\n\n", ""},
		{"single", "single"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := lastNonEmptyLine(tt.in); got != tt.want {
			t.Errorf("lastNonEmptyLine(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
