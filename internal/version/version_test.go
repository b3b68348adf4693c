package version

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewInfo(t *testing.T) {
	info := NewInfo("1.0.0", "abc123", "2026-01-01")

	if info.Version != "1.0.0" {
		t.Errorf("Version = %q, want %q", info.Version, "1.0.0")
	}
	if info.Commit != "abc123" {
		t.Errorf("Commit = %q, want %q", info.Commit, "abc123")
	}
	if info.GoVer == "" || info.OS == "" || info.Arch == "" {
		t.Error("platform fields should not be empty")
	}
}

func TestInfoString(t *testing.T) {
	info := NewInfo("1.0.0", "abc123", "2026-01-01")

	if got := info.String(); got != "dotup 1.0.0 (commit: abc123, built: 2026-01-01)" {
		t.Errorf("String() = %q, unexpected format", got)
	}
	if full := info.FullString(); !strings.Contains(full, info.GoVer) {
		t.Errorf("FullString() = %q, missing Go version", full)
	}
}

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0.0", "1.0.0", 0},
		{"1.0.1", "1.0.0", 1},
		{"1.0.0", "1.0.1", -1},
		{"2.0.0", "1.9.9", 1},
		{"10.0.0", "2.0.0", 1},
		{"1.10.0", "1.2.0", 1},
		{"v1.0.0", "1.0.0", 0},    // handles v prefix
		{"1.0.0-rc1", "1.0.0", 0}, // ignores pre-release suffix
		{"1.0", "1.0.0", 0},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_vs_"+tt.b, func(t *testing.T) {
			if got := CompareVersions(tt.a, tt.b); got != tt.want {
				t.Errorf("CompareVersions(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func newReleaseChecker(t *testing.T, tag string) (*Checker, func()) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Release{
			TagName:     tag,
			Name:        "Release " + tag,
			PublishedAt: "2026-01-01T00:00:00Z",
		})
	}))
	checker := &Checker{
		HTTPClient: server.Client(),
		Repo:       "test/repo",
		APIURL:     server.URL + "/repos/%s/releases/latest",
	}
	return checker, server.Close
}

func TestChecker_GetLatestRelease(t *testing.T) {
	checker, closeServer := newReleaseChecker(t, "v1.2.3")
	defer closeServer()

	release, err := checker.GetLatestRelease(context.Background())
	if err != nil {
		t.Fatalf("GetLatestRelease() error = %v", err)
	}
	if release.TagName != "v1.2.3" {
		t.Errorf("TagName = %q, want v1.2.3", release.TagName)
	}
}

func TestChecker_GetLatestRelease_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusForbidden)
	}))
	defer server.Close()

	checker := &Checker{
		HTTPClient: server.Client(),
		Repo:       "test/repo",
		APIURL:     server.URL + "/repos/%s/releases/latest",
	}

	if _, err := checker.GetLatestRelease(context.Background()); err == nil {
		t.Error("expected error for non-200 response")
	}
}

func TestChecker_CheckForUpdate(t *testing.T) {
	checker, closeServer := newReleaseChecker(t, "v2.0.0")
	defer closeServer()

	release, err := checker.CheckForUpdate(context.Background(), "1.0.0")
	if err != nil {
		t.Fatalf("CheckForUpdate() error = %v", err)
	}
	if release == nil || release.TagName != "v2.0.0" {
		t.Errorf("expected update to v2.0.0, got %+v", release)
	}
}

func TestChecker_CheckForUpdate_Current(t *testing.T) {
	checker, closeServer := newReleaseChecker(t, "v1.0.0")
	defer closeServer()

	release, err := checker.CheckForUpdate(context.Background(), "v1.0.0")
	if err != nil {
		t.Fatalf("CheckForUpdate() error = %v", err)
	}
	if release != nil {
		t.Errorf("expected no update, got %+v", release)
	}
}

func TestParseVersion(t *testing.T) {
	tests := []struct {
		version string
		want    [3]int
	}{
		{"1.0.0", [3]int{1, 0, 0}},
		{"10.20.30", [3]int{10, 20, 30}},
		{"1.0", [3]int{1, 0, 0}},
		{"1", [3]int{1, 0, 0}},
		{"1.2.3-rc1", [3]int{1, 2, 3}},
		{"invalid", [3]int{0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			if got := parseVersion(tt.version); got != tt.want {
				t.Errorf("parseVersion(%q) = %v, want %v", tt.version, got, tt.want)
			}
		})
	}
}
