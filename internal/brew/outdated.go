// Package brew wraps the Homebrew CLI for dotup.
// This file models the `brew outdated --json=v2` payload.
package brew

import (
	"encoding/json"
	"fmt"
)

// OutdatedFormula describes an outdated formula as reported by brew.
type OutdatedFormula struct {
	Name              string   `json:"name"`
	InstalledVersions []string `json:"installed_versions"`
	CurrentVersion    string   `json:"current_version"`
	Pinned            bool     `json:"pinned"`
	PinnedVersion     string   `json:"pinned_version,omitempty"`
}

// InstalledVersion returns the newest installed version, or "unknown".
func (f *OutdatedFormula) InstalledVersion() string {
	if len(f.InstalledVersions) == 0 {
		return "unknown"
	}
	return f.InstalledVersions[len(f.InstalledVersions)-1]
}

// OutdatedCask describes an outdated cask as reported by brew.
type OutdatedCask struct {
	Name              string   `json:"name"`
	InstalledVersions []string `json:"installed_versions"`
	CurrentVersion    string   `json:"current_version"`
}

// InstalledVersion returns the newest installed version, or "unknown".
func (c *OutdatedCask) InstalledVersion() string {
	if len(c.InstalledVersions) == 0 {
		return "unknown"
	}
	return c.InstalledVersions[len(c.InstalledVersions)-1]
}

// OutdatedReport is the full `brew outdated --json=v2` payload.
type OutdatedReport struct {
	Formulae []OutdatedFormula `json:"formulae"`
	Casks    []OutdatedCask    `json:"casks"`
}

// IsEmpty reports whether nothing is outdated.
func (r *OutdatedReport) IsEmpty() bool {
	return len(r.Formulae) == 0 && len(r.Casks) == 0
}

// FilterCasks returns the outdated casks not excluded by the ignore
// predicate, preserving order.
func (r *OutdatedReport) FilterCasks(ignored func(name string) bool) []OutdatedCask {
	if ignored == nil {
		return r.Casks
	}
	out := make([]OutdatedCask, 0, len(r.Casks))
	for _, c := range r.Casks {
		if !ignored(c.Name) {
			out = append(out, c)
		}
	}
	return out
}

// ParseOutdated decodes the `brew outdated --json=v2` output.
func ParseOutdated(data []byte) (*OutdatedReport, error) {
	var report OutdatedReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to parse brew outdated output: %w", err)
	}
	return &report, nil
}
