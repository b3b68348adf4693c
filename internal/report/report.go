// Package report defines the run report model for dotup.
// A run report records what every step did to every package, gets rendered
// at the end of an update, and is persisted so `dotup list` can show
// recent runs.
package report

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
)

// RunStatus is the overall outcome of an update run.
type RunStatus string

const (
	// StatusOK means every step completed (skipped packages allowed).
	StatusOK RunStatus = "ok"
	// StatusPartial means at least one step or package failed but the run
	// finished.
	StatusPartial RunStatus = "partial"
	// StatusFailed means the run was aborted before finishing.
	StatusFailed RunStatus = "failed"
)

// StepStatus is the outcome of a single step.
type StepStatus string

const (
	StepOK      StepStatus = "ok"
	StepSkipped StepStatus = "skipped"
	StepFailed  StepStatus = "failed"
)

// Action describes what happened to a single package.
type Action string

const (
	// ActionUpgraded means the package was upgraded to a newer version.
	ActionUpgraded Action = "upgraded"
	// ActionReinstalled means a path conflict was resolved by uninstalling
	// and reinstalling the cask.
	ActionReinstalled Action = "reinstalled"
	// ActionRemoved means the cask was uninstalled per the remove list.
	ActionRemoved Action = "removed"
	// ActionSkipped means the package was left alone (not installed, or a
	// transient download failure made this run the wrong time to try).
	ActionSkipped Action = "skipped"
	// ActionFailed means the package could not be updated after the
	// configured retries.
	ActionFailed Action = "failed"
)

// PackageOutcome records what happened to one formula or cask.
type PackageOutcome struct {
	// Name is the package name or cask token.
	Name string `json:"name"`
	// Kind is "formula" or "cask".
	Kind string `json:"kind"`
	// Action is what dotup did.
	Action Action `json:"action"`
	// FromVersion is the installed version before the run (if known).
	FromVersion string `json:"from_version,omitempty"`
	// ToVersion is the version after the run (if known).
	ToVersion string `json:"to_version,omitempty"`
	// Detail explains skips and failures (retry notices, conflict
	// resolution, transient download errors).
	Detail string `json:"detail,omitempty"`
}

// StepReport records the outcome of a single step.
type StepReport struct {
	// Name is the step name (brew-update, cask-upgrade, ...).
	Name string `json:"name"`
	// Status is the step outcome.
	Status StepStatus `json:"status"`
	// StartedAt is when the step began.
	StartedAt time.Time `json:"started_at"`
	// Duration is how long the step took.
	Duration time.Duration `json:"duration"`
	// Packages lists per-package outcomes (empty for steps that do not
	// touch individual packages).
	Packages []PackageOutcome `json:"packages,omitempty"`
	// Message carries a skip reason or failure summary.
	Message string `json:"message,omitempty"`
}

// Failed returns the outcomes with a failed action.
func (s *StepReport) Failed() []PackageOutcome {
	return s.withAction(ActionFailed)
}

// Skipped returns the outcomes with a skipped action.
func (s *StepReport) Skipped() []PackageOutcome {
	return s.withAction(ActionSkipped)
}

func (s *StepReport) withAction(action Action) []PackageOutcome {
	var out []PackageOutcome
	for _, p := range s.Packages {
		if p.Action == action {
			out = append(out, p)
		}
	}
	return out
}

// RunReport is the full record of one update run.
type RunReport struct {
	// ID identifies the run (timestamp-based).
	ID string `json:"id"`
	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`
	// FinishedAt is when the run ended.
	FinishedAt time.Time `json:"finished_at"`
	// DryRun reports whether this was a dry run.
	DryRun bool `json:"dry_run"`
	// Status is the overall outcome.
	Status RunStatus `json:"status"`
	// Steps lists per-step reports in execution order.
	Steps []StepReport `json:"steps"`
	// Error carries the abort reason for failed runs.
	Error string `json:"error,omitempty"`
}

// NewRunReport creates a report for a run starting now.
func NewRunReport(dryRun bool) *RunReport {
	now := time.Now()
	return &RunReport{
		ID:        newRunID(now),
		StartedAt: now,
		DryRun:    dryRun,
		Status:    StatusOK,
	}
}

// newRunID builds a run ID that sorts newest-first lexically. The random
// suffix keeps runs started within the same second from colliding in the
// store.
func newRunID(t time.Time) string {
	return fmt.Sprintf("%s-%08x", t.Format("20060102-150405"), rand.Uint32())
}

// AddStep appends a step report and downgrades the run status if the step
// failed or any of its packages did.
func (r *RunReport) AddStep(step StepReport) {
	r.Steps = append(r.Steps, step)
	if step.Status == StepFailed || len(step.Failed()) > 0 {
		if r.Status == StatusOK {
			r.Status = StatusPartial
		}
	}
}

// Finish stamps the end time and, if the run was aborted, the final status.
func (r *RunReport) Finish(err error) {
	r.FinishedAt = time.Now()
	if err != nil {
		r.Status = StatusFailed
		r.Error = err.Error()
	}
}

// Duration returns the total run duration.
func (r *RunReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Counts returns the number of packages per action across all steps.
func (r *RunReport) Counts() map[Action]int {
	counts := make(map[Action]int)
	for _, step := range r.Steps {
		for _, p := range step.Packages {
			counts[p.Action]++
		}
	}
	return counts
}

// Summary returns a one-line human summary of the run.
func (r *RunReport) Summary() string {
	counts := r.Counts()

	var parts []string
	if n := counts[ActionUpgraded]; n > 0 {
		parts = append(parts, fmt.Sprintf("%d upgraded", n))
	}
	if n := counts[ActionReinstalled]; n > 0 {
		parts = append(parts, fmt.Sprintf("%d reinstalled", n))
	}
	if n := counts[ActionRemoved]; n > 0 {
		parts = append(parts, fmt.Sprintf("%d removed", n))
	}
	if n := counts[ActionSkipped]; n > 0 {
		parts = append(parts, fmt.Sprintf("%d skipped", n))
	}
	if n := counts[ActionFailed]; n > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", n))
	}

	if len(parts) == 0 {
		parts = append(parts, "nothing to do")
	}

	return fmt.Sprintf("%s (%s)", strings.Join(parts, ", "), r.Status)
}
