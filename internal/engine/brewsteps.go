package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/dbmrq/dotup/internal/brew"
	"github.com/dbmrq/dotup/internal/brewfile"
	"github.com/dbmrq/dotup/internal/errors"
	"github.com/dbmrq/dotup/internal/report"
)

// brewUpdateStep refreshes the Homebrew package index.
type brewUpdateStep struct{}

func (s *brewUpdateStep) Name() string   { return StepBrewUpdate }
func (s *brewUpdateStep) Kind() StepKind { return KindBrew }

func (s *brewUpdateStep) Run(ctx context.Context, sc *StepContext) ([]report.PackageOutcome, error) {
	return nil, sc.Brew.Update(ctx)
}

// caskRemoveStep uninstalls the casks on the remove list, if installed.
type caskRemoveStep struct{}

func (s *caskRemoveStep) Name() string   { return StepCaskRemove }
func (s *caskRemoveStep) Kind() StepKind { return KindCask }

func (s *caskRemoveStep) Run(ctx context.Context, sc *StepContext) ([]report.PackageOutcome, error) {
	installed, err := sc.Brew.InstalledCasks(ctx)
	if err != nil {
		return nil, err
	}
	installedSet := make(map[string]bool, len(installed))
	for _, name := range installed {
		installedSet[name] = true
	}

	var outcomes []report.PackageOutcome
	for _, name := range sc.Config.Casks.Remove {
		if !installedSet[name] {
			sc.emitPackage(s.Name(), &outcomes, report.PackageOutcome{
				Name:   name,
				Kind:   "cask",
				Action: report.ActionSkipped,
				Detail: "not installed",
			})
			continue
		}

		if !sc.confirm(fmt.Sprintf("uninstall cask %s?", name)) {
			sc.emitPackage(s.Name(), &outcomes, report.PackageOutcome{
				Name:   name,
				Kind:   "cask",
				Action: report.ActionSkipped,
				Detail: "declined",
			})
			continue
		}

		if err := sc.Brew.UninstallCask(ctx, name, false); err != nil {
			if ctx.Err() != nil {
				return outcomes, err
			}
			sc.Logger.Warn("failed to remove cask", "cask", name, "error", err)
			sc.emitPackage(s.Name(), &outcomes, report.PackageOutcome{
				Name:   name,
				Kind:   "cask",
				Action: report.ActionFailed,
				Detail: err.Error(),
			})
			continue
		}

		sc.emitPackage(s.Name(), &outcomes, report.PackageOutcome{
			Name:   name,
			Kind:   "cask",
			Action: report.ActionRemoved,
		})
	}

	return outcomes, nil
}

// brewUpgradeStep upgrades all outdated formulae in one `brew upgrade`.
type brewUpgradeStep struct{}

func (s *brewUpgradeStep) Name() string   { return StepBrewUpgrade }
func (s *brewUpgradeStep) Kind() StepKind { return KindBrew }

func (s *brewUpgradeStep) Run(ctx context.Context, sc *StepContext) ([]report.PackageOutcome, error) {
	outdated, err := sc.Brew.Outdated(ctx)
	if err != nil {
		return nil, err
	}
	if len(outdated.Formulae) == 0 {
		return nil, nil
	}

	if err := sc.Brew.UpgradeFormulae(ctx); err != nil {
		return nil, err
	}

	var outcomes []report.PackageOutcome
	for _, f := range outdated.Formulae {
		action := report.ActionUpgraded
		detail := ""
		if f.Pinned {
			action = report.ActionSkipped
			detail = "pinned"
		}
		sc.emitPackage(s.Name(), &outcomes, report.PackageOutcome{
			Name:        f.Name,
			Kind:        "formula",
			Action:      action,
			FromVersion: f.InstalledVersion(),
			ToVersion:   f.CurrentVersion,
			Detail:      detail,
		})
	}

	return outcomes, nil
}

// caskUpgradeStep upgrades outdated casks one at a time so a single bad
// cask cannot take down the whole run. Failures are remediated per their
// classification:
//
//   - path conflicts: uninstall the cask and reinstall it fresh
//   - transient download failures: skip, a later run will pick it up
//   - anything else: retry after a delay, then skip with a logged notice
type caskUpgradeStep struct{}

func (s *caskUpgradeStep) Name() string   { return StepCaskUpgrade }
func (s *caskUpgradeStep) Kind() StepKind { return KindCask }

func (s *caskUpgradeStep) Run(ctx context.Context, sc *StepContext) ([]report.PackageOutcome, error) {
	outdated, err := sc.Brew.Outdated(ctx)
	if err != nil {
		return nil, err
	}

	casks := outdated.FilterCasks(sc.Config.IsIgnoredCask)

	var outcomes []report.PackageOutcome
	for _, cask := range casks {
		if ctx.Err() != nil {
			return outcomes, errors.Wrap(ctx.Err(), errors.ErrTimeout, "cask upgrades interrupted")
		}
		outcome := s.upgradeOne(ctx, sc, cask)
		sc.emitPackage(s.Name(), &outcomes, outcome)
	}

	return outcomes, nil
}

// upgradeOne upgrades a single cask, applying the remediation policy.
func (s *caskUpgradeStep) upgradeOne(ctx context.Context, sc *StepContext, cask brew.OutdatedCask) report.PackageOutcome {
	outcome := report.PackageOutcome{
		Name:        cask.Name,
		Kind:        "cask",
		FromVersion: cask.InstalledVersion(),
		ToVersion:   cask.CurrentVersion,
	}

	err := sc.Brew.UpgradeCask(ctx, cask.Name, sc.Config.Brew.Greedy)
	if err == nil {
		outcome.Action = report.ActionUpgraded
		return outcome
	}

	switch {
	case errors.Is(err, errors.ErrConflict):
		return s.resolveConflict(ctx, sc, cask, outcome)

	case errors.Is(err, errors.ErrTransient):
		sc.Logger.Warn("transient failure, skipping cask", "cask", cask.Name, "error", err)
		outcome.Action = report.ActionSkipped
		outcome.Detail = "transient download failure"
		return outcome

	case errors.IsRetryable(err) && ctx.Err() == nil:
		return s.retry(ctx, sc, cask, outcome, err)
	}

	sc.Logger.Error("cask upgrade failed", "cask", cask.Name, "error", err)
	outcome.Action = report.ActionFailed
	outcome.Detail = err.Error()
	return outcome
}

// resolveConflict handles "already an app at ..." failures with a forced
// reinstall, which removes the conflicting app and installs the cask
// fresh. This replaces the retry: a conflicted upgrade will fail the same
// way every time.
func (s *caskUpgradeStep) resolveConflict(ctx context.Context, sc *StepContext, cask brew.OutdatedCask, outcome report.PackageOutcome) report.PackageOutcome {
	sc.Logger.Warn("path conflict, reinstalling cask", "cask", cask.Name)

	if !sc.confirm(fmt.Sprintf("reinstall %s over the existing app?", cask.Name)) {
		outcome.Action = report.ActionSkipped
		outcome.Detail = "path conflict, reinstall declined"
		return outcome
	}

	if err := sc.Brew.ReinstallCask(ctx, cask.Name); err != nil {
		sc.Logger.Error("conflict reinstall failed", "cask", cask.Name, "error", err)
		outcome.Action = report.ActionFailed
		outcome.Detail = fmt.Sprintf("conflict reinstall failed: %v", err)
		return outcome
	}

	outcome.Action = report.ActionReinstalled
	outcome.Detail = "path conflict resolved"
	return outcome
}

// retry re-attempts a failed upgrade after the configured delay. When the
// attempts run out the cask is marked failed with a logged notice and the
// run moves on.
func (s *caskUpgradeStep) retry(ctx context.Context, sc *StepContext, cask brew.OutdatedCask, outcome report.PackageOutcome, firstErr error) report.PackageOutcome {
	attempts := sc.Config.Retry.Attempts
	lastErr := firstErr

	for attempt := 1; attempt <= attempts; attempt++ {
		sc.Logger.Warn("cask upgrade failed, retrying",
			"cask", cask.Name,
			"attempt", attempt,
			"of", attempts,
			"delay", sc.Config.Retry.Delay,
			"error", lastErr)

		if !sleepContext(ctx, sc.Config.Retry.Delay) {
			outcome.Action = report.ActionFailed
			outcome.Detail = "interrupted during retry"
			return outcome
		}

		err := sc.Brew.UpgradeCask(ctx, cask.Name, sc.Config.Brew.Greedy)
		if err == nil {
			outcome.Action = report.ActionUpgraded
			outcome.Detail = fmt.Sprintf("succeeded on retry %d", attempt)
			return outcome
		}
		if errors.Is(err, errors.ErrConflict) {
			return s.resolveConflict(ctx, sc, cask, outcome)
		}
		lastErr = err
	}

	sc.Logger.Error("cask upgrade failed after retries",
		"cask", cask.Name, "attempts", attempts, "error", lastErr)
	outcome.Action = report.ActionFailed
	outcome.Detail = fmt.Sprintf("failed after %d retries: %v", attempts, lastErr)
	return outcome
}

// sleepContext pauses for d or until the context is done. Returns false if
// interrupted.
func sleepContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// brewfileSyncStep installs missing taps from the Brewfile and then runs
// `brew bundle` against it.
type brewfileSyncStep struct{}

func (s *brewfileSyncStep) Name() string   { return StepBrewfileSync }
func (s *brewfileSyncStep) Kind() StepKind { return KindBrew }

func (s *brewfileSyncStep) Run(ctx context.Context, sc *StepContext) ([]report.PackageOutcome, error) {
	manifest, err := brewfile.ParseFile(sc.Config.Brew.Brewfile)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrConfig, "failed to parse Brewfile")
	}

	installed, err := sc.Brew.InstalledTaps(ctx)
	if err != nil {
		return nil, err
	}
	installedSet := make(map[string]bool, len(installed))
	for _, tap := range installed {
		installedSet[tap] = true
	}

	var outcomes []report.PackageOutcome
	for _, tap := range manifest.Taps() {
		if installedSet[tap] {
			continue
		}
		if err := sc.Brew.InstallTap(ctx, tap); err != nil {
			sc.Logger.Warn("failed to install tap", "tap", tap, "error", err)
			sc.emitPackage(s.Name(), &outcomes, report.PackageOutcome{
				Name:   tap,
				Kind:   "tap",
				Action: report.ActionFailed,
				Detail: err.Error(),
			})
			continue
		}
		sc.emitPackage(s.Name(), &outcomes, report.PackageOutcome{
			Name:   tap,
			Kind:   "tap",
			Action: report.ActionUpgraded,
			Detail: "tap installed",
		})
	}

	if err := sc.Brew.Bundle(ctx, sc.Config.Brew.Brewfile); err != nil {
		return outcomes, err
	}

	return outcomes, nil
}

// brewCleanupStep prunes old downloads and versions.
type brewCleanupStep struct{}

func (s *brewCleanupStep) Name() string   { return StepBrewCleanup }
func (s *brewCleanupStep) Kind() StepKind { return KindBrew }

func (s *brewCleanupStep) Run(ctx context.Context, sc *StepContext) ([]report.PackageOutcome, error) {
	return nil, sc.Brew.Cleanup(ctx)
}
