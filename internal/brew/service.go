// Package brew wraps the Homebrew CLI for dotup.
package brew

import (
	"context"
	"strings"

	"github.com/dbmrq/dotup/internal/errors"
	"github.com/dbmrq/dotup/internal/logging"
)

// Service exposes the Homebrew operations dotup needs.
// All mutating operations honor dry-run mode, where the command is logged
// but not executed.
type Service struct {
	runner Runner
	logger *logging.Logger
	dryRun bool
}

// NewService creates a brew service. logger may be nil, in which case the
// global logger is used.
func NewService(runner Runner, logger *logging.Logger, dryRun bool) *Service {
	if logger == nil {
		logger = logging.Global()
	}
	return &Service{
		runner: runner,
		logger: logger,
		dryRun: dryRun,
	}
}

// IsInstalled reports whether the brew binary is on PATH.
func (s *Service) IsInstalled() bool {
	_, err := s.runner.LookPath("brew")
	return err == nil
}

// Version returns the Homebrew version line (e.g. "Homebrew 4.3.2").
func (s *Service) Version(ctx context.Context) (string, error) {
	result, err := s.query(ctx, "--version")
	if err != nil {
		return "", err
	}
	line, _, _ := strings.Cut(strings.TrimSpace(result.Stdout), "\n")
	return line, nil
}

// Update runs `brew update`.
func (s *Service) Update(ctx context.Context) error {
	return s.mutate(ctx, "update")
}

// UpgradeFormulae runs `brew upgrade --formula`, upgrading every outdated
// formula in one shot.
func (s *Service) UpgradeFormulae(ctx context.Context) error {
	return s.mutate(ctx, "upgrade", "--formula")
}

// UpgradeCask upgrades a single cask. With greedy set, casks that
// auto-update themselves are included.
func (s *Service) UpgradeCask(ctx context.Context, name string, greedy bool) error {
	args := []string{"upgrade", "--cask"}
	if greedy {
		args = append(args, "--greedy")
	}
	args = append(args, name)
	return s.mutate(ctx, args...)
}

// ReinstallCask reinstalls a cask, forcing replacement of whatever is at
// the install path. Used by the path-conflict remediation.
func (s *Service) ReinstallCask(ctx context.Context, name string) error {
	return s.mutate(ctx, "reinstall", "--cask", "--force", name)
}

// UninstallCask uninstalls a cask. With zap set, brew also removes the
// app's support files.
func (s *Service) UninstallCask(ctx context.Context, name string, zap bool) error {
	args := []string{"uninstall", "--cask"}
	if zap {
		args = append(args, "--zap")
	}
	args = append(args, name)
	return s.mutate(ctx, args...)
}

// InstalledCasks returns the currently installed cask tokens.
func (s *Service) InstalledCasks(ctx context.Context) ([]string, error) {
	result, err := s.query(ctx, "list", "--cask", "-1")
	if err != nil {
		return nil, err
	}
	var casks []string
	for _, line := range strings.Split(strings.TrimSpace(result.Stdout), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			casks = append(casks, line)
		}
	}
	return casks, nil
}

// Cleanup runs `brew cleanup`, pruning old downloads and versions.
func (s *Service) Cleanup(ctx context.Context) error {
	return s.mutate(ctx, "cleanup")
}

// Bundle runs `brew bundle` against the given Brewfile.
func (s *Service) Bundle(ctx context.Context, brewfilePath string) error {
	return s.mutate(ctx, "bundle", "--file="+brewfilePath)
}

// Outdated returns everything brew considers outdated. Read-only, so it
// runs even in dry-run mode.
func (s *Service) Outdated(ctx context.Context) (*OutdatedReport, error) {
	args := []string{"outdated", "--json=v2"}
	result, err := s.query(ctx, args...)
	if err != nil {
		return nil, err
	}
	return ParseOutdated([]byte(result.Stdout))
}

// InstalledTaps returns the currently tapped repositories.
func (s *Service) InstalledTaps(ctx context.Context) ([]string, error) {
	result, err := s.query(ctx, "tap")
	if err != nil {
		return nil, err
	}
	var taps []string
	for _, line := range strings.Split(strings.TrimSpace(result.Stdout), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			taps = append(taps, line)
		}
	}
	return taps, nil
}

// IsTapInstalled reports whether the given tap is installed.
func (s *Service) IsTapInstalled(ctx context.Context, tap string) bool {
	taps, err := s.InstalledTaps(ctx)
	if err != nil {
		return false
	}
	for _, t := range taps {
		if t == tap {
			return true
		}
	}
	return false
}

// InstallTap runs `brew tap <tap>`.
func (s *Service) InstallTap(ctx context.Context, tap string) error {
	return s.mutate(ctx, "tap", tap)
}

// Doctor runs `brew doctor` and returns its output. Brew exits non-zero
// when it finds warnings, which is not an error for our purposes.
func (s *Service) Doctor(ctx context.Context) (string, error) {
	result, err := s.runner.Run(ctx, "brew", "doctor")
	if err != nil {
		return "", errors.Wrap(err, errors.ErrBrew, "failed to run brew doctor")
	}
	return result.CombinedOutput(), nil
}

// query runs a read-only brew command, ignoring dry-run mode.
func (s *Service) query(ctx context.Context, args ...string) (*Result, error) {
	result, err := s.runner.Run(ctx, "brew", args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrBrew, "failed to run brew "+strings.Join(args, " "))
	}
	if !result.Success() {
		return nil, errors.BrewCommandFailed("brew "+strings.Join(args, " "), result.ExitCode, result.Stderr, nil)
	}
	return result, nil
}

// mutate runs a state-changing brew command, honoring dry-run mode.
// Failures are classified so the engine can pick the right remediation.
func (s *Service) mutate(ctx context.Context, args ...string) error {
	command := "brew " + strings.Join(args, " ")

	if s.dryRun {
		s.logger.Info("dry-run: would execute", "command", command)
		return nil
	}

	s.logger.Debug("executing", "command", command)
	result, err := s.runner.Run(ctx, "brew", args...)
	if err != nil {
		if ctx.Err() != nil {
			return errors.Wrap(ctx.Err(), errors.ErrTimeout, command+" interrupted")
		}
		return errors.Wrap(err, errors.ErrBrew, "failed to start "+command)
	}
	if !result.Success() {
		return errors.BrewCommandFailed(command, result.ExitCode, result.Stderr, nil)
	}
	return nil
}
