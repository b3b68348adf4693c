package engine

import (
	"context"
	"strconv"
	"strings"

	"github.com/dbmrq/dotup/internal/brew"
	"github.com/dbmrq/dotup/internal/config"
	"github.com/dbmrq/dotup/internal/errors"
	"github.com/dbmrq/dotup/internal/report"
)

// extraCommands maps each known extra package manager to its update command.
var extraCommands = map[string][]string{
	"mas":    {"mas", "upgrade"},
	"npm":    {"npm", "update", "-g"},
	"gem":    {"gem", "update"},
	"rustup": {"rustup", "update"},
}

// extraStep runs the update command of an optional package manager.
type extraStep struct {
	name    string
	command []string
}

func (s *extraStep) Name() string   { return s.name }
func (s *extraStep) Kind() StepKind { return KindExtra }

func (s *extraStep) Run(ctx context.Context, sc *StepContext) ([]report.PackageOutcome, error) {
	command := strings.Join(s.command, " ")

	if sc.DryRun {
		sc.Logger.Info("dry-run: would execute", "command", command)
		return nil, nil
	}

	sc.Logger.Debug("executing", "command", command)
	result, err := sc.Runner.Run(ctx, s.command[0], s.command[1:]...)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrap(ctx.Err(), errors.ErrTimeout, command+" interrupted")
		}
		return nil, errors.Wrap(err, errors.ErrStep, "failed to start "+command)
	}
	if !result.Success() {
		return nil, errors.New(errors.ErrStep, command+" failed").
			WithDetails("exit_code", strconv.Itoa(result.ExitCode)).
			WithDetails("stderr", result.Stderr)
	}
	return nil, nil
}

// DiscoverExtras returns a step for each configured extra package manager
// whose binary is found on PATH. Unknown names and missing binaries are
// silently dropped; validation flags unknown names before the run starts.
func DiscoverExtras(cfg *config.Config, runner brew.Runner) []Step {
	var steps []Step
	for _, name := range cfg.Steps.Extra {
		command, known := extraCommands[name]
		if !known {
			continue
		}
		if _, err := runner.LookPath(name); err != nil {
			continue
		}
		steps = append(steps, &extraStep{name: name, command: command})
	}
	return steps
}
