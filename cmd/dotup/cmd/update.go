package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dbmrq/dotup/internal/brew"
	"github.com/dbmrq/dotup/internal/engine"
	"github.com/dbmrq/dotup/internal/hooks"
	"github.com/dbmrq/dotup/internal/logging"
	"github.com/dbmrq/dotup/internal/report"
	"github.com/dbmrq/dotup/internal/tui"
)

// Update flags, shared between "dotup" and "dotup update".
var (
	flagBrewOnly  bool
	flagCasksOnly bool
	flagOnly      []string
	flagSkip      []string
	flagHeadless  bool
	flagOutput    string
	flagYes       bool
)

// updateCmd represents the update command.
var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update Homebrew packages and more",
	Long: `Run an update: brew update, formula and cask upgrades, optional
Brewfile sync and cleanup, plus any configured extra package managers.

Casks on the ignore list are left alone; casks on the remove list are
uninstalled. Failed cask upgrades are retried once, path conflicts are
resolved by reinstalling, and transient download failures are skipped.

Examples:
  dotup update               # Full update with live progress
  dotup update --brew-only   # Homebrew only, skip mas/npm/gem/rustup
  dotup update --casks-only  # Only cask removal and upgrades
  dotup update --dry-run     # Show what would happen
  dotup update --headless --output json`,
	RunE: runUpdate,
}

func init() {
	rootCmd.AddCommand(updateCmd)
	addUpdateFlags(updateCmd)
}

// addUpdateFlags registers the update flags on a command. The root command
// carries them too so "dotup" alone behaves like "dotup update".
func addUpdateFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&flagBrewOnly, "brew-only", false, "only run Homebrew steps, skip extra package managers")
	cmd.Flags().BoolVar(&flagCasksOnly, "casks-only", false, "only run cask steps")
	cmd.Flags().StringSliceVar(&flagOnly, "only", nil, "run only the named steps")
	cmd.Flags().StringSliceVar(&flagSkip, "skip", nil, "skip the named steps")
	cmd.Flags().BoolVar(&flagHeadless, "headless", false, "plain output without the progress display")
	cmd.Flags().StringVar(&flagOutput, "output", "text", "report format: text or json")
	cmd.Flags().BoolVarP(&flagYes, "yes", "y", false, "don't prompt before uninstalling or reinstalling casks")
}

// runUpdate handles the update command (and bare "dotup").
func runUpdate(cmd *cobra.Command, args []string) error {
	if flagOutput != "text" && flagOutput != "json" {
		return fmt.Errorf("invalid --output %q (want text or json)", flagOutput)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	closeLogs, err := initLogging(cfg)
	if err != nil {
		return err
	}
	defer closeLogs()

	runner := brew.NewExecRunner(logging.Global().Writer(logging.LevelDebug))
	service := brew.NewService(runner, logging.Global(), flagDryRun)
	hookMgr := hooks.NewManagerFromConfig(&cfg.Hooks)
	hookMgr.Logger = func(phase hooks.Phase, hook hooks.Hook, result *hooks.Result) {
		logging.Info("hook finished",
			"phase", phase.String(),
			"hook", hook.Name(),
			"success", result.IsSuccess(),
			"exit_code", result.ExitCode)
	}
	store := report.NewStore()

	opts := &engine.Options{
		DryRun:    flagDryRun,
		BrewOnly:  flagBrewOnly,
		CasksOnly: flagCasksOnly,
		Only:      flagOnly,
		Skip:      flagSkip,
	}

	headless := flagHeadless || flagOutput == "json" || !isTerminal()

	// Prompting only works when stdin is free: headless runs in a real
	// terminal. The progress display owns stdin, and piped runs would hang.
	if !flagYes && !flagDryRun && headless && isTerminal() {
		opts.Confirm = confirmPrompt(cmd)
	}

	eng := engine.New(cfg, service, runner, hookMgr, store, logging.Global(), opts)

	var runReport *report.RunReport
	var runErr error
	if headless {
		runReport, runErr = eng.Run(cmd.Context())
	} else {
		progress := tui.NewRunner("dotup")
		opts.OnEvent = progress.HandleEvent
		runErr = progress.Run(func() error {
			var err error
			runReport, err = eng.Run(cmd.Context())
			return err
		})
	}

	if runReport != nil {
		if err := renderReport(cmd, runReport); err != nil {
			return err
		}
	}
	return runErr
}

// renderReport prints the run report in the requested format.
func renderReport(cmd *cobra.Command, r *report.RunReport) error {
	renderer := report.NewRenderer(flagNoColor)
	if flagOutput == "json" {
		out, err := renderer.RenderJSON(r)
		if err != nil {
			return err
		}
		cmd.Println(out)
		return nil
	}
	cmd.Println(renderer.Render(r))
	return nil
}

// confirmPrompt returns a yes/no prompt bound to the command's streams.
func confirmPrompt(cmd *cobra.Command) func(prompt string) bool {
	return func(prompt string) bool {
		cmd.Printf("%s [y/N]: ", prompt)
		var response string
		fmt.Scanln(&response)
		return response == "y" || response == "Y"
	}
}

// isTerminal reports whether stdout is a terminal.
func isTerminal() bool {
	info, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
