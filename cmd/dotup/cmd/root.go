// Package cmd provides the CLI commands for dotup.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dbmrq/dotup/internal/config"
	"github.com/dbmrq/dotup/internal/errors"
	"github.com/dbmrq/dotup/internal/logging"
	"github.com/dbmrq/dotup/internal/report"
)

// Version information - set via ldflags at build time in main.go.
// These are exported so main.go can set them before Execute().
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Persistent flags.
var (
	flagConfig  string
	flagVerbose bool
	flagDryRun  bool
	flagNoColor bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "dotup",
	Short: "dotup - keep your development environment up to date",
	Long: `Dotup updates everything your dotfiles install: Homebrew formulae and
casks, an optional Brewfile, and extra package managers like mas and npm.

Casks that break in known ways are handled automatically: path conflicts
are resolved by reinstalling, transient download failures are skipped,
and other failures are retried once before moving on.

Configuration lives in .dotfiles-update.yml; run "dotup init" to create
one.`,
	// Calling dotup with no subcommand runs an update
	RunE:          runUpdate,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file path (default: search for "+config.FileName+")")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log debug output and echo commands")
	rootCmd.PersistentFlags().BoolVarP(&flagDryRun, "dry-run", "n", false, "show what would be done without doing it")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable colored output")

	addUpdateFlags(rootCmd)
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date)
	rootCmd.SetVersionTemplate("dotup {{.Version}}\n")

	if err := rootCmd.Execute(); err != nil {
		printError(err)
		os.Exit(1)
	}
}

// Root returns the root command for testing purposes.
func Root() *cobra.Command {
	return rootCmd
}

// printError renders an error with its suggestion when it carries one.
func printError(err error) {
	var de *errors.DotupError
	if errors.As(err, &de) {
		fmt.Fprintln(os.Stderr, de.Format())
		return
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
}

// loadConfig loads the configuration honoring the --config flag.
func loadConfig() (*config.Config, error) {
	return config.Load(flagConfig)
}

// initLogging sets up the global file logger from configuration and flags.
// The returned closer flushes and prunes old files.
func initLogging(cfg *config.Config) (func(), error) {
	logDir := cfg.Log.Dir
	if logDir == "" {
		logDir = filepath.Join(report.StateDir(), "logs")
	}

	level := logging.LevelInfo
	if flagVerbose {
		level = logging.LevelDebug
	}

	logCfg := &logging.Config{
		Level:       level,
		LogDir:      logDir,
		MaxLogFiles: cfg.Log.MaxFiles,
		MaxLogAge:   cfg.Log.MaxAge,
		Console:     flagVerbose,
	}

	if err := logging.InitGlobal(logCfg); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	closer := func() {
		if err := logging.Global().Cleanup(); err != nil {
			logging.Warn("log cleanup failed", "error", err)
		}
		_ = logging.CloseGlobal()
	}
	return closer, nil
}
