package cmd

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dbmrq/dotup/internal/brew"
	"github.com/dbmrq/dotup/internal/brewfile"
	"github.com/dbmrq/dotup/internal/config"
	"github.com/dbmrq/dotup/internal/errors"
	"github.com/dbmrq/dotup/internal/logging"
	"github.com/dbmrq/dotup/internal/report"
)

// doctorCmd checks the environment and configuration.
var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the environment and configuration",
	Long: `Verify that dotup can run: Homebrew is installed, the configuration
file parses cleanly with no unknown keys, and brew doctor has nothing
alarming to say.`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

// runDoctor handles the doctor command.
func runDoctor(cmd *cobra.Command, args []string) error {
	failed := false

	// Configuration
	path := flagConfig
	if path == "" {
		path = config.DefaultPath()
	}
	if path == "" {
		cmd.Println("– no config file found, defaults will be used (run 'dotup init')")
	} else if err := config.CheckStrict(path); err != nil {
		cmd.Printf("✗ config %s: %v\n", path, err)
		failed = true
	} else {
		cmd.Printf("✓ config %s\n", path)
	}

	// Homebrew
	runner := brew.NewExecRunner(nil)
	service := brew.NewService(runner, logging.Global(), false)

	if !service.IsInstalled() {
		cmd.Println("✗ brew not found on PATH")
		cmd.Println("  Install it from https://brew.sh")
		return errors.BrewNotInstalled()
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	brewVersion, err := service.Version(ctx)
	if err != nil {
		cmd.Printf("✗ brew --version failed: %v\n", err)
		failed = true
	} else {
		cmd.Printf("✓ %s\n", brewVersion)
	}

	output, err := service.Doctor(ctx)
	if err != nil {
		cmd.Printf("✗ brew doctor failed: %v\n", err)
		failed = true
	} else if output != "" {
		cmd.Println("– brew doctor reports:")
		cmd.Println(output)
	} else {
		cmd.Println("✓ brew doctor is happy")
	}

	// State directory
	stateDir := report.StateDir()
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		cmd.Printf("✗ state directory %s: %v\n", stateDir, err)
		failed = true
	} else {
		cmd.Printf("✓ state directory %s\n", stateDir)
	}

	// Brewfile, when configured
	if cfg, err := loadConfig(); err == nil && cfg.Brew.Brewfile != "" {
		manifest, err := brewfile.ParseFile(cfg.Brew.Brewfile)
		if err != nil {
			cmd.Printf("✗ Brewfile %s: %v\n", cfg.Brew.Brewfile, err)
			failed = true
		} else {
			cmd.Printf("✓ Brewfile %s (%d entries)\n", cfg.Brew.Brewfile, len(manifest.Entries))
		}
	}

	// Optional package managers
	for _, name := range []string{"mas", "npm", "gem", "rustup"} {
		if _, err := runner.LookPath(name); err == nil {
			cmd.Printf("✓ %s found\n", name)
		} else {
			cmd.Printf("– %s not installed\n", name)
		}
	}

	// Last run
	if last, err := report.NewStore().LastRun(); err == nil && last != nil {
		cmd.Printf("– last run %s: %s\n", last.ID, last.Summary())
	}

	if failed {
		return errors.New(errors.ErrConfig, "doctor found problems")
	}
	return nil
}
