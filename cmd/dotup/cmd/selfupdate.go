package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dbmrq/dotup/internal/version"
)

// selfupdateCmd updates the dotup binary itself.
var selfupdateCmd = &cobra.Command{
	Use:   "selfupdate",
	Short: "Update dotup to the latest version",
	Long: `Update the dotup binary in place from the latest GitHub release.

You may need sudo permissions if dotup is installed in a system
directory (e.g., /usr/local/bin).

Examples:
  dotup selfupdate          # Update to latest version
  dotup selfupdate --check  # Only check, don't install`,
	RunE: runSelfupdate,
}

func init() {
	rootCmd.AddCommand(selfupdateCmd)
	selfupdateCmd.Flags().BoolP("check", "c", false, "Only check for updates, don't install")
	selfupdateCmd.Flags().BoolP("yes", "y", false, "Don't prompt for confirmation")
}

// runSelfupdate handles the selfupdate command.
func runSelfupdate(cmd *cobra.Command, args []string) error {
	checkOnly, _ := cmd.Flags().GetBool("check")
	skipPrompt, _ := cmd.Flags().GetBool("yes")

	cmd.Println("Checking for updates...")

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	checker := version.NewChecker()
	release, err := checker.CheckForUpdate(ctx, Version)
	if err != nil {
		return fmt.Errorf("failed to check for updates: %w", err)
	}

	if release == nil {
		cmd.Println("✓ You are already running the latest version:", Version)
		return nil
	}

	cmd.Printf("\nNew version available: %s (current: %s)\n", release.TagName, Version)

	if checkOnly {
		cmd.Printf("\nRelease notes: %s\n", release.HTMLURL)
		cmd.Println("\nRun 'dotup selfupdate' to install.")
		return nil
	}

	if !skipPrompt {
		cmd.Print("\nDo you want to update? [y/N]: ")
		var response string
		fmt.Scanln(&response)
		if response != "y" && response != "Y" {
			cmd.Println("Update cancelled.")
			return nil
		}
	}

	return performSelfupdate(cmd, release.TagName)
}

// performSelfupdate downloads, verifies, and installs the update.
func performSelfupdate(cmd *cobra.Command, tagVersion string) error {
	cmd.Println("\nDownloading and verifying...")

	tmpDir, err := os.MkdirTemp("", "dotup-update-*")
	if err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
	defer cancel()

	updater := version.NewUpdater()
	archivePath, err := updater.Fetch(ctx, tagVersion, tmpDir)
	if err != nil {
		return fmt.Errorf("failed to download update: %w", err)
	}

	binaryPath, err := version.ExtractBinary(archivePath, tmpDir)
	if err != nil {
		return fmt.Errorf("failed to extract update: %w", err)
	}

	currentExe, err := version.CurrentExecutable()
	if err != nil {
		return fmt.Errorf("failed to locate current executable: %w", err)
	}

	cmd.Printf("Installing to %s...\n", currentExe)

	if err := version.Install(binaryPath, currentExe); err != nil {
		cmd.Println("\nPermission denied? Try running with sudo:")
		cmd.Println("    sudo dotup selfupdate --yes")
		return err
	}

	cmd.Printf("\n✓ Successfully updated to %s\n", tagVersion)
	return nil
}
