package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dbmrq/dotup/internal/config"
	"github.com/dbmrq/dotup/internal/report"
)

// initCmd writes a starter configuration file.
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter " + config.FileName,
	Long: `Write a commented starter configuration to ` + config.FileName + ` in the
current directory (or the path given with --config). Existing files are
never overwritten.`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

// runInit handles the init command.
func runInit(cmd *cobra.Command, args []string) error {
	path := flagConfig
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		path = filepath.Join(cwd, config.FileName)
	}

	if err := config.WriteDefault(path); err != nil {
		return err
	}

	if err := os.MkdirAll(report.StateDir(), 0755); err != nil {
		return err
	}

	cmd.Printf("Wrote %s\n", path)
	cmd.Println("Edit it to list casks to ignore or remove, then run 'dotup'.")
	return nil
}
