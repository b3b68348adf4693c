package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dbmrq/dotup/internal/brew"
	"github.com/dbmrq/dotup/internal/logging"
	"github.com/dbmrq/dotup/internal/report"
)

// listCmd shows outdated packages and recent runs.
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Show outdated packages and recent runs",
	Long: `List everything brew considers outdated, with casks on the ignore
list marked, plus a summary of recent update runs.

Examples:
  dotup list           # Outdated packages and recent runs
  dotup list --runs 5  # Show the last 5 runs`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().Int("runs", 3, "number of recent runs to show")
}

// runList handles the list command.
func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	runner := brew.NewExecRunner(nil)
	service := brew.NewService(runner, logging.Global(), false)

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	outdated, err := service.Outdated(ctx)
	if err != nil {
		return err
	}

	if outdated.IsEmpty() {
		cmd.Println("Everything is up to date.")
	} else {
		if len(outdated.Formulae) > 0 {
			cmd.Println("Outdated formulae:")
			for _, f := range outdated.Formulae {
				line := fmt.Sprintf("  %s %s → %s", f.Name, f.InstalledVersion(), f.CurrentVersion)
				if f.Pinned {
					line += " (pinned)"
				}
				cmd.Println(line)
			}
		}
		if len(outdated.Casks) > 0 {
			cmd.Println("Outdated casks:")
			for _, c := range outdated.Casks {
				line := fmt.Sprintf("  %s %s → %s", c.Name, c.InstalledVersion(), c.CurrentVersion)
				if cfg.IsIgnoredCask(c.Name) {
					line += " (ignored)"
				}
				cmd.Println(line)
			}
		}
	}

	return printRecentRuns(cmd)
}

// printRecentRuns shows a one-line summary per stored run.
func printRecentRuns(cmd *cobra.Command) error {
	maxRuns, _ := cmd.Flags().GetInt("runs")

	store := report.NewStore()
	ids, err := store.List()
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	cmd.Println("\nRecent runs:")
	for i, id := range ids {
		if i >= maxRuns {
			break
		}
		r, err := store.Load(id)
		if err != nil {
			continue
		}
		cmd.Printf("  %s  %s\n", id, r.Summary())
	}
	return nil
}
