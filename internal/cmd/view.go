package cmd

import (
	"github.com/Iron-Ham/parplan/internal/config"
	"github.com/Iron-Ham/parplan/internal/tui"
	"github.com/spf13/cobra"
)

var viewCmd = &cobra.Command{
	Use:   "view <task-file>",
	Short: "Browse the execution plan interactively",
	Long: `View opens the analysis in an interactive terminal browser: batches on
the left, the selected batch's tasks and conflicts on the right.

Keys:
  up/down, j/k   select batch
  tab            cycle detail tabs
  q              quit`,
	Args: cobra.ExactArgs(1),
	RunE: runView,
}

func init() {
	rootCmd.AddCommand(viewCmd)
}

func runView(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	analysis, err := analyzeFile(args[0], cfg)
	if err != nil {
		return err
	}

	return tui.New(analysis).Run()
}
