package commands

import (
	"fmt"

	"sprintlens/internal/fetch"
	"sprintlens/internal/visuals"

	"github.com/spf13/cobra"
)

var (
	historyLimit int
	historyForce bool
)

var historyCmd = &cobra.Command{
	Use:   "history <team>",
	Short: "Report a team's sprint history with running aggregates",
	Long: `Reports the team's most recent sprints together with running sums and
running averages of points and issue counts across them, oldest sprint first
in the aggregate.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		history, err := sprintSvc.History(cmd.Context(), fetch.SprintRequest{
			TeamID:       args[0],
			HistoryLimit: historyLimit,
		}, historyForce)
		if err != nil {
			return err
		}

		if err := printJSON(history); err != nil {
			return err
		}

		if cfg.EnableMermaidCharts {
			if chart := visuals.SprintHistoryChart(history.Aggregate); chart != "" {
				fmt.Println()
				fmt.Println(chart)
			}
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 0, "number of sprints to cover (default 5)")
	historyCmd.Flags().BoolVar(&historyForce, "force", false, "bypass the cache and refetch")
	rootCmd.AddCommand(historyCmd)
}
