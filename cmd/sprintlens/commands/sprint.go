package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"sprintlens/internal/fetch"

	"github.com/spf13/cobra"
)

var (
	sprintID    int
	sprintForce bool
)

var sprintCmd = &cobra.Command{
	Use:   "sprint <team>",
	Short: "Report one team's stats for a sprint",
	Long: `Reports completed, committed and added points plus contributor statistics
for one sprint. By default the last completed sprint is used; --sprint selects
a concrete sprint id, and --current selects the active sprint.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		selector := sprintID
		if current, _ := cmd.Flags().GetBool("current"); current {
			selector = fetch.SprintCurrent
		}

		record, err := sprintSvc.SprintStats(cmd.Context(), fetch.SprintRequest{
			TeamID:   args[0],
			SprintID: selector,
		}, sprintForce)
		if err != nil {
			return err
		}

		return printJSON(record)
	},
}

func init() {
	sprintCmd.Flags().IntVar(&sprintID, "sprint", 0, "concrete sprint id (default: last completed)")
	sprintCmd.Flags().Bool("current", false, "report the active sprint instead")
	sprintCmd.Flags().BoolVar(&sprintForce, "force", false, "bypass the cache and refetch")
	rootCmd.AddCommand(sprintCmd)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	return nil
}
