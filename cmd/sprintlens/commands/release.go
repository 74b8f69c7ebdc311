package commands

import (
	"fmt"
	"time"

	"sprintlens/internal/fetch"

	"github.com/spf13/cobra"
)

var (
	releaseStart string
	releaseEnd   string
	releaseForce bool
)

// releaseDateLayouts are the accepted forms of --start and --end.
var releaseDateLayouts = []string{"2006-01-02", "2006-01-02 15:04", time.RFC3339}

var releaseCmd = &cobra.Command{
	Use:   "release [project]",
	Short: "Report the issues deployed to production in a date range",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		project := cfg.ReleaseProject
		if len(args) > 0 {
			project = args[0]
		}

		start, err := parseReleaseDate(releaseStart)
		if err != nil {
			return fmt.Errorf("--start: %w", err)
		}
		end, err := parseReleaseDate(releaseEnd)
		if err != nil {
			return fmt.Errorf("--end: %w", err)
		}

		report, err := releaseSvc.Releases(cmd.Context(), fetch.ReleaseRequest{
			Project: project,
			Start:   start,
			End:     end,
		}, releaseForce)
		if err != nil {
			return err
		}

		return printJSON(report)
	},
}

func parseReleaseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	for _, layout := range releaseDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}

func init() {
	releaseCmd.Flags().StringVar(&releaseStart, "start", "", "range start (YYYY-MM-DD)")
	releaseCmd.Flags().StringVar(&releaseEnd, "end", "", "range end (YYYY-MM-DD)")
	releaseCmd.Flags().BoolVar(&releaseForce, "force", false, "bypass the cache and refetch")
	rootCmd.AddCommand(releaseCmd)
}
