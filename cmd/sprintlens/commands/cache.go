package commands

import (
	"fmt"
	"slices"
	"strings"

	"sprintlens/internal/fetch"

	"github.com/spf13/cobra"
)

var warmConcurrency int

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the dataset cache",
}

var cacheWarmCmd = &cobra.Command{
	Use:   "warm",
	Short: "Refresh the last-completed sprint stats of every configured team",
	RunE: func(cmd *cobra.Command, args []string) error {
		concurrency := warmConcurrency
		if concurrency <= 0 {
			concurrency = cfg.WarmConcurrency
		}

		results, err := sprintSvc.WarmAll(cmd.Context(), concurrency)
		if err != nil {
			return err
		}
		return printJSON(results)
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear <dataset>",
	Short: "Drop every document of one dataset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		col, ok := fetch.Datasets[args[0]]
		if !ok {
			names := make([]string, 0, len(fetch.Datasets))
			for name := range fetch.Datasets {
				names = append(names, name)
			}
			slices.Sort(names)
			return fmt.Errorf("unknown dataset %q (known: %s)", args[0], strings.Join(names, ", "))
		}

		if err := store.Clear(cmd.Context(), col); err != nil {
			return err
		}
		fmt.Printf("Cleared dataset %s\n", col.Name)
		return nil
	},
}

func init() {
	cacheWarmCmd.Flags().IntVar(&warmConcurrency, "concurrency", 0, "parallel team refreshes (default from WARM_CONCURRENCY)")
	cacheCmd.AddCommand(cacheWarmCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
