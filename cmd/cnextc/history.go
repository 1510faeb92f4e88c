package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jlaustill/cnextc/internal/config"
	"github.com/jlaustill/cnextc/internal/history"
)

func newHistoryCommand(cfg *config.Config) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past compilation runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := history.Open(cfg.HistoryDBPath, cfg.RetentionRuns, cfg.DebugSQL)
			if err != nil {
				return fmt.Errorf("opening history store: %w", err)
			}
			defer store.Close()

			runs, err := store.List(context.Background(), limit)
			if err != nil {
				return fmt.Errorf("listing runs: %w", err)
			}

			for _, run := range runs {
				status := green("clean")
				if !run.Clean {
					status = red("failed")
				}
				fmt.Printf("%s  %s  files=%-4d errors=%-3d warnings=%-3d  %s\n",
					run.StartedAt.Format("2006-01-02 15:04:05"), status, run.FileCount, run.ErrorCount, run.WarnCount, run.Targets)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to list (0 for all)")
	return cmd
}
