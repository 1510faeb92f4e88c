package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jlaustill/cnextc/internal/config"
	"github.com/jlaustill/cnextc/internal/diag"
	"github.com/jlaustill/cnextc/internal/driver"
	"github.com/jlaustill/cnextc/internal/history"
	"github.com/jlaustill/cnextc/internal/scanner"
)

func newCheckCommand(cfg *config.Config) *cobra.Command {
	var (
		jsonOutput bool
		noHistory  bool
		includes   []string
		excludes   []string
	)

	cmd := &cobra.Command{
		Use:   "check [targets...]",
		Short: "Run collection and the analyzer pipeline over one or more targets",
		RunE: func(cmd *cobra.Command, args []string) error {
			sc := scanner.New(scanner.Config{
				MaxBytes:     cfg.MaxFileBytes,
				IncludeGlobs: includes,
				ExcludeGlobs: excludes,
			})

			started := time.Now()
			unit, err := driver.Compile(args, sc)
			if err != nil {
				return fmt.Errorf("compiling: %w", err)
			}
			finished := time.Now()

			if !noHistory {
				if store, err := history.Open(cfg.HistoryDBPath, cfg.RetentionRuns, cfg.DebugSQL); err == nil {
					defer store.Close()
					_ = store.Record(context.Background(), args, started, finished, toHistoryResults(unit.Results))
				}
			}

			if jsonOutput {
				return printCheckJSON(unit)
			}
			printCheckText(unit)

			if len(unit.Conflicts) > 0 || hasErrors(unit.Results) {
				os.Exit(1)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print diagnostics as JSON")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "skip recording this run to the history store")
	cmd.Flags().StringSliceVar(&includes, "include", nil, "glob patterns to include (basename match)")
	cmd.Flags().StringSliceVar(&excludes, "exclude", nil, "glob patterns to exclude (basename match)")

	return cmd
}

func hasErrors(results []driver.FileResult) bool {
	for _, r := range results {
		if r.Errs.HasErrors() {
			return true
		}
	}
	return false
}

func toHistoryResults(results []driver.FileResult) []history.FileResult {
	out := make([]history.FileResult, len(results))
	for i, r := range results {
		out[i] = history.FileResult{Path: r.Path, Errs: r.Errs}
	}
	return out
}

func printCheckText(unit *driver.Unit) {
	if len(unit.Conflicts) > 0 {
		fmt.Println(bold(red("cross-language conflicts (analysis not attempted):")))
		for _, c := range unit.Conflicts {
			fmt.Printf("  %s: %s\n", red(string(c.Kind)), c.Message())
		}
		return
	}

	if len(unit.Results) == 0 {
		fmt.Println(green("clean: no diagnostics"))
		return
	}

	errorCount, warnCount := 0, 0
	for _, res := range unit.Results {
		for _, e := range res.Errs {
			loc := fmt.Sprintf("%s:%d:%d", res.Path, e.Line, e.Column)
			switch e.Severity {
			case diag.SeverityError:
				errorCount++
				fmt.Printf("%s %s: %s\n", red("error["+string(e.Code)+"]"), loc, e.Message)
			default:
				warnCount++
				fmt.Printf("%s %s: %s\n", yellow("warning["+string(e.Code)+"]"), loc, e.Message)
			}
			if e.Help != "" {
				fmt.Printf("  help: %s\n", e.Help)
			}
		}
	}
	fmt.Printf("%d error(s), %d warning(s)\n", errorCount, warnCount)
}

func printCheckJSON(unit *driver.Unit) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(unit)
}
