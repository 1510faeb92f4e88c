// Command cnextc is the CLI front end for the c-next semantic compiler: it
// scans targets, drives the collectors and analyzer pipeline (§ "core"),
// and prints the resulting diagnostics. Per §1, everything this command
// does — file discovery, history, JSON formatting — sits at the interface
// to the core, not inside it.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/jlaustill/cnextc/internal/config"
)

var (
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

func main() {
	cfg := config.LoadConfig()

	root := &cobra.Command{
		Use:   "cnextc",
		Short: "c-next semantic front end: symbol resolution + safety analysis",
	}

	root.AddCommand(newCheckCommand(cfg))
	root.AddCommand(newSymbolsCommand(cfg))
	root.AddCommand(newHistoryCommand(cfg))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, red(err.Error()))
		os.Exit(1)
	}
}
