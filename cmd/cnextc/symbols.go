package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/jlaustill/cnextc/internal/config"
	"github.com/jlaustill/cnextc/internal/driver"
	"github.com/jlaustill/cnextc/internal/scanner"
)

func newSymbolsCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "symbols [targets...]",
		Short: "Dump the resolved cross-language symbol table",
		RunE: func(cmd *cobra.Command, args []string) error {
			sc := scanner.New(scanner.Config{MaxBytes: cfg.MaxFileBytes})

			unit, err := driver.Compile(args, sc)
			if err != nil {
				return fmt.Errorf("compiling: %w", err)
			}

			if len(unit.Conflicts) > 0 {
				fmt.Println(bold(red("conflicts prevent a stable symbol dump:")))
				for _, c := range unit.Conflicts {
					fmt.Printf("  %s\n", c.Message())
				}
				return nil
			}

			names := unit.Table.Names()
			sort.Strings(names)
			for _, name := range names {
				for _, s := range unit.Table.Overloads(name) {
					fmt.Printf("%-10s %-30s %-8s %s:%d\n", s.Kind, s.Name, s.SourceLanguage, s.SourceFile, s.SourceLine)
				}
			}
			return nil
		},
	}
	return cmd
}
