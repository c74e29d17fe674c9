// Command schemaevolve is the CLI front end for the schema evolution
// engine: it diffs a database's persisted schema against a target
// schema file and, on apply, runs that diff through the same
// orchestrator the library exposes to embedders.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "schemaevolve",
		Short: "Evolve a SQLite-backed object store's schema",
	}

	rootCmd.AddCommand(newDiffCmd())
	rootCmd.AddCommand(newApplyCmd())
	rootCmd.AddCommand(newVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("schemaevolve version %s (commit: %s)\n", version, commit)
			return nil
		},
	}
}
