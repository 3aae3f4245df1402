package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/kabirhiking/healthcare-data-quality/internal/rules/checks"
	"github.com/spf13/cobra"
)

var listRulesCmd = &cobra.Command{
	Use:   "list-rules",
	Short: "Print the registered checks in execution order.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "KEY\tNAME\tCHECK TYPE\tTABLE")
		for _, info := range checks.Catalog() {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", info.Key, info.Name, info.CheckType, info.TableName)
		}
		return w.Flush()
	},
}
