package main

import "github.com/spf13/cobra"

var rootCmd = &cobra.Command{
	Use:               "healthcare-dq",
	Short:             "Audits healthcare records for data quality issues.",
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: prepareCommand,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(runCmd, workerCmd, requestAuditCmd, migrateCmd, listRulesCmd)
}
