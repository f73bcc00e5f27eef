package main

import (
	"fmt"

	survey "github.com/Lokiragnarock/srm-cia-survey"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of survey",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "survey version %s\n", survey.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
