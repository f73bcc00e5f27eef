package main

import (
	"fmt"

	"github.com/Lokiragnarock/srm-cia-survey/internal/presentation/graph"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the question graph visualization",
	Long:  `Compiles the survey and outputs a Mermaid diagram (graph TD) of the questions and their branch rules.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openSurvey(cmd)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(eng.Graph(), nil))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
