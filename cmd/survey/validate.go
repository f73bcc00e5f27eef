package main

import (
	"fmt"

	"github.com/Lokiragnarock/srm-cia-survey/internal/validator"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the survey for consistency",
	Long: `Compiles the survey definition and reports broken branch targets,
malformed rules, unreachable questions and loops of hidden fork nodes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openSurvey(cmd)
		if err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}

		out := cmd.OutOrStdout()
		report := validator.Validate(eng.Graph())
		for _, issue := range report.Warnings() {
			fmt.Fprintln(out, issue)
		}
		fmt.Fprintf(out, "Survey is valid! ✅ (%d questions, %d warnings)\n", eng.Graph().Len(), len(report.Warnings()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
