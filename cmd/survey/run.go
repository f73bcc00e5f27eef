package main

import (
	"errors"
	"fmt"

	"github.com/Lokiragnarock/srm-cia-survey/internal/cli"
	"github.com/Lokiragnarock/srm-cia-survey/pkg/runner"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Answer the survey in the terminal",
	Long: `Walks one respondent through the survey. Type a choice number or label,
'back' to return to the previous question and 'quit' to stop. With --session
the progress is stored and the next run resumes where it stopped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, _ := cmd.Flags().GetString("session")
		fresh, _ := cmd.Flags().GetBool("fresh")
		headless, _ := cmd.Flags().GetBool("headless")
		jsonMode, _ := cmd.Flags().GetBool("json")

		if fresh && sessionID == "" {
			return errors.New("--fresh requires --session")
		}

		st, err := buildStack(cmd.Context(), cmd, nil)
		if err != nil {
			return err
		}
		defer st.Close()

		_, err = cli.RunSession(cmd.Context(), st, cli.RunOptions{
			SessionID: sessionID,
			Fresh:     fresh,
			Headless:  headless,
			JSON:      jsonMode,
			In:        cmd.InOrStdin(),
			Out:       cmd.OutOrStdout(),
		})
		if errors.Is(err, runner.ErrInterrupted) {
			fmt.Fprintln(cmd.ErrOrStderr(), "\nInterrupted. Progress is kept when --session is set.")
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringP("session", "s", "", "Session id; progress is saved and resumed under it")
	runCmd.Flags().Bool("fresh", false, "Discard saved progress for --session before starting")
	runCmd.Flags().Bool("headless", false, "Plain text output without banner or markdown rendering")
	runCmd.Flags().Bool("json", false, "Exchange JSON lines on stdin/stdout")
}
