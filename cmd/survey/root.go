package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	survey "github.com/Lokiragnarock/srm-cia-survey"
	"github.com/Lokiragnarock/srm-cia-survey/internal/cli"
	"github.com/Lokiragnarock/srm-cia-survey/internal/config"
	"github.com/Lokiragnarock/srm-cia-survey/internal/logging"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "survey",
	Short: "Survey runs branching questionnaires",
	Long: `Survey loads a questionnaire (a spreadsheet-like list of questions with
branch rules) and walks respondents through it on the terminal, over HTTP
or as MCP tools for AI agents.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "", "Survey definition: a .json/.yaml/.csv/.hcl file or the web app URL")
	rootCmd.PersistentFlags().String("settings", "", "Optional YAML settings file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: text or json")
}

// loadSettings resolves defaults, the settings file, SURVEY_* variables
// and finally the command line flags.
func loadSettings(cmd *cobra.Command) (config.Settings, error) {
	path, _ := cmd.Flags().GetString("settings")
	s, err := config.Load(path)
	if err != nil {
		return s, err
	}

	if cmd.Flags().Changed("config") {
		s.Source, _ = cmd.Flags().GetString("config")
	}
	if cmd.Flags().Changed("log-level") {
		s.LogLevel, _ = cmd.Flags().GetString("log-level")
	}
	if cmd.Flags().Changed("log-format") {
		s.LogFormat, _ = cmd.Flags().GetString("log-format")
	}
	if s.Source == "" {
		return s, fmt.Errorf("no survey definition: use --config or %sSOURCE", config.EnvPrefix)
	}
	return s, nil
}

func newLogger(cmd *cobra.Command, s config.Settings) (*slog.Logger, error) {
	level, err := logging.ParseLevel(s.LogLevel)
	if err != nil {
		return nil, err
	}
	return logging.NewWithWriter(cmd.ErrOrStderr(), level, s.LogFormat), nil
}

// openSurvey loads only the survey definition, for read-only commands.
func openSurvey(cmd *cobra.Command) (*survey.Engine, error) {
	s, err := loadSettings(cmd)
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cmd, s)
	if err != nil {
		return nil, err
	}
	return survey.Open(cmd.Context(), s.Source,
		survey.WithLogger(logger),
		survey.WithTimeout(s.Timeout),
	)
}

// buildStack loads settings and wires every backend. The caller closes it.
func buildStack(ctx context.Context, cmd *cobra.Command, apply func(*config.Settings), opts ...cli.BuildOption) (*cli.Stack, error) {
	s, err := loadSettings(cmd)
	if err != nil {
		return nil, err
	}
	if apply != nil {
		apply(&s)
	}
	logger, err := newLogger(cmd, s)
	if err != nil {
		return nil, err
	}
	return cli.Build(ctx, s, logger, opts...)
}
