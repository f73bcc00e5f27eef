/*
Package runner implements the interactive loop that walks one respondent
through a survey.

It is the bridge between the navigation engine and the outside world. The
runner presents each step through a pluggable IOHandler, maps typed input
to choices and commands ("back", "quit"), saves progress to an optional
StateStore and hands the finished session to a SubmissionSink.

# Key Components

  - Runner: the loop.
  - View: the presentable form of a state, shared with the HTTP and MCP adapters.
  - TextHandler: interactive terminal IO with numbered choices and a progress bar.
  - JSONHandler: JSON lines, for driving the survey from another program.

# Usage

	r := runner.NewRunner(
		runner.WithEngine(engine),
		runner.WithStore(store),
		runner.WithSink(sink),
		runner.WithSessionID("respondent-1"),
	)

	sub, err := r.Run(ctx)
*/
package runner
