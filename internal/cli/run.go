package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/Lokiragnarock/srm-cia-survey/internal/presentation/tui"
	"github.com/Lokiragnarock/srm-cia-survey/pkg/domain"
	"github.com/Lokiragnarock/srm-cia-survey/pkg/runner"
)

// RunOptions contains all the configuration for the run command.
type RunOptions struct {
	SessionID string
	// Fresh discards any stored progress for SessionID first.
	Fresh    bool
	Headless bool
	JSON     bool

	In  io.Reader
	Out io.Writer
}

// RunSession walks one respondent through the survey on the terminal.
func RunSession(ctx context.Context, st *Stack, opts RunOptions) (*domain.Submission, error) {
	in, out := opts.In, opts.Out
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}

	if opts.Fresh && opts.SessionID != "" {
		if err := st.ResetSession(ctx, opts.SessionID); err != nil {
			return nil, err
		}
	}

	var handler runner.IOHandler
	switch {
	case opts.JSON:
		jh := runner.NewJSONHandler(in, out)
		jh.MaxInputSize = st.Settings.MaxInputSize
		handler = jh
	default:
		handlerOpts := []runner.TextHandlerOption{runner.WithTextHandlerMaxInput(st.Settings.MaxInputSize)}
		if !opts.Headless && runner.IsTerminal(out) {
			tui.PrintBanner(out, st.Engine.Name)
			handlerOpts = append(handlerOpts, runner.WithTextHandlerRenderer(tui.NewRenderer(runner.TerminalWidth(out))))
		}
		handler = runner.NewTextHandler(in, out, handlerOpts...)
	}

	r := runner.NewRunner(
		runner.WithEngine(st.Engine),
		runner.WithStore(st.Store),
		runner.WithSink(st.Sink),
		runner.WithLogger(st.Logger),
		runner.WithInputHandler(handler),
		runner.WithHeadless(opts.Headless),
		runner.WithSessionID(opts.SessionID),
	)

	sub, err := r.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("survey session failed: %w", err)
	}
	if sub == nil {
		st.Logger.Info("session paused", "session_id", r.SessionID)
	}
	return sub, nil
}
