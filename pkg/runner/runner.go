package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/Lokiragnarock/srm-cia-survey/pkg/domain"
	"github.com/Lokiragnarock/srm-cia-survey/pkg/ports"
	"github.com/google/uuid"
)

// Respondent commands understood by the runner.
var (
	backCommands = []string{"back", "b"}
	quitCommands = []string{"quit", "exit"}
)

var (
	ErrNoEngine    = errors.New("runner has no engine")
	ErrInterrupted = errors.New("interrupted")
)

// ContentRenderer is a function that transforms a prompt before outputting it.
// This allows for TUI rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(string) (string, error)

// Runner walks one respondent through the survey using an IOHandler.
type Runner struct {
	// Handler is the strategy for IO. If nil, a TextHandler (or a JSONHandler
	// when Headless) over Input and Output is used.
	Handler IOHandler

	// Logger is used for internal debug logging.
	Logger *slog.Logger

	// Store makes sessions resumable. If nil, sessions are ephemeral.
	Store ports.StateStore

	// Sink receives the submission of a finished session.
	Sink ports.SubmissionSink

	SessionID string
	Headless  bool
	Renderer  ContentRenderer
	Input     io.Reader
	Output    io.Writer

	engine       ports.SurveyEngine
	initialState *domain.State
}

// NewRunner creates a new Runner with default Stdin/Stdout.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		Input:  os.Stdin,
		Output: os.Stdout,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run drives the session until it is submitted, the respondent quits or
// ctx is cancelled. It returns the submission when the survey was finished
// and nil when the respondent quit. Progress is saved after every step
// when a Store is configured.
func (r *Runner) Run(ctx context.Context) (*domain.Submission, error) {
	if r.engine == nil {
		return nil, ErrNoEngine
	}
	handler := r.resolveHandler()

	signals := watchInterrupts(ctx)
	defer signals.Stop()

	state, err := r.resolveInitialState(signals.Context(), handler)
	if err != nil {
		return nil, err
	}

	for !state.IsTerminal() {
		loopCtx := signals.Context()

		view, err := NewView(r.engine, state)
		if err != nil {
			return nil, fmt.Errorf("render error: %w", err)
		}
		if err := handler.Present(loopCtx, view); err != nil {
			return nil, fmt.Errorf("output error: %w", err)
		}

		input, err := handler.Input(loopCtx)
		if err != nil {
			if signals.Interrupted(err) {
				r.Logger.Debug("runner input: interrupted", "err", err)
				return nil, ErrInterrupted
			}
			if err == io.EOF {
				return nil, nil
			}
			return nil, fmt.Errorf("input error: %w", err)
		}

		// A choice label wins over a command word of the same spelling.
		answer, chosen := r.resolveChoice(state, input)
		switch {
		case !chosen && isCommand(input, quitCommands):
			r.Logger.Debug("respondent quit", "session_id", state.SessionID)
			return nil, nil

		case !chosen && isCommand(input, backCommands):
			next, undone, err := r.engine.Retreat(loopCtx, state)
			if err != nil {
				return nil, fmt.Errorf("retreat error: %w", err)
			}
			if !undone {
				_ = handler.SystemOutput(loopCtx, "Already at the first question.")
				continue
			}
			state = next

		default:
			next, err := r.engine.Advance(loopCtx, state, answer)
			if err != nil {
				if msg, ok := recoverable(err); ok {
					_ = handler.SystemOutput(loopCtx, msg)
					continue
				}
				return nil, fmt.Errorf("navigation error: %w", err)
			}
			state = next
		}

		if !state.IsTerminal() {
			if err := r.saveState(loopCtx, state); err != nil {
				return nil, fmt.Errorf("critical persistence error: %w", err)
			}
		}
	}

	return r.finish(signals.Context(), handler, state)
}

// finish submits a terminal state and clears it from the store.
func (r *Runner) finish(ctx context.Context, handler IOHandler, state *domain.State) (*domain.Submission, error) {
	sub, err := r.engine.Submission(ctx, state)
	if err != nil {
		return nil, err
	}
	if r.Sink != nil {
		if err := r.Sink.Submit(ctx, sub); err != nil {
			// Keep the finished session so it is not lost.
			_ = r.saveState(ctx, state)
			return nil, fmt.Errorf("submit error: %w", err)
		}
	}
	r.engine.Submitted(ctx, sub)
	if r.Store != nil {
		if err := r.Store.Delete(ctx, state.SessionID); err != nil {
			r.Logger.Warn("failed to clear finished session", "session_id", state.SessionID, "err", err)
		}
	}
	r.Logger.Info("session submitted", "session_id", state.SessionID, "steps", len(state.Path))
	return sub, handler.Complete(ctx, sub)
}

func (r *Runner) saveState(ctx context.Context, state *domain.State) error {
	if r.Store == nil {
		return nil
	}
	if err := r.Store.Save(ctx, state.SessionID, state); err != nil {
		return err
	}
	r.Logger.Debug("state saved", "session_id", state.SessionID, "node_id", state.CurrentNodeID)
	return nil
}

// resolveHandler ensures a valid IOHandler is set.
func (r *Runner) resolveHandler() IOHandler {
	if r.Handler != nil {
		return r.Handler
	}
	if r.Headless {
		r.Handler = NewJSONHandler(r.Input, r.Output)
	} else {
		r.Handler = NewTextHandler(r.Input, r.Output, WithTextHandlerRenderer(r.Renderer))
	}
	return r.Handler
}

func (r *Runner) resolveInitialState(ctx context.Context, handler IOHandler) (*domain.State, error) {
	if r.initialState != nil {
		return r.initialState, nil
	}
	if r.SessionID == "" {
		r.SessionID = uuid.NewString()
	}

	if r.Store != nil {
		state, err := r.Store.Load(ctx, r.SessionID)
		if err == nil {
			_ = handler.SystemOutput(ctx, fmt.Sprintf("Resuming session %s.", r.SessionID))
			return state, nil
		}
		if !errors.Is(err, domain.ErrSessionNotFound) {
			return nil, fmt.Errorf("failed to load session %s: %w", r.SessionID, err)
		}
	}

	state, err := r.engine.Start(ctx, r.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to create initial state: %w", err)
	}
	if !state.IsTerminal() {
		if err := r.saveState(ctx, state); err != nil {
			return nil, fmt.Errorf("failed to initialize session %s: %w", r.SessionID, err)
		}
	}
	return state, nil
}

// resolveChoice maps a choice number or a case-insensitive label to the
// exact label. Anything else is passed through with chosen set to false.
func (r *Runner) resolveChoice(state *domain.State, input string) (answer string, chosen bool) {
	node, err := r.engine.CurrentNode(state)
	if err != nil || node == nil || len(node.ChoiceLabels) == 0 {
		return input, false
	}
	if n, err := strconv.Atoi(input); err == nil && n >= 1 && n <= len(node.ChoiceLabels) {
		return node.ChoiceLabels[n-1], true
	}
	for _, label := range node.ChoiceLabels {
		if strings.EqualFold(label, input) {
			return label, true
		}
	}
	return input, false
}

// recoverable turns answer errors into a message for the respondent.
func recoverable(err error) (string, bool) {
	switch {
	case errors.Is(err, domain.ErrMissingAnswer):
		return "Please choose an answer.", true
	case errors.Is(err, domain.ErrInvalidAnswer):
		return fmt.Sprintf("Not a valid option: %v.", err), true
	}
	return "", false
}

func isCommand(input string, commands []string) bool {
	for _, c := range commands {
		if strings.EqualFold(input, c) {
			return true
		}
	}
	return false
}
