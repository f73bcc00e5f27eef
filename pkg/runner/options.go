package runner

import (
	"log/slog"

	"github.com/Lokiragnarock/srm-cia-survey/pkg/domain"
	"github.com/Lokiragnarock/srm-cia-survey/pkg/ports"
)

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithEngine configures the survey engine. Required.
func WithEngine(engine ports.SurveyEngine) Option {
	return func(r *Runner) {
		r.engine = engine
	}
}

// WithStore configures the StateStore so an interrupted session can be resumed.
func WithStore(store ports.StateStore) Option {
	return func(r *Runner) {
		r.Store = store
	}
}

// WithSink configures where the finished session is submitted.
func WithSink(sink ports.SubmissionSink) Option {
	return func(r *Runner) {
		r.Sink = sink
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.Logger = logger
	}
}

// WithInputHandler configures a custom IOHandler.
func WithInputHandler(handler IOHandler) Option {
	return func(r *Runner) {
		r.Handler = handler
	}
}

// WithHeadless switches the default handler to JSON lines.
func WithHeadless(headless bool) Option {
	return func(r *Runner) {
		r.Headless = headless
	}
}

// WithSessionID sets the session ID. With a store, an existing session
// with this id is resumed.
func WithSessionID(id string) Option {
	return func(r *Runner) {
		r.SessionID = id
	}
}

// WithRenderer configures the prompt renderer (e.g. markdown to ANSI).
func WithRenderer(renderer ContentRenderer) Option {
	return func(r *Runner) {
		r.Renderer = renderer
	}
}

// WithInitialState configures the initial state for the Runner.
// If not provided, the Runner resumes from the store or starts a new session.
func WithInitialState(state *domain.State) Option {
	return func(r *Runner) {
		r.initialState = state
	}
}
