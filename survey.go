package survey

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/url"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Lokiragnarock/srm-cia-survey/internal/compiler"
	"github.com/Lokiragnarock/srm-cia-survey/internal/runtime"
	"github.com/Lokiragnarock/srm-cia-survey/internal/validator"
	"github.com/Lokiragnarock/srm-cia-survey/pkg/adapters/file"
	"github.com/Lokiragnarock/srm-cia-survey/pkg/adapters/remote"
	"github.com/Lokiragnarock/srm-cia-survey/pkg/domain"
	"github.com/Lokiragnarock/srm-cia-survey/pkg/ports"
)

// ErrNotWatchable is returned by AutoReload when the loader cannot watch
// its source.
var ErrNotWatchable = errors.New("current loader does not support watching")

// Engine is the high-level entry point of the library.
// It loads and compiles a survey definition, then navigates it. The
// compiled graph can be swapped at runtime with Reload; sessions already
// in flight keep working as long as their current node still exists.
type Engine struct {
	current atomic.Pointer[runtime.Engine]
	loader  ports.ConfigLoader

	hooks   domain.LifecycleHooks
	logger  *slog.Logger
	rng     *rand.Rand
	strict  bool
	now     func() time.Time
	timeout time.Duration

	// Name labels the survey in logs, usually the source file name.
	Name string

	mu   sync.Mutex
	subs map[chan string]struct{}
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithRandom injects the random source used by random branch rules.
func WithRandom(rng *rand.Rand) Option {
	return func(e *Engine) {
		e.rng = rng
	}
}

// WithStrictChoices rejects answers that are not one of the node's labels.
func WithStrictChoices(strict bool) Option {
	return func(e *Engine) {
		e.strict = strict
	}
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithTimeout sets the HTTP timeout used by Open for remote sources.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.timeout = d
	}
}

// WithName overrides the survey label used in logs.
func WithName(name string) Option {
	return func(e *Engine) {
		e.Name = name
	}
}

// New loads the definition from loader and compiles it.
// A definition that fails to compile or validate is returned as a
// *domain.ConfigurationError; validator warnings are only logged.
func New(ctx context.Context, loader ports.ConfigLoader, opts ...Option) (*Engine, error) {
	if loader == nil {
		return nil, errors.New("a config loader is required")
	}
	eng := &Engine{
		loader: loader,
		now:    time.Now,
		subs:   make(map[chan string]struct{}),
	}
	for _, opt := range opts {
		opt(eng)
	}
	if eng.logger == nil {
		eng.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if eng.Name != "" {
		eng.logger = eng.logger.With("survey", eng.Name)
	}

	if err := eng.Reload(ctx); err != nil {
		return nil, err
	}
	return eng, nil
}

// Open picks a loader for source: an http(s) URL is read as the web app
// endpoint, anything else as a local file (.json, .yaml, .csv or .hcl).
func Open(ctx context.Context, source string, opts ...Option) (*Engine, error) {
	probe := &Engine{timeout: 10 * time.Second}
	for _, opt := range opts {
		opt(probe)
	}
	logger := probe.logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var (
		loader ports.ConfigLoader
		name   string
	)
	if u, err := url.Parse(source); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		client, err := remote.New(source, remote.WithTimeout(probe.timeout), remote.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		loader, name = client, u.Host
	} else {
		if source == "" {
			return nil, errors.New("a survey source is required")
		}
		abs, err := filepath.Abs(source)
		if err != nil {
			return nil, fmt.Errorf("invalid path: %w", err)
		}
		loader, name = file.NewLoader(abs, file.WithLogger(logger)), filepath.Base(abs)
	}

	if probe.Name == "" {
		opts = append([]Option{WithName(name)}, opts...)
	}
	return New(ctx, loader, opts...)
}

// Reload reads and compiles the definition again, then swaps it in.
// On failure the previous graph stays active.
func (e *Engine) Reload(ctx context.Context) error {
	records, err := e.loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load survey: %w", err)
	}
	g, err := compiler.Compile(records)
	if err != nil {
		return err
	}

	report := validator.Validate(g)
	for _, w := range report.Warnings() {
		e.logger.Warn("survey warning", "node_id", w.NodeID, "err", w.Err)
	}
	if err := report.Err(); err != nil {
		return err
	}

	opts := []runtime.EngineOption{
		runtime.WithLogger(e.logger),
		runtime.WithLifecycleHooks(e.hooks),
		runtime.WithClock(e.now),
	}
	if e.rng != nil {
		opts = append(opts, runtime.WithRandom(e.rng))
	}
	if e.strict {
		opts = append(opts, runtime.WithStrictChoices())
	}
	rt, err := runtime.NewEngine(g, opts...)
	if err != nil {
		return err
	}

	prev := e.current.Swap(rt)
	if prev != nil {
		e.logger.Info("survey reloaded", "questions", g.Len())
	}
	return nil
}

// AutoReload reloads the definition whenever the loader reports a change
// and notifies Watch subscribers. It blocks until ctx is done.
func (e *Engine) AutoReload(ctx context.Context) error {
	w, ok := e.loader.(ports.Watchable)
	if !ok {
		return ErrNotWatchable
	}
	changes, err := w.Watch(ctx)
	if err != nil {
		return fmt.Errorf("failed to watch survey: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			if err := e.Reload(ctx); err != nil {
				e.logger.Error("reload failed, keeping previous survey", "err", err)
				e.notify("error: " + err.Error())
				continue
			}
			e.notify("reload")
		}
	}
}

// Watch returns a channel that receives an event after every reload
// attempt made by AutoReload. The channel is closed when ctx is done.
func (e *Engine) Watch(ctx context.Context) (<-chan string, error) {
	ch := make(chan string, 4)
	e.mu.Lock()
	e.subs[ch] = struct{}{}
	e.mu.Unlock()

	go func() {
		<-ctx.Done()
		e.mu.Lock()
		delete(e.subs, ch)
		close(ch)
		e.mu.Unlock()
	}()
	return ch, nil
}

func (e *Engine) notify(event string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for ch := range e.subs {
		select {
		case ch <- event:
		default:
			e.logger.Warn("dropping reload event for slow watcher")
		}
	}
}

// Loader returns the loader the engine reads from.
func (e *Engine) Loader() ports.ConfigLoader {
	return e.loader
}

// Graph returns the compiled graph currently in use.
func (e *Engine) Graph() *domain.Graph {
	return e.current.Load().Graph()
}

// Start creates the state of a new session and triggers lifecycle hooks.
func (e *Engine) Start(ctx context.Context, sessionID string) (*domain.State, error) {
	return e.current.Load().Start(ctx, sessionID)
}

// Advance records answer on the current node and moves on.
func (e *Engine) Advance(ctx context.Context, state *domain.State, answer string) (*domain.State, error) {
	return e.current.Load().Advance(ctx, state, answer)
}

// Retreat undoes the last Advance.
func (e *Engine) Retreat(ctx context.Context, state *domain.State) (*domain.State, bool, error) {
	return e.current.Load().Retreat(ctx, state)
}

// PeekNextLabel reports whether answer would end the survey.
func (e *Engine) PeekNextLabel(state *domain.State, answer string) domain.NextLabel {
	return e.current.Load().PeekNextLabel(state, answer)
}

// Progress estimates completion in [0,1].
func (e *Engine) Progress(state *domain.State) float64 {
	return e.current.Load().Progress(state)
}

// CurrentNode returns the node presented by state, or nil when terminal.
func (e *Engine) CurrentNode(state *domain.State) (*domain.QuestionNode, error) {
	return e.current.Load().CurrentNode(state)
}

// Submission builds the response set of a terminal state.
func (e *Engine) Submission(ctx context.Context, state *domain.State) (*domain.Submission, error) {
	return e.current.Load().Submission(ctx, state)
}

// Submitted reports a submission the sink accepted.
func (e *Engine) Submitted(ctx context.Context, sub *domain.Submission) {
	e.current.Load().Submitted(ctx, sub)
}

var _ ports.SurveyEngine = (*Engine)(nil)
