package runtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/Lokiragnarock/srm-cia-survey/pkg/domain"
)

// progressRatio is the share of the graph a typical path is expected to
// visit. Branching surveys rarely show every node to one respondent.
const progressRatio = 0.7

// Engine is the navigation state machine over a compiled question graph.
// It holds no per-session data and is safe to share.
type Engine struct {
	graph    *domain.Graph
	resolver *Resolver
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
	rng      *rand.Rand
	strict   bool
	now      func() time.Time
}

// EngineOption defines a functional option for configuring the Engine.
type EngineOption func(*Engine)

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithRandom injects the random source used by random rules.
func WithRandom(rng *rand.Rand) EngineOption {
	return func(e *Engine) {
		e.rng = rng
	}
}

// WithStrictChoices rejects answers to choice nodes that are not one of
// the node's labels.
func WithStrictChoices() EngineOption {
	return func(e *Engine) {
		e.strict = true
	}
}

// WithClock overrides the time source, mostly for tests.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates an engine over graph. It fails with a configuration
// error when the graph is nil or empty.
func NewEngine(graph *domain.Graph, opts ...EngineOption) (*Engine, error) {
	if graph == nil || graph.Len() == 0 {
		return nil, domain.NewConfigurationError(domain.ErrEmptyConfiguration)
	}
	if trapped := graph.AutoTraps(); len(trapped) > 0 {
		return nil, domain.NewConfigurationError(fmt.Errorf("%w: %q", domain.ErrAutoCycle, trapped))
	}
	e := &Engine{
		graph:  graph,
		logger: discardLogger(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = discardLogger()
	}
	e.resolver = NewResolver(e.rng, e.logger, e.hooks)
	return e, nil
}

// Graph returns the graph the engine navigates.
func (e *Engine) Graph() *domain.Graph {
	return e.graph
}

// Start creates the state of a new session at the first presentable node.
// Leading auto nodes are resolved transparently; if they resolve to submit
// the session is born terminal.
func (e *Engine) Start(ctx context.Context, sessionID string) (*domain.State, error) {
	first, err := e.graph.First()
	if err != nil {
		return nil, err
	}

	target, err := e.settle(ctx, sessionID, first.ID)
	if err != nil {
		return nil, err
	}

	state := domain.NewState(sessionID, target)
	now := e.now().UTC()
	state.StartedAt, state.UpdatedAt = now, now

	if target == domain.SubmitTarget {
		state.CurrentNodeID = ""
		state.Status = domain.StatusTerminal
		state.Position = 0
		e.logger.Debug("session started terminal", "session_id", sessionID)
		return state, nil
	}

	node, err := e.graph.Lookup(target)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("session started", "session_id", sessionID, "node_id", target)
	e.emitNodeEnter(ctx, state.SessionID, node)
	return state, nil
}

// Advance records answer on the current node and moves to the next one.
// The input state is never modified.
func (e *Engine) Advance(ctx context.Context, state *domain.State, answer string) (*domain.State, error) {
	if state.IsTerminal() {
		e.logger.Warn("advance on terminal state ignored", "session_id", state.SessionID)
		return nil, domain.ErrInvalidTransition
	}

	node, err := e.graph.Lookup(state.CurrentNodeID)
	if err != nil {
		return nil, err
	}

	recorded, err := e.effectiveAnswer(node, answer)
	if err != nil {
		return nil, err
	}

	next := state.Snapshot()
	next.Answers[node.ID] = recorded
	next.History = append(next.History, node.ID)
	next.Path = append(next.Path, domain.PathEntry{NodeID: node.ID, Answer: recorded})
	e.emitNodeLeave(ctx, next.SessionID, node, recorded)

	target, err := e.settle(ctx, next.SessionID, e.resolver.Resolve(ctx, next.SessionID, node, recorded))
	if err != nil {
		return nil, err
	}

	e.logger.Debug("advance", "session_id", next.SessionID, "from", node.ID, "to", target)
	return e.moveTo(ctx, next, target)
}

// Retreat undoes the last Advance. undone is false, and the state is
// returned unchanged, when there is nothing to undo. Answers are kept so
// the revisited node can be pre-filled.
func (e *Engine) Retreat(ctx context.Context, state *domain.State) (next *domain.State, undone bool, err error) {
	if len(state.History) == 0 {
		return state.Snapshot(), false, nil
	}

	if !state.IsTerminal() {
		if cur, err := e.graph.Lookup(state.CurrentNodeID); err == nil {
			e.emitNodeLeave(ctx, state.SessionID, cur, "")
		}
	}

	next = state.Snapshot()
	prev := next.History[len(next.History)-1]
	next.History = next.History[:len(next.History)-1]
	if len(next.Path) > 0 {
		next.Path = next.Path[:len(next.Path)-1]
	}

	node, err := e.graph.Lookup(prev)
	if err != nil {
		return nil, false, err
	}

	e.logger.Debug("retreat", "session_id", next.SessionID, "to", prev)
	next, err = e.moveTo(ctx, next, node.ID)
	if err != nil {
		return nil, false, err
	}
	return next, true, nil
}

// PeekNextLabel tells a presentation layer whether answering the current
// node with answer would end the survey. It has no side effects: no hooks
// fire, no diagnostics are logged and the random source is not consumed.
func (e *Engine) PeekNextLabel(state *domain.State, answer string) domain.NextLabel {
	if state.IsTerminal() {
		return domain.LabelSubmit
	}
	node, err := e.graph.Lookup(state.CurrentNodeID)
	if err != nil {
		return domain.LabelContinue
	}

	if node.Rule.Kind == domain.RuleRandom {
		for _, t := range node.Rule.Targets {
			if t != domain.SubmitTarget {
				return domain.LabelContinue
			}
		}
		return domain.LabelSubmit
	}

	answer = normalizeAnswer(node, answer)
	target, _ := Evaluate(node.Rule, answer, func(int) int { return 0 })
	if target == domain.SubmitTarget {
		return domain.LabelSubmit
	}
	return domain.LabelContinue
}

// Progress estimates completion in [0,1]. The denominator assumes a path
// visits about 70% of the graph, so the value is clamped.
func (e *Engine) Progress(state *domain.State) float64 {
	if state.IsTerminal() {
		return 1
	}
	expected := math.Ceil(progressRatio * float64(e.graph.Len()))
	if expected <= 0 {
		return 0
	}
	return math.Min(1, math.Max(0, float64(state.Position)/expected))
}

// CurrentNode returns the node presented by state, or nil when terminal.
func (e *Engine) CurrentNode(state *domain.State) (*domain.QuestionNode, error) {
	if state.IsTerminal() {
		return nil, nil
	}
	return e.graph.Lookup(state.CurrentNodeID)
}

// Submission builds the response set of a terminal state. It has no side
// effects; call Submitted once the sink accepted the result.
func (e *Engine) Submission(_ context.Context, state *domain.State) (*domain.Submission, error) {
	if !state.IsTerminal() {
		return nil, domain.ErrNotTerminal
	}
	snap := state.Snapshot()
	return &domain.Submission{
		Timestamp: e.now().UTC(),
		SessionID: snap.SessionID,
		Answers:   snap.Answers,
		Path:      snap.Path,
	}, nil
}

// Submitted fires OnSubmit for a submission the sink has stored.
func (e *Engine) Submitted(ctx context.Context, sub *domain.Submission) {
	if e.hooks.OnSubmit == nil || sub == nil {
		return
	}
	e.hooks.OnSubmit(ctx, &domain.SubmitEvent{
		EventBase: domain.EventBase{Timestamp: e.now().UTC(), Type: domain.EventSubmit, SessionID: sub.SessionID},
		Steps:     len(sub.Path),
	})
}

// normalizeAnswer trims answer and turns a blank answer on a node that
// needs none into AnswerViewed. Advance and PeekNextLabel share it.
func normalizeAnswer(node *domain.QuestionNode, answer string) string {
	answer = strings.TrimSpace(answer)
	if answer == "" && !node.RequiresAnswer() {
		return domain.AnswerViewed
	}
	return answer
}

// effectiveAnswer applies the answer requirements of node.
func (e *Engine) effectiveAnswer(node *domain.QuestionNode, answer string) (string, error) {
	answer = normalizeAnswer(node, answer)
	if answer == "" {
		return "", domain.ErrMissingAnswer
	}
	if e.strict && node.Kind == domain.KindChoice && len(node.ChoiceLabels) > 0 && !node.HasChoice(answer) {
		return "", &AnswerError{NodeID: node.ID, Answer: answer, Choices: node.ChoiceLabels}
	}
	return answer, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
