package runtime

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/Lokiragnarock/srm-cia-survey/pkg/domain"
)

// Resolver maps a node and an answer to the next target id.
// It is safe for concurrent use; the random source is guarded.
type Resolver struct {
	mu     sync.Mutex
	rng    *rand.Rand
	logger *slog.Logger
	hooks  domain.LifecycleHooks
}

// NewResolver creates a resolver. A nil rng gets a randomly seeded PCG source.
func NewResolver(rng *rand.Rand, logger *slog.Logger, hooks domain.LifecycleHooks) *Resolver {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if logger == nil {
		logger = discardLogger()
	}
	return &Resolver{rng: rng, logger: logger, hooks: hooks}
}

// Resolve returns the target for answer on node. The result is either a
// node id or domain.SubmitTarget.
//
// A conditional rule with no matching clause falls back to submit. That is
// not an error, but it is logged and reported through OnUnmatchedBranch
// because it usually means the configuration and the options disagree.
func (r *Resolver) Resolve(ctx context.Context, sessionID string, node *domain.QuestionNode, answer string) string {
	target, matched := Evaluate(node.Rule, answer, r.pick)
	if !matched {
		r.logger.Warn("no branch matched answer, submitting",
			"session_id", sessionID,
			"node_id", node.ID,
			"answer", answer,
			"rule", node.Rule.Raw,
		)
		if r.hooks.OnUnmatchedBranch != nil {
			r.hooks.OnUnmatchedBranch(ctx, &domain.BranchEvent{
				EventBase: domain.EventBase{
					Timestamp: time.Now(),
					Type:      domain.EventUnmatchedBranch,
					SessionID: sessionID,
				},
				NodeID: node.ID,
				Answer: answer,
				Rule:   node.Rule.Raw,
			})
		}
	}
	return target
}

func (r *Resolver) pick(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.IntN(n)
}

// Evaluate applies rule to answer without side effects. pick chooses an
// index in [0,n) for random rules. matched is false only when a
// conditional rule had no matching clause; target is then submit.
func Evaluate(rule domain.Rule, answer string, pick func(n int) int) (target string, matched bool) {
	switch rule.Kind {
	case domain.RuleDefault:
		return rule.Target, true
	case domain.RuleRandom:
		return rule.Targets[pick(len(rule.Targets))], true
	case domain.RuleConditional:
		for _, c := range rule.Clauses {
			if c.Matches(answer) {
				return c.Target, true
			}
		}
		return domain.SubmitTarget, false
	default:
		return domain.SubmitTarget, true
	}
}
