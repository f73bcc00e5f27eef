package runtime

import (
	"context"
	"fmt"
	"time"

	"github.com/Lokiragnarock/srm-cia-survey/pkg/domain"
)

// AnswerError describes an answer rejected in strict mode.
type AnswerError struct {
	NodeID  string
	Answer  string
	Choices []string
}

func (e *AnswerError) Error() string {
	return fmt.Sprintf("node %q: answer %q is not one of %v", e.NodeID, e.Answer, e.Choices)
}

func (e *AnswerError) Unwrap() error {
	return domain.ErrInvalidAnswer
}

// settle follows auto nodes from target until it reaches a presentable
// node or submit. Auto nodes are resolved with an empty answer and leave
// no trace in the state. NewEngine refuses graphs with inescapable auto
// loops, so the walk ends; loops through random rules only take longer.
func (e *Engine) settle(ctx context.Context, sessionID, target string) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if target == domain.SubmitTarget {
			return target, nil
		}
		node, err := e.graph.Lookup(target)
		if err != nil {
			return "", err
		}
		if node.Kind != domain.KindAuto {
			return node.ID, nil
		}
		next := e.resolver.Resolve(ctx, sessionID, node, "")
		e.logger.Debug("auto node resolved", "session_id", sessionID, "node_id", node.ID, "to", next)
		target = next
	}
}

// moveTo points next at target (a presentable node id or submit) and
// recomputes the derived fields.
func (e *Engine) moveTo(ctx context.Context, next *domain.State, target string) (*domain.State, error) {
	next.UpdatedAt = e.now().UTC()

	if target == domain.SubmitTarget {
		next.CurrentNodeID = ""
		next.Status = domain.StatusTerminal
		next.Position = len(next.History)
		return next, nil
	}

	node, err := e.graph.Lookup(target)
	if err != nil {
		return nil, err
	}
	next.CurrentNodeID = node.ID
	next.Status = domain.StatusInProgress
	next.Position = len(next.History) + 1
	e.emitNodeEnter(ctx, next.SessionID, node)
	return next, nil
}

func (e *Engine) emitNodeEnter(ctx context.Context, sessionID string, node *domain.QuestionNode) {
	if e.hooks.OnNodeEnter == nil {
		return
	}
	e.hooks.OnNodeEnter(ctx, &domain.NodeEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventNodeEnter, SessionID: sessionID},
		NodeID:    node.ID,
		Kind:      node.Kind,
	})
}

func (e *Engine) emitNodeLeave(ctx context.Context, sessionID string, node *domain.QuestionNode, answer string) {
	if e.hooks.OnNodeLeave == nil {
		return
	}
	e.hooks.OnNodeLeave(ctx, &domain.NodeEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventNodeLeave, SessionID: sessionID},
		NodeID:    node.ID,
		Kind:      node.Kind,
		Answer:    answer,
	})
}
