package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventNodeEnter       EventType = "node_enter"
	EventNodeLeave       EventType = "node_leave"
	EventUnmatchedBranch EventType = "unmatched_branch"
	EventSubmit          EventType = "submit"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
}

// NodeEvent represents entry or exit from a node.
type NodeEvent struct {
	EventBase
	NodeID string `json:"node_id"`
	Kind   Kind   `json:"kind"`
	Answer string `json:"answer,omitempty"` // set on leave
}

// BranchEvent reports a conditional rule that matched no clause.
type BranchEvent struct {
	EventBase
	NodeID string `json:"node_id"`
	Answer string `json:"answer"`
	Rule   string `json:"rule"`
}

// SubmitEvent is emitted when a terminal session produces its submission.
type SubmitEvent struct {
	EventBase
	Steps int `json:"steps"`
}

// LifecycleHooks defines callbacks for engine observability.
// Any field may be nil.
type LifecycleHooks struct {
	OnNodeEnter       func(context.Context, *NodeEvent)
	OnNodeLeave       func(context.Context, *NodeEvent)
	OnUnmatchedBranch func(context.Context, *BranchEvent)
	OnSubmit          func(context.Context, *SubmitEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnNodeEnter:       chain(h.OnNodeEnter, other.OnNodeEnter),
		OnNodeLeave:       chain(h.OnNodeLeave, other.OnNodeLeave),
		OnUnmatchedBranch: chain(h.OnUnmatchedBranch, other.OnUnmatchedBranch),
		OnSubmit:          chain(h.OnSubmit, other.OnSubmit),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
