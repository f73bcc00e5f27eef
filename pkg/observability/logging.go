package observability

import (
	"context"
	"log/slog"

	"github.com/Lokiragnarock/srm-cia-survey/pkg/domain"
)

// LoggingHooks returns lifecycle hooks that write one structured record
// per event.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) {
			logger.DebugContext(ctx, "node entered",
				"session_id", e.SessionID, "node_id", e.NodeID, "kind", e.Kind)
		},
		OnNodeLeave: func(ctx context.Context, e *domain.NodeEvent) {
			logger.DebugContext(ctx, "node left",
				"session_id", e.SessionID, "node_id", e.NodeID, "answer", e.Answer)
		},
		OnUnmatchedBranch: func(ctx context.Context, e *domain.BranchEvent) {
			logger.InfoContext(ctx, "branch fell through to submit",
				"session_id", e.SessionID, "node_id", e.NodeID, "answer", e.Answer, "rule", e.Rule)
		},
		OnSubmit: func(ctx context.Context, e *domain.SubmitEvent) {
			logger.InfoContext(ctx, "session completed",
				"session_id", e.SessionID, "steps", e.Steps)
		},
	}
}
