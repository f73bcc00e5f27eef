package ports

import (
	"context"

	"github.com/Lokiragnarock/srm-cia-survey/pkg/domain"
)

// SurveyEngine is the navigation API consumed by presentation adapters
// (terminal runner, HTTP, MCP). It keeps no session state: every call takes
// the caller's State and returns a new one.
type SurveyEngine interface {
	Start(ctx context.Context, sessionID string) (*domain.State, error)
	Advance(ctx context.Context, state *domain.State, answer string) (*domain.State, error)
	Retreat(ctx context.Context, state *domain.State) (*domain.State, bool, error)
	PeekNextLabel(state *domain.State, answer string) domain.NextLabel
	Progress(state *domain.State) float64
	CurrentNode(state *domain.State) (*domain.QuestionNode, error)
	Submission(ctx context.Context, state *domain.State) (*domain.Submission, error)
	// Submitted reports a submission the sink accepted.
	Submitted(ctx context.Context, sub *domain.Submission)

	// Graph returns the graph currently in use. It may change after a reload.
	Graph() *domain.Graph
}
