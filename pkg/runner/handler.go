package runner

import (
	"context"

	"github.com/Lokiragnarock/srm-cia-survey/pkg/domain"
)

// IOHandler defines the strategy for interacting with the respondent.
// This allows switching between Text (CLI/TUI) and JSON (Structured) modes.
type IOHandler interface {
	// Present shows one step of the survey.
	Present(ctx context.Context, view *View) error

	// Input reads a response from the respondent.
	Input(ctx context.Context) (string, error)

	// SystemOutput presents a meta-message (validation problems, status updates).
	// This is distinct from content rendering.
	SystemOutput(ctx context.Context, msg string) error

	// Complete is called once with the submission of a finished session.
	Complete(ctx context.Context, sub *domain.Submission) error
}
