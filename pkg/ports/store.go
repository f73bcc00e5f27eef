package ports

import (
	"context"

	"github.com/Lokiragnarock/srm-cia-survey/pkg/domain"
)

// StateStore defines the interface for persisting navigation state.
// It lets a respondent leave and resume a survey, and lets several server
// replicas share sessions.
type StateStore interface {
	// Save persists the state for a given session ID.
	Save(ctx context.Context, sessionID string, state *domain.State) error

	// Load retrieves the state for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.State, error)

	// Delete removes the state for a given session ID.
	// Deleting an unknown session is not an error.
	Delete(ctx context.Context, sessionID string) error

	// List returns the ids of all stored sessions.
	List(ctx context.Context) ([]string, error)
}
