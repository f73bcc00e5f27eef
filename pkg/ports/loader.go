package ports

import (
	"context"

	"github.com/Lokiragnarock/srm-cia-survey/pkg/domain"
)

// ConfigLoader defines how the survey definition is retrieved.
// This allows the source (file, spreadsheet web app, memory) to be decoupled
// from the compiler.
type ConfigLoader interface {
	// Load returns the configuration records in survey order.
	Load(ctx context.Context) ([]domain.Record, error)
}

// Watchable defines an interface for loaders that can notify about backend changes.
// This is typically used for hot-reload or dev-mode functionality.
type Watchable interface {
	// Watch returns a channel that is signaled when the underlying definition changes.
	// It abstracts away the specific event details, signaling only that a reload is required.
	// The channel is closed when ctx is done.
	Watch(ctx context.Context) (<-chan struct{}, error)
}
