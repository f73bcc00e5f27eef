package memory

import (
	"context"
	"slices"

	"github.com/Lokiragnarock/srm-cia-survey/pkg/domain"
)

// Loader implements ports.ConfigLoader over records held in memory.
type Loader struct {
	records []domain.Record
}

// NewLoader creates a loader returning a copy of records on every Load.
func NewLoader(records ...domain.Record) *Loader {
	return &Loader{records: slices.Clone(records)}
}

// Load returns the records in the order they were given.
func (l *Loader) Load(ctx context.Context) ([]domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return slices.Clone(l.records), nil
}
