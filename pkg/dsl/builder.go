package dsl

import (
	"errors"
	"fmt"

	"github.com/Lokiragnarock/srm-cia-survey/internal/compiler"
	"github.com/Lokiragnarock/srm-cia-survey/pkg/adapters/memory"
	"github.com/Lokiragnarock/srm-cia-survey/pkg/domain"
)

// Builder manages the survey construction. Nodes keep the order in which
// they were first added; the first one is where sessions start.
type Builder struct {
	order []string
	nodes map[string]*NodeBuilder
}

// New creates a new survey builder.
func New() *Builder {
	return &Builder{
		nodes: make(map[string]*NodeBuilder),
	}
}

// Add creates a new node in the survey.
// If the node already exists, it returns the existing builder.
func (b *Builder) Add(id string) *NodeBuilder {
	if nb, ok := b.nodes[id]; ok {
		return nb
	}
	nb := &NodeBuilder{
		record:  domain.Record{QID: id, Type: domain.TypeRadio},
		builder: b,
	}
	b.nodes[id] = nb
	b.order = append(b.order, id)
	return nb
}

// Records returns the configuration rows in insertion order.
func (b *Builder) Records() ([]domain.Record, error) {
	var errs []error
	records := make([]domain.Record, 0, len(b.order))
	for _, id := range b.order {
		nb := b.nodes[id]
		if nb.err != nil {
			errs = append(errs, fmt.Errorf("node %q: %w", id, nb.err))
			continue
		}
		records = append(records, nb.record)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return records, nil
}

// Build checks that the survey compiles and returns it as a memory loader.
func (b *Builder) Build() (*memory.Loader, error) {
	records, err := b.Records()
	if err != nil {
		return nil, err
	}
	if _, err := compiler.Compile(records); err != nil {
		return nil, fmt.Errorf("failed to build survey: %w", err)
	}
	return memory.NewLoader(records...), nil
}

// MustBuild is like Build but panics on error.
func (b *Builder) MustBuild() *memory.Loader {
	loader, err := b.Build()
	if err != nil {
		panic(err)
	}
	return loader
}
