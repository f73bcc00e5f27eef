package compiler

import (
	"fmt"
	"strings"

	"github.com/Lokiragnarock/srm-cia-survey/pkg/domain"
)

// Compile turns configuration records into an immutable question graph.
//
// Every problem found is collected and returned at once as a
// *domain.ConfigurationError: blank or duplicate ids, malformed rules,
// targets that name no node, and auto nodes that loop among themselves
// with no way out.
func Compile(records []domain.Record) (*domain.Graph, error) {
	if len(records) == 0 {
		return nil, domain.NewConfigurationError(domain.ErrEmptyConfiguration)
	}

	var problems []error
	nodes := make([]*domain.QuestionNode, 0, len(records))
	seen := make(map[string]bool, len(records))

	for i, rec := range records {
		node, err := compileRecord(rec)
		if err != nil {
			problems = append(problems, fmt.Errorf("record %d: %w", i+1, err))
			if node == nil {
				continue
			}
		}
		if seen[node.ID] {
			problems = append(problems, fmt.Errorf("%w: %q", domain.ErrDuplicateNode, node.ID))
			continue
		}
		seen[node.ID] = true
		nodes = append(nodes, node)
	}

	for _, n := range nodes {
		for _, target := range n.Rule.AllTargets() {
			if target == domain.SubmitTarget || seen[target] {
				continue
			}
			problems = append(problems, fmt.Errorf("%w: node %q targets %q", domain.ErrDanglingTarget, n.ID, target))
		}
	}

	graph := domain.NewGraph(nodes)
	if len(problems) == 0 {
		problems = append(problems, autoCycles(graph)...)
	}

	if err := domain.NewConfigurationError(problems...); err != nil {
		return nil, err
	}
	return graph, nil
}

// compileRecord maps one record. A non-nil node with an error means the
// node is usable for further checks but the record itself is invalid.
func compileRecord(rec domain.Record) (*domain.QuestionNode, error) {
	id := strings.TrimSpace(rec.QID)
	if id == "" {
		return nil, domain.ErrMissingNodeID
	}
	if id == domain.SubmitTarget {
		return nil, fmt.Errorf("%w: %q", domain.ErrReservedID, id)
	}

	node := &domain.QuestionNode{
		ID:       id,
		Kind:     domain.KindFromType(strings.ToLower(strings.TrimSpace(rec.Type))),
		Section:  domain.CleanCell(rec.Section),
		Prompt:   strings.TrimSpace(rec.QuestionText),
		ImageURL: domain.CleanCell(rec.ImageURL),
		RawRule:  rec.BranchLogic,
	}
	if node.Kind == domain.KindChoice {
		node.ChoiceLabels = rec.OptionLabels()
	}

	rule, err := domain.ParseRule(rec.BranchLogic)
	if err != nil {
		return node, fmt.Errorf("node %q: %w", id, err)
	}
	node.Rule = rule
	return node, nil
}

// autoCycles reports auto nodes that can only resolve into other auto
// nodes, forever.
func autoCycles(g *domain.Graph) []error {
	var problems []error
	for _, id := range g.AutoTraps() {
		problems = append(problems, fmt.Errorf("%w: %q never reaches a question or submit", domain.ErrAutoCycle, id))
	}
	return problems
}
