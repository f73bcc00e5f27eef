package domain

import "fmt"

// Graph is the ordered, immutable question graph of a survey.
// It is safe to share between goroutines and sessions.
type Graph struct {
	nodes []*QuestionNode
	index map[string]*QuestionNode
}

// NewGraph builds a graph from nodes in configuration order.
// It only indexes; callers wanting validation go through the compiler.
func NewGraph(nodes []*QuestionNode) *Graph {
	g := &Graph{
		nodes: make([]*QuestionNode, len(nodes)),
		index: make(map[string]*QuestionNode, len(nodes)),
	}
	copy(g.nodes, nodes)
	for _, n := range nodes {
		if _, dup := g.index[n.ID]; !dup {
			g.index[n.ID] = n
		}
	}
	return g
}

// Lookup returns the node with the given id.
func (g *Graph) Lookup(id string) (*QuestionNode, error) {
	if n, ok := g.index[id]; ok {
		return n, nil
	}
	return nil, NewConfigurationError(fmt.Errorf("%w: %q", ErrNodeNotFound, id))
}

// Has reports whether id is a node of the graph.
func (g *Graph) Has(id string) bool {
	_, ok := g.index[id]
	return ok
}

// First returns the entry node, the first one in configuration order.
func (g *Graph) First() (*QuestionNode, error) {
	if len(g.nodes) == 0 {
		return nil, NewConfigurationError(ErrEmptyConfiguration)
	}
	return g.nodes[0], nil
}

// Nodes returns the nodes in configuration order. The slice is a copy; the
// nodes themselves must be treated as read-only.
func (g *Graph) Nodes() []*QuestionNode {
	out := make([]*QuestionNode, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// IDs returns node ids in configuration order.
func (g *Graph) IDs() []string {
	out := make([]string, len(g.nodes))
	for i, n := range g.nodes {
		out[i] = n.ID
	}
	return out
}

// Len is the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// AutoTraps returns the auto nodes, in configuration order, from which
// resolution can never reach a presented node or submit. Auto nodes are
// resolved with an empty answer, which the first conditional clause
// always matches, so only random rules can offer more than one way out.
func (g *Graph) AutoTraps() []string {
	exits := make(map[string]bool)
	for changed := true; changed; {
		changed = false
		for _, n := range g.nodes {
			if n.Kind != KindAuto || exits[n.ID] {
				continue
			}
			for _, t := range autoSuccessors(n.Rule) {
				next, ok := g.index[t]
				if t == SubmitTarget || !ok || next.Kind != KindAuto || exits[t] {
					exits[n.ID] = true
					changed = true
					break
				}
			}
		}
	}

	var trapped []string
	for _, n := range g.nodes {
		if n.Kind == KindAuto && !exits[n.ID] {
			trapped = append(trapped, n.ID)
		}
	}
	return trapped
}

// autoSuccessors lists the targets rule can resolve to for an empty answer.
func autoSuccessors(rule Rule) []string {
	switch rule.Kind {
	case RuleDefault:
		return []string{rule.Target}
	case RuleRandom:
		return rule.Targets
	case RuleConditional:
		return []string{rule.Clauses[0].Target}
	default:
		return []string{SubmitTarget}
	}
}
