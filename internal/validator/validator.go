package validator

import (
	"errors"
	"fmt"
	"slices"

	"github.com/Lokiragnarock/srm-cia-survey/pkg/domain"
)

// Severity classifies an Issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is a single finding about a graph.
type Issue struct {
	Severity Severity
	NodeID   string
	Err      error
}

func (i Issue) String() string {
	return fmt.Sprintf("[%s] %s: %v", i.Severity, i.NodeID, i.Err)
}

// Report collects the issues found by Validate, in node order.
type Report struct {
	Issues []Issue
}

// Errors returns only the blocking issues.
func (r Report) Errors() []Issue {
	return r.filter(SeverityError)
}

// Warnings returns the informational issues.
func (r Report) Warnings() []Issue {
	return r.filter(SeverityWarning)
}

// Err folds the blocking issues into a configuration error, or nil.
func (r Report) Err() error {
	var errs []error
	for _, i := range r.Errors() {
		errs = append(errs, i.Err)
	}
	return domain.NewConfigurationError(errs...)
}

func (r Report) filter(s Severity) []Issue {
	var out []Issue
	for _, i := range r.Issues {
		if i.Severity == s {
			out = append(out, i)
		}
	}
	return out
}

// Warning causes.
var (
	ErrUnreachable = errors.New("node is not reachable from the first node")
	ErrNoChoices   = errors.New("choice node has no options")
	ErrDeadClause  = errors.New("clause trigger matches none of the options")
	ErrAutoLoop    = errors.New("auto nodes can resolve into each other")
)

// Validate checks a graph for broken links and suspicious structure.
//
// Dangling targets and auto loops with no way out are errors. Unreachable
// nodes are only warnings:
// random rules make reachability a matter of chance, and a survey author
// may park nodes for later use.
func Validate(g *domain.Graph) Report {
	var r Report
	if g.Len() == 0 {
		r.Issues = append(r.Issues, Issue{Severity: SeverityError, Err: domain.ErrEmptyConfiguration})
		return r
	}

	for _, n := range g.Nodes() {
		for _, target := range n.Rule.AllTargets() {
			if target != domain.SubmitTarget && !g.Has(target) {
				r.add(SeverityError, n.ID, fmt.Errorf("%w: %q", domain.ErrDanglingTarget, target))
			}
		}
		if n.Kind == domain.KindChoice {
			if len(n.ChoiceLabels) == 0 {
				r.add(SeverityWarning, n.ID, ErrNoChoices)
			} else if n.Rule.Kind == domain.RuleConditional {
				for _, c := range n.Rule.Clauses {
					if !slices.ContainsFunc(n.ChoiceLabels, c.Matches) {
						r.add(SeverityWarning, n.ID, fmt.Errorf("%w: %q", ErrDeadClause, c.Trigger))
					}
				}
			}
		}
	}

	reachable := crawl(g)
	for _, n := range g.Nodes() {
		if !reachable[n.ID] {
			r.add(SeverityWarning, n.ID, ErrUnreachable)
		}
	}

	trapped := g.AutoTraps()
	for _, id := range trapped {
		r.add(SeverityError, id, fmt.Errorf("%w: %q never reaches a question or submit", domain.ErrAutoCycle, id))
	}
	for _, id := range autoLoops(g) {
		if !slices.Contains(trapped, id) {
			r.add(SeverityWarning, id, ErrAutoLoop)
		}
	}
	return r
}

func (r *Report) add(s Severity, nodeID string, err error) {
	r.Issues = append(r.Issues, Issue{Severity: s, NodeID: nodeID, Err: err})
}

// crawl walks every rule target breadth first from the first node.
func crawl(g *domain.Graph) map[string]bool {
	first, _ := g.First()
	visited := map[string]bool{}
	queue := []string{first.ID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if visited[id] {
			continue
		}
		visited[id] = true
		n, err := g.Lookup(id)
		if err != nil {
			continue
		}
		for _, t := range n.Rule.AllTargets() {
			if t != domain.SubmitTarget && !visited[t] {
				queue = append(queue, t)
			}
		}
	}
	return visited
}

// autoLoops returns auto nodes that sit on a cycle made only of auto
// nodes, following every rule target. Loops that random rules can leave
// are legal but may spin for a while.
func autoLoops(g *domain.Graph) []string {
	const (
		white = iota
		grey
		black
	)
	color := map[string]int{}
	var onLoop []string
	marked := map[string]bool{}
	var stack []string

	var visit func(id string)
	visit = func(id string) {
		color[id] = grey
		stack = append(stack, id)
		n, _ := g.Lookup(id)
		for _, t := range n.Rule.AllTargets() {
			next, err := g.Lookup(t)
			if err != nil || next.Kind != domain.KindAuto {
				continue
			}
			switch color[t] {
			case white:
				visit(t)
			case grey:
				start := slices.Index(stack, t)
				for _, m := range stack[start:] {
					if !marked[m] {
						marked[m] = true
						onLoop = append(onLoop, m)
					}
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[id] = black
	}

	for _, n := range g.Nodes() {
		if n.Kind == domain.KindAuto && color[n.ID] == white {
			visit(n.ID)
		}
	}
	return onLoop
}
