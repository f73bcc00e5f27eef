package domain

import (
	"fmt"
	"strings"
)

// SubmitTarget is the terminal sentinel returned by branch resolution.
const SubmitTarget = "submit"

// Rule prefixes recognised by ParseRule.
const (
	prefixDefault = "default:"
	prefixRandom  = "random:"
)

// RuleKind tags the variant held by a Rule.
type RuleKind int

const (
	// RuleTerminal always resolves to SubmitTarget.
	RuleTerminal RuleKind = iota
	// RuleDefault always resolves to Target, ignoring the answer.
	RuleDefault
	// RuleRandom picks one of Targets uniformly on every resolution.
	RuleRandom
	// RuleConditional evaluates Clauses left to right against the answer.
	RuleConditional
)

// String implements fmt.Stringer.
func (k RuleKind) String() string {
	switch k {
	case RuleTerminal:
		return "terminal"
	case RuleDefault:
		return "default"
	case RuleRandom:
		return "random"
	case RuleConditional:
		return "conditional"
	default:
		return "unknown"
	}
}

// Clause is one "<trigger>:<target>" pair of a conditional rule.
type Clause struct {
	Trigger string `json:"trigger"`
	Target  string `json:"target"`
}

// Matches reports whether the clause fires for answer.
// Matching is a bidirectional substring test: the answer contains the
// trigger, or the trigger contains the answer. Short triggers can
// therefore match unrelated answers; configuration authors own that.
func (c Clause) Matches(answer string) bool {
	return strings.Contains(answer, c.Trigger) || strings.Contains(c.Trigger, answer)
}

// Rule is a parsed branch expression.
type Rule struct {
	Kind    RuleKind `json:"kind"`
	Target  string   `json:"target,omitempty"`
	Targets []string `json:"targets,omitempty"`
	Clauses []Clause `json:"clauses,omitempty"`
	Raw     string   `json:"raw,omitempty"`
}

// ParseRule parses a raw branch expression. The grammar is checked in
// priority order: empty (or the literal "null") is terminal, then
// "default:<id>", then "random:<id>|<id>...", and anything else is a
// "|"-separated list of "<trigger>:<id>" clauses. Clauses without a ":"
// are skipped.
func ParseRule(raw string) (Rule, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == "null" {
		return Rule{Kind: RuleTerminal, Raw: raw}, nil
	}

	if rest, ok := strings.CutPrefix(trimmed, prefixDefault); ok {
		target, _, _ := strings.Cut(rest, ":")
		target = strings.TrimSpace(target)
		if target == "" {
			return Rule{}, fmt.Errorf("%w: %q has no default target", ErrMalformedRule, raw)
		}
		return Rule{Kind: RuleDefault, Target: target, Raw: raw}, nil
	}

	if rest, ok := strings.CutPrefix(trimmed, prefixRandom); ok {
		parts := strings.Split(rest, "|")
		targets := make([]string, 0, len(parts))
		for _, p := range parts {
			t := strings.TrimSpace(p)
			if t == "" {
				return Rule{}, fmt.Errorf("%w: %q has an empty random target", ErrMalformedRule, raw)
			}
			targets = append(targets, t)
		}
		return Rule{Kind: RuleRandom, Targets: targets, Raw: raw}, nil
	}

	var clauses []Clause
	for _, part := range strings.Split(trimmed, "|") {
		trigger, target, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		// Only the segment up to a second ":" names the target.
		target, _, _ = strings.Cut(target, ":")
		clauses = append(clauses, Clause{
			Trigger: strings.TrimSpace(trigger),
			Target:  strings.TrimSpace(target),
		})
	}
	if len(clauses) == 0 {
		return Rule{}, fmt.Errorf("%w: %q has no <trigger>:<target> clause", ErrMalformedRule, raw)
	}
	for _, c := range clauses {
		if c.Target == "" {
			return Rule{}, fmt.Errorf("%w: %q has a clause without target", ErrMalformedRule, raw)
		}
	}
	return Rule{Kind: RuleConditional, Clauses: clauses, Raw: raw}, nil
}

// MustParseRule is like ParseRule but panics on error. Intended for tests
// and statically known rules.
func MustParseRule(raw string) Rule {
	r, err := ParseRule(raw)
	if err != nil {
		panic(err)
	}
	return r
}

// AllTargets lists every node id the rule can resolve to, in declaration
// order, excluding SubmitTarget for terminal rules.
func (r Rule) AllTargets() []string {
	switch r.Kind {
	case RuleDefault:
		return []string{r.Target}
	case RuleRandom:
		return append([]string(nil), r.Targets...)
	case RuleConditional:
		out := make([]string, 0, len(r.Clauses))
		for _, c := range r.Clauses {
			out = append(out, c.Target)
		}
		return out
	default:
		return nil
	}
}
