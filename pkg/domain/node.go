package domain

import "slices"

// Kind controls whether a node pauses for the respondent.
type Kind string

const (
	// KindChoice presents labelled options and requires an answer (hard step).
	KindChoice Kind = "choice"
	// KindAuto is a hidden fork: resolved immediately with an empty answer,
	// never presented and never recorded (silent step).
	KindAuto Kind = "auto"
	// KindInformational is presented but needs no answer; advancing records
	// AnswerViewed (soft step).
	KindInformational Kind = "informational"
)

// Configuration vocabulary for the "type" column.
const (
	TypeRadio      = "radio"
	TypeImage      = "image"
	TypeRandomizer = "randomizer"
)

// AnswerViewed is recorded when an informational node is advanced without an answer.
const AnswerViewed = "VIEWED"

// KindFromType maps the configuration "type" column to a Kind.
// Unknown types fall back to KindChoice.
func KindFromType(t string) Kind {
	switch t {
	case TypeRandomizer:
		return KindAuto
	case TypeImage:
		return KindInformational
	default:
		return KindChoice
	}
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	return string(k)
}

// QuestionNode represents a single step of the survey graph.
type QuestionNode struct {
	ID       string `json:"id" yaml:"id"`
	Kind     Kind   `json:"kind" yaml:"kind"`
	Section  string `json:"section,omitempty" yaml:"section,omitempty"`
	Prompt   string `json:"prompt" yaml:"prompt"`
	ImageURL string `json:"image_url,omitempty" yaml:"image_url,omitempty"`

	// ChoiceLabels is only populated for KindChoice nodes.
	ChoiceLabels []string `json:"choice_labels,omitempty" yaml:"choice_labels,omitempty"`

	// RawRule is the branch expression as written in the configuration.
	RawRule string `json:"branch_rule,omitempty" yaml:"branch_rule,omitempty"`

	// Rule is RawRule parsed at load time.
	Rule Rule `json:"-" yaml:"-"`
}

// RequiresAnswer reports whether Advance needs a non-empty answer on this node.
func (n *QuestionNode) RequiresAnswer() bool {
	return n.Kind != KindInformational
}

// HasChoice reports whether label is one of the node's choice labels.
func (n *QuestionNode) HasChoice(label string) bool {
	return slices.Contains(n.ChoiceLabels, label)
}
