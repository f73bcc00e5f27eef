package dsl

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Lokiragnarock/srm-cia-survey/pkg/domain"
)

var errRuleConflict = errors.New("node mixes conditional, default and random routing")

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	record  domain.Record
	builder *Builder
	routing string
	err     error
}

// Section groups the node under a heading.
func (n *NodeBuilder) Section(name string) *NodeBuilder {
	n.record.Section = name
	return n
}

// Question makes the node a choice question (hard step).
func (n *NodeBuilder) Question(prompt string, options ...string) *NodeBuilder {
	n.record.Type = domain.TypeRadio
	n.record.QuestionText = prompt
	n.record.Options = strings.Join(options, "|")
	return n
}

// Info makes the node informational (soft step): shown, no answer needed.
func (n *NodeBuilder) Info(text string) *NodeBuilder {
	n.record.Type = domain.TypeImage
	n.record.QuestionText = text
	return n
}

// Image attaches an image to the node.
func (n *NodeBuilder) Image(url string) *NodeBuilder {
	n.record.ImageURL = url
	return n
}

// Randomizer makes the node a hidden fork (silent step) that picks one of
// targets at random.
func (n *NodeBuilder) Randomizer(targets ...string) *NodeBuilder {
	n.record.Type = domain.TypeRandomizer
	return n.Random(targets...)
}

// When routes answers matching trigger to target. Clauses are evaluated in
// the order they were added.
func (n *NodeBuilder) When(trigger, target string) *NodeBuilder {
	clause := fmt.Sprintf("%s:%s", trigger, target)
	if n.route("conditional") && n.record.BranchLogic != "" {
		n.record.BranchLogic += "|" + clause
	} else {
		n.record.BranchLogic = clause
	}
	return n
}

// Go routes every answer to target.
func (n *NodeBuilder) Go(target string) *NodeBuilder {
	n.route("default")
	n.record.BranchLogic = "default:" + target
	return n
}

// Random picks one of targets uniformly, ignoring the answer.
func (n *NodeBuilder) Random(targets ...string) *NodeBuilder {
	n.route("random")
	n.record.BranchLogic = "random:" + strings.Join(targets, "|")
	return n
}

// Submit ends the survey after this node.
func (n *NodeBuilder) Submit() *NodeBuilder {
	n.route("terminal")
	n.record.BranchLogic = ""
	return n
}

// Add starts the next node, allowing a single chain of calls.
func (n *NodeBuilder) Add(id string) *NodeBuilder {
	return n.builder.Add(id)
}

// route records the routing style and reports whether it was already in use.
func (n *NodeBuilder) route(style string) bool {
	switch n.routing {
	case "":
		n.routing = style
		return false
	case style:
		return true
	default:
		n.err = errRuleConflict
		return false
	}
}
