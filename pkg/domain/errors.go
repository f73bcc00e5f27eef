package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Configuration errors. They are fatal: an engine is never built from a
// graph that produced one of them.
var (
	// ErrEmptyConfiguration is returned when the configuration has no nodes.
	ErrEmptyConfiguration = errors.New("empty configuration")
	// ErrNodeNotFound is returned when a node id is not part of the graph.
	ErrNodeNotFound = errors.New("node not found")
	// ErrDanglingTarget is returned when a rule targets an unknown node id.
	ErrDanglingTarget = errors.New("dangling branch target")
	// ErrDuplicateNode is returned when two records share a q_id.
	ErrDuplicateNode = errors.New("duplicate node id")
	// ErrMissingNodeID is returned for a record with a blank q_id.
	ErrMissingNodeID = errors.New("missing node id")
	// ErrReservedID is returned when a node claims the submit sentinel as its id.
	ErrReservedID = errors.New("reserved node id")
	// ErrMalformedRule is returned when a branch expression cannot be parsed.
	ErrMalformedRule = errors.New("malformed branch rule")
	// ErrAutoCycle is returned when auto nodes resolve into each other forever.
	ErrAutoCycle = errors.New("auto node cycle")
)

// Navigation errors. They are recoverable; the caller re-prompts or
// ignores the request.
var (
	// ErrMissingAnswer is returned when a node that needs an answer got none.
	ErrMissingAnswer = errors.New("missing answer")
	// ErrInvalidAnswer is returned in strict mode for answers that are not a choice label.
	ErrInvalidAnswer = errors.New("answer is not one of the choices")
	// ErrInvalidTransition is returned when advancing a terminal state.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrNotTerminal is returned when a submission is requested before the end.
	ErrNotTerminal = errors.New("session has not reached submit")
)

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ConfigurationError aggregates every problem found in a survey definition.
type ConfigurationError struct {
	Problems []error
}

// NewConfigurationError wraps problems, returning nil when there are none.
func NewConfigurationError(problems ...error) error {
	if len(problems) == 0 {
		return nil
	}
	return &ConfigurationError{Problems: problems}
}

func (e *ConfigurationError) Error() string {
	if len(e.Problems) == 1 {
		return "invalid survey configuration: " + e.Problems[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "invalid survey configuration (%d problems):", len(e.Problems))
	for _, p := range e.Problems {
		sb.WriteString("\n  - ")
		sb.WriteString(p.Error())
	}
	return sb.String()
}

// Unwrap exposes the individual problems to errors.Is and errors.As.
func (e *ConfigurationError) Unwrap() []error {
	return e.Problems
}

// IsConfigurationError reports whether err is (or wraps) a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
