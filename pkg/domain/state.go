package domain

import (
	"maps"
	"slices"
	"time"
)

// Status reports whether a session still has a question to present.
type Status string

const (
	StatusInProgress Status = "in_progress" // a node is being presented
	StatusTerminal   Status = "terminal"    // the submit sentinel was reached
)

// PathEntry is one recorded step of the path taken.
type PathEntry struct {
	NodeID string `json:"node_id"`
	Answer string `json:"answer"`
}

// String renders the entry the way it appears in the submitted path.
func (p PathEntry) String() string {
	return p.NodeID + ": " + p.Answer
}

// State is the navigation snapshot of one respondent session.
// Engine operations never mutate a State they receive; they return a new one.
type State struct {
	SessionID string `json:"session_id"`

	// CurrentNodeID is the presented node. Empty once Status is terminal.
	CurrentNodeID string `json:"current_node_id"`

	Status Status `json:"status"`

	// Answers grows monotonically. Retreating does not erase answers so a
	// revisited question can be pre-filled.
	Answers map[string]string `json:"answers"`

	// History is the stack of presented node ids left by Advance.
	History []string `json:"history"`

	// Path mirrors History with the recorded answer of each step.
	Path []PathEntry `json:"path"`

	// Position is the number of nodes presented on the current path,
	// counting the current one.
	Position int `json:"position"`

	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewState creates a clean in-progress state positioned at startNodeID.
func NewState(sessionID, startNodeID string) *State {
	now := time.Now().UTC()
	return &State{
		SessionID:     sessionID,
		CurrentNodeID: startNodeID,
		Status:        StatusInProgress,
		Answers:       make(map[string]string),
		History:       []string{},
		Path:          []PathEntry{},
		Position:      1,
		StartedAt:     now,
		UpdatedAt:     now,
	}
}

// IsTerminal reports whether the session reached the submit sentinel.
func (s *State) IsTerminal() bool {
	return s.Status == StatusTerminal
}

// Answer returns the recorded answer for nodeID, if any.
func (s *State) Answer(nodeID string) (string, bool) {
	a, ok := s.Answers[nodeID]
	return a, ok
}

// Snapshot returns a deep copy of the state.
func (s *State) Snapshot() *State {
	if s == nil {
		return nil
	}
	out := *s
	out.Answers = maps.Clone(s.Answers)
	if out.Answers == nil {
		out.Answers = make(map[string]string)
	}
	out.History = slices.Clone(s.History)
	if out.History == nil {
		out.History = []string{}
	}
	out.Path = slices.Clone(s.Path)
	if out.Path == nil {
		out.Path = []PathEntry{}
	}
	return &out
}
