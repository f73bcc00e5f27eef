package domain

import (
	"strings"
	"time"
)

// PathSeparator joins path entries in a submitted path string.
const PathSeparator = " → "

// Submission is the final response set handed to a SubmissionSink.
type Submission struct {
	Timestamp time.Time         `json:"timestamp"`
	SessionID string            `json:"session_id,omitempty"`
	Answers   map[string]string `json:"responses"`
	Path      []PathEntry       `json:"path"`
}

// PathString formats the path as "id: answer" entries joined by PathSeparator.
func (s *Submission) PathString() string {
	parts := make([]string, len(s.Path))
	for i, p := range s.Path {
		parts[i] = p.String()
	}
	return strings.Join(parts, PathSeparator)
}

// ResponseRow is one stored response as read back from a sink.
// Columns holds one value per question id, empty when not answered.
type ResponseRow struct {
	Timestamp time.Time         `json:"timestamp"`
	SessionID string            `json:"session_id,omitempty"`
	Columns   map[string]string `json:"columns"`
	PathTaken string            `json:"path_taken"`
}

// Row flattens a submission into a ResponseRow keyed by the given
// question ids. Answers for ids outside questionIDs are dropped.
func (s *Submission) Row(questionIDs []string) ResponseRow {
	cols := make(map[string]string, len(questionIDs))
	for _, id := range questionIDs {
		cols[id] = s.Answers[id]
	}
	return ResponseRow{
		Timestamp: s.Timestamp,
		SessionID: s.SessionID,
		Columns:   cols,
		PathTaken: s.PathString(),
	}
}
