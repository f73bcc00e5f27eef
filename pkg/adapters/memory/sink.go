package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/Lokiragnarock/srm-cia-survey/pkg/domain"
)

// Sink implements ports.SubmissionSink and ports.ResponseReader in memory.
// Safe for concurrent use.
type Sink struct {
	mu          sync.RWMutex
	submissions []*domain.Submission
	questionIDs []string
}

// NewSink creates an empty sink. questionIDs fixes the response columns;
// when empty, columns are the union of answered ids in first-seen order.
func NewSink(questionIDs ...string) *Sink {
	return &Sink{questionIDs: questionIDs}
}

// Submit stores a copy of sub.
func (s *Sink) Submit(ctx context.Context, sub *domain.Submission) error {
	cp := *sub
	cp.Answers = maps.Clone(sub.Answers)
	cp.Path = slices.Clone(sub.Path)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.submissions = append(s.submissions, &cp)
	return nil
}

// Submissions returns the stored submissions in arrival order.
func (s *Sink) Submissions() []*domain.Submission {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.submissions)
}

// ListResponses flattens the stored submissions into response rows.
func (s *Sink) ListResponses(ctx context.Context) ([]domain.ResponseRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	columns := s.questionIDs
	if len(columns) == 0 {
		columns = answeredIDs(s.submissions)
	}
	rows := make([]domain.ResponseRow, 0, len(s.submissions))
	for _, sub := range s.submissions {
		rows = append(rows, sub.Row(columns))
	}
	return rows, nil
}

// answeredIDs collects question ids from paths in first-seen order.
func answeredIDs(subs []*domain.Submission) []string {
	seen := map[string]bool{}
	var ids []string
	for _, sub := range subs {
		for _, p := range sub.Path {
			if !seen[p.NodeID] {
				seen[p.NodeID] = true
				ids = append(ids, p.NodeID)
			}
		}
	}
	return ids
}
