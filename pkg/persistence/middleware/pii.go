package middleware

import (
	"context"
	"fmt"
	"maps"
	"regexp"

	"github.com/Lokiragnarock/srm-cia-survey/pkg/domain"
	"github.com/Lokiragnarock/srm-cia-survey/pkg/ports"
)

// Mask replaces a sensitive answer.
const Mask = "***"

type piiMiddleware struct {
	next     ports.SubmissionSink
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a sink middleware that masks the answers of
// questions whose id matches one of the patterns, both in the answer map
// and in the recorded path.
func NewPIIMiddleware(patternStrings []string) (SinkMiddleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid mask pattern %q: %w", p, err)
		}
		patterns[i] = re
	}
	return func(next ports.SubmissionSink) ports.SubmissionSink {
		return &piiMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *piiMiddleware) Submit(ctx context.Context, sub *domain.Submission) error {
	// Clone so the caller's submission keeps the real answers.
	cloned := *sub
	cloned.Answers = maps.Clone(sub.Answers)
	cloned.Path = append([]domain.PathEntry(nil), sub.Path...)

	for id := range cloned.Answers {
		if m.sensitive(id) {
			cloned.Answers[id] = Mask
		}
	}
	for i, step := range cloned.Path {
		if m.sensitive(step.NodeID) {
			cloned.Path[i].Answer = Mask
		}
	}
	return m.next.Submit(ctx, &cloned)
}

func (m *piiMiddleware) sensitive(questionID string) bool {
	for _, p := range m.patterns {
		if p.MatchString(questionID) {
			return true
		}
	}
	return false
}
