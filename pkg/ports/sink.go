package ports

import (
	"context"

	"github.com/Lokiragnarock/srm-cia-survey/pkg/domain"
)

// SubmissionSink receives the response set of every completed session.
type SubmissionSink interface {
	Submit(ctx context.Context, sub *domain.Submission) error
}

// ResponseReader reads stored responses back, oldest first.
type ResponseReader interface {
	ListResponses(ctx context.Context) ([]domain.ResponseRow, error)
}

// SubmissionStore is a sink that can also be read back.
type SubmissionStore interface {
	SubmissionSink
	ResponseReader
}
