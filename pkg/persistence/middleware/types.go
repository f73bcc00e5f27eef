package middleware

import "github.com/Lokiragnarock/srm-cia-survey/pkg/ports"

// Middleware allows wrapping a StateStore to add behavior.
type Middleware func(ports.StateStore) ports.StateStore

// SinkMiddleware allows wrapping a SubmissionSink to add behavior.
type SinkMiddleware func(ports.SubmissionSink) ports.SubmissionSink
