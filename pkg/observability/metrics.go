package observability

import (
	"context"

	"github.com/Lokiragnarock/srm-cia-survey/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric name.
const Namespace = "survey"

// Metrics holds the Prometheus collectors fed by engine lifecycle hooks.
type Metrics struct {
	NodeVisits        *prometheus.CounterVec
	Answers           *prometheus.CounterVec
	Retreats          *prometheus.CounterVec
	UnmatchedBranches *prometheus.CounterVec
	Submissions       prometheus.Counter
	PathLength        prometheus.Histogram

	reg prometheus.Registerer
}

// NewMetrics creates the collectors and registers them on reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		NodeVisits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "node_visits_total",
			Help:      "Total number of times a node was presented.",
		}, []string{"node_id", "kind"}),
		Answers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "answers_total",
			Help:      "Total number of answers recorded per node.",
		}, []string{"node_id"}),
		Retreats: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "retreats_total",
			Help:      "Total number of times a respondent went back from a node.",
		}, []string{"node_id"}),
		UnmatchedBranches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "unmatched_branches_total",
			Help:      "Conditional rules that matched no clause and fell through to submit.",
		}, []string{"node_id"}),
		Submissions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "submissions_total",
			Help:      "Total number of completed sessions.",
		}),
		PathLength: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "path_length_steps",
			Help:      "Number of recorded steps per completed session.",
			Buckets:   prometheus.LinearBuckets(1, 2, 10),
		}),
		reg: reg,
	}

	for _, c := range []prometheus.Collector{
		m.NodeVisits, m.Answers, m.Retreats, m.UnmatchedBranches, m.Submissions, m.PathLength,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// TrackActiveSessions registers a gauge that calls count on every scrape.
func (m *Metrics) TrackActiveSessions(count func() float64) error {
	return m.reg.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "active_sessions",
		Help:      "Sessions currently held by the state store.",
	}, count))
}

// Hooks returns lifecycle hooks that update the collectors.
// A leave event without an answer is a retreat.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(_ context.Context, e *domain.NodeEvent) {
			m.NodeVisits.WithLabelValues(e.NodeID, e.Kind.String()).Inc()
		},
		OnNodeLeave: func(_ context.Context, e *domain.NodeEvent) {
			if e.Answer == "" {
				m.Retreats.WithLabelValues(e.NodeID).Inc()
				return
			}
			m.Answers.WithLabelValues(e.NodeID).Inc()
		},
		OnUnmatchedBranch: func(_ context.Context, e *domain.BranchEvent) {
			m.UnmatchedBranches.WithLabelValues(e.NodeID).Inc()
		},
		OnSubmit: func(_ context.Context, e *domain.SubmitEvent) {
			m.Submissions.Inc()
			m.PathLength.Observe(float64(e.Steps))
		},
	}
}
