package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/Lokiragnarock/srm-cia-survey/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_SnapshotIsDeep(t *testing.T) {
	s := domain.NewState("s1", "q1")
	s.Answers["q1"] = "Yes"
	s.History = append(s.History, "q1")
	s.Path = append(s.Path, domain.PathEntry{NodeID: "q1", Answer: "Yes"})

	cp := s.Snapshot()
	cp.Answers["q1"] = "No"
	cp.History[0] = "zz"
	cp.Path[0].Answer = "No"

	assert.Equal(t, "Yes", s.Answers["q1"])
	assert.Equal(t, "q1", s.History[0])
	assert.Equal(t, "Yes", s.Path[0].Answer)
}

func TestState_NewState(t *testing.T) {
	s := domain.NewState("s1", "q1")
	assert.Equal(t, domain.StatusInProgress, s.Status)
	assert.False(t, s.IsTerminal())
	assert.Equal(t, 1, s.Position)
	assert.Empty(t, s.History)
	assert.NotNil(t, s.Answers)
}

func TestSubmission_PathString(t *testing.T) {
	sub := &domain.Submission{
		Timestamp: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		Answers:   map[string]string{"q1": "Manager", "q3": "VIEWED"},
		Path: []domain.PathEntry{
			{NodeID: "q1", Answer: "Manager"},
			{NodeID: "q3", Answer: "VIEWED"},
		},
	}
	assert.Equal(t, "q1: Manager → q3: VIEWED", sub.PathString())

	row := sub.Row([]string{"q1", "q2", "q3"})
	assert.Equal(t, map[string]string{"q1": "Manager", "q2": "", "q3": "VIEWED"}, row.Columns)
	assert.Equal(t, sub.PathString(), row.PathTaken)
}

func TestGraph_Lookup(t *testing.T) {
	g := domain.NewGraph([]*domain.QuestionNode{{ID: "a"}, {ID: "b"}})

	first, err := g.First()
	require.NoError(t, err)
	assert.Equal(t, "a", first.ID)
	assert.Equal(t, 2, g.Len())
	assert.Equal(t, []string{"a", "b"}, g.IDs())

	_, err = g.Lookup("zz")
	assert.ErrorIs(t, err, domain.ErrNodeNotFound)
	assert.True(t, domain.IsConfigurationError(err))

	_, err = domain.NewGraph(nil).First()
	assert.ErrorIs(t, err, domain.ErrEmptyConfiguration)
}

func TestConfigurationError_Aggregates(t *testing.T) {
	err := domain.NewConfigurationError(
		errors.Join(domain.ErrDuplicateNode),
		domain.ErrMalformedRule,
	)
	assert.ErrorIs(t, err, domain.ErrDuplicateNode)
	assert.ErrorIs(t, err, domain.ErrMalformedRule)
	assert.Contains(t, err.Error(), "2 problems")
	assert.NoError(t, domain.NewConfigurationError())
}

func TestRecord_OptionLabels(t *testing.T) {
	r := domain.Record{Options: " Yes | | No "}
	assert.Equal(t, []string{"Yes", "No"}, r.OptionLabels())
	assert.Nil(t, domain.Record{Options: "null"}.OptionLabels())
}
