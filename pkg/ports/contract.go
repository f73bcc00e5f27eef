package ports

import (
	"context"
	"testing"
	"time"

	"github.com/Lokiragnarock/srm-cia-survey/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStateStoreContract runs a suite of tests to verify that a StateStore implementation
// adheres to the defined interface contract.
func RunStateStoreContract(t *testing.T, store StateStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		state := domain.NewState(sessionID, "q2")
		state.Answers["q1"] = "Manager"
		state.History = append(state.History, "q1")
		state.Path = append(state.Path, domain.PathEntry{NodeID: "q1", Answer: "Manager"})
		state.Position = 2

		err := store.Save(ctx, sessionID, state)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, state.CurrentNodeID, loaded.CurrentNodeID)
		assert.Equal(t, state.Status, loaded.Status)
		assert.Equal(t, "Manager", loaded.Answers["q1"])
		assert.Equal(t, state.History, loaded.History)
		assert.Equal(t, state.Path, loaded.Path)
		assert.Equal(t, 2, loaded.Position)
		assert.True(t, state.StartedAt.Equal(loaded.StartedAt), "timestamps survive persistence")
	})

	t.Run("Load Is Isolated From Saved Value", func(t *testing.T) {
		state := domain.NewState(sessionID+"-iso", "q1")
		require.NoError(t, store.Save(ctx, state.SessionID, state))
		defer func() { _ = store.Delete(ctx, state.SessionID) }()

		state.Answers["late"] = "mutation"

		loaded, err := store.Load(ctx, state.SessionID)
		require.NoError(t, err)
		assert.NotContains(t, loaded.Answers, "late")
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, sessionID, domain.NewState(sessionID, "q1"))
		require.NoError(t, err)

		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")

		assert.NoError(t, store.Delete(ctx, sessionID), "Delete is idempotent")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, domain.NewState(id1, "q1"))
		_ = store.Save(ctx, id2, domain.NewState(id2, "q1"))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}

// RunSubmissionStoreContract verifies a sink that can read its submissions back.
// The store must be empty when the suite starts.
func RunSubmissionStoreContract(t *testing.T, store SubmissionStore) {
	ctx := context.Background()
	ts := time.Date(2025, 5, 4, 10, 30, 0, 0, time.UTC)

	first := &domain.Submission{
		Timestamp: ts,
		SessionID: "s1",
		Answers:   map[string]string{"q1": "Yes", "q3": "VIEWED"},
		Path:      []domain.PathEntry{{NodeID: "q1", Answer: "Yes"}, {NodeID: "q3", Answer: "VIEWED"}},
	}
	second := &domain.Submission{
		Timestamp: ts.Add(time.Minute),
		SessionID: "s2",
		Answers:   map[string]string{"q1": "No", "q2": "B"},
		Path:      []domain.PathEntry{{NodeID: "q1", Answer: "No"}, {NodeID: "q2", Answer: "B"}},
	}

	require.NoError(t, store.Submit(ctx, first))
	require.NoError(t, store.Submit(ctx, second))

	rows, err := store.ListResponses(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.True(t, ts.Equal(rows[0].Timestamp))
	assert.Equal(t, "s1", rows[0].SessionID)
	assert.Equal(t, "Yes", rows[0].Columns["q1"])
	assert.Equal(t, "VIEWED", rows[0].Columns["q3"])
	assert.Equal(t, "", rows[0].Columns["q2"], "unanswered questions are empty columns")
	assert.Equal(t, "q1: Yes → q3: VIEWED", rows[0].PathTaken)

	assert.Equal(t, "B", rows[1].Columns["q2"])
	assert.Equal(t, "", rows[1].Columns["q3"])
}
