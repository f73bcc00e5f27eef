package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Lokiragnarock/srm-cia-survey/pkg/adapters/sqlite"
	"github.com/Lokiragnarock/srm-cia-survey/pkg/domain"
	"github.com/Lokiragnarock/srm-cia-survey/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSink(t *testing.T, opts ...sqlite.Option) *sqlite.Sink {
	t.Helper()
	sink, err := sqlite.Open(filepath.Join(t.TempDir(), "responses.db"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sink.Close() })
	return sink
}

func TestSink_Contract(t *testing.T) {
	ports.RunSubmissionStoreContract(t, openSink(t, sqlite.WithQuestionIDs([]string{"q1", "q2", "q3"})))
}

func TestSink_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "responses.db")
	ctx := context.Background()

	sink, err := sqlite.Open(path)
	require.NoError(t, err)
	require.NoError(t, sink.Submit(ctx, &domain.Submission{
		Timestamp: time.Now(),
		SessionID: "s1",
		Answers:   map[string]string{"q1": "Yes"},
		Path:      []domain.PathEntry{{NodeID: "q1", Answer: "Yes"}},
	}))
	require.NoError(t, sink.Close())

	reopened, err := sqlite.Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	n, err := reopened.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	rows, err := reopened.ListResponses(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, map[string]string{"q1": "Yes"}, rows[0].Columns)
	assert.Equal(t, "q1: Yes", rows[0].PathTaken)
}
