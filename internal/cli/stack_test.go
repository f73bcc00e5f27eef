package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Lokiragnarock/srm-cia-survey/internal/config"
	"github.com/Lokiragnarock/srm-cia-survey/internal/logging"
	"github.com/Lokiragnarock/srm-cia-survey/pkg/adapters/memory"
	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const surveyYAML = `
- q_id: role
  section: About you
  type: radio
  question_text: What is your role?
  options: Manager|Team Lead
  branch_logic: Manager:email|Team Lead:submit
- q_id: email
  type: text
  question_text: Work email?
  branch_logic: default:submit
`

func testSettings(t *testing.T) config.Settings {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "survey.yaml")
	require.NoError(t, os.WriteFile(path, []byte(surveyYAML), 0o644))

	s := config.Default()
	s.Source = path
	s.StoreDir = filepath.Join(dir, "sessions")
	s.SQLitePath = filepath.Join(dir, "responses.db")
	return s
}

func build(t *testing.T, s config.Settings, opts ...BuildOption) *Stack {
	t.Helper()
	st, err := Build(context.Background(), s, logging.NewNop(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestBuild_Defaults(t *testing.T) {
	st := build(t, testSettings(t))

	assert.Equal(t, "survey.yaml", st.Engine.Name)
	assert.IsType(t, &memory.Store{}, st.Store)
	assert.IsType(t, &memory.Sink{}, st.Sink)
	assert.NotNil(t, st.Responses)
	assert.Nil(t, st.Locker)
	assert.Nil(t, st.Metrics)
}

func TestBuild_InvalidSettings(t *testing.T) {
	s := testSettings(t)
	s.Store = "postgres"
	_, err := Build(context.Background(), s, logging.NewNop())
	assert.ErrorContains(t, err, "unknown store")

	s = testSettings(t)
	s.Source = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = Build(context.Background(), s, logging.NewNop())
	assert.Error(t, err)

	s = testSettings(t)
	s.EncryptionKey = "short"
	_, err = Build(context.Background(), s, logging.NewNop())
	assert.ErrorContains(t, err, "encryption_key")
}

func TestBuild_Backends(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	s := testSettings(t)
	s.Store = config.StoreRedis
	s.Redis.Addr = mr.Addr()
	s.Sink = config.SinkSQLite
	s.EncryptionKey = strings.Repeat("ab", 32)
	s.MaskPatterns = []string{"email"}

	reg := prometheus.NewRegistry()
	st := build(t, s, WithRegisterer(reg))
	require.NotNil(t, st.Locker)
	require.NotNil(t, st.Metrics)

	mgr := st.Manager()
	_, err := mgr.Start(ctx, "s1")
	require.NoError(t, err)

	// Stored state is encrypted.
	raw, err := mr.Get("survey:s1")
	require.NoError(t, err)
	assert.Contains(t, raw, "__encrypted__")
	assert.Equal(t, 1.0, testutil.ToFloat64(st.Metrics.NodeVisits.WithLabelValues("role", "choice")))

	_, err = mgr.Advance(ctx, "s1", "Manager")
	require.NoError(t, err)
	out, err := mgr.Advance(ctx, "s1", "jane@example.com")
	require.NoError(t, err)
	require.NotNil(t, out.Submission)

	rows, err := st.Responses.ListResponses(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Manager", rows[0].Columns["role"])
	assert.Equal(t, "***", rows[0].Columns["email"])
	assert.Equal(t, "role: Manager → email: ***", rows[0].PathTaken)

	count, err := testutil.GatherAndCount(reg, "survey_active_sessions")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Empty(t, mr.Keys())
}

func TestRunSession(t *testing.T) {
	st := build(t, testSettings(t))
	out := &bytes.Buffer{}

	sub, err := RunSession(context.Background(), st, RunOptions{
		SessionID: "cli",
		In:        strings.NewReader("2\n"),
		Out:       out,
	})
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.Equal(t, "role: Team Lead", sub.PathString())
	assert.Contains(t, out.String(), "What is your role?")
	assert.Contains(t, out.String(), "Thank you!")
}

func TestRunSession_ResumeAndFresh(t *testing.T) {
	ctx := context.Background()
	s := testSettings(t)
	s.Store = config.StoreFile
	st := build(t, s)

	sub, err := RunSession(ctx, st, RunOptions{SessionID: "p1", In: strings.NewReader("Manager\nquit\n"), Out: &bytes.Buffer{}})
	require.NoError(t, err)
	assert.Nil(t, sub)

	state, err := st.Store.Load(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "email", state.CurrentNodeID)

	out := &bytes.Buffer{}
	sub, err = RunSession(ctx, st, RunOptions{SessionID: "p1", Fresh: true, In: strings.NewReader("Team Lead\n"), Out: out})
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.Equal(t, "role: Team Lead", sub.PathString())
	assert.NotContains(t, out.String(), "Resuming")
}
