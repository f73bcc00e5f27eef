package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const surveyJSON = `[
  {"q_id": "q1", "type": "radio", "question_text": "Proceed?", "options": "Yes|No", "branch_logic": "Yes:q2|No:submit"},
  {"q_id": "q2", "type": "image", "question_text": "Thanks for looking", "branch_logic": "default:submit"},
  {"q_id": "parked", "type": "radio", "question_text": "Unused", "options": "A|B", "branch_logic": "default:submit"}
]`

func writeSurvey(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "survey.json")
	require.NoError(t, os.WriteFile(path, []byte(surveyJSON), 0o644))
	return path
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "survey version "))
}

func TestValidateCommand(t *testing.T) {
	out, err := execute(t, "", "validate", "--config", writeSurvey(t))
	require.NoError(t, err)
	assert.Contains(t, out, "[warning] parked")
	assert.Contains(t, out, "Survey is valid! ✅ (3 questions, 1 warnings)")
}

func TestValidateCommand_Broken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- q_id: q1\n  branch_logic: default:nowhere\n"), 0o644))

	_, err := execute(t, "", "validate", "--config", path)
	assert.ErrorContains(t, err, "validation failed")
}

func TestGraphCommand(t *testing.T) {
	out, err := execute(t, "", "graph", "--config", writeSurvey(t))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "graph TD"))
	assert.Contains(t, out, "q1")
	assert.Contains(t, out, "submit")
}

func TestRunAndResponsesCommands(t *testing.T) {
	path := writeSurvey(t)
	dir := t.TempDir()
	t.Setenv("SURVEY_SINK", "sqlite")
	t.Setenv("SURVEY_SQLITE_PATH", filepath.Join(dir, "responses.db"))

	out, err := execute(t, "1\n\n", "run", "--config", path, "--headless")
	require.NoError(t, err)
	assert.Contains(t, out, "Proceed?")
	assert.Contains(t, out, "Thank you!")

	out, err = execute(t, "", "responses", "--config", path, "--format", "csv")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Timestamp,q1,q2,parked,Path_Taken", lines[0])
	assert.True(t, strings.HasSuffix(lines[1], ",Yes,VIEWED,,q1: Yes → q2: VIEWED"), lines[1])
}

func TestMissingConfig(t *testing.T) {
	t.Setenv("SURVEY_SOURCE", "")
	_, err := execute(t, "", "graph", "--config", "")
	assert.ErrorContains(t, err, "no survey definition")
}
