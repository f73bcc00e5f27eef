package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Lokiragnarock/srm-cia-survey/pkg/adapters/file"
	"github.com/Lokiragnarock/srm-cia-survey/pkg/domain"
	contract "github.com/Lokiragnarock/srm-cia-survey/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var wantRecords = []domain.Record{
	{QID: "q1", Section: "Intro", Type: "radio", QuestionText: "Proceed?", Options: "Yes|No", BranchLogic: "Yes:q3|No:q2"},
	{QID: "q2", Type: "radio", QuestionText: "Pick one", Options: "A|B", BranchLogic: "default:submit"},
	{QID: "q3", Type: "image", QuestionText: "Thanks", ImageURL: "https://example.com/t.png"},
}

var fixtures = map[string]string{
	"survey.json": `[
  {"q_id": "q1", "section": "Intro", "type": "radio", "question_text": "Proceed?", "options": "Yes|No", "branch_logic": "Yes:q3|No:q2"},
  {"q_id": "q2", "type": "radio", "question_text": "Pick one", "options": "A|B", "branch_logic": "default:submit"},
  {"q_id": "q3", "type": "image", "question_text": "Thanks", "image_url": "https://example.com/t.png"}
]`,
	"survey.yaml": `questions:
  - q_id: q1
    section: Intro
    type: radio
    question_text: Proceed?
    options: Yes|No
    branch_logic: Yes:q3|No:q2
  - q_id: q2
    type: radio
    question_text: Pick one
    options: A|B
    branch_logic: "default:submit"
  - q_id: q3
    type: image
    question_text: Thanks
    image_url: https://example.com/t.png
`,
	"survey.csv": `q_id,section,type,question_text,options,image_url,branch_logic,notes
q1,Intro,radio,Proceed?,Yes|No,,Yes:q3|No:q2,first
q2,,radio,Pick one,A|B,,default:submit,
,,,,,,,
q3,,image,Thanks,,https://example.com/t.png,,
`,
	"survey.hcl": `question "q1" {
  section       = "Intro"
  type          = "radio"
  question_text = "Proceed?"
  options       = "Yes|No"
  branch_logic  = "Yes:q3|No:q2"
}

question "q2" {
  type          = "radio"
  question_text = "Pick one"
  options       = "A|B"
  branch_logic  = "default:submit"
}

question "q3" {
  type          = "image"
  question_text = "Thanks"
  image_url     = "https://example.com/t.png"
}
`,
}

func TestLoader_Formats(t *testing.T) {
	dir := t.TempDir()
	for name, content := range fixtures {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
			contract.ConfigLoaderContractTest(t, file.NewLoader(path), wantRecords)
		})
	}
}

func TestLoader_Errors(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	_, err := file.NewLoader(filepath.Join(dir, "survey.toml")).Load(ctx)
	assert.ErrorIs(t, err, file.ErrUnsupportedFormat)

	_, err = file.NewLoader(filepath.Join(dir, "missing.json")).Load(ctx)
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(bad, []byte("id,type\nq1,radio\n"), 0o644))
	_, err = file.NewLoader(bad).Load(ctx)
	assert.ErrorContains(t, err, "q_id")
}

func TestLoader_Watch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "survey.json")
	require.NoError(t, os.WriteFile(path, []byte(fixtures["survey.json"]), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	loader := file.NewLoader(path, file.WithDebounce(20*time.Millisecond))
	changes, err := loader.Watch(ctx)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`[{"q_id":"only"}]`), 0o644))

	select {
	case _, ok := <-changes:
		require.True(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("no change signaled")
	}

	records, err := loader.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.Record{{QID: "only"}}, records)

	cancel()
	for range changes {
		// drain until closed
	}
}

func TestLoader_WatchZeroDebounce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "survey.json")
	require.NoError(t, os.WriteFile(path, []byte(fixtures["survey.json"]), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	changes, err := file.NewLoader(path, file.WithDebounce(0)).Watch(ctx)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`[{"q_id":"only"}]`), 0o644))
	select {
	case <-changes:
	case <-time.After(5 * time.Second):
		t.Fatal("no change signaled")
	}

	cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range changes {
		}
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("watch goroutine did not stop")
	}
}
