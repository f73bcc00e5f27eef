package compiler_test

import (
	"testing"

	"github.com/Lokiragnarock/srm-cia-survey/internal/compiler"
	"github.com/Lokiragnarock/srm-cia-survey/pkg/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile_MapsRecords(t *testing.T) {
	graph, err := compiler.Compile([]domain.Record{
		{QID: "q1", Section: "Role", Type: "radio", QuestionText: "Your role?", Options: "Manager | Team Lead", BranchLogic: "Manager:q_a|Team Lead:q_b"},
		{QID: "q_a", Type: "image", QuestionText: "Look", ImageURL: "https://example.com/a.png", BranchLogic: "default:rnd"},
		{QID: "q_b", Type: "radio", QuestionText: "Team size?", Options: "1-5|6+", ImageURL: "null"},
		{QID: "rnd", Type: "randomizer", Options: "ignored", BranchLogic: "random:q_b|submit"},
	})
	require.NoError(t, err)

	want := []*domain.QuestionNode{
		{
			ID: "q1", Kind: domain.KindChoice, Section: "Role", Prompt: "Your role?",
			ChoiceLabels: []string{"Manager", "Team Lead"},
			RawRule:      "Manager:q_a|Team Lead:q_b",
			Rule:         domain.MustParseRule("Manager:q_a|Team Lead:q_b"),
		},
		{
			ID: "q_a", Kind: domain.KindInformational, Prompt: "Look",
			ImageURL: "https://example.com/a.png",
			RawRule:  "default:rnd",
			Rule:     domain.MustParseRule("default:rnd"),
		},
		{
			ID: "q_b", Kind: domain.KindChoice, Prompt: "Team size?",
			ChoiceLabels: []string{"1-5", "6+"},
			Rule:         domain.Rule{Kind: domain.RuleTerminal},
		},
		{
			ID: "rnd", Kind: domain.KindAuto,
			RawRule: "random:q_b|submit",
			Rule:    domain.MustParseRule("random:q_b|submit"),
		},
	}
	if diff := cmp.Diff(want, graph.Nodes()); diff != "" {
		t.Errorf("Compile() mismatch (-want +got):\n%s", diff)
	}
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		records []domain.Record
		wantErr []error
	}{
		{
			name:    "empty",
			records: nil,
			wantErr: []error{domain.ErrEmptyConfiguration},
		},
		{
			name: "duplicate and dangling reported together",
			records: []domain.Record{
				{QID: "q1", BranchLogic: "default:ghost"},
				{QID: "q1"},
			},
			wantErr: []error{domain.ErrDuplicateNode, domain.ErrDanglingTarget},
		},
		{
			name: "malformed rule",
			records: []domain.Record{
				{QID: "q1", BranchLogic: "random:a||b"},
			},
			wantErr: []error{domain.ErrMalformedRule},
		},
		{
			name: "blank id and reserved id",
			records: []domain.Record{
				{QID: "  "},
				{QID: "submit"},
			},
			wantErr: []error{domain.ErrMissingNodeID, domain.ErrReservedID},
		},
		{
			name: "auto default cycle",
			records: []domain.Record{
				{QID: "q1", Type: "radio", Options: "Go", BranchLogic: "default:r1"},
				{QID: "r1", Type: "randomizer", BranchLogic: "default:r2"},
				{QID: "r2", Type: "randomizer", BranchLogic: "default:r1"},
			},
			wantErr: []error{domain.ErrAutoCycle},
		},
		{
			name: "auto random cycle without exit",
			records: []domain.Record{
				{QID: "r1", Type: "randomizer", BranchLogic: "random:r2"},
				{QID: "r2", Type: "randomizer", BranchLogic: "random:r1|r2"},
			},
			wantErr: []error{domain.ErrAutoCycle},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compiler.Compile(tt.records)
			require.Error(t, err)
			assert.True(t, domain.IsConfigurationError(err))
			for _, want := range tt.wantErr {
				assert.ErrorIs(t, err, want)
			}
		})
	}
}

func TestDecodeRecords_WeakTyping(t *testing.T) {
	recs, err := compiler.DecodeRecords([]map[string]any{
		{"q_id": 7, "type": "radio", "question_text": "Score?", "options": "1|2", "branch_logic": nil},
		{"q_id": "q8", "section": true, "extra_column": "ignored"},
	})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "7", recs[0].QID)
	assert.Equal(t, "", recs[0].BranchLogic)
	assert.Equal(t, "1", recs[1].Section)
}

func TestCompile_EscapableAutoLoop(t *testing.T) {
	// The random rule can always leave the loop, so the graph is valid.
	g, err := compiler.Compile([]domain.Record{
		{QID: "r", Type: "randomizer", BranchLogic: "random:r|q1"},
		{QID: "q1", Type: "radio", Options: "Yes"},
	})
	require.NoError(t, err)
	assert.Empty(t, g.AutoTraps())
}
