package domain_test

import (
	"testing"

	"github.com/Lokiragnarock/srm-cia-survey/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRule(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want domain.Rule
	}{
		{
			name: "empty is terminal",
			raw:  "",
			want: domain.Rule{Kind: domain.RuleTerminal},
		},
		{
			name: "blank is terminal",
			raw:  "   ",
			want: domain.Rule{Kind: domain.RuleTerminal, Raw: "   "},
		},
		{
			name: "null literal is terminal",
			raw:  "null",
			want: domain.Rule{Kind: domain.RuleTerminal, Raw: "null"},
		},
		{
			name: "default",
			raw:  "default: q2",
			want: domain.Rule{Kind: domain.RuleDefault, Target: "q2", Raw: "default: q2"},
		},
		{
			name: "default can target submit",
			raw:  "default:submit",
			want: domain.Rule{Kind: domain.RuleDefault, Target: "submit", Raw: "default:submit"},
		},
		{
			name: "random",
			raw:  "random:q_a| q_b",
			want: domain.Rule{Kind: domain.RuleRandom, Targets: []string{"q_a", "q_b"}, Raw: "random:q_a| q_b"},
		},
		{
			name: "conditional",
			raw:  "Manager:q_a|Team Lead:q_b",
			want: domain.Rule{Kind: domain.RuleConditional, Raw: "Manager:q_a|Team Lead:q_b", Clauses: []domain.Clause{
				{Trigger: "Manager", Target: "q_a"},
				{Trigger: "Team Lead", Target: "q_b"},
			}},
		},
		{
			name: "conditional skips clauses without colon",
			raw:  "Yes:q2|garbage|No:submit",
			want: domain.Rule{Kind: domain.RuleConditional, Raw: "Yes:q2|garbage|No:submit", Clauses: []domain.Clause{
				{Trigger: "Yes", Target: "q2"},
				{Trigger: "No", Target: "submit"},
			}},
		},
		{
			name: "conditional splits at first colon",
			raw:  "Ratio 1:q9:extra",
			want: domain.Rule{Kind: domain.RuleConditional, Raw: "Ratio 1:q9:extra", Clauses: []domain.Clause{
				{Trigger: "Ratio 1", Target: "q9"},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := domain.ParseRule(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRule_Malformed(t *testing.T) {
	for _, raw := range []string{
		"default:",
		"random:q1||q2",
		"random:",
		"no clauses here",
		"Yes:",
	} {
		t.Run(raw, func(t *testing.T) {
			_, err := domain.ParseRule(raw)
			assert.ErrorIs(t, err, domain.ErrMalformedRule)
		})
	}
}

func TestRule_AllTargets(t *testing.T) {
	assert.Nil(t, domain.MustParseRule("").AllTargets())
	assert.Equal(t, []string{"q2"}, domain.MustParseRule("default:q2").AllTargets())
	assert.Equal(t, []string{"a", "b"}, domain.MustParseRule("random:a|b").AllTargets())
	assert.Equal(t, []string{"x", "submit"}, domain.MustParseRule("Yes:x|No:submit").AllTargets())
}

func TestClause_Matches(t *testing.T) {
	c := domain.Clause{Trigger: "Manager", Target: "q_a"}

	assert.True(t, c.Matches("Manager"))
	assert.True(t, c.Matches("Senior Manager"), "answer contains trigger")
	assert.True(t, c.Matches("Man"), "trigger contains answer")
	assert.False(t, c.Matches("Engineer"))
}
