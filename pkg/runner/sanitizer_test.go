package runner

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanAnswer_SizeLimit(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		limit   int
		wantErr bool
	}{
		{"under default", DefaultMaxAnswerSize - 1, 0, false},
		{"exact default", DefaultMaxAnswerSize, 0, false},
		{"over default", DefaultMaxAnswerSize + 1, 0, true},
		{"over explicit", 6, 5, true},
		{"explicit above default", DefaultMaxAnswerSize + 1, 2 * DefaultMaxAnswerSize, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CleanAnswer(strings.Repeat("a", tt.size), tt.limit)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrAnswerTooLarge)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCleanAnswer_Normalizes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "Team Lead", "Team Lead"},
		{"line breaks fold", "Line1\r\nLine2\tTabbed", "Line1 Line2 Tabbed"},
		{"runs collapse", "  Team    Lead  ", "Team Lead"},
		{"ansi escape", "\x1b[31mRed\x1b[0m", "[31mRed[0m"},
		{"null and bell", "Null\x00Byte\x07", "NullByte"},
		{"zero width", "Man\u200bager", "Manager"},
		{"bom", "\ufeffYes", "Yes"},
		{"only whitespace", " \n\t ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CleanAnswer(tt.input, 64)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCleanAnswer_InvalidUTF8(t *testing.T) {
	_, err := CleanAnswer("Hello\xffWorld", 0)
	assert.ErrorIs(t, err, ErrInvalidUTF8)
}
