package runner

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxAnswerSize bounds an answer in bytes when no limit is configured.
const DefaultMaxAnswerSize = 4096

var (
	ErrAnswerTooLarge = errors.New("answer exceeds maximum allowed size")
	ErrInvalidUTF8    = errors.New("answer contains invalid UTF-8 sequences")
)

// CleanAnswer prepares respondent input for the engine and the response
// sheet, where every answer is a single cell.
//
// Line breaks, tabs and other whitespace fold into single spaces and the
// ends are trimmed. Control characters (ESC, NUL, BEL) and invisible
// format characters (zero-width space, BOM) are dropped, so a pasted
// label with a hidden character still matches its trigger.
//
// Answers longer than limit bytes are rejected, never truncated: a cut
// answer could match another clause. A limit <= 0 means
// DefaultMaxAnswerSize.
func CleanAnswer(input string, limit int) (string, error) {
	if limit <= 0 {
		limit = DefaultMaxAnswerSize
	}
	if len(input) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrAnswerTooLarge, len(input), limit)
	}
	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}

	var b strings.Builder
	b.Grow(len(input))
	pending := false
	for _, r := range input {
		switch {
		case unicode.IsSpace(r):
			pending = b.Len() > 0
			continue
		case unicode.IsControl(r), unicode.Is(unicode.Cf, r):
			continue
		}
		if pending {
			b.WriteByte(' ')
			pending = false
		}
		b.WriteRune(r)
	}
	return b.String(), nil
}
