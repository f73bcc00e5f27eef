package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/Lokiragnarock/srm-cia-survey/pkg/domain"
)

// Message types emitted by JSONHandler.
const (
	MessagePrompt   = "prompt"
	MessageSystem   = "system"
	MessageComplete = "complete"
)

// Message is one JSON line written by JSONHandler.
type Message struct {
	Type       string             `json:"type"`
	View       *View              `json:"view,omitempty"`
	Text       string             `json:"text,omitempty"`
	Submission *domain.Submission `json:"submission,omitempty"`
}

// JSONHandler implements the IOHandler interface for structured JSON-Lines communication.
type JSONHandler struct {
	Reader  *bufio.Reader
	Writer  io.Writer
	Encoder *json.Encoder

	// MaxInputSize bounds an answer in bytes; <= 0 means DefaultMaxAnswerSize.
	MaxInputSize int
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Reader:  bufio.NewReader(r),
		Writer:  w,
		Encoder: json.NewEncoder(w),
	}
}

func (h *JSONHandler) Present(ctx context.Context, v *View) error {
	return h.Encoder.Encode(Message{Type: MessagePrompt, View: v})
}

// Input reads one line. A JSON string is unquoted; anything else is taken
// as plain text.
func (h *JSONHandler) Input(ctx context.Context) (string, error) {
	text, err := h.Reader.ReadString('\n')
	if err != nil && (err != io.EOF || text == "") {
		return "", err
	}
	text = strings.TrimSpace(text)

	var val string
	if err := json.Unmarshal([]byte(text), &val); err == nil {
		text = val
	}
	return CleanAnswer(text, h.MaxInputSize)
}

func (h *JSONHandler) SystemOutput(ctx context.Context, msg string) error {
	return h.Encoder.Encode(Message{Type: MessageSystem, Text: msg})
}

func (h *JSONHandler) Complete(ctx context.Context, sub *domain.Submission) error {
	return h.Encoder.Encode(Message{Type: MessageComplete, Submission: sub})
}
