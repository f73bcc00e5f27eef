package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/Lokiragnarock/srm-cia-survey/internal/presentation/tui"
	"github.com/Lokiragnarock/srm-cia-survey/pkg/domain"
)

// progressWidth is the width of the progress bar in cells.
const progressWidth = 24

// TextHandler implements the standard text-based interface.
type TextHandler struct {
	Reader   *bufio.Reader
	Writer   io.Writer
	Renderer ContentRenderer

	// MaxInputSize bounds an answer in bytes; <= 0 means DefaultMaxAnswerSize.
	MaxInputSize int

	inputChan chan inputResult
	startOnce sync.Once
}

type inputResult struct {
	text string
	err  error
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithTextHandlerRenderer configures the content renderer.
func WithTextHandlerRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Renderer = renderer
	}
}

// WithTextHandlerMaxInput sets the maximum accepted answer size in bytes.
func WithTextHandlerMaxInput(limit int) TextHandlerOption {
	return func(h *TextHandler) {
		h.MaxInputSize = limit
	}
}

// NewTextHandler creates a handler for standard text IO.
func NewTextHandler(r io.Reader, w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{
		Reader: bufio.NewReader(r),
		Writer: w,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *TextHandler) initPump() {
	h.startOnce.Do(func() {
		h.inputChan = make(chan inputResult)
		go h.pump()
	})
}

// pump reads lines in the background so Input can give up on ctx.
func (h *TextHandler) pump() {
	for {
		text, err := h.Reader.ReadString('\n')

		if text != "" {
			h.inputChan <- inputResult{text: text}
		}

		if err != nil {
			if err == io.EOF {
				close(h.inputChan)
				return
			}
			h.inputChan <- inputResult{err: err}
			// Backoff for non-fatal errors to prevent CPU spikes on persistent failure
			time.Sleep(50 * time.Millisecond)
		}
	}
}

// Present prints the section, progress, prompt and the numbered choices.
func (h *TextHandler) Present(ctx context.Context, v *View) error {
	fmt.Fprintln(h.Writer)
	if v.Section != "" {
		fmt.Fprintf(h.Writer, "== %s ==\n", v.Section)
	}
	fmt.Fprintf(h.Writer, "%s  step %d\n", tui.ProgressBar(v.Progress, progressWidth), v.Position)

	if v.Prompt != "" {
		fmt.Fprintln(h.Writer, strings.TrimSpace(h.render(v.Prompt)))
	}
	if v.ImageURL != "" {
		fmt.Fprintf(h.Writer, "[image] %s\n", v.ImageURL)
	}

	for i, c := range v.Choices {
		marker := " "
		if c.Label == v.PreviousAnswer {
			marker = "*"
		}
		fmt.Fprintf(h.Writer, " %s %d) %s\n", marker, i+1, c.Label)
	}

	var hints []string
	if v.Kind == domain.KindInformational {
		hints = append(hints, fmt.Sprintf("Enter to %s", v.NextLabel))
	}
	if v.CanRetreat {
		hints = append(hints, "'back' to go back")
	}
	hints = append(hints, "'quit' to stop")
	fmt.Fprintf(h.Writer, "(%s)\n", strings.Join(hints, ", "))
	return nil
}

func (h *TextHandler) render(s string) string {
	if h.Renderer == nil {
		return s
	}
	if rendered, err := h.Renderer(s); err == nil {
		return rendered
	}
	return s
}

func (h *TextHandler) Input(ctx context.Context) (string, error) {
	h.initPump()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
			fmt.Fprint(h.Writer, "> ")
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case res, ok := <-h.inputChan:
			if !ok {
				return "", io.EOF
			}
			if res.err != nil {
				return "", res.err
			}
			clean, err := CleanAnswer(res.text, h.MaxInputSize)
			if err != nil {
				fmt.Fprintf(h.Writer, "Error: %v. Please try again.\n", err)
				continue
			}
			return clean, nil
		}
	}
}

func (h *TextHandler) SystemOutput(ctx context.Context, msg string) error {
	fmt.Fprintf(h.Writer, "[System] %s\n", msg)
	return nil
}

// Complete prints the recorded path.
func (h *TextHandler) Complete(ctx context.Context, sub *domain.Submission) error {
	fmt.Fprintln(h.Writer)
	fmt.Fprintln(h.Writer, tui.ProgressBar(1, progressWidth))
	fmt.Fprintln(h.Writer, "Thank you! Your responses have been recorded.")
	if path := sub.PathString(); path != "" {
		fmt.Fprintf(h.Writer, "Path: %s\n", path)
	}
	return nil
}
