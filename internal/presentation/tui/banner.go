package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the survey banner with a title line.
func PrintBanner(w io.Writer, title string) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"  ___ _   _ _ ____   _______   __", "#818cf8"},
		{" / __| | | | '__\\ \\ / / _ \\ \\ / /", "#a78bfa"},
		{" \\__ \\ |_| | |   \\ V /  __/\\ V / ", "#c084fc"},
		{" |___/\\__,_|_|    \\_/ \\___| \\_/  ", "#e879f9"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	if title != "" {
		fmt.Fprintln(w, termenv.String(" "+title).Bold().Foreground(p.Color("#f472b6")))
	}
	fmt.Fprintln(w)
}

// ProgressBar draws a fixed width bar for a fraction between 0 and 1.
func ProgressBar(fraction float64, width int) string {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	filled := int(fraction*float64(width) + 0.5)
	p := termenv.ColorProfile()
	bar := termenv.String(repeat('█', filled)).Foreground(p.Color("#a78bfa")).String() +
		termenv.String(repeat('░', width-filled)).Faint().String()
	return fmt.Sprintf("%s %3.0f%%", bar, fraction*100)
}

func repeat(r rune, n int) string {
	out := make([]rune, n)
	for i := range out {
		out[i] = r
	}
	return string(out)
}
