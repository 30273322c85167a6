package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
)

// Renderer turns markdown into terminal output.
type Renderer func(markdown string) (string, error)

// NewRenderer returns a Renderer backed by glamour. Styles follow the terminal
// background; when the renderer cannot be built the markdown is returned as is.
func NewRenderer() Renderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return PlainRenderer
	}
	return r.Render
}

// PlainRenderer returns the markdown unchanged.
func PlainRenderer(markdown string) (string, error) {
	return markdown, nil
}

// Styles colors short status lines.
type Styles struct {
	out *termenv.Output
}

// NewStyles detects the color profile of w.
func NewStyles(w io.Writer) Styles {
	return Styles{out: termenv.NewOutput(w)}
}

// OK renders a success line.
func (s Styles) OK(format string, args ...any) string {
	return s.out.String("✔ " + fmt.Sprintf(format, args...)).Foreground(s.out.Color("#34d399")).String()
}

// Fail renders an error line.
func (s Styles) Fail(format string, args ...any) string {
	return s.out.String("✘ " + fmt.Sprintf(format, args...)).Foreground(s.out.Color("#fb7185")).String()
}

// Hint renders a secondary line.
func (s Styles) Hint(format string, args ...any) string {
	return s.out.String(fmt.Sprintf(format, args...)).Faint().String()
}

// Prompt renders an input label.
func (s Styles) Prompt(label string) string {
	return s.out.String(strings.TrimSpace(label) + " ").Bold().String()
}
