// Package render provides output formatting for toth commands.
//
// Stable output goes to stdout as `key: value` lines or JSON; warnings go
// to stderr, styled only when stderr is a terminal.
package render

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

var (
	colorWarning = lipgloss.Color("#F59E0B")
	colorDanger  = lipgloss.Color("#FF0055")
	colorOK      = lipgloss.Color("#00FF99")
	colorSubtle  = lipgloss.Color("#64748B")

	warningStyle = lipgloss.NewStyle().Foreground(colorWarning).Bold(true)
	dangerStyle  = lipgloss.NewStyle().Foreground(colorDanger).Bold(true)
	okStyle      = lipgloss.NewStyle().Foreground(colorOK)
	subtleStyle  = lipgloss.NewStyle().Foreground(colorSubtle)
	headerStyle  = lipgloss.NewStyle().Bold(true)
)

// Styler applies terminal styles. A nil or zero Styler is plain.
type Styler struct {
	Color bool
}

// NewStyler returns a Styler that colours output only when w is a terminal
// and NO_COLOR is unset.
func NewStyler(w io.Writer) *Styler {
	return &Styler{Color: IsTerminal(w) && os.Getenv("NO_COLOR") == ""}
}

// PlainStyler returns a Styler that never styles.
func PlainStyler() *Styler {
	return &Styler{}
}

// IsTerminal reports whether w is a terminal file descriptor.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func (s *Styler) apply(style lipgloss.Style, text string) string {
	if s == nil || !s.Color {
		return text
	}
	return style.Render(text)
}

// Warning styles a warning label.
func (s *Styler) Warning(text string) string { return s.apply(warningStyle, text) }

// Danger styles a failure label.
func (s *Styler) Danger(text string) string { return s.apply(dangerStyle, text) }

// OK styles a success label.
func (s *Styler) OK(text string) string { return s.apply(okStyle, text) }

// Subtle styles secondary text.
func (s *Styler) Subtle(text string) string { return s.apply(subtleStyle, text) }

// Header styles a table header.
func (s *Styler) Header(text string) string { return s.apply(headerStyle, text) }
