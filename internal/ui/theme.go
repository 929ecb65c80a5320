// Package ui holds the shared terminal palette and the table and panel
// primitives every Surge view is built from.
package ui

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// ─── Palette ─────────────────────────────────────────────────────────────────

var (
	ColorPrimary   = lipgloss.AdaptiveColor{Light: "#0891b2", Dark: "#22d3ee"}
	ColorSecondary = lipgloss.AdaptiveColor{Light: "#7c3aed", Dark: "#a78bfa"}
	ColorSuccess   = lipgloss.AdaptiveColor{Light: "#16a34a", Dark: "#4ade80"}
	ColorWarning   = lipgloss.AdaptiveColor{Light: "#ca8a04", Dark: "#facc15"}
	ColorError     = lipgloss.AdaptiveColor{Light: "#dc2626", Dark: "#f87171"}
	ColorMuted     = lipgloss.AdaptiveColor{Light: "#6b7280", Dark: "#6b7280"}
	ColorBorder    = lipgloss.AdaptiveColor{Light: "#9ca3af", Dark: "#5f5f5f"}
)

// ─── Icons ───────────────────────────────────────────────────────────────────

const (
	IconPipe    = "│"
	IconError   = "✗"
	IconSuccess = "✓"
)

// ─── Styles ──────────────────────────────────────────────────────────────────

var (
	TitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	HeaderStyle  = lipgloss.NewStyle().Bold(true)
	MutedStyle   = lipgloss.NewStyle().Foreground(ColorMuted)
	WarnStyle    = lipgloss.NewStyle().Foreground(ColorWarning)
	ErrorStyle   = lipgloss.NewStyle().Foreground(ColorError)
	SuccessStyle = lipgloss.NewStyle().Foreground(ColorSuccess)
)

// ─── Terminal detection ─────────────────────────────────────────────────────

// DefaultWidth is used when the output is not a terminal.
const DefaultWidth = 120

// IsTerminal reports whether w is attached to a TTY.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Width returns the terminal width of w, or DefaultWidth.
func Width(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok {
		return DefaultWidth
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return DefaultWidth
	}
	return width
}

// ConfigureColor selects the color profile for everything rendered through
// lipgloss. disable always wins; force enables color on pipes; otherwise
// color is used only on terminals.
func ConfigureColor(w io.Writer, force, disable bool) {
	switch {
	case disable:
		lipgloss.SetColorProfile(termenv.Ascii)
	case force:
		lipgloss.SetColorProfile(termenv.ANSI256)
	case !IsTerminal(w):
		lipgloss.SetColorProfile(termenv.Ascii)
	default:
		lipgloss.SetColorProfile(termenv.NewOutput(w).EnvColorProfile())
	}
}
