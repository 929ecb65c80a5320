package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	clrGreen  = ColorSuccess
	clrYellow = ColorWarning
	clrOrange = lipgloss.AdaptiveColor{Light: "#ea580c", Dark: "#fb923c"}
	clrRed    = ColorError
)

var sparkBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// SeverityColor maps a 0-100 utilisation to green, yellow, orange or red.
func SeverityColor(pct float64) lipgloss.TerminalColor {
	switch {
	case pct >= 90:
		return clrRed
	case pct >= 75:
		return clrOrange
	case pct >= 50:
		return clrYellow
	default:
		return clrGreen
	}
}

// Bar renders a ████░░░░ bar colored by severity.
func Bar(pct float64, width int) string {
	if width <= 0 {
		return ""
	}
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := int(pct / 100 * float64(width))
	if filled > width {
		filled = width
	}

	f := lipgloss.NewStyle().Foreground(SeverityColor(pct)).Render(strings.Repeat("█", filled))
	e := lipgloss.NewStyle().Foreground(ColorMuted).Render(strings.Repeat("░", width-filled))
	return f + e
}

// Sparkline renders the last width values of data scaled to the largest
// value, padded on the right with the lowest block.
func Sparkline(data []float64, width int) string {
	return lipgloss.NewStyle().Foreground(ColorPrimary).Render(SparklinePlain(data, width))
}

// SparklinePlain is Sparkline without styling.
func SparklinePlain(data []float64, width int) string {
	if width <= 0 {
		return ""
	}
	d := data
	if len(d) > width {
		d = d[len(d)-width:]
	}
	var maxVal float64
	for _, v := range d {
		if v > maxVal {
			maxVal = v
		}
	}
	if maxVal == 0 {
		maxVal = 1
	}

	top := len(sparkBlocks) - 1
	var b strings.Builder
	for _, v := range d {
		idx := int(v / maxVal * float64(top))
		if idx > top {
			idx = top
		}
		if idx < 0 {
			idx = 0
		}
		b.WriteRune(sparkBlocks[idx])
	}
	for i := len(d); i < width; i++ {
		b.WriteRune(sparkBlocks[0])
	}
	return b.String()
}
