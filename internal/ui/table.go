package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Table is a rounded, row-separated table with centered cells.
type Table struct {
	t          *table.Table
	cellStyles map[[2]int]lipgloss.Style
}

// NewTable creates a table with bold headers in the primary color.
func NewTable(headers ...string) *Table {
	tb := &Table{cellStyles: make(map[[2]int]lipgloss.Style)}
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary).Padding(0, 1).Align(lipgloss.Center)
	cellStyle := lipgloss.NewStyle().Padding(0, 1).Align(lipgloss.Center)

	tb.t = table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(ColorBorder)).
		BorderRow(true).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if s, ok := tb.cellStyles[[2]int{row, col}]; ok {
				return s.Padding(0, 1).Align(lipgloss.Center)
			}
			return cellStyle
		})
	return tb
}

// Row appends a row of cells.
func (tb *Table) Row(cells ...string) *Table {
	tb.t.Row(cells...)
	return tb
}

// StyleCell overrides the style of one data cell (0-based row and column).
func (tb *Table) StyleCell(row, col int, s lipgloss.Style) *Table {
	tb.cellStyles[[2]int{row, col}] = s
	return tb
}

// String renders the table.
func (tb *Table) String() string {
	return tb.t.String()
}

// ─── Panels ──────────────────────────────────────────────────────────────────

// Panel boxes body under a bold title.
func Panel(title, body string, border lipgloss.TerminalColor) string {
	var b strings.Builder
	if title != "" {
		b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(border).Render(title))
		b.WriteString("\n")
	}
	b.WriteString(body)
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1).
		Render(b.String())
}

// Columns lays blocks out left to right, wrapping to a new row whenever the
// next block would exceed width.
func Columns(blocks []string, width int) string {
	const gap = " "
	var (
		rows    []string
		current []string
		used    int
	)
	for _, blk := range blocks {
		w := lipgloss.Width(blk)
		if len(current) > 0 && used+len(gap)+w > width {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, current...))
			current, used = nil, 0
		}
		if len(current) > 0 {
			current = append(current, gap)
			used += len(gap)
		}
		current = append(current, blk)
		used += w
	}
	if len(current) > 0 {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, current...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// Header renders a bold title underlined with dashes.
func Header(title string) string {
	return HeaderStyle.Render(title) + "\n" + strings.Repeat("-", lipgloss.Width(title))
}
