package status

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/surge-devops/surge/internal/collect"
	"github.com/surge-devops/surge/internal/core"
	"github.com/surge-devops/surge/internal/ui"
)

// ─── Top-level renderer ─────────────────────────────────────────────────────

func (m Model) renderView() string {
	w := m.Width
	if w < 50 {
		w = 50
	}

	var s strings.Builder
	s.WriteString(m.renderTabs(w))
	s.WriteString("\n")

	if m.Snapshot == nil {
		s.WriteString(lipgloss.NewStyle().
			Foreground(ui.ColorMuted).
			Italic(true).
			Render("  " + m.spinner.View() + " Collecting metrics…"))
		if m.Err != nil {
			s.WriteString("\n")
			s.WriteString(m.renderStatusFooter())
		}
		return s.String()
	}

	switch m.Tab {
	case TabOverview:
		s.WriteString(m.renderOverview(w))
	case TabLoad:
		s.WriteString(m.renderLoad())
	case TabCPU:
		s.WriteString(m.renderCPU(w))
	case TabMemory:
		s.WriteString(m.renderMemory(w))
	case TabDisk:
		s.WriteString(m.renderDisk(w))
	case TabIO:
		s.WriteString(m.renderIO())
	}

	s.WriteString("\n")
	s.WriteString(m.renderStatusFooter())
	return s.String()
}

// ─── Tab bar ─────────────────────────────────────────────────────────────────

func (m Model) renderTabs(w int) string {
	active := lipgloss.NewStyle().
		Bold(true).
		Foreground(ui.ColorPrimary).
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(ui.ColorPrimary).
		Padding(0, 2)

	inactive := lipgloss.NewStyle().
		Foreground(ui.ColorMuted).
		Padding(0, 2)

	var tabs []string
	for i, name := range TabNames {
		label := fmt.Sprintf("%d·%s", i+1, name)
		if Tab(i) == m.Tab {
			tabs = append(tabs, active.Render(label))
		} else {
			tabs = append(tabs, inactive.Render(label))
		}
	}

	bar := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)
	divider := ui.MutedStyle.Render(strings.Repeat("─", w))
	return bar + "\n" + divider
}

// ─── Overview tab ────────────────────────────────────────────────────────────

func (m Model) renderOverview(w int) string {
	snap := m.Snapshot
	score := HealthScore(snap)

	scoreColor := lipgloss.TerminalColor(ui.ColorSuccess)
	switch {
	case score < 50:
		scoreColor = ui.ColorError
	case score < 90:
		scoreColor = ui.ColorWarning
	}
	scoreBox := lipgloss.NewStyle().
		Bold(true).
		Foreground(scoreColor).
		Render(fmt.Sprintf("  %d  %s", score, HealthLabel(score)))

	h := snap.Host
	hostLines := []string{
		fmt.Sprintf("  Host       %s", h.Hostname),
		fmt.Sprintf("  Platform   %s", strings.TrimSpace(h.Platform+" "+h.Arch)),
		fmt.Sprintf("  Kernel     %s", h.Kernel),
		fmt.Sprintf("  Uptime     %s", (time.Duration(h.Uptime) * time.Second).String()),
	}
	if snap.Load != nil {
		hostLines = append(hostLines, fmt.Sprintf("  Cores      %d", snap.Load.Cores))
	}
	hostCard := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ui.ColorSecondary).
		Padding(0, 1).
		Render(strings.Join(hostLines, "\n"))

	barW := 24
	if w > 100 {
		barW = 32
	}
	var summary []string
	if l := snap.Load; l != nil {
		pc := l.PerCore()[0]
		summary = append(summary, fmt.Sprintf("  LOAD %s  %5.2f  (%.3f/core)", ui.Bar(pc*100, barW), l.One, pc))
	}
	if c := snap.CPU; c != nil {
		summary = append(summary, fmt.Sprintf("  CPU  %s  %5.1f%%", ui.Bar(c.Busy(), barW), c.Busy()))
	}
	if mem := snap.Memory; mem != nil {
		summary = append(summary, fmt.Sprintf("  MEM  %s  %5.1f%%  %s / %s",
			ui.Bar(mem.UsedPercent(), barW), mem.UsedPercent(), core.FormatMB(mem.UsedMB), core.FormatMB(mem.TotalMB)))
	}
	if d := snap.Disk; d != nil {
		summary = append(summary, fmt.Sprintf("  DSK  %s  %5.1f%%  %s / %s  (%s)",
			ui.Bar(d.UsedPercent, barW), d.UsedPercent, d.Used, d.Size, d.Mount))
	}
	if len(summary) == 0 {
		summary = append(summary, "  (no metrics collected)")
	}
	summaryCard := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ui.ColorMuted).
		Padding(0, 1).
		Render(strings.Join(summary, "\n"))

	return lipgloss.JoinVertical(lipgloss.Left, "", scoreBox, "", hostCard, "", summaryCard)
}

// ─── Load tab ────────────────────────────────────────────────────────────────

func (m Model) renderLoad() string {
	l := m.Snapshot.Load
	if l == nil {
		return m.sectionMissing(collect.SectionLoad)
	}

	tb := ui.NewTable("Interval", "Load", "Per CPU Util", "Status")
	windows := []string{"1 Minute", "5 Minutes", "15 Minutes"}
	avgs, perCore := l.Averages(), l.PerCore()
	for i, win := range windows {
		st := collect.ClassifyLoad(perCore[i])
		tb.Row(win, fmt.Sprintf("%.2f", avgs[i]), fmt.Sprintf("%.3f", perCore[i]), st.String())
	}

	lines := []string{"", tb.String()}
	if len(m.LoadHistory) > 1 {
		lines = append(lines, "", "  History  "+ui.Sparkline(m.LoadHistory, 30))
	}
	return strings.Join(lines, "\n")
}

// ─── CPU tab ─────────────────────────────────────────────────────────────────

func (m Model) renderCPU(w int) string {
	c := m.Snapshot.CPU
	if c == nil {
		return m.sectionMissing(collect.SectionCPU)
	}
	barW := 40
	if w > 110 {
		barW = 56
	}

	lines := []string{
		"",
		fmt.Sprintf("  Busy    %s  %5.1f%%", ui.Bar(c.Busy(), barW), c.Busy()),
		"",
		fmt.Sprintf("  User    %5.1f%%", c.User),
		fmt.Sprintf("  System  %5.1f%%", c.System),
		fmt.Sprintf("  Idle    %5.1f%%", c.Idle),
	}
	if len(m.CPUHistory) > 1 {
		lines = append(lines, "", "  History  "+ui.Sparkline(m.CPUHistory, 30))
	}
	return strings.Join(lines, "\n")
}

// ─── Memory tab ──────────────────────────────────────────────────────────────

func (m Model) renderMemory(w int) string {
	mem := m.Snapshot.Memory
	if mem == nil {
		return m.sectionMissing(collect.SectionMemory)
	}
	barW := 40
	if w > 110 {
		barW = 56
	}

	lines := []string{
		"",
		fmt.Sprintf("  Used   %s  %5.1f%%", ui.Bar(mem.UsedPercent(), barW), mem.UsedPercent()),
		"",
		fmt.Sprintf("  Total  %s", core.FormatMB(mem.TotalMB)),
		fmt.Sprintf("  Used   %s", core.FormatMB(mem.UsedMB)),
		fmt.Sprintf("  Free   %s", core.FormatMB(mem.FreeMB)),
	}
	if len(m.MemHistory) > 1 {
		lines = append(lines, "", "  History  "+ui.Sparkline(m.MemHistory, 30))
	}
	return strings.Join(lines, "\n")
}

// ─── Disk tab ────────────────────────────────────────────────────────────────

func (m Model) renderDisk(w int) string {
	d := m.Snapshot.Disk
	if d == nil {
		return m.sectionMissing(collect.SectionDisk)
	}
	barW := 36
	if w > 110 {
		barW = 48
	}
	lines := []string{
		"",
		fmt.Sprintf("  %-4s %s  %5.1f%%", d.Mount, ui.Bar(d.UsedPercent, barW), d.UsedPercent),
		"",
		fmt.Sprintf("  Filesystem  %s", d.Filesystem),
		fmt.Sprintf("  Size        %s", d.Size),
		fmt.Sprintf("  Used        %s", d.Used),
		fmt.Sprintf("  Available   %s", d.Available),
	}
	return strings.Join(lines, "\n")
}

// ─── I/O tab ─────────────────────────────────────────────────────────────────

func (m Model) renderIO() string {
	io := m.Snapshot.IO
	if io == nil {
		return m.sectionMissing(collect.SectionIO)
	}
	if len(io.Devices) == 0 {
		return "\n" + ui.MutedStyle.Italic(true).Render("  (no devices reported)")
	}
	tb := ui.NewTable("Device", "TPS", "Read (kB/s)", "Write (kB/s)")
	for _, d := range io.Devices {
		tb.Row(d.Name, fmt.Sprintf("%.2f", d.TPS), fmt.Sprintf("%.2f", d.ReadKBps), fmt.Sprintf("%.2f", d.WriteKBps))
	}
	return "\n" + tb.String()
}

func (m Model) sectionMissing(sec collect.Section) string {
	if msg, ok := m.Snapshot.Errors[string(sec)]; ok {
		return "\n" + ui.ErrorStyle.Render("  "+ui.IconError+" "+msg)
	}
	return "\n" + ui.MutedStyle.Italic(true).Render("  (not collected)")
}

// ─── Footer ──────────────────────────────────────────────────────────────────

func (m Model) renderStatusFooter() string {
	hints := "  Tab/Shift-Tab switch  " + ui.IconPipe + "  1-6 jump  " + ui.IconPipe + "  q quit"
	if m.Snapshot != nil {
		hints += "  " + ui.IconPipe + "  updated " + m.Snapshot.TakenAt.Format("15:04:05")
	}
	footer := lipgloss.NewStyle().
		Foreground(ui.ColorMuted).
		Italic(true).
		Render(hints)

	if m.Err != nil {
		errStr := ui.ErrorStyle.Render("  " + ui.IconError + " " + m.Err.Error())
		return errStr + "\n" + footer
	}
	return footer
}
