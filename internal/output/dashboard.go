package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/surge-devops/surge/internal/collect"
	"github.com/surge-devops/surge/internal/ui"
)

// Panel titles, in display order.
const (
	TitleLoad      = "System Load Averages"
	TitleCPU       = "CPU Usage"
	TitleMemory    = "Memory Usage"
	TitleDisk      = "Disk Usage"
	TitleIO        = "Disk I/O"
	TitleDashboard = "Monitoring Dashboard"
)

var loadWindows = []string{"1 Minute", "5 Minutes", "15 Minutes"}

// DashboardOptions controls how a snapshot is rendered.
type DashboardOptions struct {
	Sections collect.Sections
	Verbose  bool
	Width    int
}

// Dashboard renders the enabled sections of snap as panels wrapped in one
// outer panel.
func Dashboard(snap *collect.Snapshot, opts DashboardOptions) string {
	width := opts.Width
	if width <= 0 {
		width = ui.DefaultWidth
	}

	var panels []string
	for _, sec := range collect.AllSections {
		if !opts.Sections.Enabled(sec) {
			continue
		}
		if p := sectionPanel(snap, sec, opts.Verbose); p != "" {
			panels = append(panels, p)
		}
	}
	if len(panels) == 0 {
		panels = append(panels, ui.MutedStyle.Render("No sections selected."))
	}

	// Leave room for the outer border and padding.
	body := ui.Columns(panels, width-4)
	return ui.Panel(TitleDashboard, body, ui.ColorSuccess)
}

// WriteDashboard renders snap to w.
func WriteDashboard(w io.Writer, snap *collect.Snapshot, opts DashboardOptions) error {
	_, err := fmt.Fprintln(w, Dashboard(snap, opts))
	return err
}

func sectionPanel(snap *collect.Snapshot, sec collect.Section, verbose bool) string {
	title := sectionTitle(sec)
	if msg, failed := snap.Errors[string(sec)]; failed {
		return ui.Panel(title, ui.ErrorStyle.Render(ui.IconError+" "+msg), ui.ColorError)
	}

	var body string
	switch sec {
	case collect.SectionLoad:
		if snap.Load == nil {
			return ""
		}
		body = loadTable(*snap.Load, verbose)
	case collect.SectionCPU:
		if snap.CPU == nil {
			return ""
		}
		body = ui.NewTable("User (%)", "System (%)", "Idle (%)").
			Row(pct(snap.CPU.User), pct(snap.CPU.System), pct(snap.CPU.Idle)).
			String()
	case collect.SectionMemory:
		if snap.Memory == nil {
			return ""
		}
		m := snap.Memory
		body = ui.NewTable("Total (MB)", "Used (MB)", "Free (MB)").
			Row(fmt.Sprint(m.TotalMB), fmt.Sprint(m.UsedMB), fmt.Sprint(m.FreeMB)).
			String()
	case collect.SectionDisk:
		if snap.Disk == nil {
			return ""
		}
		d := snap.Disk
		body = ui.NewTable("Size", "Used", "Available", "Usage %").
			Row(d.Size, d.Used, d.Available, fmt.Sprintf("%.0f%%", d.UsedPercent)).
			String()
	case collect.SectionIO:
		if snap.IO == nil {
			return ""
		}
		body = ioTable(*snap.IO)
	}
	return ui.Panel(title, body, ui.ColorPrimary)
}

func sectionTitle(sec collect.Section) string {
	switch sec {
	case collect.SectionLoad:
		return TitleLoad
	case collect.SectionCPU:
		return TitleCPU
	case collect.SectionMemory:
		return TitleMemory
	case collect.SectionDisk:
		return TitleDisk
	case collect.SectionIO:
		return TitleIO
	}
	return strings.ToUpper(string(sec))
}

func loadTable(l collect.Load, verbose bool) string {
	headers := []string{"Interval", "Load"}
	if verbose {
		headers = append(headers, "Per CPU Util", "Status")
	}
	tb := ui.NewTable(headers...)
	avgs := l.Averages()
	perCore := l.PerCore()
	for i, window := range loadWindows {
		if !verbose {
			tb.Row(window, fmt.Sprintf("%.2f", avgs[i]))
			continue
		}
		status := collect.ClassifyLoad(perCore[i])
		tb.Row(window, fmt.Sprintf("%.2f", avgs[i]), fmt.Sprintf("%.3f", perCore[i]), status.String())
		tb.StyleCell(i, 3, loadStatusStyle(status))
	}
	return tb.String()
}

func loadStatusStyle(s collect.LoadStatus) lipgloss.Style {
	switch s {
	case collect.LoadHigh:
		return ui.WarnStyle
	case collect.LoadOverloaded:
		return ui.ErrorStyle.Bold(true)
	default:
		return ui.SuccessStyle
	}
}

func ioTable(stats collect.IO) string {
	if len(stats.Devices) == 0 {
		return ui.MutedStyle.Render("No devices reported.")
	}
	tb := ui.NewTable("Device", "TPS", "Read (kB/s)", "Write (kB/s)")
	for _, d := range stats.Devices {
		tb.Row(d.Name, fmt.Sprintf("%.2f", d.TPS), fmt.Sprintf("%.2f", d.ReadKBps), fmt.Sprintf("%.2f", d.WriteKBps))
	}
	return tb.String()
}

func pct(v float64) string {
	return fmt.Sprintf("%.1f", v)
}
