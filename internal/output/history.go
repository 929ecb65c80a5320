package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/surge-devops/surge/internal/store"
	"github.com/surge-devops/surge/internal/ui"
)

// History renders samples (newest first) as a table followed by a sparkline
// of the 1 minute load average in chronological order.
func History(samples []store.Sample) string {
	if len(samples) == 0 {
		return ui.MutedStyle.Render("No samples recorded yet. Run with --record to start.")
	}

	tb := ui.NewTable("ID", "Taken At", "Host", "Load 1m", "CPU %", "Mem %", "Disk %")
	loads := make([]float64, 0, len(samples))
	for i := len(samples) - 1; i >= 0; i-- {
		if l := samples[i].Snapshot.Load; l != nil {
			loads = append(loads, l.One)
		}
	}
	for _, s := range samples {
		snap := s.Snapshot
		load, cpu, mem, disk := "-", "-", "-", "-"
		if snap.Load != nil {
			load = fmt.Sprintf("%.2f", snap.Load.One)
		}
		if snap.CPU != nil {
			cpu = pct(snap.CPU.Busy())
		}
		if snap.Memory != nil {
			mem = pct(snap.Memory.UsedPercent())
		}
		if snap.Disk != nil {
			disk = fmt.Sprintf("%.0f", snap.Disk.UsedPercent)
		}
		tb.Row(shortID(s.ID), s.TakenAt.Local().Format("2006-01-02 15:04:05"), s.Hostname, load, cpu, mem, disk)
	}

	var b strings.Builder
	b.WriteString(tb.String())
	if len(loads) > 1 {
		b.WriteString("\n")
		b.WriteString(ui.MutedStyle.Render("Load 1m "))
		b.WriteString(ui.Sparkline(loads, len(loads)))
	}
	return b.String()
}

// WriteHistory prints History(samples) to w.
func WriteHistory(w io.Writer, samples []store.Sample) error {
	_, err := fmt.Fprintln(w, History(samples))
	return err
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
