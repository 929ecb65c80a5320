package output

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surge-devops/surge/internal/collect"
	"github.com/surge-devops/surge/internal/network"
	"github.com/surge-devops/surge/internal/store"
)

func plain(t *testing.T) {
	t.Helper()
	prev := lipgloss.ColorProfile()
	lipgloss.SetColorProfile(termenv.Ascii)
	t.Cleanup(func() { lipgloss.SetColorProfile(prev) })
}

func fullSnapshot() *collect.Snapshot {
	return &collect.Snapshot{
		TakenAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Host:    collect.Host{Hostname: "web-1"},
		Load:    &collect.Load{One: 0.4, Five: 3.6, Fifteen: 6.4, Cores: 4},
		CPU:     &collect.CPU{User: 0, System: 4.8, Idle: 95.2},
		Memory:  &collect.Memory{TotalMB: 764, UsedMB: 492, FreeMB: 144},
		Disk:    &collect.Disk{Filesystem: "/dev/vda1", Size: "25G", Used: "5.2G", Available: "20G", UsedPercent: 21, Mount: "/"},
		IO:      &collect.IO{Devices: []collect.DeviceIO{{Name: "vda", TPS: 1.5, ReadKBps: 10, WriteKBps: 20.25}}},
	}
}

func allSections() collect.Sections {
	ss := collect.Sections{}
	for _, s := range collect.AllSections {
		ss[s] = true
	}
	return ss
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("yaml")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}

func TestFormatterJSON(t *testing.T) {
	var buf bytes.Buffer
	f := New(FormatJSON)
	f.SetWriter(&buf)
	require.NoError(t, f.Output(map[string]int{"cores": 4}))
	assert.JSONEq(t, `{"cores":4}`, buf.String())
	assert.False(t, f.IsText())
}

func TestFormatterYAML(t *testing.T) {
	var buf bytes.Buffer
	f := New(FormatYAML)
	f.SetWriter(&buf)
	require.NoError(t, f.Output(map[string]any{"monitor": map[string]int{"interval": 5}}))
	assert.Equal(t, "monitor:\n  interval: 5\n", buf.String())
}

func TestDashboardPanels(t *testing.T) {
	plain(t)
	out := Dashboard(fullSnapshot(), DashboardOptions{Sections: allSections(), Width: 400})

	for _, title := range []string{TitleDashboard, TitleLoad, TitleCPU, TitleMemory, TitleDisk, TitleIO} {
		assert.Contains(t, out, title)
	}
	assert.Contains(t, out, "1 Minute")
	assert.Contains(t, out, "0.40")
	assert.Contains(t, out, "95.2")
	assert.Contains(t, out, "764")
	assert.Contains(t, out, "5.2G")
	assert.Contains(t, out, "21%")
	assert.Contains(t, out, "20.25")
	assert.NotContains(t, out, "Per CPU Util")
}

func TestDashboardVerboseLoad(t *testing.T) {
	plain(t)
	out := Dashboard(fullSnapshot(), DashboardOptions{
		Sections: collect.Sections{collect.SectionLoad: true},
		Verbose:  true,
		Width:    200,
	})

	assert.Contains(t, out, "Per CPU Util")
	assert.Contains(t, out, "0.100")
	assert.Contains(t, out, "0.900")
	assert.Contains(t, out, "1.600")
	assert.Contains(t, out, "OK")
	assert.Contains(t, out, "High System Load")
	assert.Contains(t, out, "System Likely Overloaded")
	assert.NotContains(t, out, TitleCPU)
}

func TestDashboardShowsSectionErrors(t *testing.T) {
	plain(t)
	snap := &collect.Snapshot{Errors: map[string]string{"ram": "free: tool not found"}}
	out := Dashboard(snap, DashboardOptions{Sections: collect.Sections{collect.SectionMemory: true}})
	assert.Contains(t, out, TitleMemory)
	assert.Contains(t, out, "free: tool not found")
}

func TestDashboardStacksOnNarrowTerminals(t *testing.T) {
	plain(t)
	wide := Dashboard(fullSnapshot(), DashboardOptions{Sections: allSections(), Width: 400})
	narrow := Dashboard(fullSnapshot(), DashboardOptions{Sections: allSections(), Width: 60})
	assert.Greater(t, strings.Count(narrow, "\n"), strings.Count(wide, "\n"))
}

func TestWriteReport(t *testing.T) {
	plain(t)
	report := &network.Report{Sections: []network.Section{
		{Title: "Ping", Body: "sent=5 | loss=0% | avg_rtt_ms=1.2"},
		{Title: "Traceroute", Body: "traceroute/mtr not available or produced no output", Warn: true},
	}}
	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, report))

	out := buf.String()
	assert.Contains(t, out, "Ping\n----\nsent=5")
	assert.Contains(t, out, "Traceroute\n----------\n[warn] traceroute/mtr")
}

func TestHistory(t *testing.T) {
	plain(t)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	samples := []store.Sample{
		{ID: "bbbbbbbb-0000", TakenAt: base.Add(time.Minute), Hostname: "web-1", Snapshot: fullSnapshot()},
		{ID: "aaaaaaaa-0000", TakenAt: base, Hostname: "web-1", Snapshot: &collect.Snapshot{Load: &collect.Load{One: 0.1}}},
	}
	out := History(samples)
	assert.Contains(t, out, "bbbbbbbb")
	assert.NotContains(t, out, "bbbbbbbb-0000")
	assert.Contains(t, out, "0.40")
	assert.Contains(t, out, "Load 1m")
	assert.Contains(t, out, "▂█")

	assert.Contains(t, History(nil), "No samples recorded")
}
