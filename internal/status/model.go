package status

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/surge-devops/surge/internal/collect"
)

// ─── Tab enumeration ─────────────────────────────────────────────────────────

// Tab identifies one of the dashboard sections.
type Tab int

const (
	TabOverview Tab = iota
	TabLoad
	TabCPU
	TabMemory
	TabDisk
	TabIO
)

// TabNames is the display label for each tab.
var TabNames = []string{"Overview", "Load", "CPU", "Memory", "Disk", "I/O"}

// HistoryLen is the number of samples kept for sparklines.
const HistoryLen = 60

// ─── Messages ────────────────────────────────────────────────────────────────

type tickMsg time.Time

type snapshotMsg struct {
	snap *collect.Snapshot
	err  error
}

// CollectFunc produces one snapshot.
type CollectFunc func(ctx context.Context) (*collect.Snapshot, error)

// RecordFunc persists a snapshot; errors are shown in the footer.
type RecordFunc func(ctx context.Context, snap *collect.Snapshot) error

// ─── Model ───────────────────────────────────────────────────────────────────

// Model is the bubbletea Model for the live dashboard.
type Model struct {
	Snapshot *collect.Snapshot
	Tab      Tab
	Width    int
	Height   int
	Err      error

	// Ring buffers (last HistoryLen readings).
	LoadHistory []float64
	CPUHistory  []float64
	MemHistory  []float64

	ctx      context.Context
	collect  CollectFunc
	record   RecordFunc
	refresh  time.Duration
	spinner  spinner.Model
	quitting bool
}

// New creates a Model that calls collect every refresh. record may be nil.
func New(ctx context.Context, collect CollectFunc, record RecordFunc, refresh time.Duration) Model {
	if refresh <= 0 {
		refresh = time.Second
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return Model{
		Width:   80,
		Height:  24,
		ctx:     ctx,
		collect: collect,
		record:  record,
		refresh: refresh,
		spinner: sp,
	}
}

func (m Model) doTick() tea.Cmd {
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) collectSnapshot() tea.Cmd {
	ctx, collect, record := m.ctx, m.collect, m.record
	return func() tea.Msg {
		snap, err := collect(ctx)
		if err == nil && record != nil {
			err = record(ctx, snap)
		}
		return snapshotMsg{snap: snap, err: err}
	}
}

// ─── tea.Model interface ─────────────────────────────────────────────────────

func (m Model) Init() tea.Cmd {
	// The first snapshotMsg starts the tick loop, so collection and display
	// stay strictly sequential.
	return tea.Batch(m.collectSnapshot(), m.spinner.Tick)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "tab":
			m.Tab = (m.Tab + 1) % Tab(len(TabNames))
		case "shift+tab":
			if m.Tab == 0 {
				m.Tab = Tab(len(TabNames) - 1)
			} else {
				m.Tab--
			}
		case "1", "2", "3", "4", "5", "6":
			m.Tab = Tab(msg.String()[0] - '1')
		}
		return m, nil

	case spinner.TickMsg:
		if m.Snapshot != nil {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tickMsg:
		return m, m.collectSnapshot()

	case snapshotMsg:
		m.Err = msg.err
		if msg.snap == nil {
			return m, m.doTick()
		}
		m.Snapshot = msg.snap
		if l := msg.snap.Load; l != nil {
			m.LoadHistory = appendF64(m.LoadHistory, l.One, HistoryLen)
		}
		if c := msg.snap.CPU; c != nil {
			m.CPUHistory = appendF64(m.CPUHistory, c.Busy(), HistoryLen)
		}
		if mem := msg.snap.Memory; mem != nil {
			m.MemHistory = appendF64(m.MemHistory, mem.UsedPercent(), HistoryLen)
		}
		return m, m.doTick()
	}

	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	return m.renderView()
}

// ─── History helpers ─────────────────────────────────────────────────────────

func appendF64(h []float64, v float64, maxLen int) []float64 {
	h = append(h, v)
	if len(h) > maxLen {
		h = h[len(h)-maxLen:]
	}
	return h
}
