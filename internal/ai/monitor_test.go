package ai

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surge-devops/surge/internal/collect"
	"github.com/surge-devops/surge/internal/runner/runnertest"
)

type stubSource struct {
	snap       *collect.Snapshot
	err        error
	includeRaw bool
	sections   collect.Sections
}

func (s *stubSource) Collect(_ context.Context, sections collect.Sections, includeRaw bool) (*collect.Snapshot, error) {
	s.sections, s.includeRaw = sections, includeRaw
	return s.snap, s.err
}

type stubModel struct {
	reply   string
	replies []string
	err     error
	seen    [][]Message
}

func (m *stubModel) Chat(_ context.Context, msgs []Message) (string, error) {
	m.seen = append(m.seen, msgs)
	if len(m.replies) > 0 {
		r := m.replies[0]
		m.replies = m.replies[1:]
		return r, m.err
	}
	return m.reply, m.err
}

type scriptedConfirm struct {
	answers   []bool
	questions []string
}

func (c *scriptedConfirm) Confirm(q string) (bool, error) {
	c.questions = append(c.questions, q)
	if len(c.answers) == 0 {
		return false, nil
	}
	a := c.answers[0]
	c.answers = c.answers[1:]
	return a, nil
}

func TestAnalyze(t *testing.T) {
	src := &stubSource{snap: testSnapshot()}
	model := &stubModel{reply: "SUMMARY: busy\nACTIONS:\n$ sudo systemctl restart nginx"}
	var out bytes.Buffer
	m := NewMonitor(src, model, NewExecutor(runnertest.New()), AlwaysConfirm(false), &out, Options{Format: FormatStructured})

	a, err := m.Analyze(context.Background())
	require.NoError(t, err)
	assert.False(t, src.includeRaw)
	assert.True(t, src.sections.Enabled(collect.SectionLoad))
	assert.False(t, src.sections.Enabled(collect.SectionCPU))
	assert.Equal(t, []string{"sudo systemctl restart nginx"}, a.Commands)
	assert.Equal(t, model.reply, a.Response)

	require.Len(t, model.seen, 1)
	assert.Equal(t, RoleSystem, model.seen[0][0].Role)
	assert.Contains(t, model.seen[0][1].Content, "System Metrics:")
	assert.Contains(t, out.String(), "Collecting system metrics...")
}

func TestAnalyzeCarriesMemory(t *testing.T) {
	model := &stubModel{reply: "SUMMARY: ok"}
	m := NewMonitor(&stubSource{snap: testSnapshot()}, model, nil, AlwaysConfirm(false), &bytes.Buffer{}, Options{})

	for i := 0; i < 5; i++ {
		_, err := m.Analyze(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, MemoryWindow, m.Memory().Len())
	last := model.seen[len(model.seen)-1]
	assert.Len(t, last, 1+2*MemoryWindow+1)
	assert.Equal(t, "System analysis at [2 1 0.5]", last[1].Content)
}

func TestAnalyzeErrors(t *testing.T) {
	m := NewMonitor(&stubSource{err: collect.ErrNoData}, &stubModel{}, nil, AlwaysConfirm(false), &bytes.Buffer{}, Options{})
	_, err := m.Analyze(context.Background())
	assert.ErrorIs(t, err, collect.ErrNoData)

	m = NewMonitor(&stubSource{snap: testSnapshot()}, &stubModel{err: errors.New("quota")}, nil, AlwaysConfirm(false), &bytes.Buffer{}, Options{})
	_, err = m.Analyze(context.Background())
	assert.ErrorContains(t, err, "quota")
}

func TestRunHealthySystem(t *testing.T) {
	var out bytes.Buffer
	confirm := &scriptedConfirm{}
	m := NewMonitor(&stubSource{snap: testSnapshot()}, &stubModel{reply: "SUMMARY: all good"}, nil, confirm, &out, Options{})

	require.NoError(t, m.Run(context.Background()))
	assert.Contains(t, out.String(), "System is healthy, no fixes needed")
	assert.Empty(t, confirm.questions)
}

func TestRunExecutesConfirmedFixes(t *testing.T) {
	f := runnertest.New().
		Stdout("free -m", "Mem: 1 2 3").
		Stdout("sudo systemctl restart nginx", "")
	reply := "SUMMARY: busy\n$ free -m\n$ sudo systemctl restart nginx"
	confirm := &scriptedConfirm{answers: []bool{true, true, false}}
	var out bytes.Buffer
	m := NewMonitor(&stubSource{snap: testSnapshot()}, &stubModel{reply: reply}, NewExecutor(f), confirm, &out, Options{})

	require.NoError(t, m.Run(context.Background()))
	assert.Equal(t, []string{
		"Would you like to review and execute fixes?",
		"Execute this command?",
		"Execute this command?",
		"Re-analyze the system with the fix results?",
	}, confirm.questions)
	assert.True(t, f.Called("free -m"))
	assert.False(t, f.Called("sudo"))
	assert.Contains(t, out.String(), "Found 2 suggested fixes")
	assert.Contains(t, out.String(), "Execution Summary:")
}

func TestRunFixesAutoFixSkipsPromptForDiagnostics(t *testing.T) {
	f := runnertest.New().Stdout("df -h", "/dev/sda1 10G 4G 6G 42% /")
	confirm := &scriptedConfirm{answers: []bool{false}}
	m := NewMonitor(nil, nil, NewExecutor(f), confirm, &bytes.Buffer{}, Options{AutoFix: true})

	results, err := m.RunFixes(context.Background(), []string{"df -h", "kill -9 42"})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.Equal(t, "Skipped by user", results[1].Output)
	assert.Len(t, confirm.questions, 1, "only the fix command is confirmed")
}

func TestRunFixesAutoFixConfirmsDestructiveLookAlikes(t *testing.T) {
	f := runnertest.New().
		Stdout("sudo apt-get", "removed").
		Stdout("rm", "")
	confirm := &scriptedConfirm{answers: []bool{false, false}}
	m := NewMonitor(nil, nil, NewExecutor(f), confirm, &bytes.Buffer{}, Options{AutoFix: true})

	cmds := []string{"sudo apt-get purge -y libfreetype6", "rm -rf /srv/reports/pdf"}
	results, err := m.RunFixes(context.Background(), cmds)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Len(t, confirm.questions, 2)
	for _, r := range results {
		assert.False(t, r.Success)
		assert.Equal(t, "Skipped by user", r.Output)
	}
	assert.Empty(t, f.Calls())
}

func TestRunReanalyzesWithFixResultsInMemory(t *testing.T) {
	f := runnertest.New().Stdout("df -h", "/dev/sda1 10G 9G 1G 90% /")
	model := &stubModel{replies: []string{"SUMMARY: disk nearly full\n$ df -h", "SUMMARY: confirmed, rotate logs"}}
	confirm := &scriptedConfirm{answers: []bool{true, true, true}}
	var out bytes.Buffer
	m := NewMonitor(&stubSource{snap: testSnapshot()}, model, NewExecutor(f), confirm, &out, Options{})

	require.NoError(t, m.Run(context.Background()))
	require.Len(t, model.seen, 2)

	followUp := model.seen[1]
	// system, analysis exchange, fix exchange, new data
	require.Len(t, followUp, 1+2+2+1)
	assert.Equal(t, "Executed fixes", followUp[3].Content)
	assert.Contains(t, followUp[4].Content, "df -h [ok]: /dev/sda1 10G 9G 1G 90% /")
	assert.Contains(t, out.String(), "System is healthy, no fixes needed")
}

func TestRunStopsWhenNoFixSucceeded(t *testing.T) {
	model := &stubModel{reply: "SUMMARY: busy\n$ systemctl restart nginx"}
	confirm := &scriptedConfirm{answers: []bool{true, false}}
	m := NewMonitor(&stubSource{snap: testSnapshot()}, model, NewExecutor(runnertest.New()), confirm, &bytes.Buffer{}, Options{})

	require.NoError(t, m.Run(context.Background()))
	assert.Len(t, model.seen, 1)
	assert.NotContains(t, confirm.questions, "Re-analyze the system with the fix results?")
}
