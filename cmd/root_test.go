package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surge-devops/surge/internal/ai"
	"github.com/surge-devops/surge/internal/collect"
	"github.com/surge-devops/surge/internal/runner/runnertest"
)

// ─── Helpers ─────────────────────────────────────────────────────────────────

type stubSystem struct{}

func (stubSystem) Host(context.Context) (collect.Host, error) {
	return collect.Host{Hostname: "testbox"}, nil
}
func (stubSystem) LoadAvg(context.Context) (collect.Load, error) {
	return collect.Load{}, errors.New("unavailable")
}
func (stubSystem) Cores(context.Context) (int, error) { return 0, errors.New("unavailable") }

type stubModel struct {
	reply string
	calls int
}

func (m *stubModel) Chat(context.Context, []ai.Message) (string, error) {
	m.calls++
	return m.reply, nil
}

func healthyRunner() *runnertest.Fake {
	return runnertest.New().
		Stdout("uptime", "10:00 up 1 day, load average: 0.10, 0.20, 0.30").
		Stdout("nproc", "8").
		Stdout("top -bn1", "%Cpu(s):  0.0 us,  4.8 sy,  0.0 ni, 95.2 id").
		Stdout("free -m", "Mem: 764 492 144 8 247 272").
		Stdout("df -h /", "Filesystem Size Used Avail Use% Mounted on\n/dev/vda1 25G 5.2G 20G 21% /").
		Stdout("iostat", "Device tps kB_read/s kB_wrtn/s\nvda 1.50 2.00 3.00").
		Stdout("ping", "5 packets transmitted, 5 received, 0% packet loss\nrtt min/avg/max/mdev = 1.0/2.5/4.0/0.5 ms").
		Stdout("traceroute", "1 gw 1.0 ms").
		Stdout("curl -s -o", "HTTP 200 | total 0.1s | connect 0.01s | ttfb 0.05s").
		Stdout("curl -s -I", "HTTP/1.1 200 OK").
		Stdout("dig", "93.184.216.34").
		Stdout("ss", "LISTEN 0 128 *:22 *:*")
}

// isolate points every config and data location at a temp dir so the
// developer's own files never leak into a test.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv("SURGE_CONFIG", "")
	t.Chdir(dir)
	return dir
}

type result struct {
	out  string
	err  error
	code int
}

func run(t *testing.T, deps Deps, args ...string) result {
	t.Helper()
	return runCtx(t, context.Background(), deps, args...)
}

func runCtx(t *testing.T, ctx context.Context, deps Deps, args ...string) result {
	t.Helper()
	var out, errOut bytes.Buffer
	deps.Stdout = &out
	deps.Stderr = &errOut
	if deps.Stdin == nil {
		deps.Stdin = io.NopCloser(strings.NewReader(""))
	}
	if deps.Runner == nil {
		deps.Runner = healthyRunner()
	}
	if deps.System == nil {
		deps.System = stubSystem{}
	}
	if deps.Getenv == nil {
		deps.Getenv = func(string) string { return "" }
	}

	root := NewRootCmd(deps)
	root.SetArgs(append([]string{"--no-color"}, args...))
	err := root.ExecuteContext(ctx)
	return result{out: out.String(), err: err, code: ExitCode(err)}
}

// ─── Root ────────────────────────────────────────────────────────────────────

func TestNoArgsPrintsBannerAndHelp(t *testing.T) {
	isolate(t)
	r := run(t, Deps{})
	require.NoError(t, r.err)
	assert.Equal(t, 0, r.code)
	assert.Contains(t, r.out, "/____/")
	assert.Contains(t, r.out, "Version dev")
	assert.Contains(t, r.out, "Available Commands:")
}

func TestUsageErrorsExitTwo(t *testing.T) {
	isolate(t)
	cases := map[string][]string{
		"negative interval":  {"monitor", "--interval", "-5"},
		"unknown flag":       {"monitor", "--bogus"},
		"extra argument":     {"monitor", "extra"},
		"unknown command":    {"frobnicate"},
		"empty url":          {"network", "--url="},
		"blank host":         {"network", "-H", "  "},
		"option-like host":   {"network", "--host=-oProxyCommand"},
		"zero count":         {"network", "-H", "example.com", "-n", "0"},
		"bad dns type":       {"network", "-d", "example.com", "-t", "A1"},
		"bad ai format":      {"ai", "-f", "xml"},
		"bad ai verbosity":   {"ai", "-v", "loud"},
		"bad provider":       {"ai", "--provider", "openai"},
		"zero refresh":       {"status", "--refresh", "0"},
		"zero serve period":  {"serve", "--interval", "0"},
		"zero history limit": {"history", "--limit", "0"},
		"bad show format":    {"config", "show", "-o", "xml"},
		"bad shell":          {"completion", "tcsh"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			r := run(t, Deps{}, args...)
			require.Error(t, r.err)
			assert.Equal(t, 2, r.code, "error: %v", r.err)
		})
	}
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 1, ExitCode(errors.New("boom")))
	assert.Equal(t, 2, ExitCode(usageError("bad")))
	assert.Equal(t, 3, ExitCode(&ExitError{Code: 3}))
}

func TestVersion(t *testing.T) {
	isolate(t)
	r := run(t, Deps{}, "version")
	require.NoError(t, r.err)
	assert.Contains(t, r.out, "surge dev")
}

// ─── Monitor ─────────────────────────────────────────────────────────────────

func TestMonitorDefaultSections(t *testing.T) {
	isolate(t)
	r := run(t, Deps{}, "monitor")
	require.NoError(t, r.err)

	assert.Contains(t, r.out, "System Load Averages")
	assert.Contains(t, r.out, "CPU Usage")
	assert.Contains(t, r.out, "Memory Usage")
	assert.Contains(t, r.out, "Disk Usage")
	assert.NotContains(t, r.out, "Disk I/O")
	assert.Contains(t, r.out, "4.8")
	assert.Contains(t, r.out, "/dev/vda1")
}

func TestMonitorToggles(t *testing.T) {
	isolate(t)
	fake := healthyRunner()
	r := run(t, Deps{Runner: fake}, "monitor", "--no-cpu", "--no-disk", "-o")
	require.NoError(t, r.err)

	assert.NotContains(t, r.out, "CPU Usage")
	assert.NotContains(t, r.out, "Disk Usage")
	assert.Contains(t, r.out, "Disk I/O")
	assert.False(t, fake.Called("top"))
}

func TestRootsDoNotShareFlagState(t *testing.T) {
	isolate(t)
	r := run(t, Deps{Runner: healthyRunner()}, "monitor", "--no-cpu", "--no-disk")
	require.NoError(t, r.err)
	require.NotContains(t, r.out, "CPU Usage")

	fake := healthyRunner()
	r = run(t, Deps{Runner: fake}, "monitor")
	require.NoError(t, r.err)
	assert.Contains(t, r.out, "CPU Usage")
	assert.Contains(t, r.out, "Disk Usage")
	assert.True(t, fake.Called("top"))
}

func TestMonitorVerbose(t *testing.T) {
	isolate(t)
	r := run(t, Deps{}, "monitor", "-v", "--no-cpu", "--no-ram", "--no-disk")
	require.NoError(t, r.err)
	assert.Contains(t, r.out, "Per CPU Util")
	assert.Contains(t, r.out, "0.025")
	assert.Contains(t, r.out, "OK")
}

func TestMonitorJSON(t *testing.T) {
	isolate(t)
	r := run(t, Deps{}, "monitor", "--json")
	require.NoError(t, r.err)

	var snap collect.Snapshot
	require.NoError(t, json.Unmarshal([]byte(r.out), &snap))
	require.NotNil(t, snap.Load)
	assert.InDelta(t, 0.1, snap.Load.One, 1e-9)
	assert.Equal(t, "testbox", snap.Host.Hostname)
	assert.Nil(t, snap.IO)
}

func TestMonitorAllSectionsFailing(t *testing.T) {
	isolate(t)
	r := run(t, Deps{Runner: runnertest.New()}, "monitor", "--no-load")
	require.Error(t, r.err)
	assert.Equal(t, 1, r.code)
	assert.ErrorIs(t, r.err, collect.ErrNoData)
	assert.Contains(t, r.out, "CPU Usage")
}

func TestMonitorConfigPrecedence(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "config"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config", "config.toml"),
		[]byte("[monitor]\ncpu = false\nio = true\n"), 0o644))

	r := run(t, Deps{}, "monitor")
	require.NoError(t, r.err)
	assert.NotContains(t, r.out, "CPU Usage", "file overrides default")
	assert.Contains(t, r.out, "Disk I/O")

	r = run(t, Deps{}, "monitor", "--cpu")
	require.NoError(t, r.err)
	assert.Contains(t, r.out, "CPU Usage", "flag overrides file")
}

func TestMonitorExplicitConfigMissing(t *testing.T) {
	isolate(t)
	r := run(t, Deps{}, "--config", "nope.toml", "monitor")
	require.Error(t, r.err)
	assert.Equal(t, 1, r.code)
}

// ─── Network ─────────────────────────────────────────────────────────────────

func TestNetworkNothingToDo(t *testing.T) {
	isolate(t)
	fake := healthyRunner()
	r := run(t, Deps{Runner: fake}, "network")
	require.Error(t, r.err)
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.out, "Nothing to do. Provide at least one of: --host, --url, --domain, --sockets")
	assert.Empty(t, fake.Calls())
}

func TestNetworkAllSections(t *testing.T) {
	isolate(t)
	r := run(t, Deps{}, "network", "-H", "example.com", "-u", "example.com", "-d", "example.com", "--sockets")
	require.NoError(t, r.err)

	for _, want := range []string{"sent=5", "gw", "HTTP 200", "93.184.216.34", "LISTEN"} {
		assert.Contains(t, r.out, want)
	}
}

func TestNetworkNoTrace(t *testing.T) {
	isolate(t)
	fake := healthyRunner()
	r := run(t, Deps{Runner: fake}, "network", "-H", "example.com", "--no-trace", "-n", "2")
	require.NoError(t, r.err)
	assert.True(t, fake.Called("ping -c 2 example.com"))
	assert.False(t, fake.Called("traceroute"))
}

func TestNetworkJSON(t *testing.T) {
	isolate(t)
	r := run(t, Deps{}, "network", "--sockets", "--json")
	require.NoError(t, r.err)

	var report struct {
		Sections []struct {
			Title string `json:"title"`
		} `json:"sections"`
	}
	require.NoError(t, json.Unmarshal([]byte(r.out), &report))
	require.Len(t, report.Sections, 1)
}

// ─── AI ──────────────────────────────────────────────────────────────────────

func TestAIMissingKey(t *testing.T) {
	isolate(t)
	r := run(t, Deps{}, "ai")
	require.Error(t, r.err)
	assert.Equal(t, 1, r.code)
	assert.ErrorIs(t, r.err, ai.ErrMissingAPIKey)
	assert.Contains(t, r.err.Error(), "export GEMINI_API_KEY")
}

func TestAIHealthySystem(t *testing.T) {
	isolate(t)
	model := &stubModel{reply: "SUMMARY: all good\nISSUES: none\nACTIONS: none"}
	var got ai.ModelConfig
	deps := Deps{
		Getenv: func(k string) string {
			if k == "GEMINI_API_KEY" {
				return "secret"
			}
			return ""
		},
		NewModel: func(cfg ai.ModelConfig) (ai.Model, error) {
			got = cfg
			return model, nil
		},
		Confirm: ai.AlwaysConfirm(false),
	}

	r := run(t, deps, "ai", "-f", "structured")
	require.NoError(t, r.err)
	assert.Equal(t, 1, model.calls)
	assert.Equal(t, "secret", got.APIKey)
	assert.Equal(t, ai.ProviderGemini, got.Provider)
	assert.Contains(t, r.out, "System is healthy, no fixes needed")
}

func TestAIFixesDeclined(t *testing.T) {
	isolate(t)
	fake := healthyRunner()
	model := &stubModel{reply: "SUMMARY: disk busy\n$ systemctl restart nginx"}
	deps := Deps{
		Runner:   fake,
		NewModel: func(ai.ModelConfig) (ai.Model, error) { return model, nil },
		Confirm:  ai.AlwaysConfirm(false),
	}

	r := run(t, deps, "ai", "--provider", "ollama")
	require.NoError(t, r.err)
	assert.Contains(t, r.out, "Found 1 suggested fixes")
	assert.False(t, fake.Called("systemctl"))
}

// ─── Status and serve ────────────────────────────────────────────────────────

func TestStatusJSON(t *testing.T) {
	isolate(t)
	r := run(t, Deps{}, "status", "--json")
	require.NoError(t, r.err)

	var snap collect.Snapshot
	require.NoError(t, json.Unmarshal([]byte(r.out), &snap))
	require.NotNil(t, snap.IO)
	require.Len(t, snap.IO.Devices, 1)
	assert.Equal(t, "vda", snap.IO.Devices[0].Name)
}

func TestServeStopsOnCancel(t *testing.T) {
	isolate(t)
	fake := healthyRunner()
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	r := runCtx(t, ctx, Deps{Runner: fake}, "serve", "--listen", "127.0.0.1:0", "--interval", "60")
	require.NoError(t, r.err)
	assert.Contains(t, r.out, "Serving metrics on 127.0.0.1:0")
	assert.True(t, fake.Called("uptime"))
}

// ─── History ─────────────────────────────────────────────────────────────────

func TestRecordThenHistory(t *testing.T) {
	dir := isolate(t)
	t.Setenv("SURGE_HISTORY_PATH", filepath.Join(dir, "h.db"))

	r := run(t, Deps{}, "history")
	require.NoError(t, r.err)
	assert.Contains(t, r.out, "No samples recorded yet")

	for range 2 {
		r = run(t, Deps{}, "monitor", "--record")
		require.NoError(t, r.err)
	}

	r = run(t, Deps{}, "history")
	require.NoError(t, r.err)
	assert.Contains(t, r.out, "testbox")
	assert.Contains(t, r.out, "Load 1m")
	assert.Contains(t, r.out, "Showing 2 of 2 recorded samples")

	r = run(t, Deps{}, "history", "--json", "--limit", "1")
	require.NoError(t, r.err)
	var samples []map[string]any
	require.NoError(t, json.Unmarshal([]byte(r.out), &samples))
	assert.Len(t, samples, 1)
}

// ─── Config ──────────────────────────────────────────────────────────────────

func TestConfigInitShowPath(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "surge.toml")

	r := run(t, Deps{}, "--config", path, "config", "init")
	require.NoError(t, r.err)
	assert.FileExists(t, path)
	assert.Contains(t, r.out, path)

	r = run(t, Deps{}, "--config", path, "config", "init")
	require.Error(t, r.err)
	assert.Equal(t, 1, r.code)

	r = run(t, Deps{}, "--config", path, "config", "init", "--force")
	require.NoError(t, r.err)

	r = run(t, Deps{}, "--config", path, "config", "path")
	require.NoError(t, r.err)
	assert.Contains(t, r.out, "Using: "+path)

	r = run(t, Deps{}, "--config", path, "config", "show")
	require.NoError(t, r.err)
	assert.Contains(t, r.out, "monitor.interval = 5")
	assert.Contains(t, r.out, "serve.listen = :9109")
}

func TestConfigShowJSON(t *testing.T) {
	isolate(t)
	t.Setenv("SURGE_NETWORK_DTYPE", "MX")

	r := run(t, Deps{}, "config", "show", "-o", "json")
	require.NoError(t, r.err)

	var settings map[string]map[string]any
	require.NoError(t, json.Unmarshal([]byte(r.out), &settings))
	assert.Equal(t, "MX", settings["network"]["dtype"])
	assert.Equal(t, "hybrid", settings["ai"]["format"])
}

// ─── Completion ──────────────────────────────────────────────────────────────

func TestCompletion(t *testing.T) {
	isolate(t)
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		r := run(t, Deps{}, "completion", shell)
		require.NoError(t, r.err, shell)
		assert.Contains(t, r.out, "surge", shell)
	}
}
