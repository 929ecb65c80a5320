package ai

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surge-devops/surge/internal/collect"
)

func testSnapshot() *collect.Snapshot {
	return &collect.Snapshot{
		Load:   &collect.Load{One: 2, Five: 1, Fifteen: 0.5, Cores: 4},
		Memory: &collect.Memory{TotalMB: 1000, UsedMB: 250, FreeMB: 750},
		Disk:   &collect.Disk{UsedPercent: 42, Mount: "/"},
		Raw: map[string]string{
			"uptime": "up 3 days, load average: 2.00, 1.00, 0.50",
			"free":   "Mem: 1000 250 750",
			"df":     "/dev/sda1 10G 4G 6G 42% /",
		},
	}
}

func TestPrepareDataRaw(t *testing.T) {
	out := PrepareData(testSnapshot(), FormatRaw)
	assert.True(t, strings.HasPrefix(out, "Raw outputs:"))
	assert.Contains(t, out, "uptime: up 3 days")
	assert.Contains(t, out, "free: Mem: 1000 250 750")
	assert.Contains(t, out, "df: /dev/sda1")
}

func TestPrepareDataStructured(t *testing.T) {
	out := PrepareData(testSnapshot(), FormatStructured)
	require.True(t, strings.HasPrefix(out, "System Metrics:\n"))

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(out, "System Metrics:\n")), &got))
	assert.Equal(t, []any{2.0, 1.0, 0.5}, got["load_avg"])
	assert.Equal(t, 4.0, got["cores"])
	assert.Equal(t, []any{0.5, 0.25, 0.125}, got["load_per_core"])
	assert.Equal(t, 25.0, got["memory_usage_percent"])
	assert.Equal(t, 42.0, got["disk_usage_percent"])
	assert.NotContains(t, out, "Raw context")
}

func TestPrepareDataHybrid(t *testing.T) {
	out := PrepareData(testSnapshot(), FormatHybrid)
	assert.Contains(t, out, "Structured metrics:")
	assert.Contains(t, out, `"load_per_core"`)
	assert.NotContains(t, out, `"load_avg"`)
	assert.Contains(t, out, "Raw context:\nup 3 days")
	assert.Contains(t, out, "Mem: 1000 250 750")
}

func TestNeedsRaw(t *testing.T) {
	assert.True(t, FormatRaw.NeedsRaw())
	assert.True(t, FormatHybrid.NeedsRaw())
	assert.False(t, FormatStructured.NeedsRaw())
}

func TestParseEnums(t *testing.T) {
	f, err := ParseDataFormat("STRUCTURED")
	require.NoError(t, err)
	assert.Equal(t, FormatStructured, f)
	_, err = ParseDataFormat("xml")
	assert.Error(t, err)

	v, err := ParseVerbosity("concise")
	require.NoError(t, err)
	assert.Equal(t, VerbosityConcise, v)
	_, err = ParseVerbosity("loud")
	assert.Error(t, err)
}

const sampleResponse = `SUMMARY: Load is high.
ISSUES:
- critical: nginx is consuming CPU
Action: restart nginx
ACTIONS:
$ sudo systemctl restart nginx
summary: duplicate line`

func TestFormatResponseConcise(t *testing.T) {
	got := FormatResponse(sampleResponse, VerbosityConcise, FormatHybrid)
	assert.Equal(t, "SUMMARY: Load is high.\n- critical: nginx is consuming CPU\nAction: restart nginx", got)
}

func TestFormatResponseNormalAndDetailed(t *testing.T) {
	assert.Equal(t, sampleResponse, FormatResponse(sampleResponse, VerbosityNormal, FormatRaw))
	got := FormatResponse("ok", VerbosityDetailed, FormatStructured)
	assert.Equal(t, "ok\n\n[Context: Using structured format]", got)
}

func TestExtractCommands(t *testing.T) {
	resp := strings.Join([]string{
		"SUMMARY: fine",
		"$ free -m",
		"  sudo apt-get clean",
		"- `sudo systemctl restart nginx`",
		"* $ df -h",
		"Check systemctl status sshd",
		"$",
		"ls -la",
	}, "\n")

	got := ExtractCommands(resp)
	assert.Equal(t, []string{
		"free -m",
		"sudo apt-get clean",
		"sudo systemctl restart nginx",
		"df -h",
		"Check systemctl status sshd",
	}, got)
}
