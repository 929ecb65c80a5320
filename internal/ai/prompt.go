package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/surge-devops/surge/internal/collect"
)

// SystemPrompt frames every analysis request.
const SystemPrompt = `You are a DevOps expert analyzing system metrics.

Your job:
    1. Analyze the provided system state
    2. Identify any issues or optimization opportunities
    3. Suggest specific, actionable fixes

Be CONCISE and ACTIONABLE. Format your response as:
SUMMARY: One sentence system status
ISSUES: Bullet points of problems (if there are any)
ACTIONS: Specific commands to fix issues (if there are any)

ONLY suggest fixes if there are actual problems.`

// DataFormat controls how a snapshot is presented to the model.
type DataFormat string

const (
	FormatRaw        DataFormat = "raw"
	FormatStructured DataFormat = "structured"
	FormatHybrid     DataFormat = "hybrid"
)

// ParseDataFormat validates a format name.
func ParseDataFormat(s string) (DataFormat, error) {
	switch f := DataFormat(strings.ToLower(s)); f {
	case FormatRaw, FormatStructured, FormatHybrid:
		return f, nil
	}
	return "", fmt.Errorf("invalid format %q (must be raw, structured or hybrid)", s)
}

// NeedsRaw reports whether raw tool output must be collected.
func (f DataFormat) NeedsRaw() bool { return f != FormatStructured }

// Verbosity controls how much of the response is shown.
type Verbosity string

const (
	VerbosityConcise  Verbosity = "concise"
	VerbosityNormal   Verbosity = "normal"
	VerbosityDetailed Verbosity = "detailed"
)

// ParseVerbosity validates a verbosity name.
func ParseVerbosity(s string) (Verbosity, error) {
	switch v := Verbosity(strings.ToLower(s)); v {
	case VerbosityConcise, VerbosityNormal, VerbosityDetailed:
		return v, nil
	}
	return "", fmt.Errorf("invalid verbosity %q (must be concise, normal or detailed)", s)
}

type structuredMetrics struct {
	LoadAvg            []float64       `json:"load_avg,omitempty"`
	Cores              int             `json:"cores,omitempty"`
	LoadPerCore        []float64       `json:"load_per_core,omitempty"`
	Memory             *collect.Memory `json:"memory,omitempty"`
	MemoryUsagePercent *float64        `json:"memory_usage_percent,omitempty"`
	DiskUsagePercent   *float64        `json:"disk_usage_percent,omitempty"`
}

// PrepareData renders snap for the model in the requested format.
func PrepareData(snap *collect.Snapshot, format DataFormat) string {
	switch format {
	case FormatRaw:
		return fmt.Sprintf("Raw outputs:\nuptime: %s\nfree: %s\ndf: %s",
			snap.Raw["uptime"], snap.Raw["free"], snap.Raw["df"])

	case FormatStructured:
		m := structuredMetrics{Memory: snap.Memory}
		if snap.Load != nil {
			m.LoadAvg = snap.Load.Averages()
			m.Cores = snap.Load.Cores
			m.LoadPerCore = snap.Load.PerCore()
		}
		fillPercents(&m, snap)
		return "System Metrics:\n" + indentJSON(m)

	default:
		m := structuredMetrics{}
		if snap.Load != nil {
			m.LoadPerCore = snap.Load.PerCore()
		}
		fillPercents(&m, snap)
		return fmt.Sprintf("Structured metrics: %s\n\nRaw context:\n%s\n%s",
			indentJSON(m), snap.Raw["uptime"], snap.Raw["free"])
	}
}

func fillPercents(m *structuredMetrics, snap *collect.Snapshot) {
	if snap.Memory != nil && snap.Memory.TotalMB > 0 {
		p := snap.Memory.UsedPercent()
		m.MemoryUsagePercent = &p
	}
	if snap.Disk != nil {
		p := snap.Disk.UsedPercent
		m.DiskUsagePercent = &p
	}
}

func indentJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}

var conciseMarkers = []string{"SUMMARY:", "CRITICAL:", "ACTION:"}

// FormatResponse applies verbosity to a model response.
func FormatResponse(response string, verbosity Verbosity, format DataFormat) string {
	switch verbosity {
	case VerbosityConcise:
		var keep []string
		for _, line := range strings.Split(response, "\n") {
			upper := strings.ToUpper(line)
			for _, marker := range conciseMarkers {
				if strings.Contains(upper, marker) {
					keep = append(keep, line)
					break
				}
			}
			if len(keep) == 3 {
				break
			}
		}
		return strings.Join(keep, "\n")
	case VerbosityDetailed:
		return fmt.Sprintf("%s\n\n[Context: Using %s format]", response, format)
	default:
		return response
	}
}

// ExtractCommands pulls shell commands out of a response: lines starting
// with $ or sudo, or mentioning systemctl.
func ExtractCommands(response string) []string {
	var cmds []string
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimSpace(strings.TrimLeft(line, "-*"))
		line = strings.Trim(line, "`")
		if !strings.HasPrefix(line, "$") && !strings.HasPrefix(line, "sudo") && !strings.Contains(line, "systemctl") {
			continue
		}
		cmd := strings.TrimSpace(strings.TrimLeft(line, "$"))
		cmd = strings.TrimSpace(strings.Trim(cmd, "`"))
		if cmd != "" {
			cmds = append(cmds, cmd)
		}
	}
	return cmds
}
