package collect

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/surge-devops/surge/internal/core"
)

// ErrNoData is returned when tool output contains nothing parseable.
var ErrNoData = errors.New("no data")

var loadMarkers = []string{"load average:", "load averages:"}

// ParseLoad extracts the three load averages from uptime output. Bare
// "0.10, 0.20, 0.30" input is accepted as well, and so are the
// "0,52, 0,58, 0,59" averages of comma-decimal locales.
func ParseLoad(out string) (Load, error) {
	text := strings.TrimSpace(out)
	for _, m := range loadMarkers {
		if i := strings.Index(text, m); i >= 0 {
			text = text[i+len(m):]
			break
		}
	}
	fields := strings.Fields(text)
	if len(fields) == 1 {
		fields = strings.Split(fields[0], ",")
	}
	if len(fields) != 3 {
		return Load{}, fmt.Errorf("load averages in %q: %w", out, ErrNoData)
	}
	var vals [3]float64
	for i, f := range fields {
		v, err := parseDecimal(strings.TrimSuffix(f, ","))
		if err != nil {
			return Load{}, fmt.Errorf("invalid load average: %w", err)
		}
		vals[i] = v
	}
	return Load{One: vals[0], Five: vals[1], Fifteen: vals[2]}, nil
}

// ParseCores reads nproc output.
func ParseCores(out string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(out))
	if err != nil {
		return 0, fmt.Errorf("invalid core count %q: %w", out, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("core count %d: %w", n, ErrNoData)
	}
	return n, nil
}

// cpuField matches "4.8 sy" as well as the older "4.8%sy".
var cpuField = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*%?\s*(us|sy|ni|id|wa|hi|si|st)\b`)

// ParseCPU extracts user, system and idle percentages from the Cpu(s) line
// of top -bn1.
func ParseCPU(out string) (CPU, error) {
	for _, line := range strings.Split(out, "\n") {
		if !strings.Contains(line, "Cpu(s)") {
			continue
		}
		var (
			c    CPU
			seen int
		)
		for _, m := range cpuField.FindAllStringSubmatch(line, -1) {
			v, err := parseDecimal(m[1])
			if err != nil {
				return CPU{}, fmt.Errorf("invalid cpu value: %w", err)
			}
			switch m[2] {
			case "us":
				c.User = v
				seen++
			case "sy":
				c.System = v
				seen++
			case "id":
				c.Idle = v
				seen++
			}
		}
		if seen < 3 {
			return CPU{}, fmt.Errorf("incomplete cpu line %q: %w", line, ErrNoData)
		}
		return c, nil
	}
	return CPU{}, fmt.Errorf("no Cpu(s) line: %w", ErrNoData)
}

// ParseMemory reads the Mem: row of free -m.
func ParseMemory(out string) (Memory, error) {
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 4 || fields[0] != "Mem:" {
			continue
		}
		var vals [3]int64
		for i := range vals {
			v, err := strconv.ParseInt(fields[i+1], 10, 64)
			if err != nil {
				return Memory{}, fmt.Errorf("invalid memory value %q: %w", fields[i+1], err)
			}
			vals[i] = v
		}
		return Memory{TotalMB: vals[0], UsedMB: vals[1], FreeMB: vals[2]}, nil
	}
	return Memory{}, fmt.Errorf("no Mem: row: %w", ErrNoData)
}

// ParseDisk reads the last filesystem row of df -h. df wraps long device
// names onto their own line, which is rejoined here.
func ParseDisk(out string) (Disk, error) {
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "Filesystem") {
			continue
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return Disk{}, fmt.Errorf("empty df output: %w", ErrNoData)
	}

	fields := strings.Fields(lines[len(lines)-1])
	if len(fields) == 5 && len(lines) > 1 {
		fields = append(strings.Fields(lines[len(lines)-2])[:1], fields...)
	}
	if len(fields) < 6 {
		return Disk{}, fmt.Errorf("unexpected df row %q: %w", lines[len(lines)-1], ErrNoData)
	}

	pct, err := core.ParsePercent(fields[4])
	if err != nil {
		return Disk{}, err
	}
	return Disk{
		Filesystem:  fields[0],
		Size:        fields[1],
		Used:        fields[2],
		Available:   fields[3],
		UsedPercent: pct,
		Mount:       strings.Join(fields[5:], " "),
	}, nil
}

// ParseIOStat reads the last device report of iostat -d -k. Columns are
// located by header name because sysstat versions differ in layout.
func ParseIOStat(out string) (IO, error) {
	lines := strings.Split(out, "\n")

	header := -1
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "Device") {
			header = i
		}
	}
	if header < 0 {
		return IO{}, fmt.Errorf("no Device header: %w", ErrNoData)
	}

	cols := make(map[string]int)
	for i, name := range strings.Fields(lines[header]) {
		cols[strings.TrimSuffix(name, ":")] = i
	}
	tpsCol, okT := cols["tps"]
	readCol, okR := cols["kB_read/s"]
	writeCol, okW := cols["kB_wrtn/s"]
	if !okT || !okR || !okW {
		return IO{}, fmt.Errorf("unrecognised iostat header %q: %w", lines[header], ErrNoData)
	}

	var io IO
	for _, line := range lines[header+1:] {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			break
		}
		if len(fields) <= writeCol || len(fields) <= readCol || len(fields) <= tpsCol {
			continue
		}
		dev := DeviceIO{Name: fields[0]}
		var err error
		if dev.TPS, err = parseDecimal(fields[tpsCol]); err != nil {
			return IO{}, err
		}
		if dev.ReadKBps, err = parseDecimal(fields[readCol]); err != nil {
			return IO{}, err
		}
		if dev.WriteKBps, err = parseDecimal(fields[writeCol]); err != nil {
			return IO{}, err
		}
		io.Devices = append(io.Devices, dev)
	}
	if len(io.Devices) == 0 {
		return IO{}, fmt.Errorf("no devices reported: %w", ErrNoData)
	}
	return io, nil
}

// parseDecimal accepts both "1.50" and the comma decimal some locales emit.
func parseDecimal(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", s, err)
	}
	return v, nil
}
