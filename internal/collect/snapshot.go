package collect

import "time"

// Section names a metric group that can be toggled on the command line.
type Section string

const (
	SectionLoad   Section = "load"
	SectionCPU    Section = "cpu"
	SectionMemory Section = "ram"
	SectionDisk   Section = "disk"
	SectionIO     Section = "io"
)

// AllSections lists every section in display order.
var AllSections = []Section{SectionLoad, SectionCPU, SectionMemory, SectionDisk, SectionIO}

// Sections is the set of sections to collect.
type Sections map[Section]bool

// Enabled reports whether s is selected.
func (ss Sections) Enabled(s Section) bool { return ss[s] }

// Any reports whether at least one section is selected.
func (ss Sections) Any() bool {
	for _, on := range ss {
		if on {
			return true
		}
	}
	return false
}

// Host identifies the machine a snapshot was taken on.
type Host struct {
	Hostname string `json:"hostname"`
	Platform string `json:"platform,omitempty"`
	Kernel   string `json:"kernel,omitempty"`
	Arch     string `json:"arch,omitempty"`
	Uptime   uint64 `json:"uptime_seconds,omitempty"`
}

// Load holds the 1, 5 and 15 minute load averages and the core count used
// to normalise them.
type Load struct {
	One     float64 `json:"one"`
	Five    float64 `json:"five"`
	Fifteen float64 `json:"fifteen"`
	Cores   int     `json:"cores"`
}

// Averages returns the three averages in window order.
func (l Load) Averages() []float64 {
	return []float64{l.One, l.Five, l.Fifteen}
}

// PerCore divides each average by the core count.
func (l Load) PerCore() []float64 {
	cores := float64(l.Cores)
	if cores <= 0 {
		cores = 1
	}
	avgs := l.Averages()
	out := make([]float64, len(avgs))
	for i, v := range avgs {
		out[i] = v / cores
	}
	return out
}

// LoadStatus classifies a per-core load value.
type LoadStatus int

const (
	LoadOK LoadStatus = iota
	LoadHigh
	LoadOverloaded
)

func (s LoadStatus) String() string {
	switch s {
	case LoadHigh:
		return "High System Load"
	case LoadOverloaded:
		return "System Likely Overloaded"
	default:
		return "OK"
	}
}

// ClassifyLoad maps per-core load to a status: below 0.7 is fine, below 1.0
// is busy, anything else means runnable work is queueing.
func ClassifyLoad(perCore float64) LoadStatus {
	switch {
	case perCore < 0.7:
		return LoadOK
	case perCore < 1.0:
		return LoadHigh
	default:
		return LoadOverloaded
	}
}

// CPU holds utilisation percentages from top.
type CPU struct {
	User   float64 `json:"user"`
	System float64 `json:"system"`
	Idle   float64 `json:"idle"`
}

// Busy is the non-idle share.
func (c CPU) Busy() float64 {
	b := 100 - c.Idle
	if b < 0 {
		return 0
	}
	return b
}

// Memory holds values reported by free -m.
type Memory struct {
	TotalMB int64 `json:"total_mb"`
	UsedMB  int64 `json:"used_mb"`
	FreeMB  int64 `json:"free_mb"`
}

// UsedPercent is used/total, zero when total is unknown.
func (m Memory) UsedPercent() float64 {
	if m.TotalMB == 0 {
		return 0
	}
	return float64(m.UsedMB) / float64(m.TotalMB) * 100
}

// Disk holds the df row for the root filesystem. Sizes keep df's human
// readable units.
type Disk struct {
	Filesystem  string  `json:"filesystem"`
	Size        string  `json:"size"`
	Used        string  `json:"used"`
	Available   string  `json:"available"`
	UsedPercent float64 `json:"used_percent"`
	Mount       string  `json:"mount"`
}

// DeviceIO is one device row from iostat.
type DeviceIO struct {
	Name      string  `json:"name"`
	TPS       float64 `json:"tps"`
	ReadKBps  float64 `json:"read_kbps"`
	WriteKBps float64 `json:"write_kbps"`
}

// IO holds per-device throughput.
type IO struct {
	Devices []DeviceIO `json:"devices"`
}

// Snapshot is one collection pass over the enabled sections.
type Snapshot struct {
	TakenAt time.Time         `json:"taken_at"`
	Host    Host              `json:"host"`
	Load    *Load             `json:"load,omitempty"`
	CPU     *CPU              `json:"cpu,omitempty"`
	Memory  *Memory           `json:"memory,omitempty"`
	Disk    *Disk             `json:"disk,omitempty"`
	IO      *IO               `json:"io,omitempty"`
	Raw     map[string]string `json:"raw,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func (s *Snapshot) setErr(sec Section, err error) {
	if s.Errors == nil {
		s.Errors = make(map[string]string)
	}
	s.Errors[string(sec)] = err.Error()
}

func (s *Snapshot) setRaw(key, val string) {
	if s.Raw == nil {
		s.Raw = make(map[string]string)
	}
	s.Raw[key] = val
}
