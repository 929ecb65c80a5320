// Package metrics exports collected snapshots as Prometheus gauges and
// counts tool invocations.
package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/surge-devops/surge/internal/collect"
)

// Exporter holds every Surge collector, registered against one registry.
type Exporter struct {
	LoadAverage    *prometheus.GaugeVec
	CPUPercent     *prometheus.GaugeVec
	MemoryMB       *prometheus.GaugeVec
	DiskUsed       *prometheus.GaugeVec
	IOKBps         *prometheus.GaugeVec
	CollectedAt    prometheus.Gauge
	ToolRunsTotal  *prometheus.CounterVec
	ToolRunSeconds *prometheus.HistogramVec
}

// NewRegistry returns a registry with the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// New registers the Surge collectors with reg.
func New(reg prometheus.Registerer) *Exporter {
	factory := promauto.With(reg)
	return &Exporter{
		LoadAverage: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "surge_load_average",
				Help: "System load average by window",
			},
			[]string{"window"},
		),
		CPUPercent: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "surge_cpu_percent",
				Help: "CPU utilisation percentage by mode",
			},
			[]string{"mode"},
		),
		MemoryMB: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "surge_memory_megabytes",
				Help: "Memory in megabytes by kind",
			},
			[]string{"kind"},
		),
		DiskUsed: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "surge_disk_used_percent",
				Help: "Filesystem usage percentage",
			},
			[]string{"mount"},
		),
		IOKBps: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "surge_io_kilobytes_per_second",
				Help: "Device throughput in kilobytes per second",
			},
			[]string{"device", "direction"},
		),
		CollectedAt: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "surge_collection_timestamp_seconds",
				Help: "Unix time of the last successful collection",
			},
		),
		ToolRunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "surge_tool_runs_total",
				Help: "Total number of diagnostic tool invocations",
			},
			[]string{"tool", "outcome"},
		),
		ToolRunSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "surge_tool_run_duration_seconds",
				Help:    "Diagnostic tool run time in seconds",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"tool"},
		),
	}
}

// ObserveRun matches runner.Observer.
func (e *Exporter) ObserveRun(tool, outcome string, d time.Duration) {
	e.ToolRunsTotal.WithLabelValues(tool, outcome).Inc()
	e.ToolRunSeconds.WithLabelValues(tool).Observe(d.Seconds())
}

// Update sets the gauges from snap. Sections that were not collected keep
// their previous values.
func (e *Exporter) Update(snap *collect.Snapshot) {
	if snap == nil {
		return
	}
	if l := snap.Load; l != nil {
		e.LoadAverage.WithLabelValues("1m").Set(l.One)
		e.LoadAverage.WithLabelValues("5m").Set(l.Five)
		e.LoadAverage.WithLabelValues("15m").Set(l.Fifteen)
	}
	if c := snap.CPU; c != nil {
		e.CPUPercent.WithLabelValues("user").Set(c.User)
		e.CPUPercent.WithLabelValues("system").Set(c.System)
		e.CPUPercent.WithLabelValues("idle").Set(c.Idle)
	}
	if m := snap.Memory; m != nil {
		e.MemoryMB.WithLabelValues("total").Set(float64(m.TotalMB))
		e.MemoryMB.WithLabelValues("used").Set(float64(m.UsedMB))
		e.MemoryMB.WithLabelValues("free").Set(float64(m.FreeMB))
	}
	if d := snap.Disk; d != nil {
		e.DiskUsed.WithLabelValues(d.Mount).Set(d.UsedPercent)
	}
	if io := snap.IO; io != nil {
		for _, dev := range io.Devices {
			name := strings.TrimSpace(dev.Name)
			e.IOKBps.WithLabelValues(name, "read").Set(dev.ReadKBps)
			e.IOKBps.WithLabelValues(name, "write").Set(dev.WriteKBps)
		}
	}
	if !snap.TakenAt.IsZero() {
		e.CollectedAt.Set(float64(snap.TakenAt.Unix()))
	}
}
