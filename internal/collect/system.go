package collect

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/load"
)

// System answers the queries that have a direct kernel source. It backs
// host identification and the load/core fallbacks.
type System interface {
	Host(ctx context.Context) (Host, error)
	LoadAvg(ctx context.Context) (Load, error)
	Cores(ctx context.Context) (int, error)
}

type gopsutilSystem struct{}

func (gopsutilSystem) Host(ctx context.Context) (Host, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return Host{}, fmt.Errorf("host info: %w", err)
	}
	platform := info.Platform
	if info.PlatformVersion != "" {
		platform += " " + info.PlatformVersion
	}
	return Host{
		Hostname: info.Hostname,
		Platform: platform,
		Kernel:   info.KernelVersion,
		Arch:     info.KernelArch,
		Uptime:   info.Uptime,
	}, nil
}

func (gopsutilSystem) LoadAvg(ctx context.Context) (Load, error) {
	avg, err := load.AvgWithContext(ctx)
	if err != nil {
		return Load{}, fmt.Errorf("load average: %w", err)
	}
	return Load{One: avg.Load1, Five: avg.Load5, Fifteen: avg.Load15}, nil
}

func (gopsutilSystem) Cores(ctx context.Context) (int, error) {
	n, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		return 0, fmt.Errorf("cpu count: %w", err)
	}
	return n, nil
}
