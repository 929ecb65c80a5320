package collect

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surge-devops/surge/internal/runner/runnertest"
)

type stubSystem struct {
	host    Host
	load    Load
	loadErr error
	cores   int
}

func (s stubSystem) Host(context.Context) (Host, error) { return s.host, nil }
func (s stubSystem) LoadAvg(context.Context) (Load, error) {
	return s.load, s.loadErr
}
func (s stubSystem) Cores(context.Context) (int, error) {
	if s.cores == 0 {
		return 0, errors.New("no cores")
	}
	return s.cores, nil
}

var fixedTime = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func newTestCollector(f *runnertest.Fake, sys stubSystem) *Collector {
	return New(f, WithSystem(sys), WithClock(func() time.Time { return fixedTime }))
}

func healthyFake() *runnertest.Fake {
	return runnertest.New().
		Stdout("uptime", "10:00 up 1 day, load average: 0.10, 0.20, 0.30").
		Stdout("nproc", "8").
		Stdout("top -bn1", "%Cpu(s): 12.3 us,  3.4 sy,  0.0 ni, 80.0 id").
		Stdout("free -m", "Mem: 32000 12000 20000 0 0 0").
		Stdout("df -h /", "/dev/sda1 100G 40G 60G 40% /").
		Stdout("iostat", "Device tps kB_read/s kB_wrtn/s\nsda 1.0 2.0 3.0")
}

func TestCollectAllSections(t *testing.T) {
	c := newTestCollector(healthyFake(), stubSystem{host: Host{Hostname: "box"}})

	all := Sections{SectionLoad: true, SectionCPU: true, SectionMemory: true, SectionDisk: true, SectionIO: true}
	snap, err := c.Collect(context.Background(), all, false)
	require.NoError(t, err)

	assert.Equal(t, fixedTime, snap.TakenAt)
	assert.Equal(t, "box", snap.Host.Hostname)
	require.NotNil(t, snap.Load)
	assert.Equal(t, 8, snap.Load.Cores)
	assert.InDelta(t, 0.1, snap.Load.One, 1e-9)
	require.NotNil(t, snap.CPU)
	assert.Equal(t, 12.3, snap.CPU.User)
	require.NotNil(t, snap.Memory)
	assert.Equal(t, int64(12000), snap.Memory.UsedMB)
	require.NotNil(t, snap.Disk)
	assert.Equal(t, "100G", snap.Disk.Size)
	require.NotNil(t, snap.IO)
	assert.Len(t, snap.IO.Devices, 1)
	assert.Empty(t, snap.Errors)
	assert.Empty(t, snap.Raw)
}

func TestCollectOnlyRequestedSections(t *testing.T) {
	f := healthyFake()
	c := newTestCollector(f, stubSystem{})

	snap, err := c.Collect(context.Background(), Sections{SectionMemory: true}, false)
	require.NoError(t, err)
	assert.NotNil(t, snap.Memory)
	assert.Nil(t, snap.Load)
	assert.Nil(t, snap.CPU)
	assert.False(t, f.Called("top"))
	assert.False(t, f.Called("iostat"))
}

func TestCollectIncludesRawOutput(t *testing.T) {
	c := newTestCollector(healthyFake(), stubSystem{})

	snap, err := c.Collect(context.Background(), Sections{SectionLoad: true, SectionMemory: true}, true)
	require.NoError(t, err)
	assert.Contains(t, snap.Raw["uptime"], "load average")
	assert.Contains(t, snap.Raw["free"], "Mem:")
}

func TestCollectRecordsSectionErrors(t *testing.T) {
	f := runnertest.New().Stdout("free -m", "Mem: 764 492 144")
	c := newTestCollector(f, stubSystem{})

	snap, err := c.Collect(context.Background(), Sections{SectionMemory: true, SectionDisk: true}, false)
	require.NoError(t, err)
	assert.NotNil(t, snap.Memory)
	assert.Nil(t, snap.Disk)
	assert.Contains(t, snap.Errors["disk"], "command not found")
}

func TestCollectFailsWhenEverythingFails(t *testing.T) {
	c := newTestCollector(runnertest.New(), stubSystem{})

	_, err := c.Collect(context.Background(), Sections{SectionCPU: true, SectionDisk: true}, false)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestLoadFallsBackToKernel(t *testing.T) {
	c := newTestCollector(runnertest.New(), stubSystem{
		load:  Load{One: 1.5, Five: 1.0, Fifteen: 0.5},
		cores: 2,
	})

	l, raw, err := c.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, raw)
	assert.Equal(t, Load{One: 1.5, Five: 1.0, Fifteen: 0.5, Cores: 2}, l)
}

func TestLoadFallbackFailure(t *testing.T) {
	c := newTestCollector(runnertest.New(), stubSystem{loadErr: errors.New("no /proc")})

	_, _, err := c.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no /proc")
}

func TestCollectHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := newTestCollector(healthyFake(), stubSystem{})
	_, err := c.Collect(ctx, Sections{SectionCPU: true}, false)
	assert.ErrorIs(t, err, context.Canceled)
}
