// Package collect gathers system metrics by running standard Linux
// utilities and parsing their text output.
package collect

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/surge-devops/surge/internal/runner"
)

// Collector runs the metric tools for each enabled section.
type Collector struct {
	run   runner.Runner
	sys   System
	clock func() time.Time
}

// Option configures a Collector.
type Option func(*Collector)

// WithSystem replaces the gopsutil-backed host queries.
func WithSystem(s System) Option {
	return func(c *Collector) { c.sys = s }
}

// WithClock overrides the snapshot timestamp source.
func WithClock(now func() time.Time) Option {
	return func(c *Collector) { c.clock = now }
}

// New creates a Collector that executes tools through r.
func New(r runner.Runner, opts ...Option) *Collector {
	c := &Collector{
		run:   r,
		sys:   gopsutilSystem{},
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Collect gathers every enabled section. A failing section is recorded in
// Snapshot.Errors without aborting the others; an error is returned only
// when nothing could be collected.
func (c *Collector) Collect(ctx context.Context, sections Sections, includeRaw bool) (*Snapshot, error) {
	snap := &Snapshot{TakenAt: c.clock()}

	if h, err := c.sys.Host(ctx); err != nil {
		log.Debug().Err(err).Msg("Host info unavailable")
	} else {
		snap.Host = h
	}

	requested, failed := 0, 0
	for _, sec := range AllSections {
		if !sections.Enabled(sec) {
			continue
		}
		requested++
		if err := c.collectSection(ctx, snap, sec, includeRaw); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			failed++
			snap.setErr(sec, err)
			log.Warn().Err(err).Str("section", string(sec)).Msg("Metric collection failed")
		}
	}

	if requested > 0 && failed == requested {
		return snap, fmt.Errorf("all %d sections failed: %w", requested, ErrNoData)
	}
	return snap, nil
}

func (c *Collector) collectSection(ctx context.Context, snap *Snapshot, sec Section, includeRaw bool) error {
	switch sec {
	case SectionLoad:
		l, raw, err := c.Load(ctx)
		if includeRaw && raw != "" {
			snap.setRaw("uptime", raw)
		}
		if err != nil {
			return err
		}
		snap.Load = &l
	case SectionCPU:
		cpu, raw, err := c.CPU(ctx)
		if includeRaw && raw != "" {
			snap.setRaw("top", raw)
		}
		if err != nil {
			return err
		}
		snap.CPU = &cpu
	case SectionMemory:
		m, raw, err := c.Memory(ctx)
		if includeRaw && raw != "" {
			snap.setRaw("free", raw)
		}
		if err != nil {
			return err
		}
		snap.Memory = &m
	case SectionDisk:
		d, raw, err := c.Disk(ctx)
		if includeRaw && raw != "" {
			snap.setRaw("df", raw)
		}
		if err != nil {
			return err
		}
		snap.Disk = &d
	case SectionIO:
		io, raw, err := c.IO(ctx)
		if includeRaw && raw != "" {
			snap.setRaw("iostat", raw)
		}
		if err != nil {
			return err
		}
		snap.IO = &io
	default:
		return fmt.Errorf("unknown section %q", sec)
	}
	return nil
}

// Load reads load averages from uptime and the core count from nproc,
// falling back to gopsutil for either when the tool is missing or its
// output does not parse.
func (c *Collector) Load(ctx context.Context) (Load, string, error) {
	res, err := c.run.Run(ctx, "uptime")
	raw := res.Stdout

	var l Load
	if err == nil {
		l, err = ParseLoad(raw)
	}
	if err != nil {
		if ctx.Err() != nil {
			return Load{}, raw, ctx.Err()
		}
		log.Warn().Err(err).Msg("uptime unusable, reading load from the kernel")
		fb, fbErr := c.sys.LoadAvg(ctx)
		if fbErr != nil {
			return Load{}, raw, errors.Join(err, fbErr)
		}
		l = fb
	}

	cores, err := c.cores(ctx)
	if err != nil {
		return Load{}, raw, err
	}
	l.Cores = cores
	return l, raw, nil
}

func (c *Collector) cores(ctx context.Context) (int, error) {
	res, err := c.run.Run(ctx, "nproc")
	if err == nil {
		n, perr := ParseCores(res.Stdout)
		if perr == nil {
			return n, nil
		}
		err = perr
	}
	if ctx.Err() != nil {
		return 0, ctx.Err()
	}
	log.Debug().Err(err).Msg("nproc unusable, counting CPUs directly")
	n, fbErr := c.sys.Cores(ctx)
	if fbErr != nil {
		return 0, errors.Join(err, fbErr)
	}
	return n, nil
}

// CPU reads utilisation from a single batch iteration of top.
func (c *Collector) CPU(ctx context.Context) (CPU, string, error) {
	res, err := c.run.Run(ctx, "top", "-bn1")
	if err != nil {
		return CPU{}, "", fmt.Errorf("top: %w", err)
	}
	cpu, err := ParseCPU(res.Stdout)
	return cpu, headLines(res.Stdout, 20), err
}

// Memory reads free -m.
func (c *Collector) Memory(ctx context.Context) (Memory, string, error) {
	res, err := c.run.Run(ctx, "free", "-m")
	if err != nil {
		return Memory{}, "", fmt.Errorf("free: %w", err)
	}
	m, err := ParseMemory(res.Stdout)
	return m, res.Stdout, err
}

// Disk reads df -h for the root filesystem.
func (c *Collector) Disk(ctx context.Context) (Disk, string, error) {
	res, err := c.run.Run(ctx, "df", "-h", "/")
	if err != nil {
		return Disk{}, "", fmt.Errorf("df: %w", err)
	}
	d, err := ParseDisk(res.Stdout)
	return d, res.Stdout, err
}

// IO samples device throughput over one second with iostat; the second
// report reflects current activity rather than the since-boot average.
func (c *Collector) IO(ctx context.Context) (IO, string, error) {
	res, err := c.run.Run(ctx, "iostat", "-d", "-k", "1", "2")
	if err != nil {
		return IO{}, "", fmt.Errorf("iostat: %w", err)
	}
	io, err := ParseIOStat(res.Stdout)
	return io, res.Stdout, err
}

func headLines(s string, n int) string {
	count := 0
	for i, r := range s {
		if r == '\n' {
			count++
			if count == n {
				return s[:i]
			}
		}
	}
	return s
}
