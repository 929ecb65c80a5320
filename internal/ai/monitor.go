package ai

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/surge-devops/surge/internal/collect"
	"github.com/surge-devops/surge/internal/ui"
)

// MemoryWindow is the number of exchanges remembered between analyses.
const MemoryWindow = 3

// Snapshotter collects the metrics an analysis is based on.
type Snapshotter interface {
	Collect(ctx context.Context, sections collect.Sections, includeRaw bool) (*collect.Snapshot, error)
}

// Options tune an analysis run.
type Options struct {
	Format    DataFormat
	Verbosity Verbosity
	AutoFix   bool
}

// Analysis is the outcome of one model round-trip.
type Analysis struct {
	Snapshot *collect.Snapshot `json:"snapshot"`
	Response string            `json:"analysis"`
	Commands []string          `json:"commands"`
}

// Monitor runs collect, analyse, suggest and confirm-then-execute.
type Monitor struct {
	source   Snapshotter
	model    Model
	executor *Executor
	confirm  Confirmer
	memory   *Memory
	out      io.Writer
	opts     Options
}

// NewMonitor wires the pieces together. Output is written to out.
func NewMonitor(source Snapshotter, model Model, executor *Executor, confirm Confirmer, out io.Writer, opts Options) *Monitor {
	if opts.Format == "" {
		opts.Format = FormatHybrid
	}
	if opts.Verbosity == "" {
		opts.Verbosity = VerbosityNormal
	}
	return &Monitor{
		source:   source,
		model:    model,
		executor: executor,
		confirm:  confirm,
		memory:   NewMemory(MemoryWindow),
		out:      out,
		opts:     opts,
	}
}

// Memory exposes the conversation window.
func (m *Monitor) Memory() *Memory { return m.memory }

var analysisSections = collect.Sections{
	collect.SectionLoad:   true,
	collect.SectionMemory: true,
	collect.SectionDisk:   true,
}

// Analyze collects a snapshot and asks the model about it.
func (m *Monitor) Analyze(ctx context.Context) (*Analysis, error) {
	fmt.Fprintln(m.out, ui.MutedStyle.Render("Collecting system metrics..."))
	snap, err := m.source.Collect(ctx, analysisSections, m.opts.Format.NeedsRaw())
	if err != nil {
		return nil, fmt.Errorf("collect metrics: %w", err)
	}

	fmt.Fprintln(m.out, ui.SuccessStyle.Render("Analyzing system state..."))
	messages := []Message{{Role: RoleSystem, Content: SystemPrompt}}
	messages = append(messages, m.memory.Messages()...)
	messages = append(messages, Message{Role: RoleUser, Content: PrepareData(snap, m.opts.Format)})

	response, err := m.model.Chat(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("analysis failed: %w", err)
	}

	formatted := FormatResponse(response, m.opts.Verbosity, m.opts.Format)
	var input string
	if snap.Load != nil {
		input = fmt.Sprintf("System analysis at %v", snap.Load.Averages())
	} else {
		input = fmt.Sprintf("System analysis at %s", snap.TakenAt.Format("15:04:05"))
	}
	m.memory.Save(input, formatted)

	return &Analysis{
		Snapshot: snap,
		Response: formatted,
		Commands: ExtractCommands(response),
	}, nil
}

// RunFixes executes each command the user agrees to. Diagnostic commands
// skip the prompt when auto-fix is on.
func (m *Monitor) RunFixes(ctx context.Context, commands []string) ([]FixResult, error) {
	results := make([]FixResult, 0, len(commands))
	for _, cmd := range commands {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		fmt.Fprintf(m.out, "\n%s %s\n", ui.WarnStyle.Render("Suggested fix:"), cmd)

		run := m.opts.AutoFix && IsDiagnostic(cmd)
		if !run {
			ok, err := m.confirm.Confirm("Execute this command?")
			if err != nil {
				return results, err
			}
			run = ok
		}
		if !run {
			results = append(results, FixResult{Command: cmd, Output: "Skipped by user"})
			continue
		}

		res := m.executor.Execute(ctx, cmd)
		results = append(results, res)
		if res.Success {
			fmt.Fprintln(m.out, ui.SuccessStyle.Render("Command executed"))
		} else {
			fmt.Fprintln(m.out, ui.ErrorStyle.Render("Failed: "+res.Output))
		}
	}
	return results, nil
}

// Run analyses the system and offers the suggested fixes. After a round in
// which at least one fix ran, it offers to analyse again; the follow-up
// request carries the earlier analyses and fix results from memory.
func (m *Monitor) Run(ctx context.Context) error {
	fmt.Fprintln(m.out, ui.Panel("AI System Monitor", "Analyzing system and suggesting optimizations", ui.ColorPrimary))

	for {
		ran, err := m.round(ctx)
		if err != nil || !ran {
			return err
		}
		again, err := m.confirm.Confirm("Re-analyze the system with the fix results?")
		if err != nil || !again {
			return err
		}
	}
}

// round runs one analysis and its fixes. It reports whether any fix
// executed successfully.
func (m *Monitor) round(ctx context.Context) (bool, error) {
	analysis, err := m.Analyze(ctx)
	if err != nil {
		return false, err
	}

	fmt.Fprintf(m.out, "\n%s\n%s\n", ui.HeaderStyle.Render("Analysis:"), analysis.Response)

	if len(analysis.Commands) == 0 {
		fmt.Fprintln(m.out, "\n"+ui.SuccessStyle.Render("System is healthy, no fixes needed"))
		return false, nil
	}

	fmt.Fprintf(m.out, "\n%s\n", ui.WarnStyle.Render(fmt.Sprintf("Found %d suggested fixes", len(analysis.Commands))))

	review := m.opts.AutoFix
	if !review {
		review, err = m.confirm.Confirm("Would you like to review and execute fixes?")
		if err != nil {
			return false, err
		}
	}
	if !review {
		log.Debug().Int("commands", len(analysis.Commands)).Msg("fixes declined")
		return false, nil
	}

	results, err := m.RunFixes(ctx, analysis.Commands)
	fmt.Fprintf(m.out, "\n%s\n", ui.HeaderStyle.Render("Execution Summary:"))
	var (
		report []string
		ran    bool
	)
	for _, r := range results {
		mark := ui.SuccessStyle.Render(ui.IconSuccess)
		status := "ok"
		if !r.Success {
			mark = ui.ErrorStyle.Render(ui.IconError)
			status = "failed"
		}
		ran = ran || r.Success
		fmt.Fprintf(m.out, "%s %s\n", mark, r.Command)
		report = append(report, fmt.Sprintf("%s [%s]: %s", r.Command, status, r.Output))
	}
	if len(report) > 0 {
		m.memory.Save("Executed fixes", strings.Join(report, "\n"))
	}
	return ran, err
}
