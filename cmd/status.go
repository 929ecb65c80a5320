package cmd

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/surge-devops/surge/internal/collect"
	"github.com/surge-devops/surge/internal/output"
	"github.com/surge-devops/surge/internal/status"
)

var allSections = collect.Sections{
	collect.SectionLoad:   true,
	collect.SectionCPU:    true,
	collect.SectionMemory: true,
	collect.SectionDisk:   true,
	collect.SectionIO:     true,
}

func newStatusCmd(a *app) *cobra.Command {
	var (
		refresh int
		record  bool
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Monitor system health",
		Long:  "Real-time dashboard with load, CPU, memory, disk and I/O metrics and a health score.",
		Example: `  surge status
  surge status --refresh 5 --record
  surge status --json`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if refresh <= 0 {
				return usageError("--refresh must be a positive integer, got %d", refresh)
			}
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			c := a.collector(a.runner())
			collectAll := func(ctx context.Context) (*collect.Snapshot, error) {
				return c.Collect(ctx, allSections, false)
			}

			if jsonOut {
				snap, err := collectAll(ctx)
				if snap == nil {
					return err
				}
				f := output.New(output.FormatJSON)
				f.SetWriter(out)
				return f.Output(snap)
			}

			var rec status.RecordFunc
			if record {
				st, err := a.openStore(ctx)
				if err != nil {
					return err
				}
				defer st.Close()
				rec = st.Sink(a.keep())
			}

			m := status.New(ctx, collectAll, rec, time.Duration(refresh)*time.Second)
			p := tea.NewProgram(m,
				tea.WithAltScreen(),
				tea.WithContext(ctx),
				tea.WithInput(a.deps.Stdin),
				tea.WithOutput(out),
			)
			_, err := p.Run()
			if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
				return nil
			}
			return err
		},
	}

	f := cmd.Flags()
	f.IntVar(&refresh, "refresh", 1, "Refresh interval in seconds")
	f.BoolVar(&record, "record", false, "Store every snapshot in the history database")
	f.BoolVar(&jsonOut, "json", false, "Output one snapshot as JSON and exit")
	return cmd
}
