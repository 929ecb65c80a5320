package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/surge-devops/surge/internal/collect"
	"github.com/surge-devops/surge/internal/output"
	"github.com/surge-devops/surge/internal/ui"
)

func newMonitorCmd(a *app) *cobra.Command {
	var (
		noLoad, noCPU, noRAM, noDisk, noIO bool
		jsonOut, record                    bool
	)

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Show load, CPU, memory, disk and I/O in one dashboard",
		Long: `Collect the selected system metrics once and render them as a dashboard.

Sections default to the [monitor] block of the config file. Use --no-<section>
to switch off a section the config enables.`,
		Example: `  surge monitor
  surge monitor -v --io
  surge monitor --no-disk --json`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mc := a.cfg.Monitor
			if mc.Interval <= 0 {
				return usageError("Interval must be a positive integer.")
			}

			sections := collect.Sections{
				collect.SectionLoad:   mc.Load && !noLoad,
				collect.SectionCPU:    mc.CPU && !noCPU,
				collect.SectionMemory: mc.RAM && !noRAM,
				collect.SectionDisk:   mc.Disk && !noDisk,
				collect.SectionIO:     mc.IO && !noIO,
			}
			out := cmd.OutOrStdout()
			if !sections.Any() {
				output.WriteWarning(out, "No sections selected. Enable at least one of: --load, --cpu, --ram, --disk, --io")
				return &ExitError{Code: 1}
			}

			ctx := cmd.Context()
			snap, collectErr := a.collector(a.runner()).Collect(ctx, sections, false)
			if snap == nil {
				return collectErr
			}

			if record {
				if err := a.record(ctx, snap); err != nil {
					output.WriteWarning(out, fmt.Sprintf("Snapshot not recorded: %v", err))
				}
			}

			if jsonOut {
				f := output.New(output.FormatJSON)
				f.SetWriter(out)
				if err := f.Output(snap); err != nil {
					return err
				}
			} else {
				err := output.WriteDashboard(out, snap, output.DashboardOptions{
					Sections: sections,
					Verbose:  mc.Verbose,
					Width:    ui.Width(out),
				})
				if err != nil {
					return err
				}
			}

			if errors.Is(collectErr, collect.ErrNoData) {
				return collectErr
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.BoolP("load", "l", true, "Show load averages")
	f.BoolP("cpu", "c", true, "Show CPU usage")
	f.BoolP("ram", "r", true, "Show memory usage")
	f.BoolP("disk", "d", true, "Show disk usage")
	f.BoolP("io", "o", false, "Show disk I/O")
	f.IntP("interval", "i", 5, "Polling interval in seconds")
	f.BoolP("verbose", "v", false, "Show per-core load and status")
	f.BoolVar(&noLoad, "no-load", false, "Hide load averages")
	f.BoolVar(&noCPU, "no-cpu", false, "Hide CPU usage")
	f.BoolVar(&noRAM, "no-ram", false, "Hide memory usage")
	f.BoolVar(&noDisk, "no-disk", false, "Hide disk usage")
	f.BoolVar(&noIO, "no-io", false, "Hide disk I/O")
	f.BoolVar(&jsonOut, "json", false, "Print the snapshot as JSON")
	f.BoolVar(&record, "record", false, "Store the snapshot in the history database")

	a.bind(f, map[string]string{
		"monitor.load":     "load",
		"monitor.cpu":      "cpu",
		"monitor.ram":      "ram",
		"monitor.disk":     "disk",
		"monitor.io":       "io",
		"monitor.interval": "interval",
		"monitor.verbose":  "verbose",
	})
	return cmd
}
