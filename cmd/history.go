package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/surge-devops/surge/internal/output"
)

func newHistoryCmd(a *app) *cobra.Command {
	var (
		limit   int
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded snapshots",
		Long: `List snapshots stored by monitor, status or serve with --record, newest
first, followed by a sparkline of the 1 minute load average.`,
		Example: `  surge history
  surge history --limit 50 --json`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return usageError("--limit must be a positive integer, got %d", limit)
			}
			ctx := cmd.Context()
			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			samples, err := st.Recent(ctx, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				f := output.New(output.FormatJSON)
				f.SetWriter(out)
				return f.Output(samples)
			}
			if err := output.WriteHistory(out, samples); err != nil {
				return err
			}
			if len(samples) == 0 {
				return nil
			}
			total, err := st.Count(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Showing %d of %d recorded samples (%s)\n", len(samples), total, st.Path())
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Number of samples to show")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print samples as JSON")
	return cmd
}
