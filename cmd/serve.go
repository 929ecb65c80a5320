package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/surge-devops/surge/internal/collect"
	"github.com/surge-devops/surge/internal/metrics"
	"github.com/surge-devops/surge/internal/runner"
	"github.com/surge-devops/surge/internal/scheduler"
)

func newServeCmd(a *app) *cobra.Command {
	var record bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Collect on a schedule and expose Prometheus metrics",
		Long: `Collect every section on a fixed interval and serve the results over HTTP:

  GET /metrics    Prometheus exposition
  GET /healthz    liveness and time of the last collection
  GET /snapshot   latest snapshot as JSON (503 until the first collection)`,
		Example: `  surge serve
  surge serve --listen 127.0.0.1:9109 --interval 30 --record`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sc := a.cfg.Serve
			if sc.Interval <= 0 {
				return usageError("--interval must be a positive integer, got %d", sc.Interval)
			}
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			reg := metrics.NewRegistry()
			exporter := metrics.New(reg)
			server := metrics.NewServer(exporter, reg)

			c := a.collector(a.runner(runner.WithObserver(exporter.ObserveRun)))
			sched := &scheduler.Scheduler{
				Interval: time.Duration(sc.Interval) * time.Second,
				Collect: func(ctx context.Context) (*collect.Snapshot, error) {
					return c.Collect(ctx, allSections, false)
				},
				Sinks: []scheduler.Sink{server.Sink},
			}
			if record {
				st, err := a.openStore(ctx)
				if err != nil {
					return err
				}
				defer st.Close()
				sched.Sinks = append(sched.Sinks, st.Sink(a.keep()))
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Serving metrics on %s (collecting every %ds)\n", sc.Listen, sc.Interval)

			done := make(chan error, 1)
			go func() { done <- sched.Run(ctx) }()

			err := server.ListenAndServe(ctx, sc.Listen)
			cancel()
			if schedErr := <-done; schedErr != nil {
				log.Warn().Err(schedErr).Msg("scheduler stopped with error")
			}
			return err
		},
	}

	f := cmd.Flags()
	f.String("listen", ":9109", "Address for the metrics server")
	f.Int("interval", 15, "Collection interval in seconds")
	f.BoolVar(&record, "record", false, "Store every snapshot in the history database")

	a.bind(f, map[string]string{
		"serve.listen":   "listen",
		"serve.interval": "interval",
	})
	return cmd
}
