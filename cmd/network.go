package cmd

import (
	"errors"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/surge-devops/surge/internal/network"
	"github.com/surge-devops/surge/internal/output"
)

const nothingToDo = "Nothing to do. Provide at least one of: --host, --url, --domain, --sockets"

func newNetworkCmd(a *app) *cobra.Command {
	var (
		url, host, domain string
		jsonOut           bool
	)

	cmd := &cobra.Command{
		Use:   "network",
		Short: "Run ping, traceroute, HTTP, DNS and socket diagnostics",
		Long: `Run only the network diagnostics you ask for.

--host runs ping and traceroute, --url times an HTTP request and shows its
headers, --domain resolves a record and --sockets lists listening sockets.`,
		Example: `  surge network -H example.com
  surge network -u example.com --no-trace
  surge network -d example.com -t MX --sockets`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			nc := a.cfg.Network
			fs := cmd.Flags()
			opts := network.Options{
				URL:     changed(fs, "url", url),
				Host:    changed(fs, "host", host),
				Domain:  changed(fs, "domain", domain),
				Count:   nc.Requests,
				DNSType: nc.DType,
				Sockets: nc.Sockets,
				NoTrace: nc.NoTrace,
			}

			out := cmd.OutOrStdout()
			report, err := network.New(a.runner()).Run(cmd.Context(), opts)
			switch {
			case errors.Is(err, network.ErrNothingToDo):
				output.WriteWarning(out, nothingToDo)
				return &ExitError{Code: 1}
			case errors.Is(err, network.ErrInvalidOption):
				return &ExitError{Code: 2, Err: err}
			case err != nil:
				return err
			}

			if jsonOut {
				f := output.New(output.FormatJSON)
				f.SetWriter(out)
				return f.Output(report)
			}
			return output.WriteReport(out, report)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&url, "url", "u", "", "URL to time with curl (http:// is added when missing)")
	f.StringVarP(&host, "host", "H", "", "Host to ping and trace")
	f.StringVarP(&domain, "domain", "d", "", "Domain to resolve")
	f.IntP("count", "n", network.DefaultCount, "Number of ping requests")
	f.StringP("type", "t", "A", "DNS record type")
	f.Bool("sockets", false, "List listening sockets")
	f.Bool("no-trace", false, "Skip traceroute")
	f.BoolVar(&jsonOut, "json", false, "Print the report as JSON")

	a.bind(f, map[string]string{
		"network.requests": "count",
		"network.dtype":    "type",
		"network.sockets":  "sockets",
		"network.no_trace": "no-trace",
	})
	return cmd
}

// changed returns &val when the flag was given, nil otherwise, so an
// explicit empty value can be told apart from an absent one.
func changed(fs *pflag.FlagSet, name, val string) *string {
	if !fs.Changed(name) {
		return nil
	}
	return &val
}
