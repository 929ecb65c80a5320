package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

func newVersionCmd(_ *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  noArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "surge %s\n  commit: %s\n  built:  %s\n  go:     %s %s/%s\n",
				appVersion, appCommit, appDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}
