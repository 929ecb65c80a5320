package cmd

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/surge-devops/surge/internal/config"
	"github.com/surge-devops/surge/internal/output"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the surge config file",
		Args:  noArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.configOptional = true
			return a.setup()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newConfigInitCmd(a), newConfigShowCmd(a), newConfigPathCmd(a))
	return cmd
}

func newConfigInitCmd(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the built-in defaults",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.DefaultPath(a.configPath)
			if err := config.WriteDefaults(path, force); err != nil {
				if errors.Is(err, config.ErrExists) {
					return &ExitError{Code: 1, Err: err}
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote default config to %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	return cmd
}

func newConfigShowCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long:  "Print the configuration after merging defaults, the config file, SURGE_* variables and flags.",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := output.ParseFormat(format)
			if err != nil {
				return usageError("%v", err)
			}
			out := cmd.OutOrStdout()
			v := a.loader.Viper()
			formatter := output.New(f)
			formatter.SetWriter(out)
			if formatter.IsText() {
				keys := v.AllKeys()
				sort.Strings(keys)
				for _, k := range keys {
					fmt.Fprintf(out, "%s = %v\n", k, v.Get(k))
				}
				return nil
			}
			return formatter.Output(v.AllSettings())
		},
	}
	cmd.Flags().StringVarP(&format, "output", "o", "text", "Output format: text, json or yaml")
	return cmd
}

func newConfigPathCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show which config file is in use and where surge looks",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if f := a.loader.File(); f != "" {
				fmt.Fprintf(out, "Using: %s\n", f)
			} else {
				fmt.Fprintln(out, "Using: built-in defaults")
			}
			fmt.Fprintln(out, "Search order:")
			for _, p := range config.SearchPaths(a.configPath) {
				fmt.Fprintf(out, "  %s\n", p)
			}
			return nil
		},
	}
}
