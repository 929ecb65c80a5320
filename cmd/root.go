package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/surge-devops/surge/internal/ai"
	"github.com/surge-devops/surge/internal/collect"
	"github.com/surge-devops/surge/internal/config"
	"github.com/surge-devops/surge/internal/runner"
	"github.com/surge-devops/surge/internal/ui"
)

var (
	// Version info populated from main
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets build-time version information.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

const banner = `   _____
  / ___/__  ___________ ____
  \__ \/ / / / ___/ __ '/ _ \
 ___/ / /_/ / /  / /_/ /  __/
/____/\__,_/_/   \__, /\___/
                /____/`

// ─── Exit codes ──────────────────────────────────────────────────────────────

// ExitError carries the process exit code for err. A nil Err exits quietly.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

func usageError(format string, args ...any) error {
	return &ExitError{Code: 2, Err: fmt.Errorf(format, args...)}
}

// ExitCode maps an error returned by the command tree to a process exit
// code: 0 for nil, 2 for usage problems, 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	msg := err.Error()
	for _, prefix := range []string{"unknown command", "unknown flag", "unknown shorthand flag", "invalid argument", "flag needs an argument", "accepts "} {
		if strings.HasPrefix(msg, prefix) {
			return 2
		}
	}
	return 1
}

// noArgs rejects positional arguments with a usage error.
func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return usageError("unknown command %q for %q", args[0], cmd.CommandPath())
	}
	return nil
}

// ─── Dependencies ────────────────────────────────────────────────────────────

// Deps are the external collaborators of the command tree. Zero values
// select the real implementations.
type Deps struct {
	Stdout   io.Writer
	Stderr   io.Writer
	Stdin    io.ReadCloser
	Runner   runner.Runner
	System   collect.System
	Getenv   func(string) string
	NewModel func(ai.ModelConfig) (ai.Model, error)
	Confirm  ai.Confirmer
}

func (d *Deps) fill() {
	if d.Stdout == nil {
		d.Stdout = os.Stdout
	}
	if d.Stderr == nil {
		d.Stderr = os.Stderr
	}
	if d.Stdin == nil {
		d.Stdin = os.Stdin
	}
	if d.Getenv == nil {
		d.Getenv = os.Getenv
	}
	if d.NewModel == nil {
		d.NewModel = ai.NewModel
	}
	if d.Confirm == nil {
		d.Confirm = ai.ReadlineConfirmer{Stdin: d.Stdin, Stdout: d.Stdout}
	}
}

// app is the per-invocation state shared by every subcommand.
type app struct {
	deps   Deps
	loader *config.Loader
	cfg    *config.Config

	configPath string
	debug      bool
	noColor    bool

	// configOptional lets a missing --config file fall back to defaults.
	configOptional bool
}

// runner returns the injected runner or an Exec honouring runner.timeout.
func (a *app) runner(opts ...runner.Option) runner.Runner {
	if a.deps.Runner != nil {
		return a.deps.Runner
	}
	opts = append([]runner.Option{runner.WithTimeout(a.cfg.Runner.Timeout)}, opts...)
	return runner.NewExec(opts...)
}

func (a *app) collector(r runner.Runner) *collect.Collector {
	if a.deps.System != nil {
		return collect.New(r, collect.WithSystem(a.deps.System))
	}
	return collect.New(r)
}

func (a *app) setup() error {
	explicit := a.configPath
	if a.configOptional && explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			explicit = ""
		}
	}
	if explicit != "" || a.configPath == "" {
		if err := a.loader.Read(explicit); err != nil {
			return err
		}
	}
	cfg, err := a.loader.Config()
	if err != nil {
		return err
	}
	if a.debug {
		cfg.Log.Debug = true
	}
	if a.noColor {
		cfg.Console.NoColor = true
	}
	a.cfg = cfg

	cfg.Log.ConfigureZerolog(a.deps.Stderr, cfg.Console.NoColor)
	ui.ConfigureColor(a.deps.Stdout, cfg.Console.ForceColor, cfg.Console.NoColor)
	if f := a.loader.File(); f != "" {
		log.Debug().Str("path", f).Msg("Loaded config file")
	}
	return nil
}

// ─── Root command ────────────────────────────────────────────────────────────

// NewRootCmd builds the surge command tree.
func NewRootCmd(deps Deps) *cobra.Command {
	deps.fill()
	a := &app{deps: deps, loader: config.NewLoader()}

	root := &cobra.Command{
		Use:   "surge",
		Short: "A DevOps CLI tool for system monitoring and production reliability",
		Long: `Surge - A DevOps CLI Tool For System Monitoring and Production Reliability.

Wraps standard Linux diagnostics (uptime, top, free, df, iostat, ping,
traceroute, curl, dig, ss) behind one command surface with tabular output.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return usageError("unknown command %q for %q", args[0], cmd.CommandPath())
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.TitleStyle.Render(banner))
			fmt.Fprintf(out, "Version %s (%s) built %s\n\n", appVersion, appCommit, appDate)
			return cmd.Help()
		},
	}
	root.SetOut(deps.Stdout)
	root.SetErr(deps.Stderr)
	root.SetIn(deps.Stdin)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ExitError{Code: 2, Err: err}
	})

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "Path to config file (default search: $SURGE_CONFIG, ./config/config.toml, ~/.config/surge/config.toml)")
	pf.BoolVar(&a.debug, "debug", false, "Show detailed operation logs")
	pf.BoolVar(&a.noColor, "no-color", false, "Disable colored output")

	for _, sub := range subcommands {
		root.AddCommand(sub(a))
	}
	return root
}

// subcommands builds a fresh command per root so flag state never leaks
// between invocations.
var subcommands []func(*app) *cobra.Command

func init() {
	// Register all subcommands
	subcommands = append(subcommands,
		newMonitorCmd,
		newNetworkCmd,
		newAICmd,
		newStatusCmd,
		newServeCmd,
		newHistoryCmd,
		newConfigCmd,
		newCompletionCmd,
		newVersionCmd,
	)
}

// Execute runs the command tree with signal-aware context and returns the
// process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCmd(Deps{})
	err := root.ExecuteContext(ctx)
	code := ExitCode(err)
	var exitErr *ExitError
	if err != nil && !(errors.As(err, &exitErr) && exitErr.Err == nil) {
		fmt.Fprintln(os.Stderr, ui.ErrorStyle.Render("Error: "+err.Error()))
	}
	return code
}
