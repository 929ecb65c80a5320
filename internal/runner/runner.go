// Package runner executes the OS diagnostic utilities Surge aggregates and
// captures their output.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultTimeout bounds a single tool invocation.
const DefaultTimeout = 10 * time.Second

var (
	// ErrNotFound is returned when the requested binary is not on PATH.
	ErrNotFound = errors.New("command not found")
	// ErrTimeout is returned when a command exceeds its deadline.
	ErrTimeout = errors.New("command timed out")
)

// Result is the captured outcome of one tool invocation. A non-zero exit code
// is not an error: tools like ping report useful output while exiting 1.
type Result struct {
	Command  string        `json:"command"`
	Args     []string      `json:"args,omitempty"`
	Stdout   string        `json:"stdout"`
	Stderr   string        `json:"stderr,omitempty"`
	ExitCode int           `json:"exit_code"`
	Duration time.Duration `json:"duration"`
}

// OK reports whether the command exited zero.
func (r Result) OK() bool { return r.ExitCode == 0 }

// String renders the command line for logs and messages.
func (r Result) String() string {
	return strings.TrimSpace(r.Command + " " + strings.Join(r.Args, " "))
}

// Runner runs a named command with arguments.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Result, error)
}

// Observer is notified after every invocation. outcome is one of
// "ok", "exit", "notfound", "timeout" or "error".
type Observer func(tool, outcome string, d time.Duration)

// Exec runs commands as child processes without a shell.
type Exec struct {
	timeout  time.Duration
	observer Observer
	lookPath func(string) (string, error)
}

// Option configures an Exec runner.
type Option func(*Exec)

// WithTimeout overrides the per-invocation timeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Exec) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithObserver installs an instrumentation hook.
func WithObserver(o Observer) Option {
	return func(e *Exec) { e.observer = o }
}

// NewExec creates an Exec runner.
func NewExec(opts ...Option) *Exec {
	e := &Exec{
		timeout:  DefaultTimeout,
		lookPath: exec.LookPath,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}


// Run executes name with args and captures trimmed stdout and stderr.
func (e *Exec) Run(ctx context.Context, name string, args ...string) (Result, error) {
	res := Result{Command: name, Args: args}

	path, err := e.lookPath(name)
	if err != nil {
		e.observe(name, "notfound", 0)
		return res, fmt.Errorf("%s: %w", name, ErrNotFound)
	}

	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, path, args...)
	// Parsers expect C-locale numbers and headers.
	cmd.Env = append(os.Environ(), "LC_ALL=C")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.Debug().
		Str("command", name).
		Strs("args", args).
		Dur("timeout", e.timeout).
		Msg("Executing diagnostic tool")

	start := time.Now()
	err = cmd.Run()
	res.Duration = time.Since(start)
	res.Stdout = strings.TrimSpace(stdout.String())
	res.Stderr = strings.TrimSpace(stderr.String())

	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			e.observe(name, "timeout", res.Duration)
			return res, fmt.Errorf("%s after %s: %w", res, e.timeout, ErrTimeout)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			e.observe(name, "error", res.Duration)
			return res, ctxErr
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			e.observe(name, "exit", res.Duration)
			log.Debug().
				Str("command", name).
				Int("exit_code", res.ExitCode).
				Str("stderr", res.Stderr).
				Msg("Tool exited non-zero")
			return res, nil
		}
		e.observe(name, "error", res.Duration)
		return res, fmt.Errorf("failed to run %s: %w", name, err)
	}

	e.observe(name, "ok", res.Duration)
	return res, nil
}

func (e *Exec) observe(tool, outcome string, d time.Duration) {
	if e.observer != nil {
		e.observer(tool, outcome, d)
	}
}
