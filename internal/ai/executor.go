package ai

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/surge-devops/surge/internal/core"
	"github.com/surge-devops/surge/internal/runner"
)

const (
	// FixTimeout bounds every suggested command.
	FixTimeout = 30 * time.Second

	outputLimit = 200
)

// DiagnosticCommands are read-only and run without per-command confirmation.
// A command matches when its leading tokens, after an optional sudo, equal
// one of these entries.
var DiagnosticCommands = [][]string{
	{"systemctl", "status"},
	{"journalctl"},
	{"ps", "aux"},
	{"netstat"},
	{"free"},
	{"lsof"},
	{"df"},
	{"top", "-bn1"},
}

// commandPattern splits quoted and unquoted segments of a command line.
var commandPattern = regexp.MustCompile(`[^\s"']+|"([^"]*)"|'([^']*)'`)

var shellOperators = []string{"|", ">", "<", ";", "&&", "||", "$(", "`"}

// IsDiagnostic reports whether command is on the read-only list.
func IsDiagnostic(command string) bool {
	for _, op := range shellOperators {
		if strings.Contains(command, op) {
			return false
		}
	}
	name, args := SplitCommand(command)
	if name == "" {
		return false
	}
	tokens := append([]string{name}, args...)
	if tokens[0] == "sudo" {
		tokens = tokens[1:]
	}
	for _, d := range DiagnosticCommands {
		if hasPrefix(tokens, d) {
			return true
		}
	}
	return false
}

func hasPrefix(tokens, prefix []string) bool {
	if len(tokens) < len(prefix) {
		return false
	}
	for i, p := range prefix {
		if tokens[i] != p {
			return false
		}
	}
	return true
}

// SplitCommand splits a command line into executable and arguments,
// keeping quoted segments together.
func SplitCommand(command string) (string, []string) {
	command = strings.TrimSpace(command)
	if command == "" {
		return "", nil
	}
	var parts []string
	for _, m := range commandPattern.FindAllStringSubmatch(command, -1) {
		switch {
		case m[1] != "":
			parts = append(parts, m[1])
		case m[2] != "":
			parts = append(parts, m[2])
		case strings.HasPrefix(m[0], `"`) || strings.HasPrefix(m[0], "'"):
			parts = append(parts, "")
		default:
			parts = append(parts, m[0])
		}
	}
	if len(parts) == 0 {
		return "", nil
	}
	return parts[0], parts[1:]
}

// FixResult is the outcome of one suggested command.
type FixResult struct {
	Command string `json:"command"`
	Success bool   `json:"success"`
	Output  string `json:"output"`
}

// Executor runs suggested commands without a shell.
type Executor struct {
	run     runner.Runner
	timeout time.Duration
}

// NewExecutor runs commands through r.
func NewExecutor(r runner.Runner) *Executor {
	return &Executor{run: r, timeout: FixTimeout}
}

// Execute runs command and reports success with output truncated for
// display.
func (e *Executor) Execute(ctx context.Context, command string) FixResult {
	res := FixResult{Command: command}
	for _, op := range shellOperators {
		if strings.Contains(command, op) {
			res.Output = fmt.Sprintf("shell operator %q is not supported; run it manually", op)
			return res
		}
	}
	name, args := SplitCommand(command)
	if name == "" {
		res.Output = "unable to parse command"
		return res
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	log.Debug().Str("command", command).Msg("executing suggested command")
	out, err := e.run.Run(ctx, name, args...)
	switch {
	case errors.Is(err, runner.ErrNotFound):
		res.Output = fmt.Sprintf("%s: command not found", name)
	case errors.Is(err, runner.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		res.Output = fmt.Sprintf("timed out after %s", e.timeout)
	case err != nil:
		res.Output = err.Error()
	case !out.OK():
		msg := out.Stderr
		if msg == "" {
			msg = out.Stdout
		}
		if msg = core.Truncate(msg, outputLimit); msg != "" {
			res.Output = fmt.Sprintf("exit code %d: %s", out.ExitCode, msg)
		} else {
			res.Output = fmt.Sprintf("exit code %d", out.ExitCode)
		}
	default:
		res.Success = true
		res.Output = core.Truncate(out.Stdout, outputLimit)
	}
	return res
}
