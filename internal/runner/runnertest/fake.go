// Package runnertest provides a scripted runner for tests.
package runnertest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/surge-devops/surge/internal/runner"
)

// Response is the canned outcome for a command line.
type Response struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Err      error
}

// Fake answers Run calls from a table keyed by command line prefix and
// records every call.
type Fake struct {
	mu        sync.Mutex
	responses []entry
	calls     []string
}

type entry struct {
	prefix string
	resp   Response
}

// New returns an empty Fake. Unmatched commands report runner.ErrNotFound.
func New() *Fake {
	return &Fake{}
}

// On registers resp for any command line starting with prefix. Earlier
// registrations win.
func (f *Fake) On(prefix string, resp Response) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, entry{prefix: prefix, resp: resp})
	return f
}

// Stdout is shorthand for On(prefix, Response{Stdout: out}).
func (f *Fake) Stdout(prefix, out string) *Fake {
	return f.On(prefix, Response{Stdout: out})
}

// Run implements runner.Runner.
func (f *Fake) Run(ctx context.Context, name string, args ...string) (runner.Result, error) {
	line := strings.TrimSpace(name + " " + strings.Join(args, " "))

	f.mu.Lock()
	f.calls = append(f.calls, line)
	var (
		resp  Response
		found bool
	)
	for _, e := range f.responses {
		if strings.HasPrefix(line, e.prefix) {
			resp, found = e.resp, true
			break
		}
	}
	f.mu.Unlock()

	res := runner.Result{Command: name, Args: args}
	if err := ctx.Err(); err != nil {
		return res, err
	}
	if !found {
		return res, fmt.Errorf("%s: %w", name, runner.ErrNotFound)
	}
	res.Stdout = strings.TrimSpace(resp.Stdout)
	res.Stderr = strings.TrimSpace(resp.Stderr)
	res.ExitCode = resp.ExitCode
	return res, resp.Err
}

// Calls returns the command lines seen so far.
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// Called reports whether any call started with prefix.
func (f *Fake) Called(prefix string) bool {
	for _, c := range f.Calls() {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}
