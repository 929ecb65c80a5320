package runner

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
)

// Invocation is a command line to try.
type Invocation struct {
	Name string
	Args []string
}

// Cmd is shorthand for building an Invocation.
func Cmd(name string, args ...string) Invocation {
	return Invocation{Name: name, Args: args}
}

// First runs each invocation in order and returns the first result with
// non-empty stdout. When none produce output, the last result is returned
// with ErrNotFound if every tool was missing, or else the first other error.
func First(ctx context.Context, r Runner, invs ...Invocation) (Result, error) {
	var (
		last     Result
		firstErr error
		missing  = len(invs)
	)
	for i, inv := range invs {
		res, err := r.Run(ctx, inv.Name, inv.Args...)
		switch {
		case err == nil:
		case ctx.Err() != nil:
			return res, ctx.Err()
		case errors.Is(err, ErrNotFound):
			missing--
			if missing == 0 {
				firstErr = err
			}
		default:
			if firstErr == nil {
				firstErr = err
			}
		}
		if res.Stdout != "" {
			return res, nil
		}
		last = res
		if i < len(invs)-1 {
			log.Warn().
				Str("command", inv.Name).
				Str("fallback", invs[i+1].Name).
				Msg("No output, trying fallback")
		}
	}
	return last, firstErr
}
