package ai

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
)

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(question string) (bool, error)
}

// ReadlineConfirmer prompts on the terminal. Anything other than y or yes
// is a no; Ctrl-C and EOF are a no as well.
type ReadlineConfirmer struct {
	Stdin  io.ReadCloser
	Stdout io.Writer
}

// Confirm implements Confirmer.
func (c ReadlineConfirmer) Confirm(question string) (bool, error) {
	cfg := &readline.Config{
		Prompt:          fmt.Sprintf("%s [y/N]: ", question),
		InterruptPrompt: "^C",
		EOFPrompt:       "no",
	}
	if c.Stdin != nil {
		cfg.Stdin = c.Stdin
	}
	if c.Stdout != nil {
		cfg.Stdout = c.Stdout
	}
	rl, err := readline.NewEx(cfg)
	if err != nil {
		return false, fmt.Errorf("initialize prompt: %w", err)
	}
	defer rl.Close()

	line, err := rl.Readline()
	if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return IsYes(line), nil
}

// IsYes reports whether answer is an affirmative response.
func IsYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

// AlwaysConfirm answers every question with a fixed value.
type AlwaysConfirm bool

// Confirm implements Confirmer.
func (a AlwaysConfirm) Confirm(string) (bool, error) { return bool(a), nil }
