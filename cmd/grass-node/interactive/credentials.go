// Package interactive asks the operator for account credentials.
package interactive

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
)

// ErrAborted is returned when the operator interrupts a prompt or closes
// the input.
var ErrAborted = errors.New("credential prompt aborted")

// lineReader is the subset of *readline.Instance the prompts use.
type lineReader interface {
	SetPrompt(prompt string)
	Readline() (string, error)
	ReadPassword(prompt string) ([]byte, error)
	Close() error
}

// Prompter reads credentials from the terminal.
type Prompter struct {
	rl  lineReader
	out io.Writer
}

// NewPrompter creates a Prompter on the process terminal.
func NewPrompter() (*Prompter, error) {
	rl, err := readline.NewEx(&readline.Config{
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &Prompter{rl: rl, out: rl.Stdout()}, nil
}

// Stdout returns a writer that does not interfere with an open prompt.
func (p *Prompter) Stdout() io.Writer {
	return p.out
}

// Credentials asks for a username and a masked password. Empty answers
// are asked again.
func (p *Prompter) Credentials() (username, password string, err error) {
	for username == "" {
		p.rl.SetPrompt("Please input username: ")
		line, err := p.rl.Readline()
		if err != nil {
			return "", "", aborted(err)
		}
		username = strings.TrimSpace(line)
	}

	for password == "" {
		pw, err := p.rl.ReadPassword("Please input password: ")
		if err != nil {
			return "", "", aborted(err)
		}
		password = string(pw)
	}
	return username, password, nil
}

// Close releases the terminal.
func (p *Prompter) Close() error {
	return p.rl.Close()
}

func aborted(err error) error {
	if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
		return ErrAborted
	}
	return err
}

// Compile-time interface satisfaction check.
var _ lineReader = (*readline.Instance)(nil)
