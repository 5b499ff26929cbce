package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// prompter reads answers from the command's input. Passwords are read
// without echo when the input is a terminal.
type prompter struct {
	in  *bufio.Reader
	raw io.Reader
	out io.Writer
}

func newPrompter(cmd *cobra.Command) *prompter {
	return &prompter{
		in:  bufio.NewReader(cmd.InOrStdin()),
		raw: cmd.InOrStdin(),
		out: cmd.OutOrStdout(),
	}
}

// line prints prompt and returns the next input line, trimmed.
func (p *prompter) line(prompt string) (string, error) {
	s, err := p.exact(prompt)
	return strings.TrimSpace(s), err
}

// exact returns the next input line as typed, without its terminator.
// Credentials go through here: login compares them byte for byte.
func (p *prompter) exact(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	s, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && s != "") {
		return "", err
	}
	return strings.TrimRight(s, "\r\n"), nil
}

// password reads a password with masking
func (p *prompter) password(prompt string) (string, error) {
	if f, ok := p.raw.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(p.out, prompt)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(p.out) // newline after masked input
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	return p.exact(prompt)
}

func (p *prompter) confirm(prompt string) (bool, error) {
	ans, err := p.line(prompt + " [y/N]: ")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(ans) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

type answerKind int

const (
	answerText       answerKind = iota // trimmed
	answerCredential                   // kept as typed
	answerSecret                       // kept as typed, not echoed
)

// flagOrPrompt returns the flag value when it was given, otherwise asks.
func flagOrPrompt(cmd *cobra.Command, p *prompter, flag, prompt string, kind answerKind) (string, error) {
	if cmd.Flags().Changed(flag) {
		v, err := cmd.Flags().GetString(flag)
		if kind == answerText {
			v = strings.TrimSpace(v)
		}
		return v, err
	}
	switch kind {
	case answerSecret:
		return p.password(prompt)
	case answerCredential:
		return p.exact(prompt)
	}
	return p.line(prompt)
}
