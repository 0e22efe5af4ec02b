package render

import (
	"bufio"
	"io"
	"strings"

	"github.com/pterm/pterm"
)

// Prompter asks questions on a shared line reader, so that prompts and the
// REPL consume the same input stream.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPrompter creates a prompter reading in and writing questions to out.
func NewPrompter(in *bufio.Reader, out io.Writer) *Prompter {
	return &Prompter{in: in, out: out}
}

// Ask prints question and returns the trimmed answer. ok is false at end of input.
func (p *Prompter) Ask(question string) (answer string, ok bool) {
	pterm.Fprint(p.out, pterm.NewStyle(pterm.FgYellow, pterm.Bold).Sprint(question)+" ")
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return "", false
	}
	return strings.TrimSpace(line), true
}

// Confirm asks a yes/no question. An empty answer selects def.
func (p *Prompter) Confirm(question string, def bool) bool {
	hint := " [y/N]"
	if def {
		hint = " [Y/n]"
	}
	ans, ok := p.Ask(question + hint)
	if !ok {
		return false
	}
	switch strings.ToLower(ans) {
	case "":
		return def
	case "y", "yes":
		return true
	}
	return false
}
