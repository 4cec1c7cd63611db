// Package console implements the operator console on a terminal.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/example/probeacc/internal/ports/secondary"
)

// Console implements secondary.OperatorConsole over a line reader and writer.
type Console struct {
	in  *bufio.Reader
	out io.Writer

	progress *color.Color
	warn     *color.Color
}

// New creates a console reading answers from in and writing to out.
func New(in io.Reader, out io.Writer) *Console {
	return &Console{
		in:       bufio.NewReader(in),
		out:      out,
		progress: color.New(color.FgCyan),
		warn:     color.New(color.FgYellow),
	}
}

type answer struct {
	line string
	err  error
}

// Ask prints prompt and reads one line. Cancelling ctx abandons the read.
func (c *Console) Ask(ctx context.Context, prompt string) (string, error) {
	fmt.Fprint(c.out, prompt)

	ch := make(chan answer, 1)
	go func() {
		line, err := c.in.ReadString('\n')
		ch <- answer{line: line, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case a := <-ch:
		if a.err != nil && (a.err != io.EOF || a.line == "") {
			return "", fmt.Errorf("failed to read answer: %w", a.err)
		}
		return strings.TrimSpace(a.line), nil
	}
}

// Progress reports a step of the running procedure.
func (c *Console) Progress(message string) {
	c.progress.Fprintf(c.out, "→ %s\n", message)
}

// Warn reports a non-fatal problem.
func (c *Console) Warn(label, message string) {
	c.warn.Fprintf(c.out, "! %s: %s\n", label, message)
}

// Ensure Console implements the interface
var _ secondary.OperatorConsole = (*Console)(nil)
