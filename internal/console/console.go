// Package console reads a block of text typed (or piped) into the terminal.
// Input ends at a line consisting of the sentinel command or at EOF.
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Reader collects lines from an input stream until the sentinel line
type Reader struct {
	in          io.Reader
	prompt      io.Writer
	sentinel    string
	interactive bool
}

// NewReader creates a Reader over in. Prompts are written to prompt only
// when interactive is true.
func NewReader(in io.Reader, prompt io.Writer, sentinel string, interactive bool) *Reader {
	return &Reader{
		in:          in,
		prompt:      prompt,
		sentinel:    sentinel,
		interactive: interactive,
	}
}

// NewStdinReader creates a Reader over os.Stdin, prompting on os.Stderr
// when stdin is a terminal
func NewStdinReader(sentinel string) *Reader {
	return NewReader(os.Stdin, os.Stderr, sentinel, IsTerminal(os.Stdin))
}

// IsTerminal reports whether f is attached to a terminal
func IsTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Interactive reports whether the reader prompts the user
func (r *Reader) Interactive() bool {
	return r.interactive
}

// ReadAll returns every line before the sentinel, newline terminators
// included. The sentinel matches after trimming surrounding whitespace.
func (r *Reader) ReadAll() (string, error) {
	if r.interactive {
		hint := color.New(color.FgCyan).SprintFunc()
		fmt.Fprintf(r.prompt, "%s\n", hint(fmt.Sprintf("Enter text, then %q on its own line to finish:", r.sentinel)))
	}

	var buf strings.Builder
	br := bufio.NewReader(r.in)
	for {
		line, err := br.ReadString('\n')
		if line != "" && strings.TrimSpace(line) == r.sentinel {
			return buf.String(), nil
		}
		buf.WriteString(line)

		if errors.Is(err, io.EOF) {
			return buf.String(), nil
		}
		if err != nil {
			return buf.String(), fmt.Errorf("failed to read input: %w", err)
		}
	}
}

// WriteResult prints the converted text. Interactive sessions get a blank
// line separator so the result stands apart from what was typed.
func (r *Reader) WriteResult(w io.Writer, text string) error {
	if r.interactive {
		if _, err := fmt.Fprint(w, "\n\n"); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, strings.TrimRight(text, "\n"))
	return err
}
