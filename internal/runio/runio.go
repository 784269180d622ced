// Package runio supplies the two collaborator contracts the VM needs
// but does not own: an input source for INPUT statements and an output
// sink for OUTPUT statements / program lines.
package runio

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Input is the INPUT collaborator contract: it blocks for one integer,
// optionally showing promptHint (e.g. the variable name being read
// into), and may reject non-integer input and retry.
type Input interface {
	NextInteger(promptHint string) (int64, error)
}

// StdinInput reads integers from an io.Reader (stdin by default),
// retrying on malformed lines. If quiet is false it writes a prompt to
// Prompt before each read.
type StdinInput struct {
	reader *bufio.Scanner
	Prompt io.Writer
	Quiet  bool
}

// NewStdinInput creates a StdinInput reading lines from in.
func NewStdinInput(in io.Reader, prompt io.Writer, quiet bool) *StdinInput {
	return &StdinInput{reader: bufio.NewScanner(in), Prompt: prompt, Quiet: quiet}
}

func (s *StdinInput) NextInteger(promptHint string) (int64, error) {
	for {
		if !s.Quiet && s.Prompt != nil {
			fmt.Fprintf(s.Prompt, "%s? ", promptHint)
		}
		if !s.reader.Scan() {
			if err := s.reader.Err(); err != nil {
				return 0, fmt.Errorf("reading input for %q: %w", promptHint, err)
			}
			return 0, fmt.Errorf("reading input for %q: unexpected end of input", promptHint)
		}
		line := strings.TrimSpace(s.reader.Text())
		n, err := strconv.ParseInt(line, 10, 64)
		if err != nil {
			if !s.Quiet && s.Prompt != nil {
				fmt.Fprintf(s.Prompt, "not an integer: %q\n", line)
			}
			continue
		}
		return n, nil
	}
}

// SliceInput is a test double that feeds a fixed sequence of integers.
type SliceInput struct {
	Values []int64
	pos    int
}

func (s *SliceInput) NextInteger(promptHint string) (int64, error) {
	if s.pos >= len(s.Values) {
		return 0, fmt.Errorf("no more input values available for %q", promptHint)
	}
	v := s.Values[s.pos]
	s.pos++
	return v, nil
}

// Output is the OUTPUT collaborator contract: it receives a finite
// ordered sequence of text lines.
type Output interface {
	Emit(line string)
}

// WriterOutput writes each emitted line to an io.Writer, one per line.
type WriterOutput struct {
	W io.Writer
}

func (w WriterOutput) Emit(line string) {
	fmt.Fprintln(w.W, line)
}

// CollectingOutput accumulates emitted lines in memory, for tests and
// for embedders that want the lines without an io.Writer.
type CollectingOutput struct {
	Lines []string
}

func (c *CollectingOutput) Emit(line string) {
	c.Lines = append(c.Lines, line)
}
