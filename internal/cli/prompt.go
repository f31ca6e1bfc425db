// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// prompt.go - Reading PINs, answers and questions from the user.
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ErrNoInput is returned when stdin ends before a value was read.
var ErrNoInput = errors.New("no input")

// Prompter reads values from the user. Secret must not echo.
type Prompter interface {
	Secret(label string) (string, error)
	Line(label string) (string, error)
}

// =============================================================================
// READER PROMPTER
// =============================================================================

// ReaderPrompter reads one line per value. Labels go to out, if set, so
// they never mix with command output on stdout.
type ReaderPrompter struct {
	r   *bufio.Reader
	out io.Writer
}

// NewReaderPrompter creates a prompter over r.
func NewReaderPrompter(r io.Reader, out io.Writer) *ReaderPrompter {
	return &ReaderPrompter{r: bufio.NewReader(r), out: out}
}

// Secret reads one line.
func (p *ReaderPrompter) Secret(label string) (string, error) {
	return p.Line(label)
}

// Line reads one line without its line ending.
func (p *ReaderPrompter) Line(label string) (string, error) {
	if p.out != nil {
		fmt.Fprintf(p.out, "%s: ", label)
	}
	line, err := p.r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		if errors.Is(err, io.EOF) {
			return "", fmt.Errorf("%s: %w", strings.ToLower(label), ErrNoInput)
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// =============================================================================
// TERMINAL PROMPTER
// =============================================================================

// TermPrompter reads secrets with echo disabled when in is a terminal and
// falls back to line reads otherwise.
type TermPrompter struct {
	in    *os.File
	out   io.Writer
	lines *ReaderPrompter
}

// NewTermPrompter creates a prompter for in, writing labels to out.
func NewTermPrompter(in *os.File, out io.Writer) *TermPrompter {
	return &TermPrompter{
		in:    in,
		out:   out,
		lines: NewReaderPrompter(in, out),
	}
}

func (p *TermPrompter) isTerminal() bool {
	return term.IsTerminal(int(p.in.Fd()))
}

// Secret reads a value without echo.
func (p *TermPrompter) Secret(label string) (string, error) {
	if !p.isTerminal() {
		return p.lines.Secret(label)
	}
	fmt.Fprintf(p.out, "%s: ", label)
	b, err := term.ReadPassword(int(p.in.Fd()))
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", strings.ToLower(label), err)
	}
	return string(b), nil
}

// Line reads a visible value.
func (p *TermPrompter) Line(label string) (string, error) {
	return p.lines.Line(label)
}

// promptNewSecret asks twice and requires both entries to match.
func promptNewSecret(p Prompter, label string) (string, error) {
	first, err := p.Secret(label)
	if err != nil {
		return "", err
	}
	second, err := p.Secret("Confirm " + strings.ToLower(label))
	if err != nil {
		return "", err
	}
	if first != second {
		return "", &UsageError{Message: "entries did not match"}
	}
	return first, nil
}
