// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 efind Contributors

package stage

import (
	"fmt"
	"io"
	"os"
)

// PrintProcessor writes each accepted path to stdout and passes it through
// unchanged.
type PrintProcessor struct {
	flags Flags
	path  string
	out   io.Writer
}

// NewPrint returns a PrintProcessor writing to out. A nil out writes to
// os.Stdout.
func NewPrint(out io.Writer) *PrintProcessor {
	if out == nil {
		out = os.Stdout
	}
	return &PrintProcessor{out: out}
}

func (p *PrintProcessor) Readable() bool { return p.flags&FlagReadable != 0 }
func (p *PrintProcessor) Closed() bool   { return p.flags&FlagClosed != 0 }

func (p *PrintProcessor) Read() string {
	p.flags &^= FlagReadable
	return p.path
}

func (p *PrintProcessor) Write(dir, path string) {
	fmt.Fprintln(p.out, path)
	p.flags |= FlagReadable
	p.path = path
}

func (p *PrintProcessor) Close(dir string) {
	p.flags |= FlagClosed
}

// Formatter renders one path's attributes according to a previously parsed
// format string. internal/format provides the concrete implementation.
type Formatter interface {
	Render(w io.Writer, dir, path string) error
}

// PrintfProcessor renders each accepted path through a Formatter and passes
// the path through unchanged. The first render error is retained and can be
// inspected with Err after the search completes.
type PrintfProcessor struct {
	flags     Flags
	path      string
	formatter Formatter
	out       io.Writer
	err       error
}

// NewPrintf returns a PrintfProcessor using formatter to render each path to
// out. A nil out writes to os.Stdout.
func NewPrintf(formatter Formatter, out io.Writer) *PrintfProcessor {
	if out == nil {
		out = os.Stdout
	}
	return &PrintfProcessor{formatter: formatter, out: out}
}

func (p *PrintfProcessor) Readable() bool { return p.flags&FlagReadable != 0 }
func (p *PrintfProcessor) Closed() bool   { return p.flags&FlagClosed != 0 }

func (p *PrintfProcessor) Read() string {
	p.flags &^= FlagReadable
	return p.path
}

func (p *PrintfProcessor) Write(dir, path string) {
	if err := p.formatter.Render(p.out, dir, path); err != nil && p.err == nil {
		p.err = err
	}
	p.flags |= FlagReadable
	p.path = path
}

func (p *PrintfProcessor) Close(dir string) {
	p.flags |= FlagClosed
}

// Err returns the first rendering error encountered, if any.
func (p *PrintfProcessor) Err() error {
	return p.err
}
