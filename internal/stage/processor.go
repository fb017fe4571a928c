// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 efind Contributors

// Package stage implements the pull/push processor chain that the search
// supervisor feeds accepted paths into: sort, skip, limit, print, printf,
// and exec stages, composed through a fixed chain-building order.
package stage

// Flags mirrors a stage's READABLE/CLOSED state bits.
type Flags uint8

// Stage state flags.
const (
	FlagReadable Flags = 1 << iota
	FlagClosed
)

// Processor is one stage in a chain. Write pushes a path in; Read pops a
// produced path out and is only ever called while Readable reports true and
// Closed reports false. Close finalises the stage, e.g. flushing buffered
// output for a stage like sort that only emits at end-of-search.
type Processor interface {
	Readable() bool
	Closed() bool
	Read() string
	Write(dir, path string)
	Close(dir string)
}

// Chain is an ordered pipeline of stages, head first.
type Chain struct {
	stages []Processor
}

// NewChain wraps stages, head first, into a Chain.
func NewChain(stages []Processor) *Chain {
	return &Chain{stages: stages}
}

// Write pushes path into the chain's head, recursively forwarding any
// output all the way to the tail. It reports whether the chain is now fully
// closed, at which point the caller should stop producing new paths.
func (c *Chain) Write(dir, path string) bool {
	return writeAt(c.stages, dir, path)
}

func writeAt(stages []Processor, dir, path string) bool {
	if len(stages) == 0 {
		return false
	}

	head := stages[0]
	if head.Closed() {
		return true
	}

	head.Write(dir, path)

	completed := false
	for head.Readable() {
		completed = writeAt(stages[1:], dir, head.Read())
	}
	return completed || head.Closed()
}

// Complete closes the head stage and drains any output it produces through
// the rest of the chain, then returns.
func (c *Chain) Complete(dir string) {
	completeAt(c.stages, dir)
}

func completeAt(stages []Processor, dir string) {
	if len(stages) == 0 {
		return
	}

	head := stages[0]
	if head.Closed() {
		return
	}

	head.Close(dir)
	for head.Readable() {
		writeAt(stages[1:], dir, head.Read())
	}
}

// Builder assembles a Chain by repeated Prepend calls. Once a nil processor
// is prepended the builder fails permanently and discards anything it had
// already built, mirroring the all-or-nothing chain construction of the
// original processor chain builder.
type Builder struct {
	stages []Processor
	failed bool
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Prepend adds processor to the front of the chain under construction. It
// returns false (and fails the builder) if the builder has already failed
// or processor is nil.
func (b *Builder) Prepend(processor Processor) bool {
	if b.failed {
		return false
	}
	if processor == nil {
		b.Fail()
		return false
	}

	stages := make([]Processor, 0, len(b.stages)+1)
	stages = append(stages, processor)
	stages = append(stages, b.stages...)
	b.stages = stages
	return true
}

// Fail marks the builder as failed, discarding any stages already built.
func (b *Builder) Fail() {
	if !b.failed {
		b.stages = nil
		b.failed = true
	}
}

// Chain returns the built Chain, or nil if the builder failed or nothing
// was ever prepended.
func (b *Builder) Chain() *Chain {
	if b.failed || len(b.stages) == 0 {
		return nil
	}
	return NewChain(b.stages)
}
