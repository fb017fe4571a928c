// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 efind Contributors

package stage

// rangeProcessor backs both the skip and limit stages, which differ only in
// which side of the threshold passes a write through.
type rangeProcessor struct {
	flags   Flags
	bound   uint64
	count   uint64
	path    string
	isLimit bool
}

// NewLimit returns a stage that passes through up to n writes, then
// self-closes. n == 0 closes immediately without emitting anything.
func NewLimit(n uint64) Processor {
	return &rangeProcessor{bound: n, isLimit: true}
}

// NewSkip returns a stage that discards the first n writes, then passes
// every write through unchanged.
func NewSkip(n uint64) Processor {
	return &rangeProcessor{bound: n, isLimit: false}
}

func (r *rangeProcessor) Readable() bool { return r.flags&FlagReadable != 0 }
func (r *rangeProcessor) Closed() bool   { return r.flags&FlagClosed != 0 }

func (r *rangeProcessor) Read() string {
	r.flags &^= FlagReadable

	if r.isLimit && r.count >= r.bound {
		r.flags |= FlagClosed
	}
	return r.path
}

func (r *rangeProcessor) Write(dir, path string) {
	if r.isLimit {
		if r.bound == 0 {
			r.flags &^= FlagReadable
			r.flags |= FlagClosed
			return
		}
		r.flags |= FlagReadable
		r.count++
		r.path = path
		return
	}

	if r.count >= r.bound {
		r.flags |= FlagReadable
		r.path = path
	} else {
		r.count++
		r.flags &^= FlagReadable
	}
}

func (r *rangeProcessor) Close(dir string) {
	r.flags |= FlagClosed
}
