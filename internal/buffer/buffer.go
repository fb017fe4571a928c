// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 efind Contributors

// Package buffer implements a bounded growable byte buffer used to
// line-buffer a search subprocess's stdout and stderr streams.
package buffer

import "bytes"

// MaxSize is the maximum number of bytes a Buffer will ever hold, mirroring
// MAX_BUFFER_SIZE. Once a Fill would exceed it, the buffer latches invalid
// and all further fills are silently ignored until Clear is called.
const MaxSize = 4096

// Buffer is a byte buffer that invalidates itself on overflow rather than
// growing without bound, so a runaway child process cannot exhaust memory
// through an unbounded stdout line.
type Buffer struct {
	data  []byte
	valid bool
}

// New returns an initialized, valid Buffer.
func New() *Buffer {
	return &Buffer{data: make([]byte, 0, 64), valid: true}
}

// Clear empties the buffer and makes it valid again.
func (b *Buffer) Clear() {
	b.data = b.data[:0]
	b.valid = true
}

// Len returns the number of bytes currently buffered. Invalid buffers
// report a length of zero.
func (b *Buffer) Len() int {
	if !b.valid {
		return 0
	}
	return len(b.data)
}

// Valid reports whether the buffer is in a consistent, usable state.
func (b *Buffer) Valid() bool {
	return b.valid
}

// Empty reports whether the buffer holds no bytes. An invalid buffer is
// never reported as empty.
func (b *Buffer) Empty() bool {
	if !b.valid {
		return false
	}
	return len(b.data) == 0
}

// Fill appends data to the buffer. If appending would exceed MaxSize, the
// buffer is marked invalid and false is returned; every subsequent Fill is
// then a no-op until Clear is called.
func (b *Buffer) Fill(data []byte) bool {
	if !b.valid {
		return false
	}

	if len(b.data)+len(data) > MaxSize {
		b.valid = false
		return false
	}

	b.data = append(b.data, data...)
	return true
}

// ReadLine extracts the first newline-terminated line from the buffer,
// excluding the newline, and removes it (plus the newline) from the front
// of the buffer. It returns false if no full line is currently buffered.
func (b *Buffer) ReadLine() (string, bool) {
	if !b.valid {
		return "", false
	}

	idx := bytes.IndexByte(b.data, '\n')
	if idx < 0 {
		return "", false
	}

	line := string(b.data[:idx])
	remaining := len(b.data) - idx - 1
	copy(b.data, b.data[idx+1:])
	b.data = b.data[:remaining]
	return line, true
}

// Flush returns and clears whatever bytes remain in the buffer, typically
// called once the producing file descriptor has reached EOF without a
// trailing newline.
func (b *Buffer) Flush() (string, bool) {
	if !b.valid || len(b.data) == 0 {
		return "", false
	}
	s := string(b.data)
	b.data = b.data[:0]
	return s, true
}

// String renders the buffer's contents without consuming them.
func (b *Buffer) String() string {
	if !b.valid {
		return ""
	}
	return string(b.data)
}
