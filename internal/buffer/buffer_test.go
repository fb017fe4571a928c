// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 efind Contributors

package buffer_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/efind-go/efind/internal/buffer"
)

func TestBuffer_FillAndReadLine(t *testing.T) {
	b := buffer.New()
	require.True(t, b.Fill([]byte("hello\nworld")))

	line, ok := b.ReadLine()
	require.True(t, ok)
	assert.Equal(t, "hello", line)

	_, ok = b.ReadLine()
	assert.False(t, ok)

	rest, ok := b.Flush()
	require.True(t, ok)
	assert.Equal(t, "world", rest)
}

func TestBuffer_ReadLineAcrossFills(t *testing.T) {
	b := buffer.New()
	b.Fill([]byte("par"))
	_, ok := b.ReadLine()
	assert.False(t, ok)

	b.Fill([]byte("tial\n"))
	line, ok := b.ReadLine()
	require.True(t, ok)
	assert.Equal(t, "partial", line)
	assert.True(t, b.Empty())
}

func TestBuffer_MultipleLinesInOneFill(t *testing.T) {
	b := buffer.New()
	b.Fill([]byte("a\nb\nc"))

	line, ok := b.ReadLine()
	require.True(t, ok)
	assert.Equal(t, "a", line)

	line, ok = b.ReadLine()
	require.True(t, ok)
	assert.Equal(t, "b", line)

	_, ok = b.ReadLine()
	assert.False(t, ok)

	rest, ok := b.Flush()
	require.True(t, ok)
	assert.Equal(t, "c", rest)
}

func TestBuffer_OverflowLatchesInvalid(t *testing.T) {
	b := buffer.New()
	big := strings.Repeat("x", buffer.MaxSize+1)

	assert.False(t, b.Fill([]byte(big)))
	assert.False(t, b.Valid())
	assert.Equal(t, 0, b.Len())

	assert.False(t, b.Fill([]byte("y")))
	assert.False(t, b.Valid())

	b.Clear()
	assert.True(t, b.Valid())
	assert.True(t, b.Empty())
	assert.True(t, b.Fill([]byte("y")))
}

func TestBuffer_FillExactlyAtLimit(t *testing.T) {
	b := buffer.New()
	exact := strings.Repeat("z", buffer.MaxSize)

	assert.True(t, b.Fill([]byte(exact)))
	assert.True(t, b.Valid())
	assert.Equal(t, buffer.MaxSize, b.Len())
}

func TestBuffer_FlushEmptyReturnsFalse(t *testing.T) {
	b := buffer.New()
	_, ok := b.Flush()
	assert.False(t, ok)
}
