// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 efind Contributors

package fileattr_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/efind-go/efind/internal/fileattr"
	"github.com/efind-go/efind/internal/format"
)

func TestForFormat_ResolvesPathAndSizeAttributes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	src := fileattr.NewSource().ForFormat()

	v, err := src.Attr(dir, path, 'p')
	require.NoError(t, err)
	assert.Equal(t, format.KindString, v.Kind)
	assert.Equal(t, path, v.Str)

	v, err = src.Attr(dir, path, 's')
	require.NoError(t, err)
	assert.Equal(t, format.KindInt, v.Kind)
	assert.EqualValues(t, 5, v.Int)

	v, err = src.Attr(dir, path, 'f')
	require.NoError(t, err)
	assert.Equal(t, "a.txt", v.Str)
}

func TestForFormat_PermissionsAttributeIsOctal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o640))

	src := fileattr.NewSource().ForFormat()
	v, err := src.Attr(dir, path, 'm')
	require.NoError(t, err)
	assert.Equal(t, format.KindOctal, v.Kind)
	assert.EqualValues(t, 0o640, v.Int)
}

func TestForFormat_ExtensionAndNameWithoutExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "archive.tar.gz")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	src := fileattr.NewSource().ForFormat()

	v, err := src.Attr(dir, path, 'X')
	require.NoError(t, err)
	assert.Equal(t, "gz", v.Str)

	v, err = src.Attr(dir, path, 'N')
	require.NoError(t, err)
	assert.Equal(t, "archive.tar", v.Str)
}

func TestForFormat_UnsupportedLetterErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	src := fileattr.NewSource().ForFormat()
	_, err := src.Attr(dir, path, 'Q')
	assert.Error(t, err)
}

func TestForSort_CollapsesToComparableAttr(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	src := fileattr.NewSource().ForSort()
	a, err := src.Attr(dir, path, 's')
	require.NoError(t, err)
	assert.False(t, a.IsStr)
	assert.EqualValues(t, 5, a.Int)

	a, err = src.Attr(dir, path, 'p')
	require.NoError(t, err)
	assert.True(t, a.IsStr)
	assert.Equal(t, path, a.Str)
}

func TestAttr_RemovesStartingPointPrefix(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))
	path := filepath.Join(sub, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	src := fileattr.NewSource().ForFormat()
	v, err := src.Attr(dir, path, 'P')
	require.NoError(t, err)
	assert.Equal(t, "sub/a.txt", v.Str)
}
