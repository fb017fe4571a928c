// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 efind Contributors

package format

import "strings"

// fieldChars and fieldNames are parallel: fieldNames[i] is the long-form
// spelling of the attribute letter fieldChars[i].
const fieldChars = "AbCDfFgGhHiklmMnpsSTuU"

var fieldNames = []string{
	"atime", "blocks", "ctime", "device", "filename", "filesystem",
	"group", "gid", "parent", "starting-point", "inode", "kb", "link",
	"permissions-octal", "permissions", "hardlinks", "path", "bytes",
	"sparseness", "mtime", "username", "uid",
}

// SubstituteFields rewrites every occurrence of a long-form field name in
// str with its single-letter attribute code, so the result can be fed to
// the directive lexer. When brackets is true, only "{name}" occurrences are
// recognized; otherwise a bare "name" is enough.
func SubstituteFields(str string, brackets bool) string {
	var b strings.Builder
	b.Grow(len(str))

	for i := 0; i < len(str); {
		matched := false
		for j, name := range fieldNames {
			needle := name
			if brackets {
				needle = "{" + name + "}"
			}
			if strings.HasPrefix(str[i:], needle) {
				b.WriteByte(fieldChars[j])
				i += len(needle)
				matched = true
				break
			}
		}
		if !matched {
			b.WriteByte(str[i])
			i++
		}
	}
	return b.String()
}

// MapFieldName returns the single-letter attribute code for a long-form
// field name, or 0 if name isn't recognized.
func MapFieldName(name string) byte {
	for i, n := range fieldNames {
		if n == name {
			return fieldChars[i]
		}
	}
	return 0
}
