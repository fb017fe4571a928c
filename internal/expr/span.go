// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 efind Contributors

// Package expr implements the lexer, parser and AST for the efind surface
// expression language.
package expr

import "fmt"

// Span locates a token or node in the original expression text.
type Span struct {
	FirstLine   int
	FirstColumn int
	LastLine    int
	LastColumn  int
}

// Join returns the smallest span covering both a and b.
func Join(a, b Span) Span {
	joined := a
	if b.LastLine > joined.LastLine || (b.LastLine == joined.LastLine && b.LastColumn > joined.LastColumn) {
		joined.LastLine = b.LastLine
		joined.LastColumn = b.LastColumn
	}
	bZero := b.FirstLine == 0 && b.FirstColumn == 0
	if (a.FirstLine == 0 && a.FirstColumn == 0) ||
		(!bZero && (b.FirstLine < a.FirstLine || (b.FirstLine == a.FirstLine && b.FirstColumn < a.FirstColumn))) {
		joined.FirstLine = b.FirstLine
		joined.FirstColumn = b.FirstColumn
	}
	return joined
}

// Contains reports whether s fully contains other.
func (s Span) Contains(other Span) bool {
	if other.FirstLine < s.FirstLine || (other.FirstLine == s.FirstLine && other.FirstColumn < s.FirstColumn) {
		return false
	}
	if other.LastLine > s.LastLine || (other.LastLine == s.LastLine && other.LastColumn > s.LastColumn) {
		return false
	}
	return true
}

func (s Span) String() string {
	if s.FirstLine == s.LastLine {
		if s.FirstColumn == s.LastColumn {
			return fmt.Sprintf("line %d, column %d", s.FirstLine, s.FirstColumn)
		}
		return fmt.Sprintf("line %d, column %d-%d", s.FirstLine, s.FirstColumn, s.LastColumn)
	}
	return fmt.Sprintf("line %d-%d, column %d-%d", s.FirstLine, s.LastLine, s.FirstColumn, s.LastColumn)
}
