// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 efind Contributors

package expr

import (
	"fmt"

	"github.com/samber/oops"
)

// ErrorKind distinguishes the three parse failure modes named in spec.md §4.1.
type ErrorKind int

// Parse error kinds.
const (
	ErrTooLong ErrorKind = iota
	ErrLex
	ErrSyntax
)

// ParseError carries a span-annotated diagnostic. Only the first error
// encountered is ever returned; the parser does not accumulate errors.
type ParseError struct {
	Kind    ErrorKind
	Span    Span
	Message string
	cause   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Span, e.Message)
}

// Unwrap exposes the oops-coded cause for errors.As/errors.Is callers.
func (e *ParseError) Unwrap() error { return e.cause }

func newParseError(kind ErrorKind, span Span, code string, format string, args ...any) *ParseError {
	msg := fmt.Sprintf(format, args...)
	return &ParseError{
		Kind:    kind,
		Span:    span,
		Message: msg,
		cause: oops.
			Code(code).
			With("span", span.String()).
			Errorf("%s", msg),
	}
}

func errTooLong(maxLen int) *ParseError {
	return newParseError(ErrTooLong, Span{}, "EXPR_TOO_LONG",
		"expression exceeds maximum length of %d bytes", maxLen)
}

func errLex(span Span, format string, args ...any) *ParseError {
	return newParseError(ErrLex, span, "EXPR_LEX_ERROR", format, args...)
}

func errSyntax(span Span, format string, args ...any) *ParseError {
	return newParseError(ErrSyntax, span, "EXPR_SYNTAX_ERROR", format, args...)
}
