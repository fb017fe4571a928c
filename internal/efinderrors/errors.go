// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 efind Contributors

// Package efinderrors defines the error taxonomy of spec.md §7: parse,
// translate, spawn, I/O and post-filter-evaluation failures, each carrying
// an oops code and structured context.
package efinderrors

import (
	"github.com/efind-go/efind/internal/expr"
	"github.com/samber/oops"
)

// Error codes, one per spec.md §7 taxonomy entry.
const (
	CodeParse     = "PARSE_ERROR"
	CodeTranslate = "TRANSLATE_ERROR"
	CodeSpawn     = "SPAWN_ERROR"
	CodeIO        = "IO_ERROR"
	CodeEval      = "EVAL_ERROR"
	CodeStage     = "STAGE_ERROR"
)

// ParseError wraps a lexer/parser failure with the offending span.
func ParseError(span expr.Span, cause error) error {
	return oops.Code(CodeParse).
		With("span", span.String()).
		Wrap(cause)
}

// TranslateError wraps a translation failure (an operator/value not
// representable in the host find argument syntax).
func TranslateError(property string, cause error) error {
	return oops.Code(CodeTranslate).
		With("property", property).
		Wrap(cause)
}

// SpawnError wraps a failure starting or communicating with the find
// subprocess.
func SpawnError(argv []string, cause error) error {
	return oops.Code(CodeSpawn).
		With("argv", argv).
		Wrap(cause)
}

// IOError wraps a buffer/pipe/file I/O failure.
func IOError(context string, cause error) error {
	return oops.Code(CodeIO).
		With("context", context).
		Wrap(cause)
}

// EvalError wraps a post-filter evaluation failure (e.g. a plugin callback
// that returned an error, or an unknown function name).
func EvalError(funcName string, cause error) error {
	return oops.Code(CodeEval).
		With("func", funcName).
		Wrap(cause)
}

// StageError wraps a processor-chain stage failure (exec, sort, or printf
// rendering).
func StageError(stage string, cause error) error {
	return oops.Code(CodeStage).
		With("stage", stage).
		Wrap(cause)
}
