// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 efind Contributors

// Package postfilter interprets a Root.PostExprs tree against a candidate
// file path, consulting a plugin Dispatcher for every Func node.
package postfilter

import (
	"context"
	"fmt"

	"github.com/samber/oops"

	"github.com/efind-go/efind/internal/expr"
)

// maxFuncArgs bounds the number of arguments built for a single function
// call, mirroring FN_STACK_SIZE from the original evaluator.
const maxFuncArgs = 64

// Result is the three-valued outcome of evaluating a post-expression.
type Result int

// Evaluation results.
const (
	ResultTrue Result = iota
	ResultFalse
	ResultAbort
)

func (r Result) String() string {
	switch r {
	case ResultTrue:
		return "TRUE"
	case ResultFalse:
		return "FALSE"
	case ResultAbort:
		return "ABORT"
	default:
		return "UNKNOWN"
	}
}

// DispatchStatus classifies the outcome of a single Dispatcher.Dispatch call.
type DispatchStatus int

// Dispatch outcomes.
const (
	DispatchOK DispatchStatus = iota
	DispatchNotFound
	DispatchInvalidSignature
)

// Arg is one resolved function-call argument: either an integer (from a
// VALUE_NUMERIC literal or a nested function call's result) or a string
// (from a VALUE_STRING literal).
type Arg struct {
	IsString bool
	Int      int64
	Str      string
}

// Dispatcher resolves named post-filter predicates by delegating to loaded
// plugins. Implementations live in internal/pluginhost.
type Dispatcher interface {
	Dispatch(ctx context.Context, name, filename string, args []Arg) (result int32, status DispatchStatus, err error)
}

// EvalError reports a post-filter evaluation failure for a specific path.
type EvalError struct {
	Path    string
	Span    expr.Span
	Message string
	cause   error
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Path, e.Span, e.Message)
}

func (e *EvalError) Unwrap() error { return e.cause }

func newEvalError(path string, span expr.Span, format string, args ...any) *EvalError {
	msg := fmt.Sprintf(format, args...)
	return &EvalError{
		Path:    path,
		Span:    span,
		Message: msg,
		cause: oops.
			Code("POSTFILTER_EVAL_ERROR").
			With("path", path).
			With("span", span.String()).
			Errorf("%s", msg),
	}
}

type evaluator struct {
	ctx        context.Context
	dispatcher Dispatcher
	path       string
	err        error
}

// Evaluate interprets root against path, consulting dispatcher for every
// Func node. A nil root evaluates to ResultTrue (spec.md §4.3: "Missing
// subtree → TRUE").
func Evaluate(ctx context.Context, root expr.Node, path string, dispatcher Dispatcher) (Result, error) {
	if root == nil {
		return ResultTrue, nil
	}

	e := &evaluator{ctx: ctx, dispatcher: dispatcher, path: path}
	result := e.eval(root)
	return result, e.err
}

func (e *evaluator) fail(span expr.Span, format string, args ...any) Result {
	if e.err == nil {
		e.err = newEvalError(e.path, span, format, args...)
	}
	return ResultAbort
}

func (e *evaluator) eval(node expr.Node) Result {
	if e.err != nil {
		return ResultAbort
	}

	switch n := node.(type) {
	case *expr.True:
		return ResultTrue

	case *expr.Expression:
		return e.evalExpression(n)

	case *expr.Compare:
		return e.evalCompare(n)

	case *expr.Not:
		return e.evalNot(n)

	case *expr.Func:
		// A bare func_call used directly as a boolean predicate is coerced
		// the same way the compare node would coerce it: zero is FALSE,
		// anything else is TRUE.
		v, ok := e.evalFuncInt(n)
		if !ok {
			return ResultAbort
		}
		if v == 0 {
			return ResultFalse
		}
		return ResultTrue

	case *expr.Condition:
		return e.fail(n.Span(), "condition nodes are not valid in a post-expression")

	default:
		return e.fail(node.Span(), "unsupported node in post-expression")
	}
}

func (e *evaluator) evalExpression(n *expr.Expression) Result {
	switch n.Op {
	case expr.OpAnd:
		left := e.eval(n.First)
		if left != ResultTrue {
			return left
		}
		return e.eval(n.Second)

	case expr.OpOr:
		left := e.eval(n.First)
		if left != ResultFalse {
			return left
		}
		return e.eval(n.Second)

	default:
		return e.fail(n.Span(), "unsupported boolean operator in post-expression")
	}
}

func (e *evaluator) evalNot(n *expr.Not) Result {
	switch e.eval(n.Operand) {
	case ResultTrue:
		return ResultFalse
	case ResultFalse:
		return ResultTrue
	default:
		return ResultAbort
	}
}

func (e *evaluator) evalCompare(n *expr.Compare) Result {
	a, ok := e.evalNodeInt(n.First)
	if !ok {
		return ResultAbort
	}

	if n.Cmp == expr.CmpEq {
		if _, isTrue := n.Second.(*expr.True); isTrue {
			if a == 0 {
				return ResultFalse
			}
			return ResultTrue
		}
	}

	b, ok := e.evalNodeInt(n.Second)
	if !ok {
		return ResultAbort
	}

	switch n.Cmp {
	case expr.CmpEq:
		return boolResult(a == b)
	case expr.CmpLtEq:
		return boolResult(a <= b)
	case expr.CmpLt:
		return boolResult(a < b)
	case expr.CmpGtEq:
		return boolResult(a >= b)
	case expr.CmpGt:
		return boolResult(a > b)
	default:
		return e.fail(n.Span(), "unsupported compare operator in post-expression")
	}
}

func boolResult(b bool) Result {
	if b {
		return ResultTrue
	}
	return ResultFalse
}

// evalNodeInt coerces a Value or Func node to an integer, mirroring
// _eval_node_get_int.
func (e *evaluator) evalNodeInt(node expr.Node) (int64, bool) {
	switch n := node.(type) {
	case *expr.Func:
		return e.evalFuncInt(n)
	case *expr.Value:
		if n.Type != expr.ValueNumeric {
			e.fail(n.Span(), "value of type %v cannot be coerced to an integer", n.Type)
			return 0, false
		}
		return n.Int, true
	default:
		e.fail(node.Span(), "expected a value or function call")
		return 0, false
	}
}

// evalFuncInt resolves n's arguments and invokes the dispatcher, returning
// the i32 result widened to int64.
func (e *evaluator) evalFuncInt(n *expr.Func) (int64, bool) {
	if len(n.Args) > maxFuncArgs {
		e.fail(n.Span(), "function %q takes more than %d arguments", n.Name, maxFuncArgs)
		return 0, false
	}

	args := make([]Arg, 0, len(n.Args))
	for _, argNode := range n.Args {
		switch a := argNode.(type) {
		case *expr.Value:
			switch a.Type {
			case expr.ValueNumeric:
				args = append(args, Arg{Int: a.Int})
			case expr.ValueString:
				args = append(args, Arg{IsString: true, Str: a.Str})
			default:
				e.fail(a.Span(), "unsupported argument type in call to %q", n.Name)
				return 0, false
			}
		case *expr.Func:
			v, ok := e.evalFuncInt(a)
			if !ok {
				return 0, false
			}
			args = append(args, Arg{Int: v})
		default:
			e.fail(argNode.Span(), "unsupported argument node in call to %q", n.Name)
			return 0, false
		}
	}

	result, status, err := e.dispatcher.Dispatch(e.ctx, n.Name, e.path, args)
	if err != nil {
		e.fail(n.Span(), "dispatch of %q failed: %s", n.Name, err)
		return 0, false
	}

	switch status {
	case DispatchOK:
		return int64(result), true
	case DispatchNotFound:
		e.fail(n.Span(), "function %q not found", n.Name)
		return 0, false
	case DispatchInvalidSignature:
		e.fail(n.Span(), "function %q has a different signature than the call site", n.Name)
		return 0, false
	default:
		e.fail(n.Span(), "unknown dispatch status for %q", n.Name)
		return 0, false
	}
}
