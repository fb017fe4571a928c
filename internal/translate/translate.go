// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 efind Contributors

// Package translate converts an expr.Root's filter-expression tree into the
// argv understood by the external search utility.
package translate

import (
	"fmt"
	"strings"

	"github.com/samber/oops"

	"github.com/efind-go/efind/internal/expr"
)

// Flags controls how the translator emits argv tokens.
type Flags struct {
	// QuoteShellMetachars wraps parentheses and strings so the resulting
	// argv is safe to pass through a shell, rather than exec'd directly.
	QuoteShellMetachars bool
}

// Error reports a translation failure at a specific AST node.
type Error struct {
	Span    expr.Span
	Message string
	cause   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Span, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

func newError(span expr.Span, format string, args ...any) *Error {
	msg := fmt.Sprintf(format, args...)
	return &Error{
		Span:    span,
		Message: msg,
		cause: oops.
			Code("TRANSLATE_ERROR").
			With("span", span.String()).
			Errorf("%s", msg),
	}
}

// ctx accumulates argv tokens while walking the tree; the first error wins
// and aborts the walk, mirroring translate.c's TranslationCtx.
type ctx struct {
	flags Flags
	argv  []string
}

func (c *ctx) append(args ...string) {
	c.argv = append(c.argv, args...)
}

func (c *ctx) parens() (string, string) {
	if c.flags.QuoteShellMetachars {
		return `\(`, `\)`
	}
	return "(", ")"
}

// Translate walks root and returns the argv for the external search
// utility. A nil root translates to an empty argv (match everything).
func Translate(root expr.Node, flags Flags) ([]string, error) {
	if root == nil {
		return nil, nil
	}

	c := &ctx{flags: flags}
	if err := c.process(root); err != nil {
		return nil, err
	}
	return c.argv, nil
}

func (c *ctx) process(node expr.Node) error {
	switch n := node.(type) {
	case *expr.Expression:
		return c.processExpression(n)
	case *expr.Condition:
		return c.processCondition(n)
	case *expr.Not:
		return c.processNot(n)
	case *expr.True:
		return nil
	default:
		return newError(node.Span(), "unsupported node in filter expression")
	}
}

func openParen(n *expr.Expression, child expr.Node) bool {
	if n.Op != expr.OpAnd {
		return false
	}
	if e, ok := child.(*expr.Expression); ok {
		return e.Op == expr.OpOr
	}
	return false
}

func (c *ctx) processExpression(n *expr.Expression) error {
	lparen, rparen := c.parens()

	open := openParen(n, n.First)
	if open {
		c.append(lparen)
	}
	if err := c.process(n.First); err != nil {
		return err
	}
	if open {
		c.append(rparen)
	}

	switch n.Op {
	case expr.OpAnd:
		c.append("-a")
	case expr.OpOr:
		c.append("-o")
	default:
		return newError(n.Span(), "unsupported operator")
	}

	open = openParen(n, n.Second)
	if open {
		c.append(lparen)
	}
	if err := c.process(n.Second); err != nil {
		return err
	}
	if open {
		c.append(rparen)
	}

	return nil
}

func (c *ctx) processNot(n *expr.Not) error {
	c.append("!")

	lparen, rparen := c.parens()
	_, isExpr := n.Operand.(*expr.Expression)
	if isExpr {
		c.append(lparen)
	}
	if err := c.process(n.Operand); err != nil {
		return err
	}
	if isExpr {
		c.append(rparen)
	}
	return nil
}

func (c *ctx) processCondition(n *expr.Condition) error {
	if n.Prop == expr.PropUndefined {
		return c.processFlag(n)
	}

	switch n.Value.Type {
	case expr.ValueNumeric:
		if !propertySupportsNumber(n.Prop) {
			return errIncompatible(n, "numeric")
		}
		switch {
		case propertySupportsTime(n.Prop):
			return c.appendTimeCondition(n, n.Value.Int, expr.TimeMinutes)
		case propertySupportsSize(n.Prop):
			return c.appendSizeCondition(n, n.Value.Int, expr.SizeBytes)
		default:
			if n.Cmp != expr.CmpEq && !propertySupportsNumericOperators(n.Prop) {
				return errUnsupportedOperator(n, "numeric")
			}
			return c.appendNumericArg(n, propertyToArg(n.Prop, expr.TimeUndefined), n.Value.Int, "")
		}

	case expr.ValueTime:
		if !propertySupportsTime(n.Prop) {
			return errIncompatible(n, "time")
		}
		return c.appendTimeCondition(n, n.Value.Int, expr.TimeUnit(n.Value.Unit))

	case expr.ValueSize:
		if !propertySupportsSize(n.Prop) {
			return errIncompatible(n, "size")
		}
		return c.appendSizeCondition(n, n.Value.Int, expr.SizeUnit(n.Value.Unit))

	case expr.ValueString:
		if propertySupportsType(n.Prop) {
			if n.Cmp != expr.CmpEq {
				return errUnsupportedOperator(n, "filetype")
			}
			return c.appendTypeCondition(n)
		}
		if !propertySupportsString(n.Prop) {
			return errIncompatible(n, "string")
		}
		if n.Cmp != expr.CmpEq {
			return errUnsupportedOperator(n, "string")
		}
		return c.appendStringArg(propertyToArg(n.Prop, expr.TimeUndefined), n.Value.Str)

	default:
		return newError(n.Span(), "unsupported value type in condition")
	}
}

func (c *ctx) processFlag(n *expr.Condition) error {
	flag := expr.StrToFileFlag(n.Value.Str)
	if flag == expr.FileFlagUndefined {
		return newError(n.Span(), "unknown flag %q", n.Value.Str)
	}
	c.append(flagToArg(flag))
	return nil
}

func errIncompatible(n *expr.Condition, typeDesc string) error {
	return newError(n.Span(), "cannot compare a value of type %q to property %q", typeDesc, propertyToStr(n.Prop))
}

func errUnsupportedOperator(n *expr.Condition, typeDesc string) error {
	return newError(n.Span(), "values of type %q don't support the %q operator", typeDesc, cmpToStr(n.Cmp))
}

// appendTimeCondition converts hour values to minutes, overflow-checked,
// following _append_time_cond.
func (c *ctx) appendTimeCondition(n *expr.Condition, val int64, unit expr.TimeUnit) error {
	if unit == expr.TimeHours {
		converted := val * 60
		if converted/60 != val {
			return newError(n.Span(), "integer overflow converting %d hours to minutes", val)
		}
		val = converted
		unit = expr.TimeMinutes
	}

	return c.appendNumericArg(n, propertyToArg(n.Prop, unit), val, "")
}

// appendSizeCondition converts the size value into bytes, overflow-checked,
// following _append_size_cond.
func (c *ctx) appendSizeCondition(n *expr.Condition, val int64, unit expr.SizeUnit) error {
	loops := 0
	unitName := "bytes"
	switch unit {
	case expr.SizeBytes:
		loops = 0
	case expr.SizeKB:
		loops, unitName = 1, "K"
	case expr.SizeMB:
		loops, unitName = 2, "M"
	case expr.SizeGB:
		loops, unitName = 3, "G"
	default:
		return newError(n.Span(), "unsupported size unit")
	}

	const maxVal = (int64(1) << 62) / 1024
	bytes := val
	for i := 0; i < loops; i++ {
		if bytes > maxVal {
			return newError(n.Span(), "integer overflow converting %d %s to bytes", val, unitName)
		}
		bytes *= 1024
	}

	return c.appendNumericArg(n, propertyToArg(n.Prop, expr.TimeUndefined), bytes, "c")
}

func (c *ctx) appendTypeCondition(n *expr.Condition) error {
	ft := expr.StrToFileType(n.Value.Str)
	letter, ok := fileTypeLetter(ft)
	if !ok {
		return newError(n.Span(), "unknown file type %q", n.Value.Str)
	}
	c.append("-type", letter)
	return nil
}

func fileTypeLetter(t expr.FileType) (string, bool) {
	switch t {
	case expr.FileRegular:
		return "f", true
	case expr.FileDirectory:
		return "d", true
	case expr.FilePipe:
		return "p", true
	case expr.FileSocket:
		return "s", true
	case expr.FileBlock:
		return "b", true
	case expr.FileCharacter:
		return "c", true
	case expr.FileSymlink:
		return "l", true
	default:
		return "", false
	}
}

// appendNumericArg emits the find(1)-style comparison for the given argument
// name, expressing <= and >= as a parenthesised disjunction because the host
// utility only understands -N / N / +N.
func (c *ctx) appendNumericArg(n *expr.Condition, arg string, val int64, suffix string) error {
	lparen, rparen := c.parens()

	switch n.Cmp {
	case expr.CmpLtEq:
		c.append(lparen, arg, fmt.Sprintf("%d%s", val, suffix), "-o", arg, fmt.Sprintf("-%d%s", val, suffix), rparen)
	case expr.CmpGtEq:
		c.append(lparen, arg, fmt.Sprintf("%d%s", val, suffix), "-o", arg, fmt.Sprintf("+%d%s", val, suffix), rparen)
	case expr.CmpEq:
		c.append(arg, fmt.Sprintf("%d%s", val, suffix))
	case expr.CmpLt:
		c.append(arg, fmt.Sprintf("-%d%s", val, suffix))
	case expr.CmpGt:
		c.append(arg, fmt.Sprintf("+%d%s", val, suffix))
	default:
		return newError(n.Span(), "unsupported compare operator")
	}
	return nil
}

func (c *ctx) appendStringArg(propName, val string) error {
	if len(val) > expr.MaxExpressionLength {
		val = val[:expr.MaxExpressionLength]
	}
	if c.flags.QuoteShellMetachars {
		c.append(propName, fmt.Sprintf("%q", val))
	} else {
		c.append(propName, val)
	}
	return nil
}

func propertySupportsNumber(p expr.PropertyId) bool {
	switch p {
	case expr.PropAtime, expr.PropCtime, expr.PropMtime, expr.PropSize, expr.PropGroupId, expr.PropUserId:
		return true
	default:
		return false
	}
}

func propertySupportsTime(p expr.PropertyId) bool {
	return p == expr.PropAtime || p == expr.PropCtime || p == expr.PropMtime
}

func propertySupportsString(p expr.PropertyId) bool {
	switch p {
	case expr.PropName, expr.PropIName, expr.PropRegex, expr.PropIRegex, expr.PropGroup, expr.PropUser, expr.PropFilesystem:
		return true
	default:
		return false
	}
}

func propertySupportsSize(p expr.PropertyId) bool { return p == expr.PropSize }

func propertySupportsType(p expr.PropertyId) bool { return p == expr.PropType }

func propertySupportsNumericOperators(p expr.PropertyId) bool {
	return p == expr.PropAtime || p == expr.PropCtime || p == expr.PropMtime || p == expr.PropSize
}

func propertyToStr(id expr.PropertyId) string {
	switch id {
	case expr.PropName:
		return "name"
	case expr.PropIName:
		return "iname"
	case expr.PropRegex:
		return "regex"
	case expr.PropIRegex:
		return "iregex"
	case expr.PropAtime:
		return "atime"
	case expr.PropCtime:
		return "ctime"
	case expr.PropMtime:
		return "mtime"
	case expr.PropGroup:
		return "group"
	case expr.PropGroupId:
		return "gid"
	case expr.PropUser:
		return "user"
	case expr.PropUserId:
		return "uid"
	case expr.PropSize:
		return "size"
	case expr.PropType:
		return "type"
	case expr.PropFilesystem:
		return "filesystem"
	default:
		return "undefined"
	}
}

func propertyToArg(id expr.PropertyId, unit expr.TimeUnit) string {
	switch id {
	case expr.PropName:
		return "-name"
	case expr.PropIName:
		return "-iname"
	case expr.PropRegex:
		return "-regex"
	case expr.PropIRegex:
		return "-iregex"
	case expr.PropAtime:
		if unit == expr.TimeDays {
			return "-atime"
		}
		return "-amin"
	case expr.PropCtime:
		if unit == expr.TimeDays {
			return "-ctime"
		}
		return "-cmin"
	case expr.PropMtime:
		if unit == expr.TimeDays {
			return "-mtime"
		}
		return "-mmin"
	case expr.PropGroup:
		return "-group"
	case expr.PropGroupId:
		return "-gid"
	case expr.PropUser:
		return "-user"
	case expr.PropUserId:
		return "-uid"
	case expr.PropSize:
		return "-size"
	case expr.PropType:
		return "-type"
	case expr.PropFilesystem:
		return "-fstype"
	default:
		return "-undefined"
	}
}

func flagToArg(f expr.FileFlag) string {
	switch f {
	case expr.FileFlagReadable:
		return "-readable"
	case expr.FileFlagWritable:
		return "-writable"
	case expr.FileFlagExecutable:
		return "-executable"
	case expr.FileFlagEmpty:
		return "-empty"
	default:
		return "-undefined"
	}
}

func cmpToStr(c expr.CompareType) string {
	switch c {
	case expr.CmpLt:
		return "<"
	case expr.CmpLtEq:
		return "<="
	case expr.CmpEq:
		return "="
	case expr.CmpGt:
		return ">"
	case expr.CmpGtEq:
		return ">="
	default:
		return "?"
	}
}

// DebugString renders argv the way -debug output would, one token per line,
// for troubleshooting translated expressions.
func DebugString(argv []string) string {
	return strings.Join(argv, "\n")
}
