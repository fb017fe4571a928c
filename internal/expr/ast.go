// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 efind Contributors

package expr

import "strings"

// PropertyId identifies a searchable file attribute usable in a condition.
type PropertyId int

// Property identifiers, mirrored from the original PropertyId enum.
const (
	PropUndefined PropertyId = iota
	PropName
	PropIName
	PropRegex
	PropIRegex
	PropAtime
	PropCtime
	PropMtime
	PropSize
	PropGroup
	PropGroupId
	PropUser
	PropUserId
	PropType
	PropFilesystem
)

// CompareType identifies the comparison operator of a Condition or Compare node.
type CompareType int

// Compare operators.
const (
	CmpUndefined CompareType = iota
	CmpEq
	CmpLtEq
	CmpLt
	CmpGtEq
	CmpGt
)

// OperatorType identifies the boolean combinator of an Expression node.
type OperatorType int

// Boolean operators.
const (
	OpUndefined OperatorType = iota
	OpAnd
	OpOr
)

// ValueType identifies the kind of literal stored in a Value node.
type ValueType int

// Value kinds.
const (
	ValueUndefined ValueType = iota
	ValueNumeric
	ValueString
	ValueTime
	ValueSize
	ValueFileType
	ValueFlag
)

// TimeUnit identifies the unit of a VALUE_TIME literal.
type TimeUnit int

// Time units.
const (
	TimeUndefined TimeUnit = iota
	TimeMinutes
	TimeHours
	TimeDays
)

// SizeUnit identifies the unit of a VALUE_SIZE literal.
type SizeUnit int

// Size units.
const (
	SizeUndefined SizeUnit = iota
	SizeBytes
	SizeKB
	SizeMB
	SizeGB
)

// FileType identifies a file-type literal used with the "type" property.
type FileType int

// File types.
const (
	FileUndefined FileType = iota
	FileRegular
	FileDirectory
	FilePipe
	FileSocket
	FileBlock
	FileCharacter
	FileSymlink
)

// FileFlag identifies a bare flag_ident predicate such as "readable".
type FileFlag int

// File flags.
const (
	FileFlagUndefined FileFlag = iota
	FileFlagReadable
	FileFlagWritable
	FileFlagExecutable
	FileFlagEmpty
)

// Node is implemented by every AST node variant.
type Node interface {
	Span() Span
	node()
}

type base struct {
	span Span
}

func (b base) Span() Span { return b.span }
func (base) node()        {}

// Root is the top-level parse result: a filter-expression tree used to build
// the find(1) argv, and an optional post-filter-expression tree evaluated
// against each candidate path after find emits it.
type Root struct {
	base
	Exprs     Node
	PostExprs Node
}

// True is a constant true predicate, used both as the default Exprs tree
// for an empty expression and as the operand parsed from the keyword "true"
// in a compare such as f() == true. A bare func_call predicate is left as a
// plain Func node; no True node is added for it.
type True struct {
	base
}

// Not negates the boolean result of Operand.
type Not struct {
	base
	Operand Node
}

// Expression combines First and Second with a boolean operator.
type Expression struct {
	base
	First  Node
	Op     OperatorType
	Second Node
}

// Condition tests a file property against a Value with a comparison
// operator. Condition nodes are only valid in Root.Exprs.
type Condition struct {
	base
	Prop  PropertyId
	Cmp   CompareType
	Value *Value
}

// Compare compares two arbitrary nodes (typically a Func result against a
// Value) with a comparison operator. Compare nodes are only valid in
// Root.PostExprs.
type Compare struct {
	base
	First  Node
	Cmp    CompareType
	Second Node
}

// Value is a literal: a number, string, time interval, size, file type or
// file flag, depending on Type.
type Value struct {
	base
	Type TimeType
	Str  string
	Int  int64
	Unit int // SizeUnit or TimeUnit, depending on Type
	FType FileType
	Flag  FileFlag
}

// TimeType is an alias kept for readability where a Value's Type field is
// being inspected; it is simply ValueType.
type TimeType = ValueType

// Func is a call to a named post-filter predicate, e.g. utf8("name") or
// exec("file", "{}"). Func nodes are only valid in Root.PostExprs.
type Func struct {
	base
	Name string
	Args []Node
}

// NewRoot, NewTrue etc. are small constructors so the parser reads as a
// direct translation of the grammar productions, matching the ast_*_node_new
// constructor style of the original implementation.

func NewRoot(span Span, exprs, postExprs Node) *Root {
	return &Root{base: base{span}, Exprs: exprs, PostExprs: postExprs}
}

func NewTrue(span Span) *True { return &True{base: base{span}} }

func NewNot(span Span, operand Node) *Not { return &Not{base: base{span}, Operand: operand} }

func NewExpression(span Span, first Node, op OperatorType, second Node) *Expression {
	return &Expression{base: base{span}, First: first, Op: op, Second: second}
}

func NewCondition(span Span, prop PropertyId, cmp CompareType, value *Value) *Condition {
	return &Condition{base: base{span}, Prop: prop, Cmp: cmp, Value: value}
}

func NewCompare(span Span, first Node, cmp CompareType, second Node) *Compare {
	return &Compare{base: base{span}, First: first, Cmp: cmp, Second: second}
}

func NewFunc(span Span, name string, args []Node) *Func {
	return &Func{base: base{span}, Name: name, Args: args}
}

func NewStringValue(span Span, s string) *Value {
	return &Value{base: base{span}, Type: ValueString, Str: s}
}

func NewNumericValue(span Span, n int64) *Value {
	return &Value{base: base{span}, Type: ValueNumeric, Int: n}
}

func NewTimeValue(span Span, n int64, unit TimeUnit) *Value {
	return &Value{base: base{span}, Type: ValueTime, Int: n, Unit: int(unit)}
}

func NewSizeValue(span Span, n int64, unit SizeUnit) *Value {
	return &Value{base: base{span}, Type: ValueSize, Int: n, Unit: int(unit)}
}

func NewFileTypeValue(span Span, t FileType) *Value {
	return &Value{base: base{span}, Type: ValueFileType, FType: t}
}

func NewFlagValue(span Span, f FileFlag) *Value {
	return &Value{base: base{span}, Type: ValueFlag, Flag: f}
}

// StrToPropertyId converts a bare identifier to a PropertyId, accepting the
// same spellings as the original ast_str_to_property_id. Exported so the
// translate package can resolve property names without re-deriving the
// table.
func StrToPropertyId(s string) PropertyId {
	switch strings.ToLower(s) {
	case "name":
		return PropName
	case "iname":
		return PropIName
	case "regex":
		return PropRegex
	case "iregex":
		return PropIRegex
	case "atime":
		return PropAtime
	case "ctime":
		return PropCtime
	case "mtime":
		return PropMtime
	case "size":
		return PropSize
	case "group":
		return PropGroup
	case "gid":
		return PropGroupId
	case "user":
		return PropUser
	case "uid":
		return PropUserId
	case "type":
		return PropType
	case "filesystem", "fstype":
		return PropFilesystem
	default:
		return PropUndefined
	}
}

// StrToFileType converts a bare identifier to a FileType, accepting the
// same spellings as the original ast_str_to_type.
func StrToFileType(s string) FileType {
	switch strings.ToLower(s) {
	case "file", "regular":
		return FileRegular
	case "dir", "directory":
		return FileDirectory
	case "pipe", "fifo":
		return FilePipe
	case "socket":
		return FileSocket
	case "block":
		return FileBlock
	case "character", "char":
		return FileCharacter
	case "symlink", "link":
		return FileSymlink
	default:
		return FileUndefined
	}
}

// StrToFileFlag converts a bare identifier to a FileFlag, accepting the
// same spellings as the original ast_str_to_flag.
func StrToFileFlag(s string) FileFlag {
	switch strings.ToLower(s) {
	case "readable":
		return FileFlagReadable
	case "writable":
		return FileFlagWritable
	case "executable":
		return FileFlagExecutable
	case "empty":
		return FileFlagEmpty
	default:
		return FileFlagUndefined
	}
}

// StrToOperator converts a keyword to an OperatorType, accepting the same
// spellings as the original ast_str_to_operator.
func StrToOperator(s string) OperatorType {
	switch strings.ToLower(s) {
	case "and":
		return OpAnd
	case "or":
		return OpOr
	default:
		return OpUndefined
	}
}
