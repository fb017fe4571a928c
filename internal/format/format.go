// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 efind Contributors

// Package format implements the printf-like attribute format engine backing
// the printf stage and the --printf CLI flag: parse a format string once,
// then render it against every accepted path.
package format

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Kind identifies which field of a Value holds the attribute's data.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindOctal // rendered in octal rather than decimal (permissions, 'm')
	KindFloat
	KindTime
)

// Value is a single resolved file attribute.
type Value struct {
	Kind  Kind
	Str   string
	Int   int64
	Float float64
	Time  time.Time
}

// AttrSource resolves the attribute named by letter for path, found under
// the search starting-point dir. internal/fileattr provides the concrete
// implementation.
type AttrSource interface {
	Attr(dir, path string, letter byte) (Value, error)
}

// Node is one parsed unit of a format string.
type Node interface {
	isNode()
}

// TextNode is literal output: plain text or a decoded backslash escape.
type TextNode struct {
	Text string
}

func (TextNode) isNode() {}

// AttrNode renders one file attribute, with optional printf-style flags,
// width, precision and (for date/time attributes) a strftime-style
// subformat.
type AttrNode struct {
	Flags        PrintFlag
	Width        int
	HasPrecision bool
	Precision    int
	Attr         byte
	DateFormat   string // only set for date/time attributes (letters in dateAttrs)
}

func (AttrNode) isNode() {}

// Format is a parsed format string, ready to be rendered repeatedly against
// different paths.
type Format struct {
	nodes []Node
}

// Parse parses a format string, substituting any long-form field names
// ("{mtime}" or bare "mtime") for their single-letter attribute codes
// first. brackets selects which substitution style is recognized.
func Parse(fmtStr string, brackets bool) (*Format, error) {
	substituted := SubstituteFields(fmtStr, brackets)

	raw, err := rawParser.ParseString("", substituted)
	if err != nil {
		return nil, fmt.Errorf("format: %w", err)
	}

	nodes := make([]Node, 0, len(raw.Nodes))
	for _, n := range raw.Nodes {
		switch {
		case n.Percent != nil:
			nodes = append(nodes, TextNode{Text: "%"})
		case n.Directive != nil:
			attr, err := decodeDirective(*n.Directive)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, *attr)
		case n.Escape != nil:
			nodes = append(nodes, TextNode{Text: decodeEscape(*n.Escape)})
		case n.Text != nil:
			nodes = append(nodes, TextNode{Text: *n.Text})
		case n.Stray != nil:
			nodes = append(nodes, TextNode{Text: *n.Stray})
		}
	}

	return &Format{nodes: nodes}, nil
}

// decodeEscape turns a lexed "\X" / "\NNN" / "\xNN" token into its single
// resulting byte.
func decodeEscape(tok string) string {
	body := tok[1:]

	if len(body) >= 1 && body[0] == 'x' {
		if n, err := strconv.ParseInt(body[1:], 16, 16); err == nil {
			return string([]byte{byte(n)})
		}
	}
	if len(body) >= 1 && body[0] >= '0' && body[0] <= '9' {
		if n, err := strconv.ParseInt(body, 8, 16); err == nil {
			return string([]byte{byte(n)})
		}
	}

	switch body {
	case "a":
		return "\a"
	case "b":
		return "\b"
	case "f":
		return "\f"
	case "n":
		return "\n"
	case "r":
		return "\r"
	case "t":
		return "\t"
	case "v":
		return "\v"
	case "0":
		return "\x00"
	default:
		return body
	}
}

// Renderer binds a parsed Format to an AttrSource, implementing
// stage.Formatter so it can drive a PrintfProcessor directly.
type Renderer struct {
	Format *Format
	Source AttrSource
}

// NewRenderer parses fmtStr and returns a Renderer that resolves attributes
// through source.
func NewRenderer(fmtStr string, brackets bool, source AttrSource) (*Renderer, error) {
	f, err := Parse(fmtStr, brackets)
	if err != nil {
		return nil, err
	}
	return &Renderer{Format: f, Source: source}, nil
}

// Render implements stage.Formatter.
func (r *Renderer) Render(w io.Writer, dir, path string) error {
	return r.Format.Render(w, r.Source, dir, path)
}

// Render writes the formatted attributes of the given (dir, path) pair to
// w, resolving every attribute through source.
func (f *Format) Render(w io.Writer, source AttrSource, dir, path string) error {
	for _, n := range f.nodes {
		switch node := n.(type) {
		case TextNode:
			if _, err := io.WriteString(w, node.Text); err != nil {
				return err
			}
		case AttrNode:
			val, err := source.Attr(dir, path, node.Attr)
			if err != nil {
				return fmt.Errorf("format: couldn't resolve attribute %q for %s: %w", node.Attr, path, err)
			}
			if err := writeValue(w, node, val); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeValue(w io.Writer, node AttrNode, val Value) error {
	switch val.Kind {
	case KindString:
		return writeString(w, node, val.Str)
	case KindInt:
		return writeNumber(w, node, val.Int, false)
	case KindOctal:
		return writeNumber(w, node, val.Int, true)
	case KindFloat:
		return writeFloat(w, node, val.Float)
	case KindTime:
		return writeDate(w, node, val.Time)
	default:
		return fmt.Errorf("format: unknown attribute value kind %d", val.Kind)
	}
}

// buildVerb assembles a Go fmt verb string from an AttrNode's flags, width
// and precision, relying on fmt's own flag semantics rather than manually
// assembling and bounds-checking a C-style format string.
func buildVerb(node AttrNode, conversion byte) string {
	var b strings.Builder
	b.WriteByte('%')
	if node.Flags&FlagMinus != 0 {
		b.WriteByte('-')
	}
	if node.Flags&FlagZero != 0 {
		b.WriteByte('0')
	}
	if node.Flags&FlagSpace != 0 {
		b.WriteByte(' ')
	}
	if node.Flags&FlagPlus != 0 {
		b.WriteByte('+')
	}
	if node.Flags&FlagHash != 0 {
		b.WriteByte('#')
	}
	if node.Width > 0 {
		fmt.Fprintf(&b, "%d", node.Width)
	}
	if node.HasPrecision {
		fmt.Fprintf(&b, ".%d", node.Precision)
	}
	b.WriteByte(conversion)
	return b.String()
}

func writeString(w io.Writer, node AttrNode, s string) error {
	_, err := fmt.Fprintf(w, buildVerb(node, 's'), s)
	return err
}

func writeNumber(w io.Writer, node AttrNode, n int64, octal bool) error {
	conversion := byte('d')
	if octal {
		conversion = 'o'
	}
	_, err := fmt.Fprintf(w, buildVerb(node, conversion), n)
	return err
}

func writeFloat(w io.Writer, node AttrNode, f float64) error {
	_, err := fmt.Fprintf(w, buildVerb(node, 'f'), f)
	return err
}

// writeDate renders t per node.DateFormat, doubling each requested
// subformat letter into a "%X" strftime-style directive; with no subformat
// it falls back to the ctime(3) layout, without ctime's trailing newline.
func writeDate(w io.Writer, node AttrNode, t time.Time) error {
	if node.DateFormat == "" {
		return writeString(w, node, t.Format("Mon Jan _2 15:04:05 2006"))
	}

	var b strings.Builder
	for i := 0; i < len(node.DateFormat); i++ {
		b.WriteString(strftimeField(node.DateFormat[i], t))
	}
	return writeString(w, node, b.String())
}
