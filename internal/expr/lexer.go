// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 efind Contributors

package expr

import (
	"strconv"
	"strings"
)

// MaxExpressionLength is PARSER_MAX_EXPRESSION_LENGTH from spec.md §4.1.
const MaxExpressionLength = 512

// timeUnits maps every accepted time-suffix spelling to its canonical unit
// byte. Both the terse single-letter form and the word form found in
// spec.md §8's "mtime<7days" example are accepted.
// The bare single letter "m" is deliberately absent: spec.md §4.1 lists it
// in the size suffix set too (for megabytes), and size suffixes are checked
// first in lexNumber, so a minutes value must use one of the longer
// spellings below.
var timeUnits = map[string]byte{
	"min": 'm', "mins": 'm', "minute": 'm', "minutes": 'm',
	"h": 'h', "hr": 'h', "hrs": 'h', "hour": 'h', "hours": 'h',
	"d": 'd', "day": 'd', "days": 'd',
}

// sizeUnits maps every accepted size-suffix spelling to its canonical unit
// byte, following the SIZE value-type enumeration in spec.md §3.
var sizeUnits = map[string]byte{
	"b": 'b', "byte": 'b', "bytes": 'b',
	"k": 'k', "kb": 'k',
	"m": 'm', "mb": 'm',
	"g": 'g', "gb": 'g',
}

type lexer struct {
	src        string
	pos        int
	line, col  int
	lastIsUnit bool
}

func newLexer(src string) *lexer {
	return &lexer{src: src, line: 1, col: 1}
}

func (l *lexer) here() Span {
	return Span{FirstLine: l.line, FirstColumn: l.col, LastLine: l.line, LastColumn: l.col}
}

func (l *lexer) peek() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *lexer) peekAt(n int) byte {
	if l.pos+n >= len(l.src) {
		return 0
	}
	return l.src[l.pos+n]
}

func (l *lexer) advance() byte {
	c := l.src[l.pos]
	l.pos++
	if c == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return c
}

func (l *lexer) skipWhitespace() {
	for l.pos < len(l.src) {
		switch l.src[l.pos] {
		case ' ', '\t', '\r', '\n':
			l.advance()
		default:
			return
		}
	}
}

// next returns the next token or a *ParseError (ErrLex).
func (l *lexer) next() (Token, error) {
	l.skipWhitespace()

	start := l.here()
	if l.pos >= len(l.src) {
		return Token{Kind: TokenEOF, Span: start}, nil
	}

	c := l.peek()
	switch {
	case c == '(':
		l.advance()
		return Token{Kind: TokenLParen, Span: spanFrom(start, l.here())}, nil
	case c == ')':
		l.advance()
		return Token{Kind: TokenRParen, Span: spanFrom(start, l.here())}, nil
	case c == ',':
		l.advance()
		return Token{Kind: TokenComma, Span: spanFrom(start, l.here())}, nil
	case c == '"':
		return l.lexString(start)
	case c == '=':
		l.advance()
		if l.peek() == '=' {
			l.advance()
		}
		return Token{Kind: TokenEq, Span: spanFrom(start, l.here())}, nil
	case c == '!':
		l.advance()
		if l.peek() == '=' {
			l.advance()
			return Token{Kind: TokenNe, Span: spanFrom(start, l.here())}, nil
		}
		return Token{}, errLex(spanFrom(start, l.here()), "unexpected character '!'")
	case c == '<':
		l.advance()
		if l.peek() == '=' {
			l.advance()
			return Token{Kind: TokenLe, Span: spanFrom(start, l.here())}, nil
		}
		return Token{Kind: TokenLt, Span: spanFrom(start, l.here())}, nil
	case c == '>':
		l.advance()
		if l.peek() == '=' {
			l.advance()
			return Token{Kind: TokenGe, Span: spanFrom(start, l.here())}, nil
		}
		return Token{Kind: TokenGt, Span: spanFrom(start, l.here())}, nil
	case isDigit(c):
		return l.lexNumber(start)
	case isIdentStart(c):
		return l.lexIdentOrKeyword(start)
	default:
		l.advance()
		return Token{}, errLex(spanFrom(start, l.here()), "unexpected character %q", c)
	}
}

func spanFrom(start, end Span) Span {
	return Span{FirstLine: start.FirstLine, FirstColumn: start.FirstColumn, LastLine: end.LastLine, LastColumn: end.LastColumn}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c) || c == '-' || c == '.' || c == '*'
}

func (l *lexer) lexString(start Span) (Token, error) {
	l.advance() // opening quote
	var b strings.Builder
	for {
		if l.pos >= len(l.src) {
			return Token{}, errLex(spanFrom(start, l.here()), "unterminated string literal")
		}
		c := l.peek()
		if c == '"' {
			l.advance()
			return Token{Kind: TokenString, Text: b.String(), Span: spanFrom(start, l.here())}, nil
		}
		if c == '\\' {
			l.advance()
			if l.pos >= len(l.src) {
				return Token{}, errLex(spanFrom(start, l.here()), "unterminated escape sequence")
			}
			esc := l.advance()
			switch esc {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case '"':
				b.WriteByte('"')
			case '\\':
				b.WriteByte('\\')
			default:
				b.WriteByte(esc)
			}
			continue
		}
		b.WriteByte(l.advance())
	}
}

func (l *lexer) lexNumber(start Span) (Token, error) {
	var digits strings.Builder
	for isDigit(l.peek()) {
		digits.WriteByte(l.advance())
	}

	n, err := strconv.ParseInt(digits.String(), 10, 64)
	if err != nil {
		return Token{}, errLex(spanFrom(start, l.here()), "invalid integer literal %q", digits.String())
	}

	suffix := l.lexBareSuffix()
	if suffix == "" {
		return Token{Kind: TokenInteger, Text: digits.String(), Value: n, Span: spanFrom(start, l.here())}, nil
	}

	// Size is checked before time: spec.md §4.1 lists the bare letter "m" in
	// both the time suffix set (m|h|d) and the size suffix set (b|k|m|M|g|G),
	// and spec.md §8 scenario 1 (size>=10M) requires the bare "m"/"M" to mean
	// megabytes. Minutes must be spelled out ("min", "mins", "minute(s)") to
	// be unambiguous, which is why only those longer spellings remain in
	// timeUnits once the single letter is claimed by size.
	lower := strings.ToLower(suffix)
	if unit, ok := sizeUnits[lower]; ok {
		return Token{Kind: TokenSizeValue, Text: digits.String(), Value: n, Unit: unit, Span: spanFrom(start, l.here())}, nil
	}
	if unit, ok := timeUnits[lower]; ok {
		return Token{Kind: TokenTimeValue, Text: digits.String(), Value: n, Unit: unit, Span: spanFrom(start, l.here())}, nil
	}

	return Token{}, errLex(spanFrom(start, l.here()), "unknown unit suffix %q", suffix)
}

// lexBareSuffix consumes a run of letters immediately following a number,
// with no intervening whitespace, and returns it (possibly empty).
func (l *lexer) lexBareSuffix() string {
	var b strings.Builder
	for {
		c := l.peek()
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			b.WriteByte(l.advance())
			continue
		}
		break
	}
	return b.String()
}

var keywords = map[string]TokenKind{
	"and": TokenAnd,
	"or":  TokenOr,
	"not": TokenNot,
}

func (l *lexer) lexIdentOrKeyword(start Span) (Token, error) {
	var b strings.Builder
	for isIdentPart(l.peek()) {
		b.WriteByte(l.advance())
	}
	text := b.String()
	if kind, ok := keywords[strings.ToLower(text)]; ok {
		return Token{Kind: kind, Text: text, Span: spanFrom(start, l.here())}, nil
	}
	return Token{Kind: TokenIdent, Text: text, Span: spanFrom(start, l.here())}, nil
}
