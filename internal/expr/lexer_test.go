// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 efind Contributors

package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lexAll(t *testing.T, src string) []Token {
	t.Helper()
	l := newLexer(src)
	var toks []Token
	for {
		tok, err := l.next()
		require.NoError(t, err)
		toks = append(toks, tok)
		if tok.Kind == TokenEOF {
			return toks
		}
	}
}

func TestLexNumber_SizeSuffixes(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		wantUnit byte
	}{
		{"bare m is megabytes, not minutes", "10M", 'm'},
		{"lowercase m is megabytes", "10m", 'm'},
		{"mb spelling", "10mb", 'm'},
		{"bare k is kilobytes", "10k", 'k'},
		{"bare g is gigabytes", "10g", 'g'},
		{"bare b is bytes", "10b", 'b'},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks := lexAll(t, tt.src)
			require.Len(t, toks, 2) // value + EOF
			assert.Equal(t, TokenSizeValue, toks[0].Kind)
			assert.Equal(t, int64(10), toks[0].Value)
			assert.Equal(t, tt.wantUnit, toks[0].Unit)
		})
	}
}

func TestLexNumber_TimeSuffixesRequireLongSpelling(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		wantUnit byte
	}{
		{"min spelling is minutes", "7min", 'm'},
		{"mins spelling is minutes", "7mins", 'm'},
		{"minute spelling is minutes", "7minute", 'm'},
		{"minutes spelling is minutes", "7minutes", 'm'},
		{"bare h is hours", "2h", 'h'},
		{"bare d is days", "7d", 'd'},
		{"days spelling", "7days", 'd'},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks := lexAll(t, tt.src)
			require.Len(t, toks, 2)
			assert.Equal(t, TokenTimeValue, toks[0].Kind)
			assert.Equal(t, tt.wantUnit, toks[0].Unit)
		})
	}
}

func TestLexNumber_PlainInteger(t *testing.T) {
	toks := lexAll(t, "42")
	require.Len(t, toks, 2)
	assert.Equal(t, TokenInteger, toks[0].Kind)
	assert.Equal(t, int64(42), toks[0].Value)
}

func TestLexNumber_UnknownSuffixIsLexError(t *testing.T) {
	l := newLexer("10zz")
	_, err := l.next()
	require.Error(t, err)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, ErrLex, perr.Kind)
}

func TestLexString_EscapesAndUnterminated(t *testing.T) {
	toks := lexAll(t, `"a\nb\"c"`)
	require.Len(t, toks, 2)
	assert.Equal(t, TokenString, toks[0].Kind)
	assert.Equal(t, "a\nb\"c", toks[0].Text)

	l := newLexer(`"unterminated`)
	_, err := l.next()
	require.Error(t, err)
}

func TestLexIdentOrKeyword(t *testing.T) {
	toks := lexAll(t, "and or not name")
	require.Len(t, toks, 5)
	assert.Equal(t, TokenAnd, toks[0].Kind)
	assert.Equal(t, TokenOr, toks[1].Kind)
	assert.Equal(t, TokenNot, toks[2].Kind)
	assert.Equal(t, TokenIdent, toks[3].Kind)
}

func TestLexOperators(t *testing.T) {
	toks := lexAll(t, "= == != < <= > >=")
	kinds := make([]TokenKind, 0, len(toks)-1)
	for _, tok := range toks[:len(toks)-1] {
		kinds = append(kinds, tok.Kind)
	}
	assert.Equal(t, []TokenKind{TokenEq, TokenEq, TokenNe, TokenLt, TokenLe, TokenGt, TokenGe}, kinds)
}

func TestLexer_UnexpectedCharacter(t *testing.T) {
	l := newLexer("@")
	_, err := l.next()
	require.Error(t, err)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, ErrLex, perr.Kind)
}
