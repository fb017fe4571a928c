// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 efind Contributors

package format

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// formatLexer splits a format string into directives (e.g. "%-05.2Ty"),
// backslash escapes, and everything else as plain text. The internal
// structure of a directive (flags, width, precision, attribute letter,
// optional date sub-letter) is decoded separately in directive.go — the
// lexer's job is only to find directive/escape boundaries correctly.
var formatLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "PercentLiteral", Pattern: `%%`},
	{Name: "Directive", Pattern: `%[-0 +#]*[0-9]*(?:\.[0-9]+)?(?:[aAcCtT][A-Za-z+XZ]+|[bfgGhiklmMnpsSuUyYpPHFD])`},
	{Name: "Escape", Pattern: `\\(?:x[0-9A-Fa-f]{1,2}|[0-7]{1,3}|.)`},
	{Name: "Text", Pattern: `[^%\\]+`},
	{Name: "Stray", Pattern: `[%\\]`},
})

// rawNode is one lexed unit of a format string, before directive decoding.
type rawNode struct {
	Percent   *string `parser:"( @PercentLiteral"`
	Directive *string `parser:"| @Directive"`
	Escape    *string `parser:"| @Escape"`
	Text      *string `parser:"| @Text"`
	Stray     *string `parser:"| @Stray )"`
}

// rawFormat is the full lexed/parsed sequence of a format string.
type rawFormat struct {
	Nodes []*rawNode `parser:"@@*"`
}

var rawParser = participle.MustBuild[rawFormat](participle.Lexer(formatLexer))
