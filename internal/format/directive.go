// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 efind Contributors

package format

import (
	"fmt"
	"regexp"
	"strconv"
)

// PrintFlag mirrors the C FormatPrintFlag bitmask controlling how a
// directive's value is rendered.
type PrintFlag int32

const (
	FlagZero  PrintFlag = 1 << iota // zero padding
	FlagMinus                       // left adjustment
	FlagHash                        // "alternate form"
	FlagSpace                       // space before a positive number
	FlagPlus                        // explicit sign before a number
)

// dateAttrs are the attribute letters that take a trailing run of
// strftime-style subformat characters (e.g. "%TYmd" = mtime, year-month-day).
const dateAttrs = "aAcCtT"

// plainAttrs are attribute letters with no subformat.
const plainAttrs = "bfgGhiklmMnpsSuUyYpPHFD"

var directiveRe = regexp.MustCompile(
	`^%([-0 +#]*)([0-9]*)(?:\.([0-9]+))?(?:([` + dateAttrs + `])([A-Za-z+XZ]+)|([` + plainAttrs + `]))$`,
)

// decodeDirective parses a lexed "%..." directive into its flags, width,
// precision, attribute letter and optional date subformat.
func decodeDirective(raw string) (*AttrNode, error) {
	m := directiveRe.FindStringSubmatch(raw)
	if m == nil {
		return nil, fmt.Errorf("format: malformed directive %q", raw)
	}

	node := &AttrNode{}
	for _, f := range m[1] {
		switch f {
		case '0':
			node.Flags |= FlagZero
		case '-':
			node.Flags |= FlagMinus
		case '#':
			node.Flags |= FlagHash
		case ' ':
			node.Flags |= FlagSpace
		case '+':
			node.Flags |= FlagPlus
		}
	}

	if m[2] != "" {
		w, err := strconv.Atoi(m[2])
		if err != nil {
			return nil, fmt.Errorf("format: invalid width in %q: %w", raw, err)
		}
		node.Width = w
	}
	if m[3] != "" {
		p, err := strconv.Atoi(m[3])
		if err != nil {
			return nil, fmt.Errorf("format: invalid precision in %q: %w", raw, err)
		}
		node.Precision = p
		node.HasPrecision = true
	}

	if m[4] != "" {
		node.Attr = m[4][0]
		node.DateFormat = m[5]
	} else {
		node.Attr = m[6][0]
	}

	return node, nil
}
