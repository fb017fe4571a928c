// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 efind Contributors

package stage

import (
	"fmt"
	"sort"
	"strings"

	"github.com/efind-go/efind/internal/efinderrors"
)

// sortableFields is the fixed alphabet of single-letter attributes a sort
// string may reference.
const sortableFields = "bfgGhHiklmMnpsSuUyYpPFDaAcCtT"

// SortField is one parsed component of a sort string: an attribute letter
// and a direction.
type SortField struct {
	Letter    byte
	Ascending bool
}

// ParseSortSpec parses a whitespace-delimited sort string into an ordered
// list of SortFields. Each token is an optional leading '-' (descending)
// followed by exactly one letter from sortableFields; any other token
// rejects the whole spec.
func ParseSortSpec(spec string) ([]SortField, error) {
	tokens := strings.Fields(spec)
	if len(tokens) == 0 {
		return nil, efinderrors.StageError("sort", fmt.Errorf("sort spec is empty"))
	}

	fields := make([]SortField, 0, len(tokens))
	for _, tok := range tokens {
		asc := true
		if strings.HasPrefix(tok, "-") {
			asc = false
			tok = tok[1:]
		}
		if len(tok) != 1 || !strings.ContainsRune(sortableFields, rune(tok[0])) {
			return nil, efinderrors.StageError("sort", fmt.Errorf("invalid sort field %q", tok))
		}
		fields = append(fields, SortField{Letter: tok[0], Ascending: asc})
	}
	return fields, nil
}

// Attr is a single comparable file attribute value, resolved by an
// AttrSource for one (path, letter) pair.
type Attr struct {
	Int   int64
	Str   string
	IsStr bool
}

// Compare returns -1, 0 or 1 comparing a to b, by string or integer value
// depending on which of the two carries string data.
func (a Attr) Compare(b Attr) int {
	if a.IsStr || b.IsStr {
		return strings.Compare(a.Str, b.Str)
	}
	switch {
	case a.Int < b.Int:
		return -1
	case a.Int > b.Int:
		return 1
	default:
		return 0
	}
}

// AttrSource resolves the sort attribute named by letter for path, found
// under the search starting-point dir. internal/fileattr provides the
// concrete implementation backing the sort stage and the format engine.
type AttrSource interface {
	Attr(dir, path string, letter byte) (Attr, error)
}

type sortEntry struct {
	path  string
	attrs []Attr
}

// SortProcessor buffers every accepted path until Close, resolving the
// requested attributes on ingest, then sorts and emits all paths in order.
type SortProcessor struct {
	flags   Flags
	fields  []SortField
	source  AttrSource
	entries []sortEntry
	readIdx int
	err     error
}

// NewSort returns a SortProcessor ordering by fields, resolving attributes
// through source.
func NewSort(fields []SortField, source AttrSource) *SortProcessor {
	return &SortProcessor{fields: fields, source: source}
}

func (s *SortProcessor) Readable() bool { return s.flags&FlagReadable != 0 }
func (s *SortProcessor) Closed() bool   { return s.flags&FlagClosed != 0 }

func (s *SortProcessor) Write(dir, path string) {
	attrs := make([]Attr, len(s.fields))
	for i, f := range s.fields {
		a, err := s.source.Attr(dir, path, f.Letter)
		if err != nil {
			if s.err == nil {
				s.err = efinderrors.StageError("sort", fmt.Errorf("couldn't read file attribute %q for %s: %w", f.Letter, path, err))
			}
			return
		}
		attrs[i] = a
	}
	s.entries = append(s.entries, sortEntry{path: path, attrs: attrs})
}

func (s *SortProcessor) Close(dir string) {
	sort.SliceStable(s.entries, func(i, j int) bool {
		a, b := s.entries[i], s.entries[j]
		for k, f := range s.fields {
			c := a.attrs[k].Compare(b.attrs[k])
			if c == 0 {
				continue
			}
			if !f.Ascending {
				c = -c
			}
			return c < 0
		}
		return false
	})

	if len(s.entries) > 0 {
		s.flags |= FlagReadable
	} else {
		s.flags |= FlagClosed
	}
}

func (s *SortProcessor) Read() string {
	path := s.entries[s.readIdx].path
	s.readIdx++
	if s.readIdx >= len(s.entries) {
		s.flags &^= FlagReadable
		s.flags |= FlagClosed
	}
	return path
}

// Err returns the first attribute-resolution error encountered while
// buffering paths, if any.
func (s *SortProcessor) Err() error {
	return s.err
}
