// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 efind Contributors

// Package ignorelist loads the glob-pattern ignore-list file backing
// --print-ignore-list: one shell-glob pattern per line, blank lines and
// "#"-comments skipped, "~" tilde-expanded, de-duplicated on load.
package ignorelist

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// Pattern is one compiled ignore-list entry: the original (tilde-expanded)
// text, and the compiled glob ready to match candidate paths.
type Pattern struct {
	Text string
	glob glob.Glob
}

// Match reports whether path matches this pattern.
func (p Pattern) Match(path string) bool {
	return p.glob.Match(path)
}

// List is a de-duplicated, ordered set of ignore patterns.
type List struct {
	patterns []Pattern
	seen     map[string]bool
}

// Load reads path, returning the de-duplicated list of compiled patterns.
// A missing file yields an empty, non-error List — the ignore-list is
// optional.
func Load(path string) (*List, error) {
	l := &List{seen: map[string]bool{}}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return l, nil
		}
		return nil, fmt.Errorf("couldn't open ignore-list %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		expanded, err := expandTilde(line)
		if err != nil {
			return nil, err
		}

		if l.seen[expanded] {
			continue
		}

		g, err := glob.Compile(expanded, '/')
		if err != nil {
			return nil, fmt.Errorf("couldn't compile ignore pattern %q: %w", expanded, err)
		}

		l.seen[expanded] = true
		l.patterns = append(l.patterns, Pattern{Text: expanded, glob: g})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("couldn't read ignore-list %s: %w", path, err)
	}

	return l, nil
}

// Patterns returns the de-duplicated, ordered patterns loaded from the file.
func (l *List) Patterns() []Pattern {
	return l.patterns
}

// Matches reports whether any pattern in the list matches path.
func (l *List) Matches(path string) bool {
	for _, p := range l.patterns {
		if p.Match(path) {
			return true
		}
	}
	return false
}

// DefaultPath returns "$HOME/.efind/ignore", the default ignore-list
// location derived from HOME per spec.md §6's environment contract.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".efind", "ignore")
}

func expandTilde(pattern string) (string, error) {
	if pattern != "~" && !strings.HasPrefix(pattern, "~/") {
		return pattern, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("couldn't expand '~' in ignore pattern %q: %w", pattern, err)
	}
	if pattern == "~" {
		return home, nil
	}
	return filepath.Join(home, pattern[2:]), nil
}
