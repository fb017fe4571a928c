// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 efind Contributors

package stage

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/efind-go/efind/internal/efinderrors"
)

// placeholder is substituted with the accepted path in an exec argv
// template, following the host find utility's own -exec convention.
const placeholder = "{}"

// ExecProcessor forks argv (with placeholder substituted by the accepted
// path) on each write, with the child's working directory set to the
// search starting-point, and waits for it to complete.
type ExecProcessor struct {
	flags        Flags
	path         string
	argv         []string
	ignoreErrors bool
	err          error
}

// NewExec returns an ExecProcessor running argv (argv[0] is the program,
// the rest its arguments) for every accepted path. If ignoreErrors is
// false, the first non-zero exit closes the stage (and so the chain);
// otherwise execution continues regardless of exit status.
func NewExec(argv []string, ignoreErrors bool) *ExecProcessor {
	template := make([]string, len(argv))
	copy(template, argv)
	return &ExecProcessor{argv: template, ignoreErrors: ignoreErrors}
}

func (e *ExecProcessor) Readable() bool { return e.flags&FlagReadable != 0 }
func (e *ExecProcessor) Closed() bool   { return e.flags&FlagClosed != 0 }

func (e *ExecProcessor) Read() string {
	e.flags &^= FlagReadable
	return e.path
}

func (e *ExecProcessor) Write(dir, path string) {
	e.flags |= FlagReadable
	e.path = path

	if len(e.argv) == 0 {
		return
	}

	args := substitutePlaceholder(e.argv, path)
	cmd := exec.Command(args[0], args[1:]...)
	cmd.Dir = dir

	if err := cmd.Run(); err != nil {
		if e.err == nil {
			e.err = efinderrors.StageError("exec", fmt.Errorf("exec %q: %w", strings.Join(args, " "), err))
		}
		if !e.ignoreErrors {
			e.flags &^= FlagReadable
			e.flags |= FlagClosed
		}
	}
}

func (e *ExecProcessor) Close(dir string) {
	e.flags |= FlagClosed
}

// Err returns the first non-zero exit or spawn error, if any.
func (e *ExecProcessor) Err() error {
	return e.err
}

// substitutePlaceholder replaces every occurrence of placeholder in
// template with path. If the template contains no placeholder at all, path
// is appended as a trailing argument.
func substitutePlaceholder(template []string, path string) []string {
	args := make([]string, 0, len(template)+1)
	found := false
	for _, a := range template {
		if strings.Contains(a, placeholder) {
			found = true
			args = append(args, strings.ReplaceAll(a, placeholder, path))
		} else {
			args = append(args, a)
		}
	}
	if !found {
		args = append(args, path)
	}
	return args
}
