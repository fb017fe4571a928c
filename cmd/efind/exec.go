// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 efind Contributors

package main

import "fmt"

// extractExecClauses pulls every `--exec prog [args...] ;` clause out of
// args, following the host find(1) convention of a literal `;` terminator,
// since pflag has no notion of a variadic flag value. The surviving args
// (with every --exec clause removed) are returned alongside the parsed
// argv templates, in order, for --exec's documented repeatability.
func extractExecClauses(args []string) (remaining []string, execs [][]string, err error) {
	for i := 0; i < len(args); i++ {
		if args[i] != "--exec" {
			remaining = append(remaining, args[i])
			continue
		}

		j := i + 1
		var argv []string
		terminated := false
		for ; j < len(args); j++ {
			if args[j] == ";" {
				terminated = true
				break
			}
			argv = append(argv, args[j])
		}
		if !terminated {
			return nil, nil, fmt.Errorf("--exec requires a ';' terminator")
		}
		if len(argv) == 0 {
			return nil, nil, fmt.Errorf("--exec requires at least a program name before ';'")
		}

		execs = append(execs, argv)
		i = j
	}
	return remaining, execs, nil
}
