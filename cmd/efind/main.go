// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 efind Contributors

// Package main is the entry point for the efind CLI.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/efind-go/efind/pkg/errutil"
)

func main() {
	args, execs, err := extractExecClauses(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cmd := NewRootCmd(execs)
	cmd.SetArgs(args)

	if err := cmd.Execute(); err != nil {
		errutil.LogError(slog.Default(), "efind failed", err)
		os.Exit(1)
	}
}
