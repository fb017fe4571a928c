// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 efind Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version information, set at build time via -ldflags.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// efindConfig holds every flag efind recognizes, bound directly by
// NewRootCmd and defaulted from internal/config by runEfindWithDeps, which
// RunE calls.
type efindConfig struct {
	expr              string
	dirs              []string
	quote             bool
	follow            bool
	maxDepth          int
	maxDepthSet       bool
	skip              uint64
	limit             uint64
	limitSet          bool
	regexType         string
	printf            string
	orderBy           string
	execIgnoreErrors  bool
	print             bool
	printExtensions   bool
	printIgnoreList   bool
	logLevel          int
	logColor          bool
	metricsAddr       string
	showVersion       bool
	execs             [][]string
}

// NewRootCmd creates efind's single command, with execs already split out
// of os.Args by extractExecClauses (cobra has no notion of a
// semicolon-terminated variadic flag value).
func NewRootCmd(execs [][]string) *cobra.Command {
	cfg := &efindConfig{execs: execs}

	cmd := &cobra.Command{
		Use:   "efind",
		Short: "Search the filesystem with a composable filter expression language",
		Long: `efind wraps the host find(1) utility with a richer expression
language: conditions translated directly into find's own argument syntax,
plus an optional post-expression evaluated in-process against plugin
callbacks after each candidate path is emitted.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.showVersion {
				fmt.Fprintf(cmd.OutOrStdout(), "efind %s (commit %s, built %s)\n", version, commit, date)
				return nil
			}
			return runEfindWithDeps(cmd, cfg, args, nil)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&cfg.expr, "expr", "e", "", "filter expression (disables stdin-expression mode)")
	flags.StringArrayVarP(&cfg.dirs, "dir", "d", nil, "starting-point directory (repeatable; de-duplicated)")
	flags.BoolVarP(&cfg.quote, "quote", "q", false, "shell-quote translated arguments")
	flags.Lookup("quote").NoOptDefVal = "true"
	flags.BoolVarP(&cfg.follow, "follow", "L", false, "follow symlinks")
	flags.Lookup("follow").NoOptDefVal = "true"
	flags.IntVar(&cfg.maxDepth, "max-depth", 0, "maximum descent depth")
	flags.Uint64Var(&cfg.skip, "skip", 0, "discard the first N accepted paths")
	flags.Uint64Var(&cfg.limit, "limit", 0, "emit at most N accepted paths")
	flags.StringVar(&cfg.regexType, "regex-type", "", "regex dialect passed through to find -regextype")
	flags.StringVar(&cfg.printf, "printf", "", "printf-style format string, enabling the printf output stage")
	flags.StringVar(&cfg.orderBy, "order-by", "", "sort spec (e.g. \"s -n\"), enabling the sort stage")
	flags.BoolVar(&cfg.execIgnoreErrors, "exec-ignore-errors", false, "continue the exec stage past a non-zero exit")
	flags.Lookup("exec-ignore-errors").NoOptDefVal = "true"
	flags.BoolVarP(&cfg.print, "print", "p", false, "translate and print the find(1) invocation; don't search")
	flags.BoolVar(&cfg.printExtensions, "print-extensions", false, "list discovered plugin callback names and signatures")
	flags.BoolVar(&cfg.printIgnoreList, "print-ignore-list", false, "list the accumulated ignore-list patterns")
	flags.IntVar(&cfg.logLevel, "log-level", 0, "verbosity, 0 (off) through 6 (trace)")
	flags.BoolVar(&cfg.logColor, "log-color", false, "colorize WARN/ERROR log output")
	flags.Lookup("log-color").NoOptDefVal = "true"
	flags.StringVar(&cfg.metricsAddr, "metrics-addr", "", "expose Prometheus metrics at this address (disabled if empty)")
	flags.BoolVarP(&cfg.showVersion, "version", "v", false, "print version information and exit")

	cmd.PreRunE = func(cmd *cobra.Command, _ []string) error {
		cfg.maxDepthSet = cmd.Flags().Changed("max-depth")
		cfg.limitSet = cmd.Flags().Changed("limit")
		return nil
	}

	return cmd
}
