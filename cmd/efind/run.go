// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 efind Contributors

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/efind-go/efind/internal/config"
	"github.com/efind-go/efind/internal/efindlog"
	"github.com/efind-go/efind/internal/fileattr"
	"github.com/efind-go/efind/internal/format"
	"github.com/efind-go/efind/internal/ignorelist"
	"github.com/efind-go/efind/internal/pluginhost"
	"github.com/efind-go/efind/internal/pluginhost/goplugin"
	"github.com/efind-go/efind/internal/pluginhost/lua"
	"github.com/efind-go/efind/internal/search"
	"github.com/efind-go/efind/internal/stage"
	"github.com/efind-go/efind/internal/translate"
	"github.com/efind-go/efind/internal/xdg"
)

// runDeps lets tests substitute stdin/stdout/the plugin manager without
// going through cobra or the filesystem.
type runDeps struct {
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
	manager *pluginhost.Manager
}

func (d *runDeps) fill(cmd *cobra.Command) {
	if d.stdin == nil {
		d.stdin = cmd.InOrStdin()
	}
	if d.stdout == nil {
		d.stdout = cmd.OutOrStdout()
	}
	if d.stderr == nil {
		d.stderr = cmd.ErrOrStderr()
	}
}

// runEfindWithDeps applies config-file defaults under CLI flags, builds the
// processor chain, loads plugins, and runs (or just prints) the search.
func runEfindWithDeps(cmd *cobra.Command, cfg *efindConfig, args []string, deps *runDeps) error {
	if deps == nil {
		deps = &runDeps{}
	}
	deps.fill(cmd)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	fileCfg, err := config.Load(cmd.Flags())
	if err != nil {
		return fmt.Errorf("couldn't load config: %w", err)
	}
	applyConfigDefaults(cfg, fileCfg)

	efindlog.SetDefault(cfg.logLevel, cfg.logColor)

	if cfg.metricsAddr != "" {
		stopMetrics := serveMetrics(cfg.metricsAddr, deps.stderr)
		defer stopMetrics()
	}

	manager := deps.manager
	if manager == nil {
		m, err := newPluginManager(ctx)
		if err != nil {
			return err
		}
		defer m.Close(ctx)
		manager = m
	}

	if cfg.printExtensions {
		return printExtensions(deps.stdout, manager)
	}
	if cfg.printIgnoreList {
		return printIgnoreList(deps.stdout)
	}

	exprText, err := resolveExpr(cfg, deps.stdin)
	if err != nil {
		return err
	}

	dirs := cfg.dirs
	if len(dirs) == 0 {
		dirs = []string{"."}
	}
	dirs = dedupe(dirs)

	flags := translate.Flags{QuoteShellMetachars: cfg.quote}
	var maxDepth *int
	if cfg.maxDepthSet {
		maxDepth = &cfg.maxDepth
	}
	opts := search.Options{MaxDepth: maxDepth, Follow: cfg.follow, RegexType: cfg.regexType}

	if cfg.print {
		return printTranslation(deps.stdout, dirs, exprText, flags, opts)
	}

	chain, sortProc, printfProc, execProcs, err := buildChain(cfg, deps.stdout)
	if err != nil {
		return err
	}

	list, err := ignorelist.Load(ignorelist.DefaultPath())
	if err != nil {
		return fmt.Errorf("couldn't load ignore-list: %w", err)
	}

	var limit uint64
	if cfg.limitSet {
		limit = cfg.limit
	}

	var anyErr error
	for _, dir := range dirs {
		if err := runOneDir(ctx, dir, exprText, flags, opts, manager, list, chain, cfg.skip, limit, cfg.limitSet); err != nil {
			anyErr = err
		}
	}

	if chain != nil {
		chain.Complete(dirs[len(dirs)-1])
	}
	if sortProc != nil {
		if err := sortProc.Err(); err != nil && anyErr == nil {
			anyErr = err
		}
	}
	if printfProc != nil {
		if err := printfProc.Err(); err != nil && anyErr == nil {
			anyErr = err
		}
	}
	for _, ep := range execProcs {
		if err := ep.Err(); err != nil && anyErr == nil {
			anyErr = err
		}
	}

	return anyErr
}

func runOneDir(ctx context.Context, dir, exprText string, flags translate.Flags, opts search.Options, manager *pluginhost.Manager, list *ignorelist.List, chain *stage.Chain, skip, limit uint64, limitSet bool) error {
	var skipped uint64
	var emitted uint64

	onPath := func(line string) bool {
		if list.Matches(line) {
			return false
		}
		if skipped < skip {
			skipped++
			return false
		}
		if limitSet && emitted >= limit {
			return true
		}
		if chain != nil {
			chain.Write(dir, line)
		}
		emitted++
		return limitSet && emitted >= limit
	}

	_, err := search.Run(ctx, dir, exprText, flags, opts, onPath, nil, manager)
	return err
}

// applyConfigDefaults copies the merged config-file-and-flags result into
// cfg. Precedence (explicit flag wins, else local file, else global file) is
// already resolved by config.Load's koanf layering, including for flags the
// user did set: the posflag layer re-derives the same value from the flag
// itself, so applying every present field here unconditionally is safe.
func applyConfigDefaults(cfg *efindConfig, file *config.Config) {
	g, l := file.General, file.Logging
	if g.FollowLinks != nil {
		cfg.follow = *g.FollowLinks
	}
	if g.Quote != nil {
		cfg.quote = *g.Quote
	}
	if g.MaxDepth != nil {
		cfg.maxDepth = *g.MaxDepth
		cfg.maxDepthSet = true
	}
	if g.RegexType != "" {
		cfg.regexType = g.RegexType
	}
	if g.OrderBy != "" {
		cfg.orderBy = g.OrderBy
	}
	if g.Printf != "" {
		cfg.printf = g.Printf
	}
	if g.ExecIgnoreErrors != nil {
		cfg.execIgnoreErrors = *g.ExecIgnoreErrors
	}
	if l.Verbosity != nil {
		cfg.logLevel = *l.Verbosity
	}
	if l.Color != nil {
		cfg.logColor = *l.Color
	}
}

func resolveExpr(cfg *efindConfig, stdin io.Reader) (string, error) {
	if cfg.expr != "" {
		return cfg.expr, nil
	}

	f, ok := stdin.(*os.File)
	if ok && isInteractive(f) {
		return "", nil
	}

	scanner := bufio.NewScanner(stdin)
	var text string
	if scanner.Scan() {
		text = scanner.Text()
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("couldn't read expression from stdin: %w", err)
	}
	return text, nil
}

func isInteractive(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return true
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

func dedupe(paths []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

func printTranslation(out io.Writer, dirs []string, exprText string, flags translate.Flags, opts search.Options) error {
	for _, dir := range dirs {
		argv, err := search.Debug(exprText, flags, dir, opts)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "find", joinArgv(argv))
	}
	return nil
}

func joinArgv(argv []string) string {
	var b []byte
	for i, a := range argv {
		if i > 0 {
			b = append(b, ' ')
		}
		b = append(b, a...)
	}
	return string(b)
}

// buildChain assembles the processor chain in the fixed order sort, skip
// (handled by the caller before Write), printf, exec; a plain print stage
// takes the place of printf and exec when neither is requested — the sort
// stage must sit at the head since it buffers everything until Close,
// while downstream stages process in emission order.
func buildChain(cfg *efindConfig, out io.Writer) (*stage.Chain, *stage.SortProcessor, *stage.PrintfProcessor, []*stage.ExecProcessor, error) {
	builder := stage.NewBuilder()
	source := fileattr.NewSource()

	var execProcs []*stage.ExecProcessor
	for i := len(cfg.execs) - 1; i >= 0; i-- {
		execProc := stage.NewExec(cfg.execs[i], cfg.execIgnoreErrors)
		execProcs = append(execProcs, execProc)
		builder.Prepend(execProc)
	}

	var printfProc *stage.PrintfProcessor
	if cfg.printf != "" {
		renderer, err := format.NewRenderer(cfg.printf, true, source.ForFormat())
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("couldn't parse --printf format: %w", err)
		}
		printfProc = stage.NewPrintf(renderer, out)
		builder.Prepend(printfProc)
	}
	if printfProc == nil && len(cfg.execs) == 0 {
		builder.Prepend(stage.NewPrint(out))
	}

	var sortProc *stage.SortProcessor
	if cfg.orderBy != "" {
		fields, err := stage.ParseSortSpec(cfg.orderBy)
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("couldn't parse --order-by spec: %w", err)
		}
		sortProc = stage.NewSort(fields, source.ForSort())
		builder.Prepend(sortProc)
	}

	return builder.Chain(), sortProc, printfProc, execProcs, nil
}

func newPluginManager(ctx context.Context) (*pluginhost.Manager, error) {
	dir := os.Getenv("EFIND_LIBDIR")
	if dir == "" {
		var err error
		dir, err = xdg.PluginDir()
		if err != nil {
			return nil, fmt.Errorf("couldn't resolve plugin directory: %w", err)
		}
	}

	manager := pluginhost.NewManager(dir,
		pluginhost.WithBinaryHost(goplugin.NewHost()),
		pluginhost.WithLuaHost(lua.NewHost()),
	)
	if err := manager.LoadAll(ctx); err != nil {
		return nil, fmt.Errorf("couldn't load plugins: %w", err)
	}
	return manager, nil
}

func printExtensions(out io.Writer, manager *pluginhost.Manager) error {
	for _, cb := range manager.Callbacks() {
		fmt.Fprintf(out, "%s\t%s\targc=%d\n", cb.Plugin, cb.Sig.Name, cb.Sig.Argc)
	}
	return nil
}

func printIgnoreList(out io.Writer) error {
	list, err := ignorelist.Load(ignorelist.DefaultPath())
	if err != nil {
		return fmt.Errorf("couldn't load ignore-list: %w", err)
	}
	for _, p := range list.Patterns() {
		fmt.Fprintln(out, p.Text)
	}
	return nil
}

// serveMetrics starts the Prometheus exposition HTTP server in the
// background and returns a func to shut it down.
func serveMetrics(addr string, errOut io.Writer) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(errOut, "metrics server: %v\n", err)
		}
	}()

	return func() {
		_ = srv.Close()
	}
}
