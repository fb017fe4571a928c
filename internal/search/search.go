// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 efind Contributors

// Package search implements the process-supervision pipeline: translate an
// expression into find(1) arguments, fork the executable, multiplex its
// stdout/stderr through a bounded line buffer, optionally run a
// post-expression over every stdout line, and forward surviving paths to a
// caller-supplied callback.
package search

import (
	"context"
	"io"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/efind-go/efind/internal/buffer"
	"github.com/efind-go/efind/internal/efinderrors"
	"github.com/efind-go/efind/internal/expr"
	"github.com/efind-go/efind/internal/metrics"
	"github.com/efind-go/efind/internal/postfilter"
	"github.com/efind-go/efind/internal/translate"
)

var tracer = otel.Tracer("efind/search")

// Options are the search-wide knobs that sit outside the expression
// language itself.
type Options struct {
	MaxDepth  *int
	Follow    bool
	RegexType string
}

// Callback is invoked once per accepted path (found_file) or error line
// (err_message). Returning true asks the search to stop.
type Callback func(line string) (stop bool)

// killGrace is how long Stop waits after SIGTERM before escalating to
// SIGKILL.
const killGrace = 200 * time.Millisecond

// Run parses exprText, translates it, and executes the search. An empty
// (or all-whitespace) exprText is treated as the constant expression true,
// matching a CLI invocation with no --expr given at all.
func Run(ctx context.Context, dir, exprText string, flags translate.Flags, opts Options, onPath, onError Callback, dispatcher postfilter.Dispatcher) (int32, error) {
	root, argv, err := prepare(exprText, flags)
	if err != nil {
		return -1, err
	}
	return execute(ctx, dir, root, argv, opts, onPath, onError, dispatcher)
}

// Debug renders the argv that Run would execute, without spawning
// anything — backing the --print/-p CLI flag.
func Debug(exprText string, flags translate.Flags, dir string, opts Options) ([]string, error) {
	_, argv, err := prepare(exprText, flags)
	if err != nil {
		return nil, err
	}
	return buildArgv(dir, argv, opts), nil
}

func prepare(exprText string, flags translate.Flags) (*expr.Root, []string, error) {
	var root *expr.Root
	if strings.TrimSpace(exprText) == "" {
		root = expr.NewRoot(expr.Span{}, expr.NewTrue(expr.Span{}), nil)
	} else {
		var err error
		root, err = expr.Parse(exprText)
		if err != nil {
			return nil, nil, err
		}
	}

	argv, err := translate.Translate(root.Exprs, flags)
	if err != nil {
		return nil, nil, err
	}
	return root, argv, nil
}

// buildArgv assembles the full find(1) invocation: follow flag, search
// path, regex-type override, translated condition arguments, and the
// maximum-depth limit, in that fixed order.
func buildArgv(path string, translated []string, opts Options) []string {
	argv := make([]string, 0, len(translated)+6)

	if opts.Follow {
		argv = append(argv, "-L")
	}
	argv = append(argv, path)

	if opts.RegexType != "" {
		argv = append(argv, "-regextype", opts.RegexType)
	}

	argv = append(argv, translated...)

	if opts.MaxDepth != nil {
		argv = append(argv, "-maxdepth", strconv.Itoa(*opts.MaxDepth))
	}
	return argv
}

type lineMsg struct {
	line   string
	stderr bool
}

func execute(ctx context.Context, dir string, root *expr.Root, translated []string, opts Options, onPath, onError Callback, dispatcher postfilter.Dispatcher) (_ int32, rerr error) {
	runID := ulid.Make()
	start := time.Now()

	ctx, span := tracer.Start(ctx, "search.execute",
		trace.WithAttributes(
			attribute.String("search.run_id", runID.String()),
			attribute.String("search.dir", dir),
		),
	)
	defer func() {
		if rerr != nil {
			span.RecordError(rerr)
			span.SetStatus(codes.Error, rerr.Error())
		}
		span.End()
	}()

	logger := slog.Default().With("run_id", runID.String())

	var stopped bool
	defer func() {
		outcome := metrics.OutcomeSuccess
		switch {
		case rerr != nil:
			outcome = metrics.OutcomeError
		case stopped:
			outcome = metrics.OutcomeStopped
		}
		metrics.RecordSearch(outcome, time.Since(start))
	}()

	argv := buildArgv(dir, translated, opts)

	findPath, err := exec.LookPath("find")
	if err != nil {
		return -1, efinderrors.SpawnError(argv, err)
	}

	cmd := exec.CommandContext(ctx, findPath, argv...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return -1, efinderrors.IOError("find stdout pipe", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return -1, efinderrors.IOError("find stderr pipe", err)
	}

	if err := cmd.Start(); err != nil {
		return -1, efinderrors.SpawnError(argv, err)
	}
	logger.Debug("find started", "argv", argv)

	lines := make(chan lineMsg)
	var wg sync.WaitGroup
	wg.Add(2)
	go pump(stdout, false, lines, &wg)
	go pump(stderr, true, lines, &wg)
	go func() {
		wg.Wait()
		close(lines)
	}()

	var lineCount int32
	var filterErr error

	for m := range lines {
		if m.stderr {
			if onError != nil && onError(m.line) {
				stopped = true
				stop(cmd.Process)
			}
			continue
		}

		result, err := postfilter.Evaluate(ctx, root.PostExprs, m.line, dispatcher)
		if err != nil {
			filterErr = efinderrors.EvalError("post_filter", err)
			metrics.RecordPostFilterAbort()
			stopped = true
			stop(cmd.Process)
			continue
		}
		if result != postfilter.ResultTrue {
			continue
		}

		if lineCount < math.MaxInt32 {
			lineCount++
		}
		metrics.RecordPathEmitted()
		if onPath != nil && onPath(m.line) {
			stopped = true
			stop(cmd.Process)
		}
	}

	waitErr := cmd.Wait()

	switch {
	case filterErr != nil:
		return lineCount, filterErr
	case stopped:
		return lineCount, nil
	case waitErr != nil:
		return -1, efinderrors.SpawnError(argv, waitErr)
	default:
		return lineCount, nil
	}
}

// pump reads r in 512-byte chunks into a bounded Buffer, emitting each
// complete line and, at EOF, whatever partial line remains.
func pump(r io.Reader, isStderr bool, out chan<- lineMsg, wg *sync.WaitGroup) {
	defer wg.Done()

	buf := buffer.New()
	chunk := make([]byte, 512)

	for {
		n, rerr := r.Read(chunk)
		if n > 0 {
			if !buf.Fill(chunk[:n]) {
				return
			}
			for {
				line, ok := buf.ReadLine()
				if !ok {
					break
				}
				out <- lineMsg{line: line, stderr: isStderr}
			}
		}
		if rerr != nil {
			if rest, ok := buf.Flush(); ok {
				out <- lineMsg{line: rest, stderr: isStderr}
			}
			return
		}
	}
}

// stop signals p with SIGTERM, escalating to SIGKILL after killGrace if the
// process is still around.
func stop(p *os.Process) {
	if p == nil {
		return
	}
	if err := p.Signal(syscall.SIGTERM); err != nil {
		_ = p.Signal(syscall.SIGKILL)
		return
	}
	go func() {
		time.Sleep(killGrace)
		_ = p.Signal(syscall.SIGKILL)
	}()
}
