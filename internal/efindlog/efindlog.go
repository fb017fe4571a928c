// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 efind Contributors

// Package efindlog provides structured logging with OpenTelemetry trace
// context, splitting ERROR/WARN to stderr and DEBUG/TRACE to stdout per
// spec.md §7.
package efindlog

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"go.opentelemetry.io/otel/trace"
)

// Custom levels below slog.LevelDebug, for the "6 verbosity levels" CLI
// contract (0=off .. 6=trace).
const (
	LevelTrace = slog.Level(-8)
)

// Verbosity maps a --log-level/verbosity integer (0..6) to a slog.Level.
// 0 disables logging entirely (callers should check for this case and
// discard the logger, or rely on a level high enough nothing is Enabled).
func Verbosity(n int) slog.Level {
	switch {
	case n <= 0:
		return slog.LevelError + 4 // effectively disables everything below FATAL
	case n == 1:
		return slog.LevelError
	case n == 2:
		return slog.LevelWarn
	case n == 3:
		return slog.LevelInfo
	case n == 4:
		return slog.LevelInfo - 2
	case n == 5:
		return slog.LevelDebug
	default:
		return LevelTrace
	}
}

// traceHandler wraps a slog.Handler to add trace context, the way the
// teacher's logging package does for its service logs.
type traceHandler struct {
	handler slog.Handler
}

func (h *traceHandler) Handle(ctx context.Context, r slog.Record) error {
	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.HasTraceID() {
		r.AddAttrs(slog.String("trace_id", spanCtx.TraceID().String()))
	}
	if spanCtx.HasSpanID() {
		r.AddAttrs(slog.String("span_id", spanCtx.SpanID().String()))
	}
	return h.handler.Handle(ctx, r)
}

func (h *traceHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *traceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &traceHandler{handler: h.handler.WithAttrs(attrs)}
}

func (h *traceHandler) WithGroup(name string) slog.Handler {
	return &traceHandler{handler: h.handler.WithGroup(name)}
}

// splitHandler routes records below slog.LevelWarn to out (stdout) and
// everything else to errOut (stderr), so ERROR goes to stderr while
// DEBUG/TRACE go to stdout as spec.md §7 requires.
type splitHandler struct {
	level  slog.Level
	color  bool
	out    slog.Handler
	errOut slog.Handler
}

func newSplitHandler(level slog.Level, colorize bool, out, errOut io.Writer) *splitHandler {
	opts := &slog.HandlerOptions{Level: level}
	return &splitHandler{
		level:  level,
		color:  colorize,
		out:    slog.NewTextHandler(out, opts),
		errOut: slog.NewTextHandler(errOut, opts),
	}
}

func (h *splitHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *splitHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.color {
		r.Message = colorForLevel(r.Level).Sprint(r.Message)
	}
	if r.Level >= slog.LevelWarn {
		return h.errOut.Handle(ctx, r)
	}
	return h.out.Handle(ctx, r)
}

// colorForLevel picks the --log-color highlight for a record's message:
// red for ERROR, yellow for WARN, plain for everything quieter.
func colorForLevel(level slog.Level) *color.Color {
	switch {
	case level >= slog.LevelError:
		return color.New(color.FgRed)
	case level >= slog.LevelWarn:
		return color.New(color.FgYellow)
	default:
		return color.New()
	}
}

func (h *splitHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &splitHandler{level: h.level, color: h.color, out: h.out.WithAttrs(attrs), errOut: h.errOut.WithAttrs(attrs)}
}

func (h *splitHandler) WithGroup(name string) slog.Handler {
	return &splitHandler{level: h.level, color: h.color, out: h.out.WithGroup(name), errOut: h.errOut.WithGroup(name)}
}

// Setup builds a configured *slog.Logger at the given verbosity (0..6),
// splitting output between stdout and stderr by level, colorizing WARN/ERROR
// messages when colorize is true (--log-color).
func Setup(verbosity int, colorize bool) *slog.Logger {
	level := Verbosity(verbosity)
	handler := &traceHandler{handler: newSplitHandler(level, colorize, os.Stdout, os.Stderr)}
	return slog.New(handler)
}

// SetDefault configures and installs the default logger for verbosity.
func SetDefault(verbosity int, colorize bool) {
	slog.SetDefault(Setup(verbosity, colorize))
}
