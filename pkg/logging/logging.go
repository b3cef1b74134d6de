// Package logging builds the process-wide slog.Logger used by
// cmd/grleconvert: a plain io.Writer sink for interactive runs, or a
// rotating file sink (gopkg.in/natefinch/lumberjack.v2) for long-lived
// batch conversions, plus a context-carried attribute handler so a
// run's correlation fields show up on every log line without being
// threaded through every call site.
package logging

import (
	"context"
	"io"
	"log/slog"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger builds a slog.Logger writing to w at the given level, either
// as JSON or as slog's default text handler.
func Logger(w io.Writer, json bool, level slog.Level) *slog.Logger {
	return slog.New(ctxHandler{inner: newHandler(w, json, level)})
}

// RotatingLogger builds a slog.Logger that writes to a size-rotated
// file at path (lumberjack keeps up to maxBackups old files, each
// capped at maxSizeMB).
func RotatingLogger(path string, maxSizeMB, maxBackups int, jsonFormat bool, level slog.Level) *slog.Logger {
	sink := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		Compress:   true,
	}
	return slog.New(ctxHandler{inner: newHandler(sink, jsonFormat, level)})
}

func newHandler(w io.Writer, jsonFormat bool, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if jsonFormat {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

type ctxAttrsKey struct{}

// AppendCtx returns a context carrying attrs in addition to any
// already attached; every record logged through that context (via a
// ctxHandler) gets them appended automatically.
func AppendCtx(ctx context.Context, attrs ...slog.Attr) context.Context {
	existing, _ := ctx.Value(ctxAttrsKey{}).([]slog.Attr)
	merged := make([]slog.Attr, 0, len(existing)+len(attrs))
	merged = append(merged, existing...)
	merged = append(merged, attrs...)
	return context.WithValue(ctx, ctxAttrsKey{}, merged)
}

// ctxHandler wraps another slog.Handler and injects attributes stashed
// on the context by AppendCtx into every record it handles.
type ctxHandler struct {
	inner slog.Handler
}

func (h ctxHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h ctxHandler) Handle(ctx context.Context, record slog.Record) error {
	if attrs, ok := ctx.Value(ctxAttrsKey{}).([]slog.Attr); ok {
		record.AddAttrs(attrs...)
	}
	return h.inner.Handle(ctx, record)
}

func (h ctxHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return ctxHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h ctxHandler) WithGroup(name string) slog.Handler {
	return ctxHandler{inner: h.inner.WithGroup(name)}
}
