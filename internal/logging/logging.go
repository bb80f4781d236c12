// Package logging provides the structured logger used across the kernel.
// It wraps log/slog with a per-component child logger and a context key so
// call sites can log without threading a *slog.Logger through every
// function signature.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"
)

type ctxKey struct{}

var (
	mu       sync.Mutex
	base     *slog.Logger
	levelVar slog.LevelVar
)

func init() {
	base = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: &levelVar}))
}

// Init configures the base logger for a run. sessionID is attached to every
// record so logs from concurrent runs can be told apart.
func Init(sessionID string, w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if w == nil {
		w = os.Stderr
	}
	base = slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: &levelVar})).With(
		slog.String("session_id", sessionID),
	)
}

// Close is a no-op placeholder kept for symmetry with Init; a future
// implementation that opens a dedicated log file would close it here.
func Close() {}

// SetLevel sets the minimum level for all loggers obtained from this package.
func SetLevel(level slog.Level) {
	levelVar.Set(level)
}

// SetLogLevelGetter allows a config-driven level to be applied lazily, after
// config has loaded. getter is called once, immediately.
func SetLogLevelGetter(getter func() slog.Level) {
	SetLevel(getter())
}

// WithComponent returns a context carrying a logger scoped to component,
// e.g. "supervisor" or "race".
func WithComponent(ctx context.Context, component string) context.Context {
	mu.Lock()
	l := base.With(slog.String("component", component))
	mu.Unlock()
	return context.WithValue(ctx, ctxKey{}, l)
}

// From returns the logger attached to ctx, or the unscoped base logger.
func From(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return l
	}
	mu.Lock()
	defer mu.Unlock()
	return base
}

func Debug(ctx context.Context, msg string, attrs ...slog.Attr) {
	From(ctx).LogAttrs(ctx, slog.LevelDebug, msg, attrs...)
}

func Info(ctx context.Context, msg string, attrs ...slog.Attr) {
	From(ctx).LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func Warn(ctx context.Context, msg string, attrs ...slog.Attr) {
	From(ctx).LogAttrs(ctx, slog.LevelWarn, msg, attrs...)
}

func Error(ctx context.Context, msg string, attrs ...slog.Attr) {
	From(ctx).LogAttrs(ctx, slog.LevelError, msg, attrs...)
}

// LogDuration logs msg at level with an added duration_ms attr computed from
// start to now.
func LogDuration(ctx context.Context, level slog.Level, msg string, start time.Time, attrs ...slog.Attr) {
	all := append([]slog.Attr{slog.Int64("duration_ms", time.Since(start).Milliseconds())}, attrs...)
	From(ctx).LogAttrs(ctx, level, msg, all...)
}
