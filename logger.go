package quadstore

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with transaction lifecycle helpers.
// All helpers share the field names txn, type, version, adds, deletes and error.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a Logger writing to handler.
// A nil handler logs text at info level to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger creates a Logger that writes JSON to stderr.
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NewTextLogger creates a Logger that writes human-readable text to stderr.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NoopLogger creates a Logger that discards everything.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// WithTxn returns a logger that tags every record with a transaction id.
func (l *Logger) WithTxn(id uint64) *Logger {
	return &Logger{Logger: l.Logger.With(slog.Uint64("txn", id))}
}

// outcome logs msg at level ok, or failMsg at level fail when err is set.
func (l *Logger) outcome(ctx context.Context, err error, ok slog.Level, msg string, fail slog.Level, failMsg string, attrs ...slog.Attr) {
	if err != nil {
		l.LogAttrs(ctx, fail, failMsg, append(attrs, slog.Any("error", err))...)
		return
	}
	l.LogAttrs(ctx, ok, msg, attrs...)
}

// LogBegin logs the start of a transaction of type typ.
func (l *Logger) LogBegin(ctx context.Context, typ TxnType, err error) {
	l.outcome(ctx, err,
		slog.LevelDebug, "transaction started",
		slog.LevelWarn, "begin failed",
		slog.String("type", typ.String()),
	)
}

// LogCommit logs a commit that produced version.
func (l *Logger) LogCommit(ctx context.Context, version uint64, adds, deletes int, err error) {
	attrs := []slog.Attr{slog.Int("adds", adds), slog.Int("deletes", deletes)}
	if err == nil {
		attrs = append(attrs, slog.Uint64("version", version))
	}
	l.outcome(ctx, err,
		slog.LevelDebug, "transaction committed",
		slog.LevelError, "commit failed",
		attrs...,
	)
}

// LogAbort logs an abort and the number of discarded changes.
func (l *Logger) LogAbort(ctx context.Context, adds, deletes int) {
	l.LogAttrs(ctx, slog.LevelDebug, "transaction aborted",
		slog.Int("adds", adds),
		slog.Int("deletes", deletes),
	)
}

// LogPromote logs a promotion attempt.
func (l *Logger) LogPromote(ctx context.Context, err error) {
	l.outcome(ctx, err,
		slog.LevelDebug, "transaction promoted",
		slog.LevelDebug, "promotion failed",
	)
}
