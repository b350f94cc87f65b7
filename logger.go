package fixedarena

import (
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with allocator-specific helpers so every
// record uses the same field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a Logger with the given handler.
// If handler is nil, uses a text handler to stderr at info level.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewTextLogger creates a Logger that writes human-readable records to w.
func NewTextLogger(w io.Writer, level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// NewJSONLogger creates a Logger that writes JSON records to w.
func NewJSONLogger(w io.Writer, level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// NoopLogger creates a Logger that discards all output.
func NoopLogger() *Logger {
	return NewLogger(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.Level(1000),
	}))
}

// LogAlloc logs a fulfilled allocation.
func (l *Logger) LogAlloc(size, offset, free int) {
	l.Debug("allocate",
		"size", size,
		"offset", offset,
		"free", free,
	)
}

// LogFree logs a fulfilled deallocation.
func (l *Logger) LogFree(offset, length, free int) {
	l.Debug("deallocate",
		"offset", offset,
		"length", length,
		"free", free,
	)
}

// LogRejection logs a failed allocate or deallocate.
func (l *Logger) LogRejection(op string, err error, historyLen int) {
	l.Error(op+" rejected",
		"error", err,
		"history", historyLen,
	)
}

// LogHistory logs the journal at debug level.
func (l *Logger) LogHistory(entries []int) {
	l.Debug("allocation history", "entries", entries)
}
