package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync/atomic"

	slogmulti "github.com/samber/slog-multi"
)

type ctxKey string

const (
	ctxKeyRequestID ctxKey = "request_id"
)

// basic global logger, JSON to stdout until Setup is called.
var logger atomic.Pointer[slog.Logger]

func init() {
	logger.Store(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
}

// Options controls Setup.
type Options struct {
	Level slog.Level
	// File, when set, receives a JSON copy of every record.
	File string
	// Text switches the console handler to human readable text on stderr (CLI).
	Text bool
}

// Setup replaces the global logger. The console handler always exists; a file
// handler is fanned out next to it when opts.File is set.
// The returned cleanup closes the log file.
func Setup(opts Options) (*slog.Logger, func() error) {
	console := consoleHandler(opts)

	if opts.File == "" {
		l := slog.New(console)
		SetLogger(l)
		return l, func() error { return nil }
	}

	file, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		l := slog.New(console)
		SetLogger(l)
		l.Error("failed to open log file, using console only", "error", err, "file", opts.File)
		return l, func() error { return nil }
	}

	fileHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: opts.Level})
	l := slog.New(slogmulti.Fanout(console, fileHandler))
	SetLogger(l)
	return l, file.Close
}

// NewWithWriters builds a fanout logger over arbitrary writers. Used in tests.
func NewWithWriters(console, file io.Writer, level slog.Level) *slog.Logger {
	ch := slog.NewTextHandler(console, &slog.HandlerOptions{Level: level})
	fh := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level})
	return slog.New(slogmulti.Fanout(ch, fh))
}

func consoleHandler(opts Options) slog.Handler {
	ho := &slog.HandlerOptions{Level: opts.Level}
	if opts.Text {
		return slog.NewTextHandler(os.Stderr, ho)
	}
	return slog.NewJSONHandler(os.Stdout, ho)
}

// SetLogger swaps the global logger.
func SetLogger(l *slog.Logger) {
	if l != nil {
		logger.Store(l)
	}
}

func Logger() *slog.Logger {
	return logger.Load()
}

// WithFields returns a logger with additional fields.
func WithFields(kv ...any) *slog.Logger {
	return Logger().With(kv...)
}

// WithRequestID stores a request_id in the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, requestID)
}

// RequestID returns the request id stored in ctx, if any.
func RequestID(ctx context.Context) string {
	reqID, _ := ctx.Value(ctxKeyRequestID).(string)
	return reqID
}

// LoggerFromContext adds request_id if present.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	reqID := RequestID(ctx)
	if reqID == "" {
		return Logger()
	}
	return Logger().With("request_id", reqID)
}
