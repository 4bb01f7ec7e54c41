// Package logger provides a structured, levelled logger built on log/slog.
//
// Services log through WithCtx so every line carries the operation ID of the
// CLI command or scheduled job that triggered it:
//
//	log := logger.WithCtx(ctx)
//	log.Info("order transitioned", "order_id", "ORD-124", "to", "Paid")
//	// → time=... level=INFO msg="order transitioned" op_id=1b9d... order_id=ORD-124 to=Paid
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/darzi-app/darzi/config"
)

var L *slog.Logger

var mongoSink *MongoHandler

func init() {
	L = slog.New(baseHandler(os.Stdout))
	slog.SetDefault(L)
}

// baseHandler picks JSON output for production and text output otherwise.
func baseHandler(w io.Writer) slog.Handler {
	switch config.AppEnv() {
	case "production", "prod":
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	default:
		return slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
}

// SetOutput rebuilds the base logger on w. The CLI sends logs to stderr so
// command output on stdout stays clean.
func SetOutput(w io.Writer) {
	var h slog.Handler = baseHandler(w)
	if mongoSink != nil {
		h = NewMultiHandler(h, mongoSink)
	}
	L = slog.New(h)
	slog.SetDefault(L)
}

// EnableMongo fans every record out to a MongoDB collection in addition to
// the console. The returned func flushes and disconnects the sink.
func EnableMongo(uri, db, collection string) (func(), error) {
	h, err := NewMongoHandler(uri, db, collection)
	if err != nil {
		return func() {}, err
	}
	mongoSink = h
	L = slog.New(NewMultiHandler(L.Handler(), h))
	slog.SetDefault(L)
	return h.Close, nil
}

// ─────────────────────────────────────────────
// Context-aware logger
// ─────────────────────────────────────────────

// ctxKey is the unexported key used to store a per-operation *slog.Logger.
type ctxKey struct{}

// WithCtx returns the *slog.Logger injected into ctx by reqid.Start.
// If none is present the base logger is returned unchanged.
func WithCtx(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return L
	}
	if log, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && log != nil {
		return log
	}
	return L
}

// InjectLogger stores a *slog.Logger (pre-tagged with op_id) into ctx.
func InjectLogger(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

// ─────────────────────────────────────────────
// Short-hand helpers (use base logger)
// ─────────────────────────────────────────────

// Debug logs at DEBUG level.
func Debug(msg string, args ...any) { L.Debug(msg, args...) }

// Info logs at INFO level.
func Info(msg string, args ...any) { L.Info(msg, args...) }

// Warn logs at WARN level.
func Warn(msg string, args ...any) { L.Warn(msg, args...) }

// Error logs at ERROR level.
func Error(msg string, args ...any) { L.Error(msg, args...) }
