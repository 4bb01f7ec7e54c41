// Package reqid provides operation ID generation and context propagation.
//
// Every CLI invocation and scheduled job runs under its own operation ID so
// log lines emitted by services can be correlated:
//
//	ctx = reqid.Start(ctx)
//	logger.WithCtx(ctx).Info("order created", "order_id", o.OrderID)
//	// → time=... level=INFO msg="order created" op_id=9f1c... order_id=ORD-125
package reqid

import (
	"context"

	"github.com/google/uuid"

	"github.com/darzi-app/darzi/pkg/logger"
)

// ctxKey is the unexported key used to store the operation ID in context.
type ctxKey struct{}

// LogKey is the attribute name used for the ID in log records.
const LogKey = "op_id"

// New generates a random operation ID.
func New() string {
	return uuid.NewString()
}

// WithValue stores id in ctx and returns the new context.
func WithValue(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromCtx extracts the operation ID from ctx.
// Returns an empty string if none is present.
func FromCtx(ctx context.Context) string {
	if id, ok := ctx.Value(ctxKey{}).(string); ok {
		return id
	}
	return ""
}

// Start tags ctx with a fresh operation ID (unless one is already present)
// and injects a logger carrying it, so logger.WithCtx picks it up.
func Start(ctx context.Context) context.Context {
	id := FromCtx(ctx)
	if id == "" {
		id = New()
		ctx = WithValue(ctx, id)
	}
	return logger.InjectLogger(ctx, logger.L.With(LogKey, id))
}
