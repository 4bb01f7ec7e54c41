// Package event is an in-process publish/subscribe bus.
//
//	bus := event.NewBus(pool)
//	bus.Listen("order.transitioned", func(ctx context.Context, payload any) error { ... })
//	err := bus.Fire(ctx, "order.transitioned", ev)
package event

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/darzi-app/darzi/pkg/logger"
	"github.com/darzi-app/darzi/pkg/workerpool"
)

// Handler receives an event payload.
type Handler func(ctx context.Context, payload any) error

// Bus routes events to their listeners.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	pool     *workerpool.Pool
}

// NewBus creates a bus. pool runs FireAsync handlers; when nil, FireAsync
// runs them on fresh goroutines.
func NewBus(pool *workerpool.Pool) *Bus {
	return &Bus{handlers: map[string][]Handler{}, pool: pool}
}

// Listen registers h for name.
func (b *Bus) Listen(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], h)
}

func (b *Bus) listeners(name string) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	hs := make([]Handler, len(b.handlers[name]))
	copy(hs, b.handlers[name])
	return hs
}

// Fire calls every listener in registration order and returns their joined
// errors. A failing listener does not stop the rest.
func (b *Bus) Fire(ctx context.Context, name string, payload any) error {
	var errs []error
	for _, h := range b.listeners(name) {
		if err := h(ctx, payload); err != nil {
			errs = append(errs, fmt.Errorf("event %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// FireAsync hands every listener to the pool and returns immediately.
// Listener errors are logged. When the pool is full the listener runs inline.
func (b *Bus) FireAsync(ctx context.Context, name string, payload any) {
	for _, h := range b.listeners(name) {
		h := h
		task := func(ctx context.Context) {
			if err := h(ctx, payload); err != nil {
				logger.WithCtx(ctx).Warn("event: async listener failed", "event", name, "error", err)
			}
		}
		if b.pool == nil {
			go task(ctx)
			continue
		}
		if err := b.pool.Submit(ctx, task); err != nil {
			logger.WithCtx(ctx).Debug("event: pool unavailable, running inline", "event", name, "reason", err)
			task(ctx)
		}
	}
}

// Flush removes all listeners.
func (b *Bus) Flush() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = map[string][]Handler{}
}
