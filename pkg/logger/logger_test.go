package logger_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darzi-app/darzi/pkg/logger"
)

func TestWithCtxFallsBackToBase(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	t.Cleanup(func() { logger.SetOutput(&bytes.Buffer{}) })

	logger.WithCtx(context.Background()).Info("plain")
	assert.Contains(t, buf.String(), "plain")

	tagged := logger.L.With("op_id", "abc123")
	ctx := logger.InjectLogger(context.Background(), tagged)
	logger.WithCtx(ctx).Info("tagged")
	assert.Contains(t, buf.String(), "op_id=abc123")
}

type collector struct {
	mu   sync.Mutex
	docs []logger.LogDocument
}

func (c *collector) insert(docs []interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, d := range docs {
		c.docs = append(c.docs, d.(logger.LogDocument))
	}
}

func TestMongoHandlerFlushesOnClose(t *testing.T) {
	c := &collector{}
	h := logger.NewTestMongoHandler(c.insert, 10)
	log := slog.New(h).With("op_id", "op-1")

	log.Debug("ignored below info")
	log.Info("order created", "order_id", "ORD-129", "total", "1500.00")
	log.WithGroup("report").Warn("notifier failed", "error", errors.New("boom"))
	h.Close()
	h.Close()

	require.Len(t, c.docs, 2)
	first := c.docs[0]
	assert.Equal(t, "INFO", first.Level)
	assert.Equal(t, "op-1", first.OpID)
	assert.Equal(t, "ORD-129", first.OrderID)
	assert.Equal(t, "1500.00", first.Attrs["total"])

	second := c.docs[1]
	assert.Equal(t, "report", second.Group)
	assert.Equal(t, "boom", second.Attrs["error"])
}

func TestMongoHandlerBatches(t *testing.T) {
	c := &collector{}
	h := logger.NewTestMongoHandler(c.insert, 2)
	log := slog.New(h)
	for i := 0; i < 5; i++ {
		log.Info("line", "n", i)
	}
	h.Close()
	assert.Len(t, c.docs, 5)
}

func TestMultiHandlerFansOut(t *testing.T) {
	var a, b bytes.Buffer
	m := logger.NewMultiHandler(
		slog.NewTextHandler(&a, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&b, &slog.HandlerOptions{Level: slog.LevelWarn}),
	)
	log := slog.New(m).With("shop", "darzi")
	log.Info("info line")
	log.Warn("warn line")

	assert.Contains(t, a.String(), "info line")
	assert.Contains(t, a.String(), "shop=darzi")
	assert.NotContains(t, b.String(), "info line")
	assert.Contains(t, b.String(), "warn line")
}
