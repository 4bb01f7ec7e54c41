package workerpool_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darzi-app/darzi/pkg/workerpool"
)

func TestPool_SubmitAndExecute(t *testing.T) {
	pool := workerpool.New(4)
	ctx := context.Background()

	const n = 100
	var count atomic.Int64
	for i := 0; i < n; i++ {
		require.NoError(t, pool.SubmitWait(ctx, func(context.Context) { count.Add(1) }))
	}

	pool.Shutdown()
	assert.Equal(t, int64(n), count.Load(), "Shutdown waits for queued tasks")
}

func TestPool_ErrPoolFull(t *testing.T) {
	pool := workerpool.New(1)
	ctx := context.Background()

	blocker := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, pool.SubmitWait(ctx, func(context.Context) {
		close(started)
		<-blocker
	}))
	<-started

	// Fill the 2-slot buffer.
	require.NoError(t, pool.Submit(ctx, func(context.Context) {}))
	require.NoError(t, pool.Submit(ctx, func(context.Context) {}))

	assert.ErrorIs(t, pool.Submit(ctx, func(context.Context) {}), workerpool.ErrPoolFull)

	close(blocker)
	pool.Shutdown()
}

func TestPool_ErrPoolClosed(t *testing.T) {
	pool := workerpool.New(2)
	pool.Shutdown()
	pool.Shutdown()

	assert.ErrorIs(t, pool.Submit(context.Background(), func(context.Context) {}), workerpool.ErrPoolClosed)
	assert.ErrorIs(t, pool.SubmitWait(context.Background(), func(context.Context) {}), workerpool.ErrPoolClosed)
}

func TestPool_PanicRecovery(t *testing.T) {
	pool := workerpool.New(1)
	defer pool.Shutdown()
	ctx := context.Background()

	require.NoError(t, pool.SubmitWait(ctx, func(context.Context) { panic("boom") }))

	done := make(chan struct{})
	require.NoError(t, pool.SubmitWait(ctx, func(context.Context) { close(done) }))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not survive a panicking task")
	}
}

func TestPool_TaskSeesContext(t *testing.T) {
	pool := workerpool.New(2)
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "ORD-124")

	var mu sync.Mutex
	var got any
	require.NoError(t, pool.Submit(ctx, func(ctx context.Context) {
		mu.Lock()
		got = ctx.Value(key{})
		mu.Unlock()
	}))
	pool.Shutdown()

	assert.Equal(t, "ORD-124", got)
}
