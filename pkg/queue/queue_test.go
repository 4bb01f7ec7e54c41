package queue_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darzi-app/darzi/pkg/queue"
	"github.com/darzi-app/darzi/pkg/reqid"
)

// ─── Job types ────────────────────────────────────────────────────────────────

type echoJob struct {
	Val  string
	seen *sync.Map
	ops  *sync.Map
}

func (j *echoJob) JobName() string { return "test.echo" }

func (j *echoJob) Handle(ctx context.Context) error {
	j.seen.Store(j.Val, true)
	j.ops.Store(j.Val, reqid.FromCtx(ctx))
	return nil
}

type failJob struct {
	attempts *atomic.Int32
}

func (j *failJob) JobName() string { return "test.fail" }

func (j *failJob) Handle(context.Context) error {
	j.attempts.Add(1)
	return errors.New("always fails")
}

func newManager(t *testing.T) (*queue.Manager, *sync.Map, *sync.Map, *atomic.Int32) {
	t.Helper()
	seen, ops := &sync.Map{}, &sync.Map{}
	attempts := &atomic.Int32{}

	m := queue.New(queue.NewMemoryDriver(16))
	m.SetBackoff(0)
	m.Register("test.echo", func() queue.Job { return &echoJob{seen: seen, ops: ops} })
	m.Register("test.fail", func() queue.Job { return &failJob{attempts: attempts} })
	return m, seen, ops, attempts
}

// ─── Tests ────────────────────────────────────────────────────────────────────

func TestDispatchAndDrain(t *testing.T) {
	m, seen, ops, _ := newManager(t)
	ctx := reqid.WithValue(context.Background(), "op-123")

	require.NoError(t, m.Dispatch(ctx, &echoJob{Val: "hello"}))

	n, err := m.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, ok := seen.Load("hello")
	assert.True(t, ok)
	op, _ := ops.Load("hello")
	assert.Equal(t, "op-123", op, "operation id travels with the envelope")
}

func TestFailedJobRetry(t *testing.T) {
	m, _, _, attempts := newManager(t)
	m.SetMaxRetry(2)

	require.NoError(t, m.Dispatch(context.Background(), &failJob{}))
	_, err := m.Drain(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(2), attempts.Load())
	failed := m.FailedJobs()
	require.Len(t, failed, 1)
	assert.Equal(t, "test.fail", failed[0].Type)
	assert.Equal(t, 2, failed[0].Attempts)
}

func TestUnregisteredJobIsDropped(t *testing.T) {
	m := queue.New(queue.NewMemoryDriver(4))
	require.NoError(t, m.Dispatch(context.Background(), &failJob{attempts: &atomic.Int32{}}))

	n, err := m.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Empty(t, m.FailedJobs())
}

func TestWorkersProcessConcurrently(t *testing.T) {
	m, seen, _, _ := newManager(t)
	ctx, cancel := context.WithCancel(context.Background())
	wg := m.StartWorkers(ctx, 3)

	for _, v := range []string{"a", "b", "c", "d", "e"} {
		require.NoError(t, m.Dispatch(context.Background(), &echoJob{Val: v}))
	}

	assert.Eventually(t, func() bool {
		count := 0
		seen.Range(func(_, _ any) bool { count++; return true })
		return count == 5
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	wg.Wait()
}

func TestMemoryDriverFull(t *testing.T) {
	d := queue.NewMemoryDriver(1)
	require.NoError(t, d.Push(context.Background(), []byte("x")))
	assert.ErrorIs(t, d.Push(context.Background(), []byte("y")), queue.ErrQueueFull)
	assert.Equal(t, 1, d.Len())
}
