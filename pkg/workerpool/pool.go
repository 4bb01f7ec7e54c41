// Package workerpool runs tasks on a fixed set of goroutines.
//
// darzi uses it for fire-and-forget work such as report notifications, so a
// slow channel never holds up the command that triggered it:
//
//	pool := workerpool.New(4)
//	defer pool.Shutdown() // waits for queued tasks
//
//	if err := pool.Submit(ctx, func(ctx context.Context) { notify(ctx) }); err != nil {
//	    // ErrPoolFull: run inline or drop
//	}
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/darzi-app/darzi/pkg/logger"
)

// ErrPoolFull is returned by Submit when the task buffer is at capacity.
var ErrPoolFull = errors.New("workerpool: pool is full")

// ErrPoolClosed is returned by Submit after Shutdown has been called.
var ErrPoolClosed = errors.New("workerpool: pool is closed")

// Task receives the context it was submitted with.
type Task func(ctx context.Context)

type job struct {
	ctx  context.Context
	task Task
}

// Pool is a bounded goroutine pool.
type Pool struct {
	mu     sync.RWMutex
	closed bool
	jobs   chan job
	wg     sync.WaitGroup
}

// New starts size workers with a buffer of 2×size pending tasks.
func New(size int) *Pool {
	if size <= 0 {
		size = 1
	}
	p := &Pool{jobs: make(chan job, size*2)}
	p.wg.Add(size)
	for i := 0; i < size; i++ {
		go p.worker()
	}
	return p
}

// Submit queues task without blocking.
func (p *Pool) Submit(ctx context.Context, task Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}
	select {
	case p.jobs <- job{ctx: ctx, task: task}:
		return nil
	default:
		return ErrPoolFull
	}
}

// SubmitWait queues task, blocking until there is room or ctx is done.
func (p *Pool) SubmitWait(ctx context.Context, task Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}
	select {
	case p.jobs <- job{ctx: ctx, task: task}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting tasks and waits for queued ones to finish.
// Safe to call more than once.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.jobs)
	}
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for j := range p.jobs {
		run(j)
	}
}

// run executes a task, recovering panics so one bad task cannot take a worker down.
func run(j job) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithCtx(j.ctx).Error("workerpool: task panicked", "panic", fmt.Sprint(r))
		}
	}()
	j.task(j.ctx)
}
