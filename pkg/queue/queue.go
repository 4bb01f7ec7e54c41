// Package queue runs background jobs with retries.
//
// darzi uses it to deliver notifications off the request path:
//
//	type OrderTransitionedJob struct{ OrderID, From, To string }
//	func (j *OrderTransitionedJob) JobName() string { return "order.transitioned" }
//	func (j *OrderTransitionedJob) Handle(ctx context.Context) error { ... }
//
//	q.Register("order.transitioned", func() queue.Job { return &OrderTransitionedJob{} })
//	q.Dispatch(ctx, &OrderTransitionedJob{OrderID: "ORD-124", ...})
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/darzi-app/darzi/pkg/logger"
	"github.com/darzi-app/darzi/pkg/metrics"
	"github.com/darzi-app/darzi/pkg/reqid"
)

// Job is the interface every queued job must satisfy. Jobs travel as JSON,
// so only exported fields survive the trip; dependencies are restored by the
// factory passed to Register.
type Job interface {
	Handle(ctx context.Context) error
}

// Named jobs choose their own registry key. Others are keyed by Go type.
type Named interface {
	JobName() string
}

// FailedJob holds a job that exhausted its retries.
type FailedJob struct {
	Type     string
	Job      Job
	Err      error
	FailedAt time.Time
	Attempts int
}

// Driver is the queue storage backend.
type Driver interface {
	Push(ctx context.Context, payload []byte) error
	Pop(ctx context.Context) ([]byte, error)
}

// Manager owns a driver, the job registry and the failed-job log.
type Manager struct {
	mu       sync.RWMutex
	driver   Driver
	registry map[string]func() Job
	failed   []FailedJob
	maxRetry int
	backoff  time.Duration
	db       *gorm.DB
}

// New creates a Manager on d with three attempts and a one second linear backoff.
func New(d Driver) *Manager {
	return &Manager{
		driver:   d,
		registry: map[string]func() Job{},
		maxRetry: 3,
		backoff:  time.Second,
	}
}

// SetMaxRetry sets how many attempts a job gets.
func (m *Manager) SetMaxRetry(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n < 1 {
		n = 1
	}
	m.maxRetry = n
}

// SetBackoff sets the base delay between attempts; attempt n waits n×d.
func (m *Manager) SetBackoff(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.backoff = d
}

// UseDB persists failed jobs to the darzi_failed_jobs table as well as memory.
func (m *Manager) UseDB(db *gorm.DB) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.db = db
}

// Register makes a job type available for decoding by name.
func (m *Manager) Register(name string, factory func() Job) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registry[name] = factory
}

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
	OpID    string          `json:"op_id,omitempty"`
}

func typeName(job Job) string {
	if n, ok := job.(Named); ok {
		return n.JobName()
	}
	return fmt.Sprintf("%T", job)
}

// Dispatch encodes job and pushes it onto the driver.
func (m *Manager) Dispatch(ctx context.Context, job Job) error {
	name := typeName(job)
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("queue: marshal job %s: %w", name, err)
	}
	env, err := json.Marshal(envelope{Type: name, Payload: payload, OpID: reqid.FromCtx(ctx)})
	if err != nil {
		return fmt.Errorf("queue: marshal envelope: %w", err)
	}

	m.mu.RLock()
	d := m.driver
	m.mu.RUnlock()
	if err := d.Push(ctx, env); err != nil {
		return fmt.Errorf("queue: push %s: %w", name, err)
	}
	return nil
}

// StartWorkers launches n workers that run until ctx is cancelled.
// The returned WaitGroup completes once they have all stopped.
func (m *Manager) StartWorkers(ctx context.Context, n int) *sync.WaitGroup {
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			m.work(ctx)
		}()
	}
	logger.Info("queue: workers started", "count", n)
	return &wg
}

func (m *Manager) work(ctx context.Context) {
	for ctx.Err() == nil {
		m.mu.RLock()
		d := m.driver
		m.mu.RUnlock()

		raw, err := d.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn("queue: pop failed", "error", err)
			sleep(ctx, 500*time.Millisecond)
			continue
		}
		if raw == nil {
			continue
		}
		m.process(ctx, raw)
	}
}

// Drain processes queued jobs on the calling goroutine until the driver is
// empty. It is what `darzi queue:work --once` and tests use.
func (m *Manager) Drain(ctx context.Context) (int, error) {
	m.mu.RLock()
	d := m.driver
	m.mu.RUnlock()

	n := 0
	for {
		pctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		raw, err := d.Pop(pctx)
		cancel()
		if err != nil || raw == nil {
			if ctx.Err() != nil {
				return n, ctx.Err()
			}
			return n, nil
		}
		m.process(ctx, raw)
		n++
	}
}

func (m *Manager) process(ctx context.Context, raw []byte) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		logger.Error("queue: bad envelope", "error", err)
		return
	}
	log := logger.L.With("type", env.Type)
	if env.OpID != "" {
		ctx = reqid.WithValue(ctx, env.OpID)
		log = log.With(reqid.LogKey, env.OpID)
	}

	m.mu.RLock()
	factory, ok := m.registry[env.Type]
	m.mu.RUnlock()
	if !ok {
		log.Warn("queue: unregistered job type")
		return
	}

	job := factory()
	if err := json.Unmarshal(env.Payload, job); err != nil {
		log.Error("queue: unmarshal payload", "error", err)
		return
	}
	m.runWithRetry(logger.InjectLogger(ctx, log), job, env.Type)
}

func (m *Manager) runWithRetry(ctx context.Context, job Job, name string) {
	m.mu.RLock()
	maxRetry, backoff := m.maxRetry, m.backoff
	m.mu.RUnlock()

	log := logger.WithCtx(ctx)
	start := time.Now()
	var lastErr error
	for attempt := 1; attempt <= maxRetry; attempt++ {
		if lastErr = job.Handle(ctx); lastErr == nil {
			metrics.RecordQueueJob(name, "success", start)
			log.Debug("queue: job processed", "attempt", attempt)
			return
		}
		log.Warn("queue: job failed", "attempt", attempt, "error", lastErr)
		if attempt < maxRetry {
			sleep(ctx, time.Duration(attempt)*backoff)
		}
	}

	metrics.RecordQueueJob(name, "failed", start)
	m.persistFailed(ctx, job, name, lastErr, maxRetry)
	log.Error("queue: job exhausted retries", "error", lastErr)
}

// FailedJobs returns a snapshot of failed jobs seen by this process.
func (m *Manager) FailedJobs() []FailedJob {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]FailedJob, len(m.failed))
	copy(out, m.failed)
	return out
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
