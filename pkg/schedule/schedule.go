// Package schedule runs recurring tasks inside a long-lived process.
//
//	s := schedule.New()
//	s.Cron("0 21 * * *").Name("daily-report").WithoutOverlapping().Run(sendDailyReport)
//	s.Every(5).Minutes().Name("drain").Run(drainQueue)
//	s.Start(ctx) // blocks until ctx is cancelled
package schedule

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/darzi-app/darzi/pkg/logger"
	"github.com/darzi-app/darzi/pkg/reqid"
)

// Task is a scheduled unit of work. Each run gets its own operation id.
type Task func(ctx context.Context) error

type entry struct {
	id        string
	interval  time.Duration
	cron      *cronExpr
	task      Task
	noOverlap bool

	mu      sync.Mutex
	lastRun time.Time
	running bool
}

// Scheduler holds registered entries and dispatches them on a one second tick.
type Scheduler struct {
	mu      sync.Mutex
	entries []*entry
	wg      sync.WaitGroup
	loc     *time.Location
}

// New creates a scheduler that evaluates cron expressions in UTC until In is called.
func New() *Scheduler { return &Scheduler{loc: time.UTC} }

// In sets the timezone cron expressions are evaluated in.
func (s *Scheduler) In(loc *time.Location) *Scheduler {
	s.loc = loc
	return s
}

// Builder configures one entry before Run registers it.
type Builder struct {
	s   *Scheduler
	e   *entry
	err error
}

// Frequency picks the unit for Every.
type Frequency struct {
	s *Scheduler
	n int
}

// Every starts an interval schedule of n units.
func (s *Scheduler) Every(n int) *Frequency { return &Frequency{s: s, n: n} }

func (f *Frequency) build(unit time.Duration) *Builder {
	return &Builder{s: f.s, e: &entry{interval: time.Duration(f.n) * unit}}
}

func (f *Frequency) Seconds() *Builder { return f.build(time.Second) }
func (f *Frequency) Minutes() *Builder { return f.build(time.Minute) }
func (f *Frequency) Hours() *Builder   { return f.build(time.Hour) }

// Cron schedules on a 5-field expression (minute hour day-of-month month
// day-of-week). Fields accept *, N, A-B, */N and comma lists.
func (s *Scheduler) Cron(expr string) *Builder {
	c, err := parseCron(expr)
	return &Builder{s: s, e: &entry{cron: c}, err: err}
}

// Name sets the identifier used in logs and List.
func (b *Builder) Name(id string) *Builder {
	b.e.id = id
	return b
}

// WithoutOverlapping skips a tick while the previous run is still going.
func (b *Builder) WithoutOverlapping() *Builder {
	b.e.noOverlap = true
	return b
}

// Run registers task. It fails only for a malformed cron expression.
func (b *Builder) Run(task Task) error {
	if b.err != nil {
		return b.err
	}
	b.e.task = task
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	if b.e.id == "" {
		b.e.id = fmt.Sprintf("task-%d", len(b.s.entries)+1)
	}
	b.s.entries = append(b.s.entries, b.e)
	return nil
}

// Start ticks every second until ctx is cancelled, then waits for running tasks.
func (s *Scheduler) Start(ctx context.Context) {
	logger.Info("schedule: scheduler started", "entries", len(s.List()))
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			logger.Info("schedule: scheduler stopped")
			return
		case now := <-ticker.C:
			s.Tick(ctx, now)
		}
	}
}

// Tick dispatches every entry due at now. Start calls it once per second.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) {
	s.mu.Lock()
	current := make([]*entry, len(s.entries))
	copy(current, s.entries)
	s.mu.Unlock()

	now = now.In(s.loc)
	for _, e := range current {
		s.dispatch(ctx, e, now)
	}
}

// Wait blocks until every dispatched run has returned.
func (s *Scheduler) Wait() { s.wg.Wait() }

func (e *entry) due(now time.Time) bool {
	if e.cron != nil {
		// A cron entry fires once per matching minute even though we tick every second.
		if !e.lastRun.IsZero() && e.lastRun.Truncate(time.Minute).Equal(now.Truncate(time.Minute)) {
			return false
		}
		return e.cron.match(now)
	}
	return e.lastRun.IsZero() || now.Sub(e.lastRun) >= e.interval
}

func (s *Scheduler) dispatch(ctx context.Context, e *entry, now time.Time) {
	e.mu.Lock()
	if !e.due(now) {
		e.mu.Unlock()
		return
	}
	if e.noOverlap && e.running {
		e.mu.Unlock()
		logger.Warn("schedule: skipping overlapping run", "id", e.id)
		return
	}
	e.running = true
	e.lastRun = now
	e.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		runCtx := reqid.Start(ctx)
		log := logger.WithCtx(runCtx).With("task", e.id)
		defer func() {
			if r := recover(); r != nil {
				log.Error("schedule: task panicked", "panic", fmt.Sprint(r))
			}
			e.mu.Lock()
			e.running = false
			e.mu.Unlock()
		}()

		log.Info("schedule: running task")
		if err := e.task(runCtx); err != nil {
			log.Error("schedule: task failed", "error", err)
		}
	}()
}

// List describes the registered entries, e.g. "daily-report  [0 21 * * *]".
func (s *Scheduler) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		freq := e.interval.String()
		if e.cron != nil {
			freq = e.cron.raw
		}
		out = append(out, fmt.Sprintf("%s  [%s]", e.id, freq))
	}
	return out
}

// ─── Cron ───────────────────────────────────────────────────────────────────

type cronExpr struct {
	raw    string
	fields [5]func(int) bool
}

var cronBounds = [5][2]int{{0, 59}, {0, 23}, {1, 31}, {1, 12}, {0, 6}}

func parseCron(expr string) (*cronExpr, error) {
	parts := strings.Fields(expr)
	if len(parts) != 5 {
		return nil, fmt.Errorf("schedule: cron %q: want 5 fields, got %d", expr, len(parts))
	}
	c := &cronExpr{raw: expr}
	for i, p := range parts {
		m, err := parseField(p, cronBounds[i][0], cronBounds[i][1])
		if err != nil {
			return nil, fmt.Errorf("schedule: cron %q field %d: %w", expr, i+1, err)
		}
		c.fields[i] = m
	}
	return c, nil
}

func (c *cronExpr) match(t time.Time) bool {
	vals := [5]int{t.Minute(), t.Hour(), t.Day(), int(t.Month()), int(t.Weekday())}
	for i, f := range c.fields {
		if !f(vals[i]) {
			return false
		}
	}
	return true
}

func parseField(field string, lo, hi int) (func(int) bool, error) {
	var alts []func(int) bool
	for _, part := range strings.Split(field, ",") {
		m, err := parsePart(part, lo, hi)
		if err != nil {
			return nil, err
		}
		alts = append(alts, m)
	}
	return func(v int) bool {
		for _, m := range alts {
			if m(v) {
				return true
			}
		}
		return false
	}, nil
}

func parsePart(part string, lo, hi int) (func(int) bool, error) {
	num := func(s string) (int, error) {
		n, err := strconv.Atoi(s)
		if err != nil || n < lo || n > hi {
			return 0, fmt.Errorf("%q out of range %d-%d", s, lo, hi)
		}
		return n, nil
	}

	switch {
	case part == "*":
		return func(int) bool { return true }, nil
	case strings.HasPrefix(part, "*/"):
		step, err := strconv.Atoi(part[2:])
		if err != nil || step <= 0 {
			return nil, fmt.Errorf("bad step %q", part)
		}
		return func(v int) bool { return (v-lo)%step == 0 }, nil
	case strings.Contains(part, "-"):
		a, b, _ := strings.Cut(part, "-")
		from, err := num(a)
		if err != nil {
			return nil, err
		}
		to, err := num(b)
		if err != nil {
			return nil, err
		}
		return func(v int) bool { return v >= from && v <= to }, nil
	default:
		n, err := num(part)
		if err != nil {
			return nil, err
		}
		return func(v int) bool { return v == n }, nil
	}
}
