package cache

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/example/task-tracker/domain/task"
	"github.com/example/task-tracker/internal/metrics"
)

// Memory is a process-local ListCache.
type Memory struct {
	ttl     time.Duration
	now     func() time.Time
	metrics *metrics.Metrics
	stats   Stats
	group   singleflight.Group

	mu         sync.Mutex
	tasks      []task.Task
	valid      bool
	expiresAt  time.Time
	generation uint64
}

var _ ListCache = (*Memory)(nil)

// MemoryOption configures a Memory cache.
type MemoryOption func(*Memory)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) { m.now = now }
}

// WithMetrics reports lookups and invalidations to m.
func WithMetrics(m *metrics.Metrics) MemoryOption {
	return func(c *Memory) { c.metrics = m }
}

// NewMemory creates an in-process cache. A non-positive ttl uses DefaultTTL.
func NewMemory(ttl time.Duration, opts ...MemoryOption) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	m := &Memory{ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) GetOrFetch(ctx context.Context, fetch FetchFunc) ([]task.Task, bool, error) {
	m.mu.Lock()
	if m.valid && m.now().Before(m.expiresAt) {
		tasks := task.CloneAll(m.tasks)
		m.mu.Unlock()
		atomic.AddUint64(&m.stats.Hits, 1)
		m.metrics.CacheHit()
		return tasks, true, nil
	}
	gen := m.generation
	m.mu.Unlock()

	atomic.AddUint64(&m.stats.Misses, 1)
	m.metrics.CacheMiss()

	// Callers only share a fetch started within the same generation.
	v, err, _ := m.group.Do(strconv.FormatUint(gen, 10), func() (any, error) {
		tasks, err := fetch(ctx)
		if err != nil {
			atomic.AddUint64(&m.stats.Errors, 1)
			return nil, err
		}
		m.store(gen, tasks)
		return tasks, nil
	})
	if err != nil {
		return nil, false, err
	}
	return task.CloneAll(v.([]task.Task)), false, nil
}

func (m *Memory) store(gen uint64, tasks []task.Task) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.generation != gen {
		return
	}
	m.tasks = task.CloneAll(tasks)
	m.valid = true
	m.expiresAt = m.now().Add(m.ttl)
}

func (m *Memory) Invalidate(_ context.Context) error {
	m.mu.Lock()
	m.generation++
	m.tasks = nil
	m.valid = false
	m.mu.Unlock()

	atomic.AddUint64(&m.stats.Invalidations, 1)
	m.metrics.CacheInvalidated()
	return nil
}

func (m *Memory) Peek(_ context.Context) ([]task.Task, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.valid || !m.now().Before(m.expiresAt) {
		return nil, false
	}
	return task.CloneAll(m.tasks), true
}

func (m *Memory) Stats() StatsSnapshot {
	return m.stats.snapshot("memory", m.ttl)
}
