package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/example/task-tracker/domain/task"
	"github.com/example/task-tracker/internal/metrics"
)

// Redis is a ListCache shared by every process pointing at the same server.
// Listings are stored under a generation-scoped key; Invalidate bumps the
// generation so that a late write from an older fetch lands on a key nobody
// reads anymore.
type Redis struct {
	client  redis.UniversalClient
	prefix  string
	ttl     time.Duration
	metrics *metrics.Metrics
	stats   Stats
	group   singleflight.Group
}

var _ ListCache = (*Redis)(nil)

// NewRedis creates a Redis-backed cache. A non-positive ttl uses DefaultTTL.
func NewRedis(client redis.UniversalClient, prefix string, ttl time.Duration, m *metrics.Metrics) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{
		client:  client,
		prefix:  prefix,
		ttl:     ttl,
		metrics: m,
	}
}

func (r *Redis) generationKey() string {
	return r.prefix + "tasks:active:gen"
}

func (r *Redis) listKey(gen int64) string {
	return r.prefix + "tasks:active:" + strconv.FormatInt(gen, 10)
}

func (r *Redis) generation(ctx context.Context) (int64, error) {
	gen, err := r.client.Get(ctx, r.generationKey()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (r *Redis) GetOrFetch(ctx context.Context, fetch FetchFunc) ([]task.Task, bool, error) {
	gen, err := r.generation(ctx)
	if err != nil {
		// Redis is down: serve straight from the store.
		atomic.AddUint64(&r.stats.Errors, 1)
		atomic.AddUint64(&r.stats.Misses, 1)
		r.metrics.CacheMiss()
		tasks, err := fetch(ctx)
		return tasks, false, err
	}

	data, err := r.client.Get(ctx, r.listKey(gen)).Bytes()
	switch {
	case err == nil:
		var tasks []task.Task
		if err := json.Unmarshal(data, &tasks); err == nil {
			atomic.AddUint64(&r.stats.Hits, 1)
			r.metrics.CacheHit()
			return task.CloneAll(tasks), true, nil
		}
		atomic.AddUint64(&r.stats.Errors, 1)
	case !errors.Is(err, redis.Nil):
		atomic.AddUint64(&r.stats.Errors, 1)
	}

	atomic.AddUint64(&r.stats.Misses, 1)
	r.metrics.CacheMiss()

	v, err, _ := r.group.Do(strconv.FormatInt(gen, 10), func() (any, error) {
		tasks, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		if err := r.set(ctx, gen, tasks); err != nil {
			atomic.AddUint64(&r.stats.Errors, 1)
		}
		return tasks, nil
	})
	if err != nil {
		return nil, false, err
	}
	return task.CloneAll(v.([]task.Task)), false, nil
}

func (r *Redis) set(ctx context.Context, gen int64, tasks []task.Task) error {
	data, err := json.Marshal(task.CloneAll(tasks))
	if err != nil {
		return fmt.Errorf("cache marshal error: %w", err)
	}
	if err := r.client.Set(ctx, r.listKey(gen), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("cache set error: %w", err)
	}
	return nil
}

func (r *Redis) Invalidate(ctx context.Context) error {
	atomic.AddUint64(&r.stats.Invalidations, 1)
	r.metrics.CacheInvalidated()

	// Drop the listing under the current generation first so that a failed
	// bump cannot leave it readable.
	if cur, err := r.generation(ctx); err == nil {
		_ = r.client.Del(ctx, r.listKey(cur)).Err()
	}

	gen, err := r.client.Incr(ctx, r.generationKey()).Result()
	if err != nil {
		atomic.AddUint64(&r.stats.Errors, 1)
		return fmt.Errorf("cache invalidate error: %w", err)
	}
	// Best effort; the old key also expires on its own.
	_ = r.client.Del(ctx, r.listKey(gen-1)).Err()
	return nil
}

func (r *Redis) Peek(ctx context.Context) ([]task.Task, bool) {
	gen, err := r.generation(ctx)
	if err != nil {
		return nil, false
	}
	data, err := r.client.Get(ctx, r.listKey(gen)).Bytes()
	if err != nil {
		return nil, false
	}
	var tasks []task.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, false
	}
	return tasks, true
}

func (r *Redis) Stats() StatsSnapshot {
	return r.stats.snapshot("redis", r.ttl)
}

// Ping checks if the Redis connection is healthy.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
