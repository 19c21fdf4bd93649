// Package cache holds the read cache placed in front of active-task listings.
package cache

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/example/task-tracker/domain/task"
)

// DefaultTTL bounds how long a listing is served without re-fetching.
const DefaultTTL = 60 * time.Second

// FetchFunc loads the listing from the persistence layer.
type FetchFunc func(ctx context.Context) ([]task.Task, error)

// ListCache caches the active-task listing. Fetch errors are never cached.
// Returned slices belong to the caller.
type ListCache interface {
	// GetOrFetch returns the cached listing, or calls fetch and caches its
	// result. hit reports whether fetch was skipped.
	GetOrFetch(ctx context.Context, fetch FetchFunc) (tasks []task.Task, hit bool, err error)
	// Invalidate drops the listing. A fetch already in flight will not
	// repopulate the cache with its result.
	Invalidate(ctx context.Context) error
	// Peek returns the cached listing without fetching or counting a lookup.
	Peek(ctx context.Context) ([]task.Task, bool)
	Stats() StatsSnapshot
}

// Stats tracks cache statistics.
type Stats struct {
	Hits          uint64
	Misses        uint64
	Invalidations uint64
	Errors        uint64
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	Backend       string        `json:"backend"`
	TTL           time.Duration `json:"ttl_ns"`
	Hits          uint64        `json:"hits"`
	Misses        uint64        `json:"misses"`
	Invalidations uint64        `json:"invalidations"`
	Errors        uint64        `json:"errors"`
	HitRate       float64       `json:"hit_rate"`
	TotalGets     uint64        `json:"total_gets"`
}

func (s *Stats) snapshot(backend string, ttl time.Duration) StatsSnapshot {
	hits := atomic.LoadUint64(&s.Hits)
	misses := atomic.LoadUint64(&s.Misses)
	totalGets := hits + misses

	var hitRate float64
	if totalGets > 0 {
		hitRate = float64(hits) / float64(totalGets) * 100
	}

	return StatsSnapshot{
		Backend:       backend,
		TTL:           ttl,
		Hits:          hits,
		Misses:        misses,
		Invalidations: atomic.LoadUint64(&s.Invalidations),
		Errors:        atomic.LoadUint64(&s.Errors),
		HitRate:       hitRate,
		TotalGets:     totalGets,
	}
}
