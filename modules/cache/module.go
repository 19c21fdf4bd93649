package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/redis/go-redis/v9"

	"github.com/example/task-tracker/internal/config"
	"github.com/example/task-tracker/internal/metrics"
)

// Module owns the listing cache and, for the Redis backend, its connection.
type Module struct {
	cfg    config.CacheConfig
	cache  ListCache
	client *redis.Client
	logger types.Logger
}

var (
	_ mono.Module                = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates the cache selected by cfg.Backend. The cache is usable
// as soon as NewModule returns; Start only verifies connectivity.
func NewModule(cfg config.CacheConfig, m *metrics.Metrics, logger types.Logger) (*Module, error) {
	mod := &Module{cfg: cfg, logger: logger.WithModule("cache")}

	switch cfg.Backend {
	case config.CacheMemory, "":
		mod.cache = NewMemory(cfg.TTL, WithMetrics(m))
	case config.CacheRedis:
		mod.client = redis.NewClient(&redis.Options{
			Addr:         cfg.RedisAddr,
			Password:     cfg.RedisPassword,
			DB:           cfg.RedisDB,
			PoolSize:     50,
			MinIdleConns: 5,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		})
		mod.cache = NewRedis(mod.client, cfg.Prefix, cfg.TTL, m)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
	return mod, nil
}

// Name returns the module name.
func (m *Module) Name() string {
	return "cache"
}

// Cache returns the listing cache.
func (m *Module) Cache() ListCache {
	return m.cache
}

// Start checks the Redis connection. An unreachable Redis is logged, not
// fatal: the Redis cache falls through to the store on errors.
func (m *Module) Start(ctx context.Context) error {
	if m.client == nil {
		m.logger.Info("Module started", "backend", config.CacheMemory, "ttl", m.cfg.TTL.String())
		return nil
	}

	if err := m.client.Ping(ctx).Err(); err != nil {
		m.logger.WithError(err).Warn("Redis not reachable, listings will bypass the cache", "addr", m.cfg.RedisAddr)
	}
	m.logger.Info("Module started",
		"backend", config.CacheRedis,
		"addr", m.cfg.RedisAddr,
		"prefix", m.cfg.Prefix,
		"ttl", m.cfg.TTL.String())
	return nil
}

// Stop closes the Redis connection.
func (m *Module) Stop(_ context.Context) error {
	if m.client != nil {
		if err := m.client.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
			m.logger.WithError(err).Error("Error closing Redis connection")
			return fmt.Errorf("failed to close Redis connection: %w", err)
		}
	}
	m.logger.Info("Module stopped")
	return nil
}

// Health reports Redis reachability and the cache statistics.
func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	stats := m.cache.Stats()
	details := map[string]any{
		"backend":  stats.Backend,
		"hits":     stats.Hits,
		"misses":   stats.Misses,
		"hit_rate": stats.HitRate,
	}

	if m.client != nil {
		if err := m.client.Ping(ctx).Err(); err != nil {
			return mono.HealthStatus{
				Healthy: false,
				Message: fmt.Sprintf("redis unreachable: %v", err),
				Details: details,
			}
		}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: details,
	}
}
