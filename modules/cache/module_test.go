package cache

import (
	"context"
	"testing"
	"time"

	"github.com/go-monolith/mono/pkg/types"

	"github.com/example/task-tracker/internal/config"
)

// mockLogger implements types.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(_ string, _ ...any)         {}
func (m *mockLogger) Info(_ string, _ ...any)          {}
func (m *mockLogger) Warn(_ string, _ ...any)          {}
func (m *mockLogger) Error(_ string, _ ...any)         {}
func (m *mockLogger) With(_ ...any) types.Logger       { return m }
func (m *mockLogger) WithModule(_ string) types.Logger { return m }
func (m *mockLogger) WithError(_ error) types.Logger   { return m }

func TestNewModule_Memory(t *testing.T) {
	m, err := NewModule(config.CacheConfig{Backend: config.CacheMemory, TTL: time.Minute}, nil, &mockLogger{})
	if err != nil {
		t.Fatalf("NewModule() error = %v", err)
	}
	if m.Name() != "cache" {
		t.Errorf("Name() = %q", m.Name())
	}
	if _, ok := m.Cache().(*Memory); !ok {
		t.Errorf("Cache() = %T, want *Memory", m.Cache())
	}

	ctx := context.Background()
	if err := m.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if h := m.Health(ctx); !h.Healthy {
		t.Errorf("Health() = %+v, want healthy", h)
	}
	if err := m.Stop(ctx); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}

func TestNewModule_Redis(t *testing.T) {
	m, err := NewModule(config.CacheConfig{Backend: config.CacheRedis, RedisAddr: "127.0.0.1:1", Prefix: "t:"}, nil, &mockLogger{})
	if err != nil {
		t.Fatalf("NewModule() error = %v", err)
	}
	if _, ok := m.Cache().(*Redis); !ok {
		t.Errorf("Cache() = %T, want *Redis", m.Cache())
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if h := m.Health(ctx); h.Healthy {
		t.Error("Health() healthy with unreachable Redis")
	}
	_ = m.Stop(context.Background())
}

func TestNewModule_UnknownBackend(t *testing.T) {
	if _, err := NewModule(config.CacheConfig{Backend: "memcached"}, nil, &mockLogger{}); err == nil {
		t.Error("NewModule() error = nil, want error")
	}
}
