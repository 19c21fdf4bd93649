package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"

	"github.com/example/task-tracker/events"
	"github.com/example/task-tracker/internal/metrics"
	"github.com/example/task-tracker/internal/persistence"
	"github.com/example/task-tracker/modules/cache"
)

// TasksModule exposes the task store as request-reply services and publishes
// task events.
type TasksModule struct {
	store    *Store
	backend  *persistence.Backend
	eventBus mono.EventBus
	logger   types.Logger
}

var _ mono.Module = (*TasksModule)(nil)
var _ mono.ServiceProviderModule = (*TasksModule)(nil)
var _ mono.EventEmitterModule = (*TasksModule)(nil)
var _ mono.HealthCheckableModule = (*TasksModule)(nil)

// NewModule wires a Store over the opened backend and the listing cache.
func NewModule(backend *persistence.Backend, listCache cache.ListCache, logger types.Logger, m *metrics.Metrics) *TasksModule {
	mod := &TasksModule{
		backend: backend,
		logger:  logger.WithModule("tasks"),
	}
	mod.store = NewStore(backend.Repository, listCache, mod.logger,
		WithNotifier(&eventNotifier{module: mod}),
		WithMetrics(m),
	)
	return mod
}

func (m *TasksModule) Name() string {
	return "tasks"
}

// Store returns the underlying store.
func (m *TasksModule) Store() *Store {
	return m.store
}

func (m *TasksModule) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

func (m *TasksModule) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.TaskCreatedV1.ToBase(),
		events.TaskCompletionChangedV1.ToBase(),
		events.TaskSoftDeletedV1.ToBase(),
		events.TaskOperationFailedV1.ToBase(),
	}
}

func (m *TasksModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceListTasks, json.Unmarshal, json.Marshal, m.listTasks,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceListTasks, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceAddTask, json.Unmarshal, json.Marshal, m.addTask,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceAddTask, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceSetCompletion, json.Unmarshal, json.Marshal, m.setCompletion,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceSetCompletion, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceSoftDelete, json.Unmarshal, json.Marshal, m.softDelete,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceSoftDelete, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceSummary, json.Unmarshal, json.Marshal, m.summary,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceSummary, err)
	}

	m.logger.Info("Registered services", "services", []string{
		ServiceListTasks, ServiceAddTask, ServiceSetCompletion, ServiceSoftDelete, ServiceSummary,
	})
	return nil
}

func (m *TasksModule) Start(_ context.Context) error {
	if m.eventBus == nil {
		m.logger.Warn("eventBus not set, events will not be published")
	}
	if !m.backend.Connected {
		m.logger.Warn("Task store is disconnected, every operation will fail until configuration is fixed",
			"backend", m.backend.Name)
	}
	m.logger.Info("Module started", "backend", m.backend.Name)
	return nil
}

func (m *TasksModule) Stop(_ context.Context) error {
	if err := m.backend.Close(); err != nil {
		m.logger.WithError(err).Error("Error closing task store backend")
		return fmt.Errorf("failed to close task store backend: %w", err)
	}
	m.logger.Info("Module stopped")
	return nil
}

// Health reports whether the store is connected. A disconnected store keeps
// answering, so it is reported unhealthy rather than failing startup.
func (m *TasksModule) Health(_ context.Context) mono.HealthStatus {
	stats := m.store.CacheStats()
	details := map[string]any{
		"backend":        m.backend.Name,
		"cache_backend":  stats.Backend,
		"cache_hit_rate": stats.HitRate,
	}
	if !m.backend.Connected {
		return mono.HealthStatus{
			Healthy: false,
			Message: "disconnected: store credentials missing or invalid",
			Details: details,
		}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: details,
	}
}
