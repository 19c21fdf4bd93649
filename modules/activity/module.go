// Package activity keeps the operator-facing log of task changes and failed
// store operations.
package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"

	"github.com/example/task-tracker/events"
)

// DefaultCapacity is the number of entries kept when none is configured.
const DefaultCapacity = 200

// ServiceListActivity is the request-reply service returning recent entries.
const ServiceListActivity = "list-activity"

// Entry types.
const (
	TypeTaskCreated       = "task_created"
	TypeCompletionChanged = "task_completion_changed"
	TypeTaskSoftDeleted   = "task_soft_deleted"
	TypeOperationFailed   = "operation_failed"
)

// Entry is one line of the activity log.
type Entry struct {
	Type      string    `json:"type"`
	TaskID    string    `json:"task_id,omitempty"`
	Message   string    `json:"message"`
	Level     string    `json:"level"`
	Timestamp time.Time `json:"timestamp"`
}

// ListActivityRequest is the request for recent activity.
type ListActivityRequest struct {
	Limit int `json:"limit,omitempty"`
}

// ListActivityResponse is the response for recent activity, newest first.
type ListActivityResponse struct {
	Entries []Entry `json:"entries"`
	Total   int     `json:"total"`
}

// ActivityModule consumes task events into a bounded in-memory log.
type ActivityModule struct {
	capacity int
	logger   types.Logger

	mu      sync.RWMutex
	entries []Entry
}

var _ mono.Module = (*ActivityModule)(nil)
var _ mono.EventConsumerModule = (*ActivityModule)(nil)
var _ mono.ServiceProviderModule = (*ActivityModule)(nil)

func NewModule(capacity int, logger types.Logger) *ActivityModule {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &ActivityModule{
		capacity: capacity,
		logger:   logger.WithModule("activity"),
		entries:  make([]Entry, 0, capacity),
	}
}

func (m *ActivityModule) Name() string {
	return "activity"
}

func (m *ActivityModule) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskCreatedV1, m.handleTaskCreated, m); err != nil {
		return fmt.Errorf("failed to register TaskCreated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskCompletionChangedV1, m.handleCompletionChanged, m); err != nil {
		return fmt.Errorf("failed to register TaskCompletionChanged consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskSoftDeletedV1, m.handleTaskSoftDeleted, m); err != nil {
		return fmt.Errorf("failed to register TaskSoftDeleted consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskOperationFailedV1, m.handleOperationFailed, m); err != nil {
		return fmt.Errorf("failed to register TaskOperationFailed consumer: %w", err)
	}

	m.logger.Info("Registered event consumers",
		"events", []string{"TaskCreated", "TaskCompletionChanged", "TaskSoftDeleted", "TaskOperationFailed"})
	return nil
}

func (m *ActivityModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceListActivity, json.Unmarshal, json.Marshal, m.listActivity,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceListActivity, err)
	}
	return nil
}

func (m *ActivityModule) handleTaskCreated(_ context.Context, event events.TaskCreatedEvent, _ *mono.Msg) error {
	msg := fmt.Sprintf("Task '%s' added", event.Title)
	if event.DueDate != "" {
		msg += fmt.Sprintf(" (due %s)", event.DueDate)
	}
	m.record(Entry{Type: TypeTaskCreated, TaskID: event.TaskID, Message: msg, Level: "info", Timestamp: event.CreatedAt})
	return nil
}

func (m *ActivityModule) handleCompletionChanged(_ context.Context, event events.TaskCompletionChangedEvent, _ *mono.Msg) error {
	state := "reopened"
	if event.Completed {
		state = "completed"
	}
	m.record(Entry{
		Type:      TypeCompletionChanged,
		TaskID:    event.TaskID,
		Message:   fmt.Sprintf("Task '%s' %s", event.Title, state),
		Level:     "info",
		Timestamp: event.ChangedAt,
	})
	return nil
}

func (m *ActivityModule) handleTaskSoftDeleted(_ context.Context, event events.TaskSoftDeletedEvent, _ *mono.Msg) error {
	m.record(Entry{
		Type:      TypeTaskSoftDeleted,
		TaskID:    event.TaskID,
		Message:   fmt.Sprintf("Task '%s' moved to the trash", event.Title),
		Level:     "info",
		Timestamp: event.DeletedAt,
	})
	return nil
}

func (m *ActivityModule) handleOperationFailed(_ context.Context, event events.TaskOperationFailedEvent, _ *mono.Msg) error {
	m.logger.Warn("Task operation failed",
		"operation", event.Operation, "kind", event.Kind, "message", event.Message)
	m.record(Entry{
		Type:      TypeOperationFailed,
		TaskID:    event.TaskID,
		Message:   event.Message,
		Level:     "error",
		Timestamp: event.FailedAt,
	})
	return nil
}

func (m *ActivityModule) record(e Entry) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.entries) == m.capacity {
		copy(m.entries, m.entries[1:])
		m.entries = m.entries[:len(m.entries)-1]
	}
	m.entries = append(m.entries, e)
}

// Recent returns up to limit entries, newest first. limit <= 0 returns all.
func (m *ActivityModule) Recent(limit int) []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := len(m.entries)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]Entry, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, m.entries[i])
	}
	return out
}

func (m *ActivityModule) listActivity(_ context.Context, req ListActivityRequest, _ *mono.Msg) (ListActivityResponse, error) {
	entries := m.Recent(req.Limit)
	return ListActivityResponse{Entries: entries, Total: len(entries)}, nil
}

func (m *ActivityModule) Start(_ context.Context) error {
	m.logger.Info("Module started - listening for task events", "capacity", m.capacity)
	return nil
}

func (m *ActivityModule) Stop(_ context.Context) error {
	m.logger.Info("Module stopped")
	return nil
}
