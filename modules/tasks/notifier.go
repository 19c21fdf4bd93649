package tasks

import (
	"context"
	"time"

	"github.com/example/task-tracker/domain/task"
	"github.com/example/task-tracker/events"
)

// eventNotifier publishes store notifications on the module's event bus.
// Publishing is best-effort: a failure is logged and the operation stands.
type eventNotifier struct {
	module *TasksModule
}

func (n *eventNotifier) TaskCreated(_ context.Context, t task.Task) {
	bus := n.module.eventBus
	if bus == nil {
		return
	}
	event := events.TaskCreatedEvent{
		TaskID:    t.ID,
		Title:     t.Title,
		CreatedAt: time.Now(),
	}
	if t.DueDate != nil {
		event.DueDate = t.DueDate.String()
	}
	if err := events.TaskCreatedV1.Publish(bus, event, nil); err != nil {
		n.module.logger.WithError(err).Warn("Failed to publish TaskCreated event", "task_id", t.ID)
	}
}

func (n *eventNotifier) CompletionChanged(_ context.Context, t task.Task) {
	bus := n.module.eventBus
	if bus == nil {
		return
	}
	event := events.TaskCompletionChangedEvent{
		TaskID:    t.ID,
		Title:     t.Title,
		Completed: t.Completed,
		ChangedAt: time.Now(),
	}
	if err := events.TaskCompletionChangedV1.Publish(bus, event, nil); err != nil {
		n.module.logger.WithError(err).Warn("Failed to publish TaskCompletionChanged event", "task_id", t.ID)
	}
}

func (n *eventNotifier) SoftDeleted(_ context.Context, t task.Task) {
	bus := n.module.eventBus
	if bus == nil {
		return
	}
	event := events.TaskSoftDeletedEvent{
		TaskID:    t.ID,
		Title:     t.Title,
		DeletedAt: time.Now(),
	}
	if err := events.TaskSoftDeletedV1.Publish(bus, event, nil); err != nil {
		n.module.logger.WithError(err).Warn("Failed to publish TaskSoftDeleted event", "task_id", t.ID)
	}
}

func (n *eventNotifier) OperationFailed(_ context.Context, f *Failure) {
	bus := n.module.eventBus
	if bus == nil {
		return
	}
	event := events.TaskOperationFailedEvent{
		Operation: f.Op,
		Kind:      string(f.Kind),
		TaskID:    f.TaskID,
		Message:   f.Error(),
		FailedAt:  time.Now(),
	}
	if err := events.TaskOperationFailedV1.Publish(bus, event, nil); err != nil {
		n.module.logger.WithError(err).Warn("Failed to publish TaskOperationFailed event", "operation", f.Op)
	}
}
