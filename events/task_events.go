package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// TaskCreatedEvent is emitted when a new task is added.
type TaskCreatedEvent struct {
	TaskID    string    `json:"task_id"`
	Title     string    `json:"title"`
	DueDate   string    `json:"due_date,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TaskCreatedV1 is the typed event definition for task creation.
// Subject: events.task.v1.task-created
var TaskCreatedV1 = helper.EventDefinition[TaskCreatedEvent](
	"task", "TaskCreated", "v1",
)

// TaskCompletionChangedEvent is emitted when a task is checked or unchecked.
type TaskCompletionChangedEvent struct {
	TaskID    string    `json:"task_id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	ChangedAt time.Time `json:"changed_at"`
}

// TaskCompletionChangedV1 is the typed event definition for completion changes.
// Subject: events.task.v1.task-completion-changed
var TaskCompletionChangedV1 = helper.EventDefinition[TaskCompletionChangedEvent](
	"task", "TaskCompletionChanged", "v1",
)

// TaskSoftDeletedEvent is emitted when a task is moved to the trash.
type TaskSoftDeletedEvent struct {
	TaskID    string    `json:"task_id"`
	Title     string    `json:"title"`
	DeletedAt time.Time `json:"deleted_at"`
}

// TaskSoftDeletedV1 is the typed event definition for soft deletion.
// Subject: events.task.v1.task-soft-deleted
var TaskSoftDeletedV1 = helper.EventDefinition[TaskSoftDeletedEvent](
	"task", "TaskSoftDeleted", "v1",
)

// TaskOperationFailedEvent is emitted when a store operation fails. It is the
// operator-facing error channel.
type TaskOperationFailedEvent struct {
	Operation string    `json:"operation"`
	Kind      string    `json:"kind"`
	TaskID    string    `json:"task_id,omitempty"`
	Message   string    `json:"message"`
	FailedAt  time.Time `json:"failed_at"`
}

// TaskOperationFailedV1 is the typed event definition for failed operations.
// Subject: events.task.v1.task-operation-failed
var TaskOperationFailedV1 = helper.EventDefinition[TaskOperationFailedEvent](
	"task", "TaskOperationFailed", "v1",
)
