package tasks

import (
	"context"

	"github.com/example/task-tracker/domain/task"
)

// Service names registered by the tasks module.
const (
	ServiceListTasks     = "list-tasks"
	ServiceAddTask       = "add-task"
	ServiceSetCompletion = "set-task-completion"
	ServiceSoftDelete    = "soft-delete-task"
	ServiceSummary       = "task-summary"
)

// FailureInfo carries a Failure across the service boundary.
type FailureInfo struct {
	Kind    FailureKind `json:"kind"`
	Op      string      `json:"op"`
	TaskID  string      `json:"task_id,omitempty"`
	Title   string      `json:"title,omitempty"`
	Message string      `json:"message"`
	Cause   string      `json:"cause,omitempty"`
}

func newFailureInfo(err error) *FailureInfo {
	if err == nil {
		return nil
	}
	f, ok := AsFailure(err)
	if !ok {
		return &FailureInfo{Kind: KindTransport, Message: err.Error()}
	}
	info := &FailureInfo{
		Kind:    f.Kind,
		Op:      f.Op,
		TaskID:  f.TaskID,
		Title:   f.Title,
		Message: f.Message(),
	}
	if f.Err != nil {
		info.Cause = f.Err.Error()
	}
	return info
}

// remoteError is the cause of a Failure rebuilt from FailureInfo.
type remoteError string

func (e remoteError) Error() string { return string(e) }

// toFailure rebuilds the Failure on the calling side.
func (i *FailureInfo) toFailure() *Failure {
	f := &Failure{Kind: i.Kind, Op: i.Op, TaskID: i.TaskID, Title: i.Title}
	if i.Cause != "" {
		f.Err = remoteError(i.Cause)
	}
	return f
}

// ListTasksRequest is the request for listing active tasks.
type ListTasksRequest struct{}

// ListTasksResponse is the response for listing active tasks.
type ListTasksResponse struct {
	Tasks   []task.Task  `json:"tasks"`
	Total   int          `json:"total"`
	Failure *FailureInfo `json:"failure,omitempty"`
}

// AddTaskRequest is the request for adding a task.
type AddTaskRequest struct {
	Title   string     `json:"title"`
	DueDate *task.Date `json:"due_date,omitempty"`
}

// TaskResponse is the response of every single-task mutation.
type TaskResponse struct {
	Task    *task.Task   `json:"task,omitempty"`
	Failure *FailureInfo `json:"failure,omitempty"`
}

// SetCompletionRequest is the request for checking or unchecking a task.
type SetCompletionRequest struct {
	TaskID    string `json:"task_id"`
	Completed bool   `json:"completed"`
}

// SoftDeleteRequest is the request for moving a task to the trash.
type SoftDeleteRequest struct {
	TaskID string `json:"task_id"`
}

// SummaryRequest is the request for task counts.
type SummaryRequest struct{}

// SummaryResponse is the response for task counts.
type SummaryResponse struct {
	Summary task.Summary `json:"summary"`
	Failure *FailureInfo `json:"failure,omitempty"`
}

// TaskPort is how other modules talk to the task store.
type TaskPort interface {
	ListTasks(ctx context.Context) ([]task.Task, error)
	AddTask(ctx context.Context, title string, due *task.Date) (task.Task, error)
	SetCompletion(ctx context.Context, id string, completed bool) (task.Task, error)
	SoftDelete(ctx context.Context, id string) (task.Task, error)
	Summary(ctx context.Context) (task.Summary, error)
}

func taskResponse(t task.Task, err error) TaskResponse {
	if err != nil {
		return TaskResponse{Failure: newFailureInfo(err)}
	}
	return TaskResponse{Task: &t}
}
