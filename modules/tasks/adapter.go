package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"

	"github.com/example/task-tracker/domain/task"
)

// taskAdapter implements TaskPort on top of the tasks module's services.
type taskAdapter struct {
	container mono.ServiceContainer
}

// NewTaskAdapter creates a TaskPort over the container received through
// SetDependencyServiceContainer.
func NewTaskAdapter(container mono.ServiceContainer) TaskPort {
	if container == nil {
		panic("task adapter requires non-nil ServiceContainer")
	}
	return &taskAdapter{container: container}
}

// ListTasks returns an empty, non-nil slice alongside any error.
func (a *taskAdapter) ListTasks(ctx context.Context) ([]task.Task, error) {
	req := ListTasksRequest{}
	var resp ListTasksResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceListTasks,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return []task.Task{}, fmt.Errorf("%s service call failed: %w", ServiceListTasks, err)
	}
	if resp.Failure != nil {
		return []task.Task{}, resp.Failure.toFailure()
	}
	if resp.Tasks == nil {
		resp.Tasks = []task.Task{}
	}
	return resp.Tasks, nil
}

func (a *taskAdapter) AddTask(ctx context.Context, title string, due *task.Date) (task.Task, error) {
	req := AddTaskRequest{Title: title, DueDate: due}
	var resp TaskResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceAddTask,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return task.Task{}, fmt.Errorf("%s service call failed: %w", ServiceAddTask, err)
	}
	return resp.result()
}

func (a *taskAdapter) SetCompletion(ctx context.Context, id string, completed bool) (task.Task, error) {
	req := SetCompletionRequest{TaskID: id, Completed: completed}
	var resp TaskResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceSetCompletion,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return task.Task{}, fmt.Errorf("%s service call failed: %w", ServiceSetCompletion, err)
	}
	return resp.result()
}

func (a *taskAdapter) SoftDelete(ctx context.Context, id string) (task.Task, error) {
	req := SoftDeleteRequest{TaskID: id}
	var resp TaskResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceSoftDelete,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return task.Task{}, fmt.Errorf("%s service call failed: %w", ServiceSoftDelete, err)
	}
	return resp.result()
}

func (a *taskAdapter) Summary(ctx context.Context) (task.Summary, error) {
	req := SummaryRequest{}
	var resp SummaryResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceSummary,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return task.Summary{}, fmt.Errorf("%s service call failed: %w", ServiceSummary, err)
	}
	if resp.Failure != nil {
		return task.Summary{}, resp.Failure.toFailure()
	}
	return resp.Summary, nil
}

func (r TaskResponse) result() (task.Task, error) {
	if r.Failure != nil {
		return task.Task{}, r.Failure.toFailure()
	}
	if r.Task == nil {
		return task.Task{}, fmt.Errorf("empty task response")
	}
	return *r.Task, nil
}
