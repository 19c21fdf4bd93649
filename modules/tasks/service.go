package tasks

import (
	"context"

	"github.com/go-monolith/mono"
)

// Store failures travel in the response body so that the caller can rebuild
// their kind; the returned error is reserved for transport problems.

func (m *TasksModule) listTasks(ctx context.Context, _ ListTasksRequest, _ *mono.Msg) (ListTasksResponse, error) {
	tasks, err := m.store.ListActiveTasks(ctx)
	return ListTasksResponse{
		Tasks:   tasks,
		Total:   len(tasks),
		Failure: newFailureInfo(err),
	}, nil
}

func (m *TasksModule) addTask(ctx context.Context, req AddTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	return taskResponse(m.store.AddTask(ctx, req.Title, req.DueDate)), nil
}

func (m *TasksModule) setCompletion(ctx context.Context, req SetCompletionRequest, _ *mono.Msg) (TaskResponse, error) {
	return taskResponse(m.store.SetCompletion(ctx, req.TaskID, req.Completed)), nil
}

func (m *TasksModule) softDelete(ctx context.Context, req SoftDeleteRequest, _ *mono.Msg) (TaskResponse, error) {
	return taskResponse(m.store.SoftDelete(ctx, req.TaskID)), nil
}

func (m *TasksModule) summary(ctx context.Context, _ SummaryRequest, _ *mono.Msg) (SummaryResponse, error) {
	s, err := m.store.Summary(ctx)
	return SummaryResponse{Summary: s, Failure: newFailureInfo(err)}, nil
}
