package api

import "github.com/example/task-tracker/domain/task"

// CreateTaskRequest is the HTTP request for adding a task.
type CreateTaskRequest struct {
	Title   string     `json:"title"`
	DueDate *task.Date `json:"due_date,omitempty"`
}

// SetCompletionRequest is the HTTP request for checking or unchecking a task.
type SetCompletionRequest struct {
	Completed *bool `json:"completed"`
}

// TaskResponse is the HTTP response for a single task.
type TaskResponse struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	DueDate   string `json:"due_date,omitempty"`
	Completed bool   `json:"completed"`
	Deleted   bool   `json:"is_deleted"`
}

// ListTasksResponse is the HTTP response for listing tasks.
type ListTasksResponse struct {
	Tasks   []TaskResponse `json:"tasks"`
	Total   int            `json:"total"`
	Summary task.Summary   `json:"summary"`
}

// ListFailureResponse is returned when the listing cannot be loaded. It
// carries an empty task list next to the error.
type ListFailureResponse struct {
	Tasks []TaskResponse `json:"tasks"`
	Total int            `json:"total"`
	ErrorResponse
}

// HealthResponse is the HTTP response for health check.
type HealthResponse struct {
	Status  string         `json:"status"`
	Details map[string]any `json:"details,omitempty"`
}

// ErrorResponse is the HTTP response for errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	TaskID  string `json:"task_id,omitempty"`
}

func toTaskResponse(t task.Task) TaskResponse {
	resp := TaskResponse{
		ID:        t.ID,
		Title:     t.Title,
		Completed: t.Completed,
		Deleted:   t.Deleted,
	}
	if t.DueDate != nil {
		resp.DueDate = t.DueDate.String()
	}
	return resp
}
