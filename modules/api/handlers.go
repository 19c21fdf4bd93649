package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/example/task-tracker/domain/task"
	"github.com/example/task-tracker/modules/tasks"
)

// setupRoutes configures all HTTP routes.
func (m *APIModule) setupRoutes(app *fiber.App) {
	app.Get("/health", m.healthHandler)
	if m.metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(m.metrics.Handler()))
	}

	api := app.Group("/api/v1")

	taskRoutes := api.Group("/tasks")
	taskRoutes.Get("/", m.listTasks)
	taskRoutes.Post("/", m.createTask)
	taskRoutes.Get("/summary", m.summary)
	taskRoutes.Put("/:id/completion", m.setCompletion)
	taskRoutes.Delete("/:id", m.softDelete)

	api.Get("/activity", m.listActivity)
	api.Get("/cache/stats", m.cacheStatsHandler)
}

// healthHandler handles GET /health.
func (m *APIModule) healthHandler(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status: "healthy",
		Details: map[string]any{
			"module": "api",
			"port":   m.port,
		},
	})
}

// listTasks handles GET /api/v1/tasks.
func (m *APIModule) listTasks(c *fiber.Ctx) error {
	list, err := m.taskPort.ListTasks(c.UserContext())
	if err != nil {
		status, body := failureBody(err)
		return c.Status(status).JSON(ListFailureResponse{
			Tasks:         []TaskResponse{},
			ErrorResponse: body,
		})
	}

	resp := ListTasksResponse{
		Tasks:   make([]TaskResponse, 0, len(list)),
		Total:   len(list),
		Summary: task.Summarize(list),
	}
	for _, t := range list {
		resp.Tasks = append(resp.Tasks, toTaskResponse(t))
	}
	return c.JSON(resp)
}

// createTask handles POST /api/v1/tasks.
func (m *APIModule) createTask(c *fiber.Ctx) error {
	var req CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body: due_date must be YYYY-MM-DD",
		})
	}

	created, err := m.taskPort.AddTask(c.UserContext(), req.Title, req.DueDate)
	if err != nil {
		return failureResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toTaskResponse(created))
}

// setCompletion handles PUT /api/v1/tasks/:id/completion.
func (m *APIModule) setCompletion(c *fiber.Ctx) error {
	taskID := c.Params("id")

	var req SetCompletionRequest
	if err := c.BodyParser(&req); err != nil || req.Completed == nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_request",
			Message: "Body must be {\"completed\": true|false}",
			TaskID:  taskID,
		})
	}

	updated, err := m.taskPort.SetCompletion(c.UserContext(), taskID, *req.Completed)
	if err != nil {
		return failureResponse(c, err)
	}
	return c.JSON(toTaskResponse(updated))
}

// softDelete handles DELETE /api/v1/tasks/:id.
func (m *APIModule) softDelete(c *fiber.Ctx) error {
	deleted, err := m.taskPort.SoftDelete(c.UserContext(), c.Params("id"))
	if err != nil {
		return failureResponse(c, err)
	}
	return c.JSON(toTaskResponse(deleted))
}

// summary handles GET /api/v1/tasks/summary.
func (m *APIModule) summary(c *fiber.Ctx) error {
	s, err := m.taskPort.Summary(c.UserContext())
	if err != nil {
		return failureResponse(c, err)
	}
	return c.JSON(s)
}

// listActivity handles GET /api/v1/activity.
func (m *APIModule) listActivity(c *fiber.Ctx) error {
	entries, err := m.activityPort.Recent(c.UserContext(), c.QueryInt("limit", 50))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "activity_failed",
			Message: err.Error(),
		})
	}
	return c.JSON(fiber.Map{"entries": entries, "total": len(entries)})
}

// cacheStatsHandler handles GET /api/v1/cache/stats.
func (m *APIModule) cacheStatsHandler(c *fiber.Ctx) error {
	if m.cacheStats == nil {
		return fiber.NewError(fiber.StatusNotFound, "cache statistics are not available")
	}
	return c.JSON(m.cacheStats.Stats())
}

// failureResponse maps a store failure onto an HTTP status.
func failureResponse(c *fiber.Ctx, err error) error {
	status, body := failureBody(err)
	return c.Status(status).JSON(body)
}

func failureBody(err error) (int, ErrorResponse) {
	f, ok := tasks.AsFailure(err)
	if !ok {
		return fiber.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		}
	}
	return failureStatus(f.Kind), ErrorResponse{
		Error:   string(f.Kind),
		Message: failureMessage(f),
		TaskID:  f.TaskID,
	}
}

func failureStatus(kind tasks.FailureKind) int {
	switch kind {
	case tasks.KindValidation:
		return fiber.StatusBadRequest
	case tasks.KindNotFound:
		return fiber.StatusNotFound
	case tasks.KindConfiguration:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusBadGateway
	}
}

// failureMessage exposes the cause only for input errors; service-side
// details stay in the logs.
func failureMessage(f *tasks.Failure) string {
	if f.Kind == tasks.KindValidation && f.Err != nil {
		return f.Message() + ": " + strings.TrimPrefix(f.Err.Error(), task.ErrInvalid.Error()+": ")
	}
	switch f.Kind {
	case tasks.KindNotFound:
		return f.Message() + ": task not found"
	case tasks.KindConfiguration:
		return f.Message() + ": task store is not configured"
	}
	return f.Message()
}
