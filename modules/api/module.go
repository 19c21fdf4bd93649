package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/example/task-tracker/internal/metrics"
	"github.com/example/task-tracker/modules/activity"
	"github.com/example/task-tracker/modules/cache"
	"github.com/example/task-tracker/modules/tasks"
)

// StatsSource reports listing cache statistics.
type StatsSource interface {
	Stats() cache.StatsSnapshot
}

// APIModule is the HTTP driving adapter. It reaches the task store and the
// activity log only through their ports.
type APIModule struct {
	port         int
	app          *fiber.App
	taskPort     tasks.TaskPort
	activityPort activity.ActivityPort
	cacheStats   StatsSource
	metrics      *metrics.Metrics
	logger       types.Logger
}

// Compile-time interface checks.
var _ mono.Module = (*APIModule)(nil)
var _ mono.DependentModule = (*APIModule)(nil)
var _ mono.HealthCheckableModule = (*APIModule)(nil)

// Option configures the APIModule.
type Option func(*APIModule)

// WithMetrics serves m on GET /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *APIModule) { a.metrics = m }
}

// WithCacheStats serves s on GET /api/v1/cache/stats.
func WithCacheStats(s StatsSource) Option {
	return func(a *APIModule) { a.cacheStats = s }
}

// NewModule creates an APIModule listening on port.
func NewModule(port int, logger types.Logger, opts ...Option) *APIModule {
	m := &APIModule{
		port:   port,
		logger: logger.WithModule("api"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Name returns the module name.
func (m *APIModule) Name() string {
	return "api"
}

// Dependencies returns the list of module dependencies.
func (m *APIModule) Dependencies() []string {
	return []string{"tasks", "activity"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *APIModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "tasks":
		m.taskPort = tasks.NewTaskAdapter(container)
	case "activity":
		m.activityPort = activity.NewActivityAdapter(container)
	}
}

// Start builds the Fiber app and serves it in the background.
func (m *APIModule) Start(_ context.Context) error {
	if m.taskPort == nil {
		return fmt.Errorf("taskPort dependency not set")
	}
	if m.activityPort == nil {
		return fmt.Errorf("activityPort dependency not set")
	}

	m.app = m.newApp()

	// Server availability is verified via Health().
	go func() {
		if err := m.app.Listen(fmt.Sprintf(":%d", m.port)); err != nil {
			m.logger.WithError(err).Error("HTTP server error")
		}
	}()

	m.logger.Info("HTTP server started", "port", m.port)
	return nil
}

func (m *APIModule) newApp() *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          customErrorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[api] ${time} ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(cors.New())

	m.setupRoutes(app)
	return app
}

// Stop shuts down the Fiber HTTP server.
func (m *APIModule) Stop(ctx context.Context) error {
	if m.app == nil {
		return nil
	}
	m.logger.Info("Shutting down HTTP server")
	return m.app.ShutdownWithContext(ctx)
}

// Health returns the health status of the module.
func (m *APIModule) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: map[string]any{
			"port": m.port,
		},
	}
}

// customErrorHandler handles Fiber errors.
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(ErrorResponse{
		Error:   "server_error",
		Message: message,
	})
}
