package main

import (
	"context"
	"log"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"

	"github.com/example/task-tracker/internal/config"
	"github.com/example/task-tracker/internal/metrics"
	"github.com/example/task-tracker/internal/persistence"
	"github.com/example/task-tracker/modules/activity"
	"github.com/example/task-tracker/modules/api"
	"github.com/example/task-tracker/modules/cache"
	"github.com/example/task-tracker/modules/tasks"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}
	logger := app.Logger()

	m := metrics.New()

	openCtx, cancel := context.WithTimeout(context.Background(), cfg.Store.Timeout)
	backend, err := persistence.Open(openCtx, cfg.Store)
	cancel()
	if err != nil {
		// The store stays reachable as a disconnected backend so the API
		// keeps answering with configuration failures.
		logger.WithError(err).Error("Failed to open task store, running disconnected", "backend", cfg.Store.Backend)
		backend = persistence.Disconnected(err)
	} else if backend.InitErr != nil {
		logger.WithError(backend.InitErr).Warn("Task store unreachable at startup, retrying per request", "backend", backend.Name)
	}

	cacheModule, err := cache.NewModule(cfg.Cache, m, logger)
	if err != nil {
		log.Fatalf("Failed to create cache module: %v", err)
	}

	tasksModule := tasks.NewModule(backend, cacheModule.Cache(), logger, m)

	// Order: independent modules first, then modules with dependencies.
	app.Register(cacheModule)
	app.Register(activity.NewModule(activity.DefaultCapacity, logger))
	app.Register(tasksModule)
	app.Register(api.NewModule(cfg.HTTP.Port, logger,
		api.WithMetrics(m),
		api.WithCacheStats(cacheModule.Cache()),
	))

	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	logger.Info("Task tracker started",
		"env", cfg.Env,
		"store_backend", backend.Name,
		"store_connected", backend.Connected,
		"cache_backend", cfg.Cache.Backend,
		"cache_ttl", cfg.Cache.TTL.String(),
		"http_port", cfg.HTTP.Port)
	logger.Info("REST API endpoints",
		"routes", []string{
			"GET    /api/v1/tasks",
			"POST   /api/v1/tasks",
			"PUT    /api/v1/tasks/:id/completion",
			"DELETE /api/v1/tasks/:id",
			"GET    /api/v1/tasks/summary",
			"GET    /api/v1/activity",
			"GET    /api/v1/cache/stats",
			"GET    /metrics",
			"GET    /health",
		})

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				logger.Info("Graceful shutdown initiated")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	logger.Info("Application exited", "code", exitCode)
	os.Exit(exitCode)
}
