// Package persistence selects and opens the task repository backend.
package persistence

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/example/task-tracker/domain/task"
	"github.com/example/task-tracker/internal/config"
	"github.com/example/task-tracker/internal/persistence/postgres"
	"github.com/example/task-tracker/internal/persistence/rest"
	"github.com/example/task-tracker/internal/persistence/sqlstore"
)

// Backend is an opened repository plus the function releasing its resources.
// InitErr holds a non-fatal startup problem, such as a database that was
// unreachable while opening; calls then fail as transport failures until it
// comes back.
type Backend struct {
	Repository task.Repository
	Name       string
	Connected  bool
	InitErr    error
	close      func() error
}

// Close releases the backend resources. Safe on disconnected backends.
func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// Open builds the repository selected by cfg.Backend. Invalid or missing
// configuration yields a disconnected backend instead of an error, so the
// caller can keep serving and report the problem per operation. Errors are
// returned only when a well-configured backend fails to initialise.
func Open(ctx context.Context, cfg config.StoreConfig) (*Backend, error) {
	if err := cfg.Validate(); err != nil {
		return Disconnected(err), nil
	}

	switch cfg.Backend {
	case config.BackendREST:
		return &Backend{
			Repository: rest.New(rest.Config{
				BaseURL: cfg.URL,
				APIKey:  cfg.Key,
				Table:   cfg.Table,
				Timeout: cfg.Timeout,
			}),
			Name:      config.BackendREST,
			Connected: true,
		}, nil

	case config.BackendPostgres:
		poolCfg, err := pgxpool.ParseConfig(cfg.PostgresDSN)
		if err != nil {
			return Disconnected(fmt.Errorf("%w: %w", config.ErrInvalidURL, err)), nil
		}
		poolCfg.ConnConfig.ConnectTimeout = cfg.Timeout

		pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres pool: %w", err)
		}
		// The pool connects lazily; an unreachable server is retried per call.
		var opts []postgres.Option
		migrateErr := postgres.Migrate(ctx, pool)
		if migrateErr != nil {
			opts = append(opts, postgres.WithLazyMigrate())
		}
		return &Backend{
			Repository: postgres.NewRepository(pool, opts...),
			Name:       config.BackendPostgres,
			Connected:  true,
			InitErr:    migrateErr,
			close: func() error {
				pool.Close()
				return nil
			},
		}, nil

	case config.BackendSQLite:
		db, err := sqlstore.Open(cfg.SQLitePath, cfg.DBDebug)
		if err != nil {
			return nil, err
		}
		return &Backend{
			Repository: sqlstore.NewRepository(db),
			Name:       config.BackendSQLite,
			Connected:  true,
			close:      func() error { return sqlstore.Close(db) },
		}, nil
	}

	return Disconnected(fmt.Errorf("%w: %q", config.ErrUnknownBackend, cfg.Backend)), nil
}

// Disconnected wraps reason in a backend whose every call fails without I/O.
func Disconnected(reason error) *Backend {
	return &Backend{
		Repository: task.Disconnected{Reason: reason},
		Name:       "disconnected",
	}
}
